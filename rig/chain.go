// Package rig turns a bone selection into simulation chains and seeds
// the per-chain state the integrator advances frame by frame.
package rig

import (
	"sort"

	"github.com/pthm-cable/phase/scene"
)

// Chain is a linear run of parent-to-child bones simulated as one unit.
// Depth is the ancestor count of the chain's first bone; shallower chains
// are stepped before deeper ones so a parent chain's motion is visible to
// chains hanging off it within the same frame.
type Chain struct {
	Bones []scene.BoneID
	Depth int
}

// BuildChains partitions the selection into chains.
//
// A selected bone starts a chain when its parent is outside the selection
// or when it is not its parent's first child; side branches therefore
// become chains of their own. Bones without a parent are ignored, since
// the integrator needs a parent matrix to track. Within a chain only
// first children are followed.
func BuildChains(arm scene.Armature, selection []scene.BoneID) []Chain {
	selected := make(map[scene.BoneID]bool, len(selection))
	for _, b := range selection {
		selected[b] = true
	}

	var chains []Chain
	for _, b := range selection {
		parent, ok := arm.Parent(b)
		if !ok {
			continue
		}
		if selected[parent] && arm.Children(parent)[0] == b {
			continue // interior of another chain
		}
		chains = append(chains, Chain{
			Bones: walk(arm, b, selected),
			Depth: depth(arm, b),
		})
	}

	sort.SliceStable(chains, func(i, j int) bool {
		return chains[i].Depth < chains[j].Depth
	})
	return chains
}

// walk collects the chain starting at root: follow first children while
// they stay inside the selection.
func walk(arm scene.Armature, root scene.BoneID, selected map[scene.BoneID]bool) []scene.BoneID {
	tree := []scene.BoneID{root}
	kids := arm.Children(root)
	if len(kids) == 0 {
		return tree
	}
	c := kids[0]
	for selected[c] {
		tree = append(tree, c)
		kids = arm.Children(c)
		if len(kids) == 0 {
			break
		}
		c = kids[0]
	}
	return tree
}

func depth(arm scene.Armature, b scene.BoneID) int {
	d := 0
	for {
		p, ok := arm.Parent(b)
		if !ok {
			return d
		}
		d++
		b = p
	}
}
