package scene

import (
	"sort"

	"github.com/pthm-cable/phase/geom"
)

// key is one keyframe on a bone's channel set.
type key struct {
	frame int
	ch    Channels
}

// curve is a sorted sequence of keys for one bone. Sampling between keys
// interpolates linearly (slerp for rotations), matching a host's default
// curve evaluation closely enough for caching and blending.
type curve struct {
	entries []key
}

func (c *curve) search(frame int) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].frame >= frame
	})
	return i, i < len(c.entries) && c.entries[i].frame == frame
}

func (c *curve) insert(frame int, ch Channels) {
	i, exists := c.search(frame)
	if exists {
		c.entries[i].ch = ch
		return
	}
	c.entries = append(c.entries, key{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = key{frame: frame, ch: ch}
}

func (c *curve) remove(frame int) {
	if i, exists := c.search(frame); exists {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	}
}

func (c *curve) sample(frame int) (Channels, bool) {
	if len(c.entries) == 0 {
		return Channels{}, false
	}
	i, exact := c.search(frame)
	if exact {
		return c.entries[i].ch, true
	}
	if i == 0 {
		return c.entries[0].ch, true
	}
	if i == len(c.entries) {
		return c.entries[len(c.entries)-1].ch, true
	}
	lo, hi := c.entries[i-1], c.entries[i]
	t := float64(frame-lo.frame) / float64(hi.frame-lo.frame)
	return lerpChannels(lo.ch, hi.ch, t), true
}

func lerpChannels(a, b Channels, t float64) Channels {
	rot := geom.Slerp(a.RotQuat, b.RotQuat, t)
	return Channels{
		Loc:      geom.Lerp(a.Loc, b.Loc, t),
		RotQuat:  rot,
		RotEuler: geom.QuatToEuler(rot),
		Scale:    geom.Lerp(a.Scale, b.Scale, t),
	}
}
