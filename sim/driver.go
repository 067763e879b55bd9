package sim

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pthm-cable/phase/collide"
	"github.com/pthm-cable/phase/forces"
	"github.com/pthm-cable/phase/geom"
	"github.com/pthm-cable/phase/rig"
	"github.com/pthm-cable/phase/scene"
	"github.com/pthm-cable/phase/telemetry"
)

// Host is everything a bake needs from the hosting scene.
type Host interface {
	scene.Armature
	scene.Clock
	scene.KeySink
	scene.Environment
}

// Progress receives (current, total) frame counts during a run.
type Progress func(current, total int)

// Report summarizes a finished run. Collider advisories are informative
// only; a run never fails because of them.
type Report struct {
	Frames           int
	Chains           int
	Bones            int
	SkippedColliders []collide.Advisory
	AutoRegistered   []string
}

// Baker drives one bake run over a host scene.
type Baker struct {
	host      Host
	selection []scene.BoneID
	params    Parameters
	log       *slog.Logger
	progress  Progress
	perf      *telemetry.PerfCollector

	wind     *forces.Wind
	cache    *animCache
	capsules *collide.BoneCapsules
	plane    *collide.Plane
	prims    []collide.Primitive
	fields   []scene.ForceSource
}

// Option configures a Baker.
type Option func(*Baker)

// WithLogger routes run diagnostics to the given logger.
func WithLogger(log *slog.Logger) Option {
	return func(b *Baker) { b.log = log }
}

// WithProgress installs a per-frame progress callback.
func WithProgress(fn Progress) Option {
	return func(b *Baker) { b.progress = fn }
}

// WithPerf records per-frame phase timings into the collector.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(b *Baker) { b.perf = p }
}

// New prepares a bake of the selected bones.
func New(host Host, selection []scene.BoneID, params Parameters, opts ...Option) *Baker {
	wind := params.Wind
	b := &Baker{
		host:      host,
		selection: selection,
		params:    params,
		log:       slog.Default(),
		wind:      &wind,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes the bake: cache prior animation, clear keys, initialize
// chain state and collider caches, then advance frame by frame writing
// keys. Cancellation is honored at frame boundaries.
func (b *Baker) Run(ctx context.Context) (*Report, error) {
	p := &b.params
	if err := p.Validate(); err != nil {
		return nil, err
	}
	host := b.host

	host.SetFrame(p.StartFrame)
	host.Flush()

	chains := rig.BuildChains(host, b.selection)
	if len(chains) == 0 {
		b.log.Warn("no simulatable chains in selection", "selected", len(b.selection))
		return &Report{}, nil
	}
	bones := uniqueBones(chains)
	b.log.Info("bake starting",
		"chains", len(chains),
		"bones", len(bones),
		"start", p.StartFrame,
		"end", p.EndFrame,
		"substeps", max(1, p.SubSteps),
		"weight", p.BakeWeight,
		"mode", p.BakeMode.String(),
	)

	report := &Report{
		Frames: p.EndFrame - p.StartFrame,
		Chains: len(chains),
		Bones:  len(bones),
	}

	// Existing animation must be captured before keys are cleared.
	// With blending active the old keys stay in place and are
	// overwritten frame by frame.
	if p.blending() {
		b.cache = buildAnimCache(host, bones, p.StartFrame, p.EndFrame)
	} else {
		b.deleteKeys(bones)
	}

	host.SetFrame(p.StartFrame)
	host.Flush()
	for _, bone := range bones {
		b.writeKey(bone)
	}

	if b.perf != nil {
		b.perf.StartTick()
		b.perf.StartPhase(telemetry.PhasePrepass)
	}
	states := make([]*rig.State, len(chains))
	for i, ch := range chains {
		states[i] = rig.InitState(host, ch)
	}
	b.buildColliderCaches(bones, report)
	if b.perf != nil {
		b.perf.EndTick()
	}

	subSteps := max(1, p.SubSteps)
	dtScale := 1.0 / float64(subSteps)
	total := p.EndFrame - p.StartFrame

	for idx, f := 0, p.StartFrame+1; f <= p.EndFrame; idx, f = idx+1, f+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b.perf != nil {
			b.perf.StartTick()
			b.perf.StartPhase(telemetry.PhaseFlush)
		}
		host.SetFrame(f)
		host.Flush()

		if b.perf != nil {
			b.perf.StartPhase(telemetry.PhaseStep)
		}
		for s := 0; s < subSteps; s++ {
			insertKey := s == subSteps-1
			for ci := range chains {
				b.stepChain(chains[ci], states[ci], dtScale, insertKey)
			}
		}
		if b.perf != nil {
			b.perf.EndTick()
		}
		if b.progress != nil && total > 0 {
			b.progress(idx+1, total)
		}
	}

	if p.Loop {
		b.matchEndToStart(bones)
	}

	b.log.Info("bake finished", "frames", report.Frames)
	return report, nil
}

// buildColliderCaches resolves the collision feature set once per run.
// Missing or degenerate references disable their feature with an
// advisory instead of failing the bake.
func (b *Baker) buildColliderCaches(bones []scene.BoneID, report *Report) {
	p := &b.params
	if p.UseCollision {
		b.capsules = collide.NewBoneCapsules(b.host, bones, p.CollisionMargin, p.CollisionLengthOffset)
	}
	if p.UseSceneFields {
		b.fields = b.host.Fields()
	}
	if p.UseCollisionPlane {
		if obj, ok := b.host.PlaneObject(); ok {
			if pl, valid := collide.PlaneFromObject(obj); valid {
				b.plane = &pl
			} else {
				b.log.Warn("collision plane has a degenerate normal, feature disabled")
			}
		} else {
			b.log.Warn("collision plane object unset, feature disabled")
		}
	}
	if p.UseCollisionPrimitives {
		prims, skipped, registered := collide.BuildPrimitives(b.host.Colliders(), p.AutoRegisterColliders)
		b.prims = prims
		report.SkippedColliders = skipped
		report.AutoRegistered = registered
		for _, adv := range skipped {
			b.log.Warn("collider skipped", "name", adv.Name, "reason", adv.Reason)
		}
		for _, name := range registered {
			b.log.Info("collider auto-registered", "name", name)
		}
	}
}

// deleteKeys clears the frame range plus one frame of lead-in. Frames
// without keys are silently skipped.
func (b *Baker) deleteKeys(bones []scene.BoneID) {
	for _, bone := range bones {
		for f := b.params.StartFrame - 1; f <= b.params.EndFrame; f++ {
			b.host.DeleteKey(bone, f)
		}
	}
}

// matchEndToStart copies the start-frame pose onto the end frame so the
// baked range loops seamlessly.
func (b *Baker) matchEndToStart(bones []scene.BoneID) {
	host := b.host
	host.SetFrame(b.params.StartFrame)
	host.Flush()
	startMats := make([]geom.Transform, len(bones))
	for i, bone := range bones {
		startMats[i] = host.Matrix(bone)
	}

	host.SetFrame(b.params.EndFrame)
	host.Flush()
	for i, bone := range bones {
		host.SetMatrix(bone, startMats[i])
		b.writeKey(bone)
	}
}

// uniqueBones flattens chains into declaration order, which is
// topological: parents come before children.
func uniqueBones(chains []rig.Chain) []scene.BoneID {
	seen := make(map[scene.BoneID]bool)
	var out []scene.BoneID
	for _, ch := range chains {
		for _, b := range ch.Bones {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
