// Package combat resolves skill invocations: cost check, accuracy roll,
// burf application or removal, and presentation side effects.
package combat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/entity"
	"github.com/samdwyer/squadcore/internal/formation"
	"github.com/samdwyer/squadcore/internal/gamedata"
	"github.com/samdwyer/squadcore/internal/telemetry"
)

// Combatant is anything that can cast a skill. Units implement it.
type Combatant interface {
	GetID() string
	GetName() string
	GetEnergy() int
	SpendEnergy(amount int) bool
	ConsumeAction()
}

// TraitHolder is implemented by casters with passives. Each trait is
// queried for capabilities such as AccuracyConverter.
type TraitHolder interface {
	Traits() []entity.Trait
}

var (
	ErrReentrant = errors.New("combat: caster is already resolving a skill")
	ErrNoTarget  = errors.New("combat: no target formation")
)

// ResourceError reports that a caster cannot pay for a skill.
type ResourceError struct {
	Caster    string
	Skill     string
	Required  int
	Available int
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s doesn't have enough energy for %s (needs %d, has %d)",
		e.Caster, e.Skill, e.Required, e.Available)
}

// Phase is the progress of a single invocation.
type Phase int

const (
	PhasePending Phase = iota
	PhaseAccuracyChecked
	PhaseApplied
	PhaseMissed
	PhaseFinalized
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseAccuracyChecked:
		return "accuracy_checked"
	case PhaseApplied:
		return "applied"
	case PhaseMissed:
		return "missed"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Mutation is one burf change performed on a target.
type Mutation struct {
	Target  *entity.Unit
	Kind    burf.Kind
	Removed bool // False for an application
}

// Context is the transient record of one invocation.
type Context struct {
	Caster   Combatant
	Skill    Skill
	Targets  []*entity.Unit
	Accuracy float64 // Applied accuracy after conversion
	Roll     float64
	Hit      bool
	Phase    Phase

	// Mutations lists the burf changes actually performed. A refresh that
	// the replace policy rejected is not a mutation.
	Mutations []Mutation

	// Effect is the spawned visual effect, if any. The caller disposes it.
	Effect EffectHandle
}

// MissHandler is notified when an invocation misses. Handlers passed to
// Invoke are only used for that invocation.
type MissHandler func(skill Skill)

// Resolver runs the skill pipeline.
type Resolver struct {
	roller  Roller
	effects EffectSpawner
	audio   AudioPool
	logger  *slog.Logger
	busy    map[string]bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEffects sets the visual-effect spawner.
func WithEffects(s EffectSpawner) Option { return func(r *Resolver) { r.effects = s } }

// WithAudio sets the audio-source pool.
func WithAudio(p AudioPool) Option { return func(r *Resolver) { r.audio = p } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// NewResolver creates a resolver drawing hit rolls from roller.
func NewResolver(roller Roller, opts ...Option) *Resolver {
	r := &Resolver{
		roller: roller,
		logger: slog.Default(),
		busy:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CanUse checks if a caster can pay for a skill.
func (r *Resolver) CanUse(skill Skill, caster Combatant) bool {
	return skill != nil && caster.GetEnergy() >= skill.Cost()
}

// AppliedAccuracy returns the skill's accuracy after the skill, the caster
// and each caster trait had a chance to convert it.
func (r *Resolver) AppliedAccuracy(skill Skill, caster Combatant) float64 {
	accuracy := skill.Accuracy()
	if conv, ok := skill.(AccuracyConverter); ok {
		accuracy = conv.ConvertAccuracy(accuracy)
	}
	if conv, ok := caster.(AccuracyConverter); ok {
		accuracy = conv.ConvertAccuracy(accuracy)
	}
	if holder, ok := caster.(TraitHolder); ok {
		for _, trait := range holder.Traits() {
			if conv, ok := trait.(AccuracyConverter); ok {
				accuracy = conv.ConvertAccuracy(accuracy)
			}
		}
	}
	return accuracy
}

// Targets resolves the units a skill affects in the opposing formation:
// the anchor for single-target skills, every active slot for splash skills.
func (r *Resolver) Targets(skill Skill, target *formation.Squad) []*entity.Unit {
	if !isSplash(skill) {
		return []*entity.Unit{target.Central()}
	}
	slots := target.Compute()
	units := make([]*entity.Unit, len(slots))
	for i, slot := range slots {
		units[i] = slot.Unit
	}
	return units
}

// Invoke resolves skill from caster against the target formation.
//
// An insufficient-energy invocation returns a *ResourceError and changes
// nothing. Otherwise side effects fire, accuracy is computed and rolled
// once, and on a hit every descriptor of the skill is applied to (or, for
// deburf skills, removed from) each target. On a miss no burf changes and
// onMiss handlers run. Either way the cost is deducted and the caster's
// action is consumed.
func (r *Resolver) Invoke(ctx context.Context, caster Combatant, skill Skill, target *formation.Squad, onMiss ...MissHandler) (*Context, error) {
	if skill == nil {
		return nil, fmt.Errorf("%w: nil skill", ErrInvalidSkill)
	}
	if target == nil {
		return nil, ErrNoTarget
	}

	ctx, span := telemetry.Tracer("combat").Start(ctx, "skill.invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("caster", caster.GetName()),
		attribute.String("skill", skill.ID()),
	)

	if r.busy[caster.GetID()] {
		span.SetAttributes(attribute.Bool("reentrant", true))
		return nil, fmt.Errorf("%s: %w", caster.GetName(), ErrReentrant)
	}
	if !r.CanUse(skill, caster) {
		span.SetAttributes(attribute.Bool("insufficient_energy", true))
		return nil, &ResourceError{
			Caster:    caster.GetName(),
			Skill:     skill.Name(),
			Required:  skill.Cost(),
			Available: caster.GetEnergy(),
		}
	}

	r.busy[caster.GetID()] = true
	defer delete(r.busy, caster.GetID())

	rc := &Context{
		Caster:  caster,
		Skill:   skill,
		Targets: r.Targets(skill, target),
		Phase:   PhasePending,
	}

	r.produceSideEffects(rc)

	rc.Accuracy = r.AppliedAccuracy(skill, caster)
	rc.Roll = r.roller.Float64()
	rc.Hit = rc.Roll <= rc.Accuracy
	rc.Phase = PhaseAccuracyChecked

	if rc.Hit {
		r.apply(rc)
		rc.Phase = PhaseApplied
	} else {
		rc.Phase = PhaseMissed
		for _, handle := range onMiss {
			handle(skill)
		}
	}

	caster.SpendEnergy(skill.Cost())
	caster.ConsumeAction()
	rc.Phase = PhaseFinalized

	span.SetAttributes(
		attribute.Float64("accuracy", rc.Accuracy),
		attribute.Float64("roll", rc.Roll),
		attribute.Bool("hit", rc.Hit),
		attribute.Int("targets", len(rc.Targets)),
		attribute.Int("mutations", len(rc.Mutations)),
	)
	r.logger.DebugContext(ctx, "skill resolved",
		"caster", caster.GetName(), "skill", skill.ID(),
		"accuracy", rc.Accuracy, "roll", rc.Roll, "hit", rc.Hit)

	return rc, nil
}

// apply performs the burf changes of a hit.
func (r *Resolver) apply(rc *Context) {
	deburf := isDeburf(rc.Skill)
	for _, target := range rc.Targets {
		for _, d := range rc.Skill.Burfs() {
			var changed bool
			if deburf {
				changed = burf.Remove(target, d.Kind)
			} else {
				changed = burf.Apply(target, d)
			}
			if changed {
				rc.Mutations = append(rc.Mutations, Mutation{Target: target, Kind: d.Kind, Removed: deburf})
			}
		}
	}
}

// produceSideEffects fires optional effect and sound cues.
func (r *Resolver) produceSideEffects(rc *Context) {
	if p, ok := rc.Skill.(EffectProducer); ok && r.effects != nil {
		rc.Effect = r.effects.Spawn(p.EffectCue(), rc.Caster)
	}
	if p, ok := rc.Skill.(SoundProducer); ok && r.audio != nil {
		if source := r.audio.FetchAvailableSource(); source != nil {
			source.PlayOneShot(p.SoundClip())
		}
	}
}

func isDeburf(s Skill) bool {
	t := s.Type()
	return t == gamedata.SkillSingleDeburf || t == gamedata.SkillSplashDeburf
}

func isSplash(s Skill) bool {
	t := s.Type()
	return t == gamedata.SkillSplashBurf || t == gamedata.SkillSplashDeburf
}
