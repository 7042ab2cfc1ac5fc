package combat

import (
	"errors"
	"fmt"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

// ErrInvalidSkill is returned for skill definitions that cannot be invoked.
var ErrInvalidSkill = errors.New("combat: invalid skill")

// Skill is a stateless ability template. Invoking a skill never mutates it.
type Skill interface {
	ID() string
	Name() string
	Type() gamedata.SkillType
	Technique() gamedata.TechType
	Animation() string
	Cost() int
	MaxLevel() int
	Accuracy() float64
	Burfs() []burf.Descriptor
}

// =============================================================================
// Optional capabilities
// =============================================================================
//
// The resolver checks skills, casters and caster traits for these and calls
// through only when present.

// AccuracyConverter may adjust a skill's accuracy before the hit roll.
type AccuracyConverter interface {
	ConvertAccuracy(accuracy float64) float64
}

// EffectProducer may spawn a visual effect anchored at the caster.
type EffectProducer interface {
	EffectCue() string
}

// SoundProducer may play a one-shot sound.
type SoundProducer interface {
	SoundClip() string
}

// Template is the data-driven Skill built from a SkillDef.
type Template struct {
	def   gamedata.SkillDef
	burfs []burf.Descriptor
}

// NewSkill validates def and returns the invocable skill. Skills with an
// effect or sound cue also satisfy EffectProducer or SoundProducer.
func NewSkill(def gamedata.SkillDef) (Skill, error) {
	if !def.Type.Valid() {
		return nil, fmt.Errorf("%w: %s has type %q", ErrInvalidSkill, def.ID, def.Type)
	}
	if def.Cost < 0 {
		return nil, fmt.Errorf("%w: %s has negative cost %d", ErrInvalidSkill, def.ID, def.Cost)
	}
	if def.MaxLevel < 1 {
		return nil, fmt.Errorf("%w: %s has max level %d", ErrInvalidSkill, def.ID, def.MaxLevel)
	}
	if def.Accuracy < 0 || def.Accuracy > 1 {
		return nil, fmt.Errorf("%w: %s has accuracy %v", ErrInvalidSkill, def.ID, def.Accuracy)
	}
	if len(def.Burfs) == 0 {
		return nil, fmt.Errorf("%w: %s has no burfs", ErrInvalidSkill, def.ID)
	}
	for _, d := range def.Burfs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSkill, def.ID, err)
		}
	}

	t := &Template{def: def, burfs: append([]burf.Descriptor(nil), def.Burfs...)}
	switch {
	case def.Effect != "" && def.Sound != "":
		return &cuedSkill{t}, nil
	case def.Effect != "":
		return &effectSkill{t}, nil
	case def.Sound != "":
		return &soundSkill{t}, nil
	}
	return t, nil
}

func (t *Template) ID() string                   { return t.def.ID }
func (t *Template) Name() string                 { return t.def.Name }
func (t *Template) Type() gamedata.SkillType     { return t.def.Type }
func (t *Template) Technique() gamedata.TechType { return t.def.Technique }
func (t *Template) Animation() string            { return t.def.Animation }
func (t *Template) Cost() int                    { return t.def.Cost }
func (t *Template) MaxLevel() int                { return t.def.MaxLevel }
func (t *Template) Accuracy() float64            { return t.def.Accuracy }

// Burfs returns a copy of the skill's descriptors.
func (t *Template) Burfs() []burf.Descriptor {
	return append([]burf.Descriptor(nil), t.burfs...)
}

type effectSkill struct{ *Template }

func (s *effectSkill) EffectCue() string { return s.def.Effect }

type soundSkill struct{ *Template }

func (s *soundSkill) SoundClip() string { return s.def.Sound }

type cuedSkill struct{ *Template }

func (s *cuedSkill) EffectCue() string { return s.def.Effect }
func (s *cuedSkill) SoundClip() string { return s.def.Sound }

// Book holds the invocable skills built from a registry.
type Book struct {
	skills map[string]Skill
}

// NewBook builds every skill in the registry. Any invalid definition fails
// the whole book.
func NewBook(registry *gamedata.SkillRegistry) (*Book, error) {
	b := &Book{skills: make(map[string]Skill, registry.Count())}
	for _, def := range registry.All() {
		s, err := NewSkill(def)
		if err != nil {
			return nil, err
		}
		b.skills[def.ID] = s
	}
	return b, nil
}

// Get returns the skill with the given id, or nil.
func (b *Book) Get(id string) Skill {
	return b.skills[id]
}
