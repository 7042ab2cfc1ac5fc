package entity

import "github.com/samdwyer/squadcore/internal/gamedata"

// Trait is an always-on passive. Traits expose optional capabilities by
// implementing further interfaces, such as accuracy conversion.
type Trait interface {
	TraitName() string
}

// AccuracyPassive converts a skill's base accuracy as accuracy*Scale + Bonus,
// clamped to [0, 1].
type AccuracyPassive struct {
	ID    string
	Name  string
	Scale float64
	Bonus float64
}

// NewAccuracyPassive creates a passive from its definition. A zero scale is
// treated as 1 so bonus-only passives can omit it.
func NewAccuracyPassive(def gamedata.PassiveDef) *AccuracyPassive {
	scale := def.Scale
	if scale == 0 {
		scale = 1
	}
	return &AccuracyPassive{ID: def.ID, Name: def.Name, Scale: scale, Bonus: def.Bonus}
}

// TraitName returns the passive's display name.
func (p *AccuracyPassive) TraitName() string { return p.Name }

// ConvertAccuracy applies the passive to accuracy.
func (p *AccuracyPassive) ConvertAccuracy(accuracy float64) float64 {
	converted := accuracy*p.Scale + p.Bonus
	switch {
	case converted < 0:
		return 0
	case converted > 1:
		return 1
	default:
		return converted
	}
}
