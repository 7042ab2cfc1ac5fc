// Package entity provides squad units and their per-turn lifecycle.
package entity

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

// Activity is a unit's position in its turn lifecycle.
type Activity int

const (
	// ActivityIdle - may act this turn
	ActivityIdle Activity = iota
	// ActivityActing - a skill or move is in progress
	ActivityActing
	// ActivityFinished - has acted this turn
	ActivityFinished
	// ActivityVacation - suspended from turns until explicitly returned
	ActivityVacation
)

// String returns a human-readable activity name.
func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivityActing:
		return "acting"
	case ActivityFinished:
		return "finished"
	case ActivityVacation:
		return "vacation"
	default:
		return "unknown"
	}
}

var (
	ErrNotIdle       = errors.New("unit is not idle")
	ErrNotOnVacation = errors.New("unit is not on vacation")
)

// Unit is a squad member.
type Unit struct {
	ID      string // Unique instance id
	ClassID string // Unit definition id (e.g., "backend")
	Name    string
	Symbol  rune
	Color   tcell.Color

	Health, MaxHealth int
	Energy, MaxEnergy int
	RestRecovery      int // Energy restored per rested day

	Loadout  []gamedata.SkillSlot
	Passives []Trait

	central       bool
	activity      Activity
	vacationStart int
	status        *burf.Status
}

// NewUnit creates a unit with default stats and an empty loadout.
func NewUnit(name string, symbol rune) *Unit {
	return &Unit{
		ID:        uuid.NewString(),
		Name:      name,
		Symbol:    symbol,
		Color:     tcell.ColorWhite,
		Health:    20,
		MaxHealth: 20,
		Energy:    10,
		MaxEnergy: 10,
		status:    burf.NewStatus(),
	}
}

// NewUnitFromDef creates a unit from a data-driven definition.
func NewUnitFromDef(def *gamedata.UnitDef) *Unit {
	u := NewUnit(def.Name, def.SymbolRune())
	u.ClassID = def.ID
	u.Color = def.TCellColor()
	u.Health = def.Health
	u.MaxHealth = def.Health
	u.Energy = def.Energy
	u.MaxEnergy = def.Energy
	u.RestRecovery = def.RestRecovery
	u.Loadout = make([]gamedata.SkillSlot, len(def.Skills))
	copy(u.Loadout, def.Skills)
	for _, p := range def.Passives {
		u.Passives = append(u.Passives, NewAccuracyPassive(p))
	}
	return u
}

// String identifies the unit in logs.
func (u *Unit) String() string {
	id := u.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s(%s)", u.Name, id)
}

// =============================================================================
// Formation role
// =============================================================================

// IsCentral reports whether the unit anchors its squad's formation.
func (u *Unit) IsCentral() bool { return u.central }

// SetCentral marks or clears the formation anchor flag. Only the squad that
// owns the unit should call this.
func (u *Unit) SetCentral(central bool) { u.central = central }

// =============================================================================
// Turn lifecycle
// =============================================================================

// Activity returns the unit's current activity.
func (u *Unit) Activity() Activity { return u.activity }

// CanAct reports whether the unit may start an action this turn.
func (u *Unit) CanAct() bool { return u.activity == ActivityIdle }

// OnVacation reports whether the unit is suspended from turns.
func (u *Unit) OnVacation() bool { return u.activity == ActivityVacation }

// BeginAction moves an idle unit into the acting state.
func (u *Unit) BeginAction() error {
	if u.activity != ActivityIdle {
		return fmt.Errorf("%s: %w (%s)", u.Name, ErrNotIdle, u.activity)
	}
	u.activity = ActivityActing
	return nil
}

// ConsumeAction marks the unit's action for this turn as used. Idle units
// go straight to finished.
func (u *Unit) ConsumeAction() {
	if u.activity == ActivityIdle || u.activity == ActivityActing {
		u.activity = ActivityFinished
	}
}

// FinishAction ends an action. Units on vacation stay suspended.
func (u *Unit) FinishAction() {
	if u.activity != ActivityVacation {
		u.activity = ActivityFinished
	}
}

// ResetTurn makes a finished unit idle again for the next turn.
func (u *Unit) ResetTurn() {
	if u.activity == ActivityFinished || u.activity == ActivityActing {
		u.activity = ActivityIdle
	}
}

// StartVacation suspends an idle unit, remembering the day it left.
func (u *Unit) StartVacation(day int) error {
	if u.activity != ActivityIdle {
		return fmt.Errorf("%s: %w (%s)", u.Name, ErrNotIdle, u.activity)
	}
	u.activity = ActivityVacation
	u.vacationStart = day
	return nil
}

// ReturnFromVacation ends the rest cycle and restores energy for every day
// spent away. Returns the energy actually restored.
func (u *Unit) ReturnFromVacation(elapsedDays int) (int, error) {
	if u.activity != ActivityVacation {
		return 0, fmt.Errorf("%s: %w", u.Name, ErrNotOnVacation)
	}
	rested := elapsedDays - u.vacationStart
	if rested < 0 {
		rested = 0
	}
	u.activity = ActivityIdle
	return u.RestoreEnergy(rested * u.RestRecovery), nil
}

// VacationStartDay returns the day the current rest cycle began.
func (u *Unit) VacationStartDay() int { return u.vacationStart }

// =============================================================================
// Resources
// =============================================================================

// GetName returns the unit's name.
func (u *Unit) GetName() string { return u.Name }

// GetID returns the unit's instance id.
func (u *Unit) GetID() string { return u.ID }

// GetEnergy returns current energy.
func (u *Unit) GetEnergy() int { return u.Energy }

// SpendEnergy reduces energy and returns false if insufficient.
func (u *Unit) SpendEnergy(amount int) bool {
	if u.Energy < amount {
		return false
	}
	u.Energy -= amount
	return true
}

// RestoreEnergy restores energy and returns the actual amount restored.
func (u *Unit) RestoreEnergy(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if u.Energy+actual > u.MaxEnergy {
		actual = u.MaxEnergy - u.Energy
	}
	u.Energy += actual
	return actual
}

// Heal restores health and returns the actual amount healed.
func (u *Unit) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := amount
	if u.Health+actual > u.MaxHealth {
		actual = u.MaxHealth - u.Health
	}
	u.Health += actual
	return actual
}

// =============================================================================
// Skills and burfs
// =============================================================================

// Knows reports whether skillID is in the unit's loadout.
func (u *Unit) Knows(skillID string) bool {
	return u.SkillLevel(skillID) > 0
}

// SkillLevel returns the learned level of skillID, or 0.
func (u *Unit) SkillLevel(skillID string) int {
	for _, slot := range u.Loadout {
		if slot.ID == skillID {
			return slot.Level
		}
	}
	return 0
}

// BurfStatus returns the unit's status container.
func (u *Unit) BurfStatus() *burf.Status {
	if u.status == nil {
		u.status = burf.NewStatus()
	}
	return u.status
}

// TickBurfs advances the unit's burfs by one turn and resolves
// heal-over-time. Call once per unit per elapsed turn.
func (u *Unit) TickBurfs() []burf.TickReport {
	ticks := burf.Tick(u)
	for i, tick := range ticks {
		if tick.Kind == burf.KindHeal {
			ticks[i].Magnitude = u.Heal(tick.Magnitude)
		}
	}
	return ticks
}

// Traits returns the unit's passives. Callers query each trait for the
// capabilities they need.
func (u *Unit) Traits() []Trait {
	return u.Passives
}

// Ensure Unit holds burfs.
var _ burf.Holder = (*Unit)(nil)
