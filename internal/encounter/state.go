// Package encounter drives a play session: a finite state machine with
// lifecycle hooks, and the Encounter that maps player commands onto it and
// onto the skill pipeline.
package encounter

// StateType is one of the encounter's closed set of states.
type StateType int

const (
	// StateIdle is the initial state: no unit is mid-action.
	StateIdle StateType = iota
	// StateSelectingMove arms the selected unit for movement.
	StateSelectingMove
	// StateVacationStart stages the selected unit for a rest cycle.
	StateVacationStart
	// StatePause is a modal overlay layered on Idle.
	StatePause
	// StateSetting is a modal overlay layered on Idle.
	StateSetting
	// StateVictory ends the encounter in the player's favour.
	StateVictory
	// StateFailure ends the encounter against the player.
	StateFailure
)

// States returns every state in declaration order.
func States() []StateType {
	return []StateType{
		StateIdle, StateSelectingMove, StateVacationStart,
		StatePause, StateSetting, StateVictory, StateFailure,
	}
}

// String returns a human-readable state name.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelectingMove:
		return "selecting_move"
	case StateVacationStart:
		return "vacation_start"
	case StatePause:
		return "pause"
	case StateSetting:
		return "setting"
	case StateVictory:
		return "victory"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Overlay reports whether s is kept as an overlay flag rather than as the
// active gameplay state.
func (s StateType) Overlay() bool {
	return s == StatePause || s == StateSetting
}

// Terminal reports whether s ends the encounter.
func (s StateType) Terminal() bool {
	return s == StateVictory || s == StateFailure
}

// Transitions maps each gameplay state to the states it may move to.
// Overlays are not listed; they are toggled on top of Idle.
type Transitions map[StateType][]StateType

// DefaultTransitions returns the standard encounter flow.
func DefaultTransitions() Transitions {
	return Transitions{
		StateIdle:          {StateSelectingMove, StateVacationStart, StateVictory, StateFailure},
		StateSelectingMove: {StateIdle},
		StateVacationStart: {StateIdle},
		StateVictory:       nil,
		StateFailure:       nil,
	}
}

// Allows reports whether from → to is a legal transition.
func (t Transitions) Allows(from, to StateType) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}
