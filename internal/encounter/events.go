package encounter

import (
	"github.com/samdwyer/squadcore/internal/combat"
	"github.com/samdwyer/squadcore/internal/entity"
)

// EventType identifies an outbound notification.
type EventType int

const (
	EventInterfaceSync EventType = iota
	EventUnitSelected
	EventMoveStarted
	EventActionStarted
	EventActionFinished
	EventSkillMissed
	EventSkillResolved
	EventFormationChanged
	EventTurnAdvanced
	EventStateEntered
	EventStateUpdated
	EventStateExited
	EventVictory
	EventFailure
)

// String returns a human-readable event name.
func (t EventType) String() string {
	switch t {
	case EventInterfaceSync:
		return "interface_sync"
	case EventUnitSelected:
		return "unit_selected"
	case EventMoveStarted:
		return "move_started"
	case EventActionStarted:
		return "action_started"
	case EventActionFinished:
		return "action_finished"
	case EventSkillMissed:
		return "skill_missed"
	case EventSkillResolved:
		return "skill_resolved"
	case EventFormationChanged:
		return "formation_changed"
	case EventTurnAdvanced:
		return "turn_advanced"
	case EventStateEntered:
		return "state_entered"
	case EventStateUpdated:
		return "state_updated"
	case EventStateExited:
		return "state_exited"
	case EventVictory:
		return "victory"
	case EventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event is delivered to presentation listeners. Only the fields relevant to
// the event type are set.
type Event struct {
	Type     EventType
	State    StateType       // State events
	Unit     *entity.Unit    // Unit and action events
	Skill    combat.Skill    // Skill events
	Result   *combat.Context // EventSkillResolved
	Side     Side            // EventFormationChanged
	Turn     int             // EventTurnAdvanced
	Messages []string        // Victory and failure
}

// Listener receives encounter events.
type Listener func(Event)

type busEntry struct {
	fn        Listener
	cancelled bool
}

// bus is an ordered listener list with snapshot dispatch.
type bus struct {
	entries []*busEntry
}

func (b *bus) subscribe(fn Listener) *Subscription {
	entry := &busEntry{fn: fn}
	b.entries = append(b.entries, entry)
	return &Subscription{cancel: func() {
		entry.cancelled = true
		for i, e := range b.entries {
			if e == entry {
				b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
				break
			}
		}
	}}
}

func (b *bus) emit(ev Event) {
	snapshot := append([]*busEntry(nil), b.entries...)
	for _, e := range snapshot {
		if e.cancelled {
			continue
		}
		e.fn(ev)
	}
}
