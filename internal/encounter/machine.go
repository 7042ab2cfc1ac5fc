package encounter

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("encounter: invalid transition")
	ErrNotStarted        = errors.New("encounter: machine not started")
)

// Hook selects which lifecycle point of a state a callback observes.
type Hook int

const (
	HookEnter Hook = iota
	HookUpdate
	HookExit
)

// String returns a human-readable hook name.
func (h Hook) String() string {
	switch h {
	case HookEnter:
		return "enter"
	case HookUpdate:
		return "update"
	case HookExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Callback is invoked with the state whose hook fired.
type Callback func(state StateType)

// Subscription is a registered callback. Cancel may be called at any time,
// including from inside the callback itself.
type Subscription struct {
	cancel func()
}

// Cancel unregisters the callback. Calling it twice is harmless.
func (s *Subscription) Cancel() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

type hookKey struct {
	state StateType
	hook  Hook
}

type hookEntry struct {
	fn        Callback
	cancelled bool
}

// Machine holds exactly one active gameplay state plus the Pause and
// Setting overlay flags. All changes go through Start, Transition,
// SetOverlay, Toggle and Reset.
type Machine struct {
	transitions Transitions
	current     StateType
	started     bool
	overlays    map[StateType]bool
	hooks       map[hookKey][]*hookEntry
}

// NewMachine creates a machine using the given transition table. A nil
// table selects DefaultTransitions.
func NewMachine(transitions Transitions) *Machine {
	if transitions == nil {
		transitions = DefaultTransitions()
	}
	return &Machine{
		transitions: transitions,
		current:     StateIdle,
		overlays:    make(map[StateType]bool),
		hooks:       make(map[hookKey][]*hookEntry),
	}
}

// Current returns the active gameplay state.
func (m *Machine) Current() StateType { return m.current }

// Started reports whether Start has run.
func (m *Machine) Started() bool { return m.started }

// Overlay reports whether the Pause or Setting overlay is on.
func (m *Machine) Overlay(s StateType) bool { return m.overlays[s] }

// Overlaid reports whether any overlay is on.
func (m *Machine) Overlaid() bool {
	for _, on := range m.overlays {
		if on {
			return true
		}
	}
	return false
}

// On registers fn for a state's hook. Callbacks run synchronously in
// registration order.
func (m *Machine) On(state StateType, hook Hook, fn Callback) *Subscription {
	key := hookKey{state, hook}
	entry := &hookEntry{fn: fn}
	m.hooks[key] = append(m.hooks[key], entry)
	return &Subscription{cancel: func() {
		entry.cancelled = true
		entries := m.hooks[key]
		for i, e := range entries {
			if e == entry {
				m.hooks[key] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
	}}
}

// fire dispatches over a snapshot so callbacks may add or cancel
// subscriptions. Entries cancelled mid-dispatch are skipped.
func (m *Machine) fire(state StateType, hook Hook) {
	snapshot := append([]*hookEntry(nil), m.hooks[hookKey{state, hook}]...)
	for _, e := range snapshot {
		if e.cancelled {
			continue
		}
		e.fn(state)
	}
}

// Start enters the initial Idle state.
func (m *Machine) Start() error {
	if m.started {
		return fmt.Errorf("%w: already started", ErrInvalidTransition)
	}
	m.started = true
	m.current = StateIdle
	m.fire(StateIdle, HookEnter)
	return nil
}

// Transition leaves the current state and enters to. Exit hooks of the old
// state run before enter hooks of the new one. Transitions are refused while
// an overlay is on and after a terminal state.
func (m *Machine) Transition(to StateType) error {
	if !m.started {
		return ErrNotStarted
	}
	if to.Overlay() {
		return fmt.Errorf("%w: %s is an overlay", ErrInvalidTransition, to)
	}
	if m.Overlaid() {
		return fmt.Errorf("%w: %s -> %s while overlaid", ErrInvalidTransition, m.current, to)
	}
	if !m.transitions.Allows(m.current, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
	}
	from := m.current
	m.fire(from, HookExit)
	m.current = to
	m.fire(to, HookEnter)
	return nil
}

// Update fires update hooks for the active state, then for each overlay
// that is on.
func (m *Machine) Update() {
	if !m.started {
		return
	}
	m.fire(m.current, HookUpdate)
	for _, s := range []StateType{StatePause, StateSetting} {
		if m.overlays[s] {
			m.fire(s, HookUpdate)
		}
	}
}

// SetOverlay turns an overlay on or off. Overlays may only be turned on
// while Idle. Setting a flag to its current value is a no-op.
func (m *Machine) SetOverlay(overlay StateType, on bool) error {
	if !m.started {
		return ErrNotStarted
	}
	if !overlay.Overlay() {
		return fmt.Errorf("%w: %s is not an overlay", ErrInvalidTransition, overlay)
	}
	if m.overlays[overlay] == on {
		return nil
	}
	if on && m.current != StateIdle {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, overlay, m.current)
	}
	m.overlays[overlay] = on
	if on {
		m.fire(overlay, HookEnter)
	} else {
		m.fire(overlay, HookExit)
	}
	return nil
}

// Toggle flips an overlay: on if it was off, off if it was on.
func (m *Machine) Toggle(overlay StateType) error {
	return m.SetOverlay(overlay, !m.overlays[overlay])
}

// Reset clears every overlay and returns to Idle from any state, running
// the exit and enter hooks on the way. It is the only way out of a terminal
// state.
func (m *Machine) Reset() {
	if !m.started {
		_ = m.Start()
		return
	}
	for _, s := range []StateType{StatePause, StateSetting} {
		if m.overlays[s] {
			m.overlays[s] = false
			m.fire(s, HookExit)
		}
	}
	m.fire(m.current, HookExit)
	m.current = StateIdle
	m.fire(StateIdle, HookEnter)
}
