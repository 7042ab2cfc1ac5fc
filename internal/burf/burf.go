// Package burf provides timed status effects ("burfs") and the container
// that holds them on a unit.
package burf

import (
	"errors"
	"fmt"
)

// Kind identifies a status effect. The set is closed; a unit holds at most
// one instance per kind.
type Kind string

const (
	KindNone         Kind = ""
	KindDamageSplash Kind = "damage_splash"
	KindHeal         Kind = "heal"
	KindOverwhelming Kind = "overwhelming"
	KindMovable      Kind = "movable" // Movement lock
)

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDamageSplash, KindHeal, KindOverwhelming, KindMovable}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the kind identifier.
func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

var (
	ErrUnknownKind       = errors.New("burf: unknown kind")
	ErrNegativeMagnitude = errors.New("burf: negative magnitude")
	ErrNegativeDuration  = errors.New("burf: negative duration")
)

// Descriptor is the immutable template of a status effect.
type Descriptor struct {
	Kind      Kind `json:"kind"`
	Magnitude int  `json:"magnitude"`
	Duration  int  `json:"duration"` // Base duration in turns

	// Persistent descriptors never expire by ticking. Formation roles use
	// them; they are removed explicitly when the role is lost.
	Persistent bool `json:"persistent,omitempty"`
}

// NewDescriptor creates a validated descriptor.
func NewDescriptor(kind Kind, magnitude, duration int) (Descriptor, error) {
	d := Descriptor{Kind: kind, Magnitude: magnitude, Duration: duration}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the descriptor kind and that magnitude and duration are
// not negative.
func (d Descriptor) Validate() error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(d.Kind))
	}
	if d.Magnitude < 0 {
		return fmt.Errorf("%w: %s has magnitude %d", ErrNegativeMagnitude, d.Kind, d.Magnitude)
	}
	if d.Duration < 0 {
		return fmt.Errorf("%w: %s has duration %d", ErrNegativeDuration, d.Kind, d.Duration)
	}
	return nil
}

// Instantiate returns a fresh runtime instance of the descriptor.
func (d Descriptor) Instantiate() Instance {
	return Instance{
		Kind:           d.Kind,
		Magnitude:      d.Magnitude,
		RemainingTurns: d.Duration,
		Persistent:     d.Persistent,
	}
}

// Instance is a descriptor attached to one unit. Instances are plain values;
// every attachment gets its own copy.
type Instance struct {
	Kind           Kind
	Magnitude      int
	RemainingTurns int
	Persistent     bool
}

// outlasts reports whether i should replace existing. Equal lengths keep
// the existing instance.
func (i Instance) outlasts(existing Instance) bool {
	switch {
	case existing.Persistent:
		return false
	case i.Persistent:
		return true
	default:
		return i.RemainingTurns > existing.RemainingTurns
	}
}

// TickReport says what happened to one instance during a Status.Tick.
type TickReport struct {
	Kind      Kind
	Magnitude int
	Ended     bool // True if the instance expired and was removed
}
