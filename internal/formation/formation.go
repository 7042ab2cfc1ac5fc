// Package formation maps a squad onto its archetype's relative grid offsets
// and keeps formation role burfs on its members.
package formation

import (
	"errors"
	"fmt"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

// Offset is a grid coordinate relative to the central unit.
type Offset struct {
	X, Y int
}

// Role is a unit's place in a formation.
type Role int

const (
	RoleNone Role = iota
	RoleCentral
	RolePeripheral
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleCentral:
		return "central"
	case RolePeripheral:
		return "peripheral"
	default:
		return "none"
	}
}

var (
	ErrCapacityExceeded = errors.New("formation: squad exceeds offset capacity")
	ErrNoCentral        = errors.New("formation: squad has no central unit")
	ErrDuplicateUnit    = errors.New("formation: unit already in squad")
	ErrUnknownUnit      = errors.New("formation: unit not in squad")
	ErrCentralRemoval   = errors.New("formation: central unit cannot leave its squad")
	ErrBadArchetype     = errors.New("formation: invalid archetype")
)

// Archetype is the fixed shape of a squad. Offsets[0] belongs to the central
// unit; the rest are handed to peripheral units in squad order.
type Archetype struct {
	ID         string
	Name       string
	Offsets    []Offset
	Central    burf.Descriptor // Role burf for the central unit
	Peripheral burf.Descriptor // Role burf for every peripheral unit
}

// NewArchetype validates and creates an archetype.
func NewArchetype(id, name string, offsets []Offset, central, peripheral burf.Descriptor) (Archetype, error) {
	if len(offsets) == 0 {
		return Archetype{}, fmt.Errorf("%w: %s has no offsets", ErrBadArchetype, id)
	}
	seen := make(map[Offset]bool, len(offsets))
	for _, o := range offsets {
		if seen[o] {
			return Archetype{}, fmt.Errorf("%w: %s repeats offset %v", ErrBadArchetype, id, o)
		}
		seen[o] = true
	}
	for _, d := range []burf.Descriptor{central, peripheral} {
		if err := d.Validate(); err != nil {
			return Archetype{}, fmt.Errorf("%w: %s: %w", ErrBadArchetype, id, err)
		}
	}
	return Archetype{
		ID:         id,
		Name:       name,
		Offsets:    append([]Offset(nil), offsets...),
		Central:    central,
		Peripheral: peripheral,
	}, nil
}

// ArchetypeFromDef builds an archetype from a formation definition. The
// definition's first burf is the central role, the second the peripheral.
func ArchetypeFromDef(def *gamedata.FormationDef) (Archetype, error) {
	if len(def.Burfs) < 2 {
		return Archetype{}, fmt.Errorf("%w: %s needs central and peripheral burfs", ErrBadArchetype, def.ID)
	}
	offsets := make([]Offset, len(def.Offsets))
	for i, o := range def.Offsets {
		offsets[i] = Offset{X: o.X, Y: o.Y}
	}
	return NewArchetype(def.ID, def.Name, offsets, def.Burfs[0], def.Burfs[1])
}

// Capacity returns the number of units the archetype can place.
func (a Archetype) Capacity() int {
	return len(a.Offsets)
}

func (a Archetype) descriptor(role Role) (burf.Descriptor, bool) {
	switch role {
	case RoleCentral:
		return a.Central, true
	case RolePeripheral:
		return a.Peripheral, true
	default:
		return burf.Descriptor{}, false
	}
}
