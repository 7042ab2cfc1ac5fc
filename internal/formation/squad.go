package formation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/entity"
	"github.com/samdwyer/squadcore/internal/telemetry"
)

// Slot is one unit's placement in a computed formation.
type Slot struct {
	Unit   *entity.Unit
	Offset Offset
	Role   Role
}

// Squad is an ordered set of units anchored at one central unit.
type Squad struct {
	Name      string
	archetype Archetype
	units     []*entity.Unit // Central first, peripherals in join order
	holders   map[*entity.Unit]Role
}

// NewSquad creates a squad. Exceeding the archetype's capacity is a
// configuration error; nothing is truncated.
func NewSquad(name string, archetype Archetype, central *entity.Unit, peripherals ...*entity.Unit) (*Squad, error) {
	if central == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoCentral)
	}
	if len(peripherals) > archetype.Capacity()-1 {
		return nil, fmt.Errorf("%s: %w (%d peripherals, %s holds %d)",
			name, ErrCapacityExceeded, len(peripherals), archetype.ID, archetype.Capacity()-1)
	}

	s := &Squad{
		Name:      name,
		archetype: archetype,
		units:     []*entity.Unit{central},
		holders:   make(map[*entity.Unit]Role),
	}
	for _, u := range peripherals {
		if u == nil || s.Contains(u) {
			return nil, fmt.Errorf("%s: %w", name, ErrDuplicateUnit)
		}
		s.units = append(s.units, u)
	}

	for _, u := range s.units {
		u.SetCentral(u == central)
	}
	return s, nil
}

// Archetype returns the squad's formation archetype.
func (s *Squad) Archetype() Archetype { return s.archetype }

// Central returns the formation anchor.
func (s *Squad) Central() *entity.Unit { return s.units[0] }

// Members returns every unit in squad order, including those on vacation.
func (s *Squad) Members() []*entity.Unit {
	return append([]*entity.Unit(nil), s.units...)
}

// Active returns the units currently taking part in the formation.
func (s *Squad) Active() []*entity.Unit {
	active := make([]*entity.Unit, 0, len(s.units))
	for _, u := range s.units {
		if !u.OnVacation() {
			active = append(active, u)
		}
	}
	return active
}

// Peripherals returns the active non-central units in squad order.
func (s *Squad) Peripherals() []*entity.Unit {
	active := s.Active()
	if len(active) > 0 && active[0] == s.Central() {
		return active[1:]
	}
	return active
}

// Contains reports whether u belongs to the squad.
func (s *Squad) Contains(u *entity.Unit) bool {
	for _, m := range s.units {
		if m == u {
			return true
		}
	}
	return false
}

// FindByID returns the member with the given id.
func (s *Squad) FindByID(id string) (*entity.Unit, bool) {
	for _, m := range s.units {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Add appends a peripheral unit.
func (s *Squad) Add(u *entity.Unit) error {
	if s.Contains(u) {
		return fmt.Errorf("%s: %w", s.Name, ErrDuplicateUnit)
	}
	if len(s.units) >= s.archetype.Capacity() {
		return fmt.Errorf("%s: %w", s.Name, ErrCapacityExceeded)
	}
	u.SetCentral(false)
	s.units = append(s.units, u)
	return nil
}

// Remove takes a peripheral unit out of the squad. Its role burf is stripped
// on the next RegisterBurfs.
func (s *Squad) Remove(u *entity.Unit) error {
	if u == s.Central() {
		return fmt.Errorf("%s: %w", s.Name, ErrCentralRemoval)
	}
	for i, m := range s.units {
		if m == u {
			s.units = append(s.units[:i], s.units[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", s.Name, ErrUnknownUnit)
}

// Compute maps the active units onto the archetype: the central unit takes
// Offsets[0], peripherals take Offsets[1:] in squad order. The result is
// derived fresh on every call.
func (s *Squad) Compute() []Slot {
	active := s.Active()
	slots := make([]Slot, 0, len(active))
	next := 1
	for _, u := range active {
		if u == s.Central() {
			slots = append(slots, Slot{Unit: u, Offset: s.archetype.Offsets[0], Role: RoleCentral})
			continue
		}
		slots = append(slots, Slot{Unit: u, Offset: s.archetype.Offsets[next], Role: RolePeripheral})
		next++
	}
	return slots
}

// OffsetOf returns the unit's current offset.
func (s *Squad) OffsetOf(u *entity.Unit) (Offset, bool) {
	for _, slot := range s.Compute() {
		if slot.Unit == u {
			return slot.Offset, true
		}
	}
	return Offset{}, false
}

// RegisterBurfs applies each active unit's role burf and strips role burfs
// from units that left the formation or changed role. Calling it again
// without a composition change leaves every duration untouched.
func (s *Squad) RegisterBurfs(ctx context.Context) {
	_, span := telemetry.Tracer("formation").Start(ctx, "formation.register")
	defer span.End()

	slots := s.Compute()
	roles := make(map[*entity.Unit]Role, len(slots))
	for _, slot := range slots {
		roles[slot.Unit] = slot.Role
	}

	stripped := 0
	for u, held := range s.holders {
		if roles[u] == held {
			continue
		}
		if d, ok := s.archetype.descriptor(held); ok {
			burf.Remove(u, d.Kind)
		}
		delete(s.holders, u)
		stripped++
	}

	for _, slot := range slots {
		d, _ := s.archetype.descriptor(slot.Role)
		burf.Apply(slot.Unit, d)
		s.holders[slot.Unit] = slot.Role
	}

	span.SetAttributes(
		attribute.String("squad", s.Name),
		attribute.String("central", s.Central().Name),
		attribute.Int("peripherals", len(slots)-1),
		attribute.Int("stripped", stripped),
	)
}

// Holders returns the units currently carrying the role burf for role, in
// squad order.
func (s *Squad) Holders(role Role) []*entity.Unit {
	var out []*entity.Unit
	for _, u := range s.units {
		if s.holders[u] == role {
			out = append(out, u)
		}
	}
	return out
}
