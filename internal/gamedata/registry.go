package gamedata

import (
	"errors"
	"fmt"
)

// identified is implemented by every definition type held in a registry.
type identified interface {
	SkillDef | FormationDef | UnitDef
}

// index holds definitions in file order plus an id lookup.
type index[T identified] struct {
	byID map[string]*T
	all  []T
}

func newIndex[T identified](defs []T, id func(*T) string) (index[T], error) {
	idx := index[T]{byID: make(map[string]*T, len(defs)), all: defs}
	for i := range defs {
		key := id(&defs[i])
		if _, dup := idx.byID[key]; dup {
			return index[T]{}, fmt.Errorf("duplicate id %q", key)
		}
		idx.byID[key] = &defs[i]
	}
	return idx, nil
}

// GetByID returns the definition with the given ID, or nil if not found.
func (r index[T]) GetByID(id string) *T {
	return r.byID[id]
}

// All returns all definitions in file order.
func (r index[T]) All() []T {
	return r.all
}

// Count returns the number of definitions.
func (r index[T]) Count() int {
	return len(r.all)
}

// =============================================================================
// SkillRegistry
// =============================================================================

// SkillRegistry holds loaded skill definitions.
type SkillRegistry struct {
	index[SkillDef]
}

// NewSkillRegistry creates a registry from loaded skill definitions.
func NewSkillRegistry(skills []SkillDef) (*SkillRegistry, error) {
	idx, err := newIndex(skills, func(s *SkillDef) string { return s.ID })
	if err != nil {
		return nil, fmt.Errorf("skills: %w", err)
	}
	return &SkillRegistry{idx}, nil
}

// GetMultiple returns skill definitions for a list of IDs.
// Missing IDs are silently skipped.
func (r *SkillRegistry) GetMultiple(ids []string) []*SkillDef {
	result := make([]*SkillDef, 0, len(ids))
	for _, id := range ids {
		if skill := r.GetByID(id); skill != nil {
			result = append(result, skill)
		}
	}
	return result
}

// LoadSkillRegistry loads and creates a registry from the embedded skills.json.
func LoadSkillRegistry() (*SkillRegistry, error) {
	skills, err := LoadSkills()
	if err != nil {
		return nil, err
	}
	if len(skills) == 0 {
		return nil, errors.New("no skills loaded from skills.json")
	}
	return NewSkillRegistry(skills)
}

// MustLoadSkillRegistry loads a registry, panicking on error.
func MustLoadSkillRegistry() *SkillRegistry {
	registry, err := LoadSkillRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// =============================================================================
// FormationRegistry
// =============================================================================

// FormationRegistry holds loaded formation archetypes.
type FormationRegistry struct {
	index[FormationDef]
}

// NewFormationRegistry creates a registry from loaded formation definitions.
func NewFormationRegistry(formations []FormationDef) (*FormationRegistry, error) {
	idx, err := newIndex(formations, func(f *FormationDef) string { return f.ID })
	if err != nil {
		return nil, fmt.Errorf("formations: %w", err)
	}
	return &FormationRegistry{idx}, nil
}

// LoadFormationRegistry loads and creates a registry from the embedded formations.json.
func LoadFormationRegistry() (*FormationRegistry, error) {
	formations, err := LoadFormations()
	if err != nil {
		return nil, err
	}
	if len(formations) == 0 {
		return nil, errors.New("no formations loaded from formations.json")
	}
	return NewFormationRegistry(formations)
}

// MustLoadFormationRegistry loads a registry, panicking on error.
func MustLoadFormationRegistry() *FormationRegistry {
	registry, err := LoadFormationRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// =============================================================================
// UnitRegistry
// =============================================================================

// UnitRegistry holds loaded unit class definitions.
type UnitRegistry struct {
	index[UnitDef]
}

// NewUnitRegistry creates a registry from loaded unit definitions.
func NewUnitRegistry(units []UnitDef) (*UnitRegistry, error) {
	idx, err := newIndex(units, func(u *UnitDef) string { return u.ID })
	if err != nil {
		return nil, fmt.Errorf("units: %w", err)
	}
	return &UnitRegistry{idx}, nil
}

// LoadUnitRegistry loads and creates a registry from the embedded units.json.
func LoadUnitRegistry() (*UnitRegistry, error) {
	units, err := LoadUnits()
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, errors.New("no units loaded from units.json")
	}
	return NewUnitRegistry(units)
}

// MustLoadUnitRegistry loads a registry, panicking on error.
func MustLoadUnitRegistry() *UnitRegistry {
	registry, err := LoadUnitRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// Catalog bundles every registry the encounter needs.
type Catalog struct {
	Skills     *SkillRegistry
	Formations *FormationRegistry
	Units      *UnitRegistry
}

// LoadCatalog loads all embedded registries.
func LoadCatalog() (*Catalog, error) {
	skills, err := LoadSkillRegistry()
	if err != nil {
		return nil, err
	}
	formations, err := LoadFormationRegistry()
	if err != nil {
		return nil, err
	}
	units, err := LoadUnitRegistry()
	if err != nil {
		return nil, err
	}
	return &Catalog{Skills: skills, Formations: formations, Units: units}, nil
}
