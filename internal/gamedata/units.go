package gamedata

import "github.com/gdamore/tcell/v2"

// SkillSlot is one entry of a unit's loadout.
type SkillSlot struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// PassiveDef defines an always-on trait. Accuracy passives convert a skill's
// base accuracy as accuracy*scale + bonus.
type PassiveDef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Scale float64 `json:"scale"`
	Bonus float64 `json:"bonus"`
}

// UnitDef defines a unit class loaded from JSON.
type UnitDef struct {
	ID           string       `json:"id"`           // Unique identifier (e.g., "backend")
	Name         string       `json:"name"`         // Display name
	Symbol       string       `json:"symbol"`       // Single character for rendering
	Color        string       `json:"color"`        // Hex color code
	Health       int          `json:"health"`       // Base health
	Energy       int          `json:"energy"`       // Skill resource
	RestRecovery int          `json:"restRecovery"` // Energy restored per day of vacation
	Skills       []SkillSlot  `json:"skills"`
	Passives     []PassiveDef `json:"passives,omitempty"`
}

// SymbolRune returns the symbol as a rune for rendering.
func (u *UnitDef) SymbolRune() rune {
	if len(u.Symbol) == 0 {
		return '?'
	}
	return rune(u.Symbol[0])
}

// TCellColor returns the color as a tcell.Color.
func (u *UnitDef) TCellColor() tcell.Color {
	color, err := ParseHexColor(u.Color)
	if err != nil {
		return tcell.ColorWhite
	}
	return color
}

// UnitsFile represents the structure of units.json.
type UnitsFile struct {
	Units []UnitDef `json:"units"`
}

// LoadUnits loads unit definitions from the embedded units.json file.
func LoadUnits() ([]UnitDef, error) {
	file, err := Load[UnitsFile]("units.json")
	if err != nil {
		return nil, err
	}
	return file.Units, nil
}
