package gamedata

import "github.com/samdwyer/squadcore/internal/burf"

// OffsetDef is a relative grid coordinate.
type OffsetDef struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FormationDef defines a formation archetype loaded from JSON.
// Offsets[0] belongs to the central unit. Burfs[0] is the central role burf,
// Burfs[1] the peripheral role burf.
type FormationDef struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Offsets []OffsetDef       `json:"offsets"`
	Burfs   []burf.Descriptor `json:"burfs"`
}

// Capacity returns the number of units the formation can hold.
func (f *FormationDef) Capacity() int {
	return len(f.Offsets)
}

// FormationsFile represents the structure of formations.json.
type FormationsFile struct {
	Formations []FormationDef `json:"formations"`
}

// LoadFormations loads formation definitions from the embedded formations.json file.
func LoadFormations() ([]FormationDef, error) {
	file, err := Load[FormationsFile]("formations.json")
	if err != nil {
		return nil, err
	}
	return file.Formations, nil
}
