package gamedata

import "github.com/samdwyer/squadcore/internal/burf"

// =============================================================================
// SKILL DATA
// =============================================================================
//
// Skills are stateless, data-driven templates. They are defined in
// skills.json and turned into invocable skills by the combat package.
//
// 1. SkillType - What the skill does to its targets:
//    - burf: Applies every listed descriptor to the opposing anchor
//    - single_deburf: Removes every listed kind from the opposing anchor
//    - splash_burf: Applies to every active unit of the opposing formation
//    - splash_deburf: Removes from every active unit of the opposing formation
//
// 2. TechType - The technique category a caster needs. Informational for
//    now; the boss's weakness rules will key off it.
//
// 3. Accuracy - Base hit chance in [0, 1]. Casters may convert it through
//    passives before the roll.
//
// JSON Schema:
// ------------
// {
//   "id": "ddos",
//   "name": "DDOS",
//   "type": "burf",
//   "technique": "network",
//   "animation": "Shout",
//   "cost": 3,
//   "maxLevel": 1,
//   "accuracy": 0.75,
//   "burfs": [{"kind": "overwhelming", "magnitude": 0, "duration": 2}],
//   "effect": "optional visual effect cue",
//   "sound": "optional one-shot clip"
// }

// SkillType represents how a skill mutates its targets.
type SkillType string

const (
	SkillBurf         SkillType = "burf"
	SkillSingleDeburf SkillType = "single_deburf"
	SkillSplashBurf   SkillType = "splash_burf"
	SkillSplashDeburf SkillType = "splash_deburf"
)

// Valid reports whether t is a known skill type.
func (t SkillType) Valid() bool {
	switch t {
	case SkillBurf, SkillSingleDeburf, SkillSplashBurf, SkillSplashDeburf:
		return true
	}
	return false
}

// TechType is the technique category a skill requires.
type TechType string

const (
	TechGraphic TechType = "graphic"
	TechNetwork TechType = "network"
	TechServer  TechType = "server"
	TechClient  TechType = "client"
)

// SkillDef defines a skill loaded from JSON.
type SkillDef struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Type        SkillType         `json:"type"`
	Technique   TechType          `json:"technique"`
	Animation   string            `json:"animation"`
	Cost        int               `json:"cost"`
	MaxLevel    int               `json:"maxLevel"`
	Accuracy    float64           `json:"accuracy"`
	Burfs       []burf.Descriptor `json:"burfs"`
	Effect      string            `json:"effect,omitempty"` // Visual effect cue
	Sound       string            `json:"sound,omitempty"`  // One-shot audio clip
}

// IsDeburf returns true if the skill removes burfs instead of applying them.
func (s *SkillDef) IsDeburf() bool {
	return s.Type == SkillSingleDeburf || s.Type == SkillSplashDeburf
}

// IsSplash returns true if the skill targets a whole formation.
func (s *SkillDef) IsSplash() bool {
	return s.Type == SkillSplashBurf || s.Type == SkillSplashDeburf
}

// SkillsFile represents the structure of skills.json.
type SkillsFile struct {
	Skills []SkillDef `json:"skills"`
}

// LoadSkills loads skill definitions from the embedded skills.json file.
func LoadSkills() ([]SkillDef, error) {
	file, err := Load[SkillsFile]("skills.json")
	if err != nil {
		return nil, err
	}
	return file.Skills, nil
}
