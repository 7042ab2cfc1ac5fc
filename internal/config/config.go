// Package config loads encounter settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samdwyer/squadcore/internal/gamedata"
)

// Environment overrides, applied after the file.
const (
	EnvSeed      = "SQUADCORE_SEED"
	EnvTurnLimit = "SQUADCORE_TURN_LIMIT"
	EnvLogLevel  = "SQUADCORE_LOG_LEVEL"
	EnvTelemetry = "SQUADCORE_TELEMETRY"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	// Seed for the hit rolls. 0 means a time-based seed.
	Seed      int64       `yaml:"seed"`
	TurnLimit int         `yaml:"turn_limit"` // Turns until the deadline fails the encounter. 0 disables it.
	DayLength int         `yaml:"day_length"` // Turns per in-game day
	LogLevel  string      `yaml:"log_level"`
	Telemetry bool        `yaml:"telemetry"`
	Players   SquadConfig `yaml:"players"`
	Bosses    SquadConfig `yaml:"bosses"`
}

// SquadConfig picks a formation archetype and the units that fill it.
type SquadConfig struct {
	Formation   string   `yaml:"formation"`
	Central     string   `yaml:"central"`
	Peripherals []string `yaml:"peripherals"`
}

// Default returns the built-in encounter.
func Default() *Config {
	return &Config{
		TurnLimit: 20,
		DayLength: 2,
		LogLevel:  "info",
		Telemetry: true,
		Players: SquadConfig{
			Formation:   "wedge",
			Central:     "lead",
			Peripherals: []string{"backend", "frontend", "designer", "devops"},
		},
		Bosses: SquadConfig{
			Formation:   "boss",
			Central:     "deadline",
			Peripherals: []string{"legacy_bug", "flaky_test", "scope_creep"},
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvSeed, v)
		}
		c.Seed = seed
	}
	if v := getenv(EnvTurnLimit); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvTurnLimit, v)
		}
		c.TurnLimit = limit
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvTelemetry); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvTelemetry, v)
		}
		c.Telemetry = on
	}
	return nil
}

// Validate checks value ranges. Errors name the offending key.
func (c *Config) Validate() error {
	if c.TurnLimit < 0 {
		return fmt.Errorf("%w: turn_limit %d", ErrInvalid, c.TurnLimit)
	}
	if c.DayLength < 1 {
		return fmt.Errorf("%w: day_length %d", ErrInvalid, c.DayLength)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	for key, sq := range map[string]SquadConfig{"players": c.Players, "bosses": c.Bosses} {
		if sq.Formation == "" {
			return fmt.Errorf("%w: %s.formation is empty", ErrInvalid, key)
		}
		if sq.Central == "" {
			return fmt.Errorf("%w: %s.central is empty", ErrInvalid, key)
		}
	}
	return nil
}

// CheckRoster verifies that every formation and unit id exists in the
// catalog.
func (c *Config) CheckRoster(catalog *gamedata.Catalog) error {
	check := func(key string, sq SquadConfig) error {
		if catalog.Formations.GetByID(sq.Formation) == nil {
			return fmt.Errorf("%w: %s.formation: unknown archetype %q", ErrInvalid, key, sq.Formation)
		}
		for _, id := range append([]string{sq.Central}, sq.Peripherals...) {
			def := catalog.Units.GetByID(id)
			if def == nil {
				return fmt.Errorf("%w: %s: unknown unit %q", ErrInvalid, key, id)
			}
			ids := make([]string, len(def.Skills))
			for i, slot := range def.Skills {
				ids[i] = slot.ID
			}
			if known := catalog.Skills.GetMultiple(ids); len(known) != len(ids) {
				return fmt.Errorf("%w: %s: unit %q has unknown skills %v", ErrInvalid, key, id, unknownSkills(ids, known))
			}
		}
		return nil
	}
	if err := check("players", c.Players); err != nil {
		return err
	}
	return check("bosses", c.Bosses)
}

func unknownSkills(ids []string, known []*gamedata.SkillDef) []string {
	found := make(map[string]bool, len(known))
	for _, def := range known {
		found[def.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: log_level %q", ErrInvalid, s)
}
