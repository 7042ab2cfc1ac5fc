// Package game wires the encounter core to the terminal: it builds the
// session from configuration, runs the turn loop and maps keys to commands.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/samdwyer/squadcore/internal/combat"
	"github.com/samdwyer/squadcore/internal/config"
	"github.com/samdwyer/squadcore/internal/encounter"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

const (
	audioSources = 2
	logLines     = 6
)

// Session holds everything one encounter needs outside the core: the
// presentation services, the last notice and a short event log.
type Session struct {
	Encounter *encounter.Encounter
	Config    *config.Config
	Effects   *EffectPool
	Audio     *AudioBank
	Clock     *Clock

	Notice string   // Message from the last command
	Log    []string // Most recent events, oldest first

	catalog *gamedata.Catalog
	logger  *slog.Logger
}

// NewSession builds the squads, skill book and resolver from cfg and
// catalog and subscribes to the encounter's events. The encounter is not
// started.
func NewSession(cfg *config.Config, catalog *gamedata.Catalog, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	players, bosses, err := BuildSquads(cfg, catalog)
	if err != nil {
		return nil, err
	}
	book, err := combat.NewBook(catalog.Skills)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		Config:  cfg,
		Effects: &EffectPool{},
		Audio:   NewAudioBank(audioSources),
		catalog: catalog,
		logger:  logger,
	}
	resolver := combat.NewResolver(rand.New(rand.NewSource(seed)),
		combat.WithEffects(s.Effects),
		combat.WithAudio(s.Audio),
		combat.WithLogger(logger),
	)

	var enc *encounter.Encounter
	s.Clock = NewClock(func() int { return enc.Turn() }, cfg.DayLength)
	enc, err = encounter.New(encounter.Config{
		Players:  players,
		Bosses:   bosses,
		Book:     book,
		Resolver: resolver,
		Days:     s.Clock,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	s.Encounter = enc
	enc.Subscribe(s.observe)

	logger.Info("session ready", "seed", seed, "players", len(players.Members()), "bosses", len(bosses.Members()))
	return s, nil
}

// Restart builds a fresh session from the same configuration and starts
// its encounter. Squads, burfs, energy and the turn counter all begin anew.
func (s *Session) Restart(ctx context.Context) (*Session, error) {
	next, err := NewSession(s.Config, s.catalog, s.logger)
	if err != nil {
		return nil, err
	}
	if err := next.Encounter.Start(ctx); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "session restarted", "previous", s.Encounter.ID, "encounter", next.Encounter.ID)
	return next, nil
}

// observe turns encounter events into log lines.
func (s *Session) observe(ev encounter.Event) {
	var line string
	switch ev.Type {
	case encounter.EventInterfaceSync:
		line = "Sprint planning complete. Ship it before the deadline!"
	case encounter.EventSkillMissed:
		line = ev.Unit.Name + "'s " + ev.Skill.Name() + " missed."
	case encounter.EventSkillResolved:
		clips := s.Audio.Drain()
		if !ev.Result.Hit {
			return
		}
		line = describe(ev.Result)
		if len(clips) > 0 {
			line += " [" + strings.Join(clips, ", ") + "]"
		}
	case encounter.EventFormationChanged:
		line = "The " + ev.Side.String() + " regrouped."
	case encounter.EventTurnAdvanced:
		line = fmt.Sprintf("Turn %d begins.", ev.Turn)
	case encounter.EventVictory, encounter.EventFailure:
		line = strings.Join(ev.Messages, " ")
	default:
		return
	}
	s.Log = append(s.Log, line)
	if len(s.Log) > logLines {
		s.Log = s.Log[len(s.Log)-logLines:]
	}
}

// describe summarizes a skill that hit.
func describe(rc *combat.Context) string {
	if len(rc.Mutations) == 0 {
		return fmt.Sprintf("%s used %s. No change.", rc.Caster.GetName(), rc.Skill.Name())
	}
	parts := make([]string, 0, len(rc.Mutations))
	for _, m := range rc.Mutations {
		verb := "+"
		if m.Removed {
			verb = "-"
		}
		parts = append(parts, m.Target.Name+" "+verb+m.Kind.String())
	}
	return fmt.Sprintf("%s used %s: %s.", rc.Caster.GetName(), rc.Skill.Name(), strings.Join(parts, ", "))
}
