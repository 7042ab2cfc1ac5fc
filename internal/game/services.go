package game

import (
	"github.com/samdwyer/squadcore/internal/combat"
)

// In-memory stand-ins for the presentation services the core consumes. The
// terminal has no animations or sound, so effects are remembered for the
// renderer and clips are reported in the notice line.

// Clock counts in-game days from elapsed turns.
type Clock struct {
	turns     func() int
	dayLength int
}

// NewClock creates a clock of dayLength turns per day reading turns.
func NewClock(turns func() int, dayLength int) *Clock {
	if dayLength < 1 {
		dayLength = 1
	}
	return &Clock{turns: turns, dayLength: dayLength}
}

// ElapsedDays returns the whole days elapsed since the session began.
func (c *Clock) ElapsedDays() int {
	return c.turns() / c.dayLength
}

// Effect is a visual effect anchored at a combatant.
type Effect struct {
	Cue    string
	Anchor string // Combatant id
	live   bool
	pool   *EffectPool
}

// Dispose removes the effect from the screen.
func (e *Effect) Dispose() {
	if !e.live {
		return
	}
	e.live = false
	e.pool.release(e)
}

// EffectPool tracks live effects for the renderer.
type EffectPool struct {
	live []*Effect
}

// Spawn creates a live effect.
func (p *EffectPool) Spawn(cue string, anchor combat.Combatant) combat.EffectHandle {
	e := &Effect{Cue: cue, Anchor: anchor.GetID(), live: true, pool: p}
	p.live = append(p.live, e)
	return e
}

// Live returns the effects not yet disposed.
func (p *EffectPool) Live() []*Effect {
	return append([]*Effect(nil), p.live...)
}

func (p *EffectPool) release(e *Effect) {
	for i, l := range p.live {
		if l == e {
			p.live = append(p.live[:i], p.live[i+1:]...)
			return
		}
	}
}

// AudioBank is a fixed pool of sources. Each source plays one clip until
// Drain is called; when all are busy no sound is played.
type AudioBank struct {
	sources []*audioSource
}

type audioSource struct {
	clip string
	busy bool
}

func (s *audioSource) PlayOneShot(clip string) {
	s.clip = clip
	s.busy = true
}

// NewAudioBank creates a bank with n sources.
func NewAudioBank(n int) *AudioBank {
	b := &AudioBank{}
	for i := 0; i < n; i++ {
		b.sources = append(b.sources, &audioSource{})
	}
	return b
}

// FetchAvailableSource returns an idle source, or nil if all are busy.
func (b *AudioBank) FetchAvailableSource() combat.AudioSource {
	for _, s := range b.sources {
		if !s.busy {
			return s
		}
	}
	return nil
}

// Drain returns the clips played since the last drain and frees every
// source.
func (b *AudioBank) Drain() []string {
	var clips []string
	for _, s := range b.sources {
		if s.busy {
			clips = append(clips, s.clip)
			s.busy = false
			s.clip = ""
		}
	}
	return clips
}

var (
	_ combat.EffectSpawner = (*EffectPool)(nil)
	_ combat.AudioPool     = (*AudioBank)(nil)
)
