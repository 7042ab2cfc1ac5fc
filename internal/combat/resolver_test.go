package combat

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/entity"
	"github.com/samdwyer/squadcore/internal/formation"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

// mockCombatant is a test implementation of the Combatant interface.
type mockCombatant struct {
	id       string
	name     string
	energy   int
	consumed int
}

func newMockCombatant(name string, energy int) *mockCombatant {
	return &mockCombatant{id: name, name: name, energy: energy}
}

func (m *mockCombatant) GetID() string   { return m.id }
func (m *mockCombatant) GetName() string { return m.name }
func (m *mockCombatant) GetEnergy() int  { return m.energy }
func (m *mockCombatant) ConsumeAction()  { m.consumed++ }

func (m *mockCombatant) SpendEnergy(amount int) bool {
	if m.energy < amount {
		return false
	}
	m.energy -= amount
	return true
}

// focusedCombatant converts accuracy itself.
type focusedCombatant struct {
	*mockCombatant
	bonus float64
}

func (f *focusedCombatant) ConvertAccuracy(a float64) float64 { return a + f.bonus }

// fixedRoller always draws the same value.
type fixedRoller float64

func (r fixedRoller) Float64() float64 { return float64(r) }

type spawnedEffect struct {
	cue      string
	disposed bool
}

func (e *spawnedEffect) Dispose() { e.disposed = true }

type recordingSpawner struct{ spawned []*spawnedEffect }

func (s *recordingSpawner) Spawn(cue string, _ Combatant) EffectHandle {
	e := &spawnedEffect{cue: cue}
	s.spawned = append(s.spawned, e)
	return e
}

type recordingSource struct{ played []string }

func (s *recordingSource) PlayOneShot(clip string) { s.played = append(s.played, clip) }

type singleSourcePool struct{ source *recordingSource }

func (p *singleSourcePool) FetchAvailableSource() AudioSource { return p.source }

func mustSkill(t *testing.T, def gamedata.SkillDef) Skill {
	t.Helper()
	s, err := NewSkill(def)
	if err != nil {
		t.Fatalf("NewSkill(%s) error: %v", def.ID, err)
	}
	return s
}

func loadSkill(t *testing.T, id string) Skill {
	t.Helper()
	def := gamedata.MustLoadSkillRegistry().GetByID(id)
	if def == nil {
		t.Fatalf("%s skill not found", id)
	}
	return mustSkill(t, *def)
}

func newBossSquad(t *testing.T) (*formation.Squad, []*entity.Unit) {
	t.Helper()
	arch, err := formation.ArchetypeFromDef(gamedata.MustLoadFormationRegistry().GetByID("boss"))
	if err != nil {
		t.Fatalf("ArchetypeFromDef() error: %v", err)
	}
	units := []*entity.Unit{
		entity.NewUnit("Deadline", 'X'),
		entity.NewUnit("Bug", 'b'),
		entity.NewUnit("Flake", 't'),
	}
	squad, err := formation.NewSquad("boss", arch, units[0], units[1:]...)
	if err != nil {
		t.Fatalf("NewSquad() error: %v", err)
	}
	return squad, units
}

func sureHit(kind burf.Kind, duration int) gamedata.SkillDef {
	return gamedata.SkillDef{
		ID:       "sure",
		Name:     "Sure Thing",
		Type:     gamedata.SkillBurf,
		Cost:     2,
		MaxLevel: 1,
		Accuracy: 1.0,
		Burfs:    []burf.Descriptor{{Kind: kind, Duration: duration}},
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhasePending, "pending"},
		{PhaseAccuracyChecked, "accuracy_checked"},
		{PhaseApplied, "applied"},
		{PhaseMissed, "missed"},
		{PhaseFinalized, "finalized"},
		{Phase(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.expected)
		}
	}
}

func TestNewSkillValidation(t *testing.T) {
	base := sureHit(burf.KindHeal, 2)

	negCost := base
	negCost.Cost = -1
	if _, err := NewSkill(negCost); !errors.Is(err, ErrInvalidSkill) {
		t.Errorf("negative cost: error = %v, want ErrInvalidSkill", err)
	}

	negDuration := base
	negDuration.Burfs = []burf.Descriptor{{Kind: burf.KindHeal, Duration: -3}}
	_, err := NewSkill(negDuration)
	if !errors.Is(err, ErrInvalidSkill) || !errors.Is(err, burf.ErrNegativeDuration) {
		t.Errorf("negative duration: error = %v, want ErrInvalidSkill wrapping ErrNegativeDuration", err)
	}

	badType := base
	badType.Type = "heal"
	if _, err := NewSkill(badType); !errors.Is(err, ErrInvalidSkill) {
		t.Errorf("bad type: error = %v, want ErrInvalidSkill", err)
	}
}

func TestSkillCapabilities(t *testing.T) {
	codeReview := loadSkill(t, "code_review") // effect + sound
	loadTest := loadSkill(t, "load_test")     // sound only
	hotfix := loadSkill(t, "hotfix")          // effect only
	rollback := loadSkill(t, "rollback")      // neither

	tests := []struct {
		skill      Skill
		wantEffect bool
		wantSound  bool
	}{
		{codeReview, true, true},
		{loadTest, false, true},
		{hotfix, true, false},
		{rollback, false, false},
	}
	for _, tt := range tests {
		_, hasEffect := tt.skill.(EffectProducer)
		_, hasSound := tt.skill.(SoundProducer)
		if hasEffect != tt.wantEffect || hasSound != tt.wantSound {
			t.Errorf("%s: effect=%v sound=%v, want %v %v", tt.skill.ID(), hasEffect, hasSound, tt.wantEffect, tt.wantSound)
		}
	}
}

func TestGuaranteedHitCreatesFreshInstance(t *testing.T) {
	squad, units := newBossSquad(t)
	resolver := NewResolver(fixedRoller(0.999))
	caster := newMockCombatant("Lead", 10)

	rc, err := resolver.Invoke(context.Background(), caster, mustSkill(t, sureHit(burf.KindOverwhelming, 3)), squad)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if !rc.Hit || rc.Phase != PhaseFinalized {
		t.Errorf("Invoke() hit=%v phase=%v, want hit and finalized", rc.Hit, rc.Phase)
	}

	inst, ok := units[0].BurfStatus().Get(burf.KindOverwhelming)
	if !ok {
		t.Fatal("anchor should hold the applied burf")
	}
	if inst.RemainingTurns != 3 {
		t.Errorf("RemainingTurns = %d, want 3", inst.RemainingTurns)
	}
	if units[1].BurfStatus().Has(burf.KindOverwhelming) {
		t.Error("single-target skill must only touch the anchor")
	}
	if len(rc.Mutations) != 1 || rc.Mutations[0].Target != units[0] {
		t.Errorf("Mutations = %+v, want one on the anchor", rc.Mutations)
	}
}

func TestMissLeavesBurfsUntouched(t *testing.T) {
	squad, units := newBossSquad(t)
	burf.Apply(units[0], burf.Descriptor{Kind: burf.KindHeal, Magnitude: 5, Duration: 2})
	before := units[0].BurfStatus().All()

	def := sureHit(burf.KindOverwhelming, 3)
	def.Accuracy = 0.25
	skill := mustSkill(t, def)

	var missed []Skill
	resolver := NewResolver(fixedRoller(0.5))
	caster := newMockCombatant("Lead", 10)

	rc, err := resolver.Invoke(context.Background(), caster, skill, squad, func(s Skill) { missed = append(missed, s) })
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if rc.Hit {
		t.Fatal("roll 0.5 against accuracy 0.25 should miss")
	}
	if len(missed) != 1 || missed[0] != skill {
		t.Errorf("miss handler calls = %v, want the invoked skill once", missed)
	}

	after := units[0].BurfStatus().All()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("burfs changed on miss: before %+v after %+v", before, after)
	}
	if caster.energy != 8 || caster.consumed != 1 {
		t.Errorf("miss must still pay: energy=%d consumed=%d", caster.energy, caster.consumed)
	}

	// Handlers do not carry over to the next invocation.
	if _, err := resolver.Invoke(context.Background(), caster, skill, squad); err != nil {
		t.Fatalf("second Invoke() error: %v", err)
	}
	if len(missed) != 1 {
		t.Errorf("miss handler fired %d times, want 1", len(missed))
	}
}

func TestInsufficientEnergy(t *testing.T) {
	squad, units := newBossSquad(t)
	spawner := &recordingSpawner{}
	source := &recordingSource{}
	resolver := NewResolver(fixedRoller(0), WithEffects(spawner), WithAudio(&singleSourcePool{source}))

	caster := newMockCombatant("Junior", 1)
	skill := loadSkill(t, "code_review")
	missCalls := 0

	rc, err := resolver.Invoke(context.Background(), caster, skill, squad, func(Skill) { missCalls++ })

	var resErr *ResourceError
	if !errors.As(err, &resErr) {
		t.Fatalf("Invoke() error = %v, want *ResourceError", err)
	}
	if resErr.Required != 2 || resErr.Available != 1 {
		t.Errorf("ResourceError = %+v, want required 2 available 1", resErr)
	}
	if rc != nil {
		t.Error("no context should be produced")
	}
	if caster.energy != 1 || caster.consumed != 0 {
		t.Error("caster must not be charged")
	}
	if units[0].BurfStatus().Len() != 0 || missCalls != 0 {
		t.Error("no burf change and no outcome expected")
	}
	if len(spawner.spawned) != 0 || len(source.played) != 0 {
		t.Error("no side effects expected")
	}
}

func TestCostDeductedOnHit(t *testing.T) {
	squad, _ := newBossSquad(t)
	resolver := NewResolver(fixedRoller(0))
	caster := newMockCombatant("Lead", 5)

	if _, err := resolver.Invoke(context.Background(), caster, mustSkill(t, sureHit(burf.KindMovable, 2)), squad); err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if caster.energy != 3 {
		t.Errorf("energy = %d, want 3", caster.energy)
	}
	if caster.consumed != 1 {
		t.Errorf("ConsumeAction called %d times, want 1", caster.consumed)
	}
}

func TestSplashTargetsWholeFormation(t *testing.T) {
	squad, units := newBossSquad(t)
	if err := units[2].StartVacation(0); err != nil {
		t.Fatal(err)
	}
	resolver := NewResolver(fixedRoller(0))
	caster := newMockCombatant("Ops", 10)

	rc, err := resolver.Invoke(context.Background(), caster, loadSkill(t, "load_test"), squad)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if len(rc.Targets) != 2 {
		t.Fatalf("targets = %d, want 2 active units", len(rc.Targets))
	}
	for _, u := range units[:2] {
		if !u.BurfStatus().Has(burf.KindOverwhelming) {
			t.Errorf("%s should be overwhelmed", u.Name)
		}
	}
	if units[2].BurfStatus().Has(burf.KindOverwhelming) {
		t.Error("units on vacation are outside the formation")
	}
}

func TestDeburfRemovesKind(t *testing.T) {
	squad, units := newBossSquad(t)
	squad.RegisterBurfs(context.Background())
	burf.Apply(units[0], burf.Descriptor{Kind: burf.KindHeal, Magnitude: 5, Duration: 4})

	resolver := NewResolver(fixedRoller(0))
	caster := newMockCombatant("Dev", 10)

	rc, err := resolver.Invoke(context.Background(), caster, loadSkill(t, "hotfix"), squad)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if units[0].BurfStatus().Has(burf.KindHeal) {
		t.Error("hotfix should remove heal from the anchor")
	}
	if !units[1].BurfStatus().Has(burf.KindHeal) {
		t.Error("single-target deburf must leave peripherals alone")
	}
	if len(rc.Mutations) != 1 || !rc.Mutations[0].Removed {
		t.Errorf("Mutations = %+v, want one removal", rc.Mutations)
	}

	// Removing an absent kind is not an error and not a mutation.
	rc, err = resolver.Invoke(context.Background(), caster, loadSkill(t, "hotfix"), squad)
	if err != nil || len(rc.Mutations) != 0 {
		t.Errorf("second hotfix: err=%v mutations=%d, want nil and 0", err, len(rc.Mutations))
	}
}

func TestAppliedAccuracy(t *testing.T) {
	resolver := NewResolver(fixedRoller(0))
	skill := loadSkill(t, "load_test") // accuracy 0.6

	plain := newMockCombatant("Plain", 10)
	if got := resolver.AppliedAccuracy(skill, plain); got != 0.6 {
		t.Errorf("without converters accuracy = %v, want 0.6", got)
	}

	focused := &focusedCombatant{mockCombatant: newMockCombatant("Focused", 10), bonus: 0.2}
	if got := resolver.AppliedAccuracy(skill, focused); got < 0.799 || got > 0.801 {
		t.Errorf("with caster converter accuracy = %v, want 0.8", got)
	}

	lead := entity.NewUnitFromDef(gamedata.MustLoadUnitRegistry().GetByID("lead"))
	// Pair programming: 0.6*1.1 + 0.05 = 0.71
	if got := resolver.AppliedAccuracy(skill, lead); got < 0.709 || got > 0.711 {
		t.Errorf("with trait converter accuracy = %v, want 0.71", got)
	}
}

func TestSideEffects(t *testing.T) {
	squad, _ := newBossSquad(t)
	spawner := &recordingSpawner{}
	source := &recordingSource{}
	resolver := NewResolver(fixedRoller(0.99), WithEffects(spawner), WithAudio(&singleSourcePool{source}))

	rc, err := resolver.Invoke(context.Background(), newMockCombatant("Lead", 10), loadSkill(t, "code_review"), squad)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if len(spawner.spawned) != 1 || spawner.spawned[0].cue != "review_spark" {
		t.Errorf("spawned = %+v, want review_spark", spawner.spawned)
	}
	if rc.Effect == nil {
		t.Error("context should carry the effect handle")
	}
	if len(source.played) != 1 || source.played[0] != "keyboard" {
		t.Errorf("played = %v, want [keyboard]", source.played)
	}
	if rc.Hit {
		t.Error("side effects fire even on a miss")
	}
}

func TestReentrantInvocationRejected(t *testing.T) {
	squad, _ := newBossSquad(t)
	resolver := NewResolver(fixedRoller(0.9))
	caster := newMockCombatant("Lead", 10)

	def := sureHit(burf.KindMovable, 1)
	def.Accuracy = 0.1
	skill := mustSkill(t, def)

	var nestedErr error
	_, err := resolver.Invoke(context.Background(), caster, skill, squad, func(s Skill) {
		_, nestedErr = resolver.Invoke(context.Background(), caster, s, squad)
	})
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if !errors.Is(nestedErr, ErrReentrant) {
		t.Errorf("nested Invoke() error = %v, want ErrReentrant", nestedErr)
	}

	// Once finalized the caster may invoke again.
	if _, err := resolver.Invoke(context.Background(), caster, skill, squad); err != nil {
		t.Errorf("Invoke() after finalize error: %v", err)
	}
}

func TestSeededRollsAreDeterministic(t *testing.T) {
	skill := loadSkill(t, "load_test")
	run := func() []bool {
		squad, _ := newBossSquad(t)
		resolver := NewResolver(rand.New(rand.NewSource(7)))
		caster := newMockCombatant("Ops", 100)
		var hits []bool
		for i := 0; i < 10; i++ {
			rc, err := resolver.Invoke(context.Background(), caster, skill, squad)
			if err != nil {
				t.Fatalf("Invoke() error: %v", err)
			}
			hits = append(hits, rc.Hit)
		}
		return hits
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("roll %d differs between seeded runs", i)
		}
	}
}

func TestBook(t *testing.T) {
	book, err := NewBook(gamedata.MustLoadSkillRegistry())
	if err != nil {
		t.Fatalf("NewBook() error: %v", err)
	}
	if book.Get("ddos") == nil {
		t.Error("ddos missing from book")
	}
	if book.Get("nope") != nil {
		t.Error("unknown id should return nil")
	}
}
