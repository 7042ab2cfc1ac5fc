package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/gamedata"
)

func TestActivityString(t *testing.T) {
	tests := []struct {
		activity Activity
		expected string
	}{
		{ActivityIdle, "idle"},
		{ActivityActing, "acting"},
		{ActivityFinished, "finished"},
		{ActivityVacation, "vacation"},
		{Activity(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.activity.String())
	}
}

func TestNewUnitFromDef(t *testing.T) {
	def := &gamedata.UnitDef{
		ID:           "lead",
		Name:         "Tech Lead",
		Symbol:       "L",
		Color:        "#FFD75F",
		Health:       30,
		Energy:       10,
		RestRecovery: 3,
		Skills:       []gamedata.SkillSlot{{ID: "code_review", Level: 2}},
		Passives:     []gamedata.PassiveDef{{ID: "pp", Name: "Pair", Scale: 1.1, Bonus: 0.05}},
	}

	u := NewUnitFromDef(def)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "lead", u.ClassID)
	assert.Equal(t, 'L', u.Symbol)
	assert.Equal(t, 30, u.MaxHealth)
	assert.Equal(t, 10, u.Energy)
	assert.Equal(t, 2, u.SkillLevel("code_review"))
	assert.False(t, u.Knows("ddos"))
	require.Len(t, u.Traits(), 1)

	def.Skills[0].Level = 3
	assert.Equal(t, 2, u.SkillLevel("code_review"), "loadout must be copied from the definition")

	other := NewUnitFromDef(def)
	assert.NotEqual(t, u.ID, other.ID)
}

func TestTurnLifecycle(t *testing.T) {
	u := NewUnit("Dev", 'D')
	require.True(t, u.CanAct())

	require.NoError(t, u.BeginAction())
	assert.Equal(t, ActivityActing, u.Activity())
	assert.ErrorIs(t, u.BeginAction(), ErrNotIdle)

	u.ConsumeAction()
	assert.Equal(t, ActivityFinished, u.Activity())
	assert.False(t, u.CanAct())

	u.ResetTurn()
	assert.Equal(t, ActivityIdle, u.Activity())
}

func TestVacation(t *testing.T) {
	u := NewUnit("Dev", 'D')
	u.RestRecovery = 2
	u.Energy = 1

	require.NoError(t, u.StartVacation(3))
	assert.True(t, u.OnVacation())
	assert.ErrorIs(t, u.StartVacation(4), ErrNotIdle)

	u.FinishAction()
	u.ResetTurn()
	assert.True(t, u.OnVacation(), "vacation survives turn resets until explicitly ended")

	restored, err := u.ReturnFromVacation(6)
	require.NoError(t, err)
	assert.Equal(t, 6, restored)
	assert.Equal(t, 7, u.Energy)
	assert.Equal(t, ActivityIdle, u.Activity())

	_, err = u.ReturnFromVacation(7)
	assert.ErrorIs(t, err, ErrNotOnVacation)
}

func TestReturnFromVacationCapsEnergy(t *testing.T) {
	u := NewUnit("Dev", 'D')
	u.RestRecovery = 5
	u.Energy = 8
	require.NoError(t, u.StartVacation(0))

	restored, err := u.ReturnFromVacation(10)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.Equal(t, u.MaxEnergy, u.Energy)
}

func TestSpendEnergy(t *testing.T) {
	u := NewUnit("Dev", 'D')
	assert.True(t, u.SpendEnergy(10))
	assert.False(t, u.SpendEnergy(1))
	assert.Equal(t, 0, u.Energy)
}

func TestTickBurfsResolvesHeal(t *testing.T) {
	u := NewUnit("Dev", 'D')
	u.Health = 17
	burf.Apply(u, burf.Descriptor{Kind: burf.KindHeal, Magnitude: 5, Duration: 2})

	ticks := u.TickBurfs()
	require.Len(t, ticks, 1)
	assert.Equal(t, 3, ticks[0].Magnitude, "heal is capped at max health")
	assert.Equal(t, 20, u.Health)

	u.TickBurfs()
	assert.False(t, u.BurfStatus().Has(burf.KindHeal))
}

func TestAccuracyPassive(t *testing.T) {
	tests := []struct {
		name     string
		def      gamedata.PassiveDef
		accuracy float64
		want     float64
	}{
		{"scale and bonus", gamedata.PassiveDef{Scale: 0.5, Bonus: 0.25}, 0.5, 0.5},
		{"bonus only", gamedata.PassiveDef{Bonus: 0.5}, 0.25, 0.75},
		{"clamped high", gamedata.PassiveDef{Scale: 2}, 0.75, 1},
		{"clamped low", gamedata.PassiveDef{Scale: 1, Bonus: -1}, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewAccuracyPassive(tt.def)
			assert.InDelta(t, tt.want, p.ConvertAccuracy(tt.accuracy), 1e-9)
		})
	}
}
