package encounter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookLog []string

func (l *hookLog) record(hook Hook) Callback {
	return func(s StateType) { *l = append(*l, hook.String()+":"+s.String()) }
}

func watchAll(m *Machine, log *hookLog) {
	for _, s := range States() {
		m.On(s, HookEnter, log.record(HookEnter))
		m.On(s, HookUpdate, log.record(HookUpdate))
		m.On(s, HookExit, log.record(HookExit))
	}
}

func TestStateTypeString(t *testing.T) {
	tests := []struct {
		state    StateType
		expected string
	}{
		{StateIdle, "idle"},
		{StateSelectingMove, "selecting_move"},
		{StateVacationStart, "vacation_start"},
		{StatePause, "pause"},
		{StateSetting, "setting"},
		{StateVictory, "victory"},
		{StateFailure, "failure"},
		{StateType(42), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.state.String())
	}
}

func TestMachineRequiresStart(t *testing.T) {
	m := NewMachine(nil)
	assert.ErrorIs(t, m.Transition(StateSelectingMove), ErrNotStarted)
	assert.ErrorIs(t, m.SetOverlay(StatePause, true), ErrNotStarted)

	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Start(), ErrInvalidTransition)
}

func TestMachineHookOrder(t *testing.T) {
	m := NewMachine(nil)
	var log hookLog
	watchAll(m, &log)

	require.NoError(t, m.Start())
	m.Update()
	require.NoError(t, m.Transition(StateSelectingMove))
	m.Update()
	require.NoError(t, m.Transition(StateIdle))

	assert.Equal(t, hookLog{
		"enter:idle",
		"update:idle",
		"exit:idle",
		"enter:selecting_move",
		"update:selecting_move",
		"exit:selecting_move",
		"enter:idle",
	}, log)
}

func TestMachineCallbacksRunInRegistrationOrder(t *testing.T) {
	m := NewMachine(nil)
	var order []int
	for i := 0; i < 3; i++ {
		m.On(StateIdle, HookEnter, func(StateType) { order = append(order, i) })
	}
	require.NoError(t, m.Start())
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Start())

	assert.ErrorIs(t, m.Transition(StateIdle), ErrInvalidTransition, "idle -> idle")
	assert.ErrorIs(t, m.Transition(StatePause), ErrInvalidTransition, "overlays are not transitions")

	require.NoError(t, m.Transition(StateSelectingMove))
	assert.ErrorIs(t, m.Transition(StateVictory), ErrInvalidTransition, "victory only from idle")
	assert.Equal(t, StateSelectingMove, m.Current())
}

func TestMachineInjectedTable(t *testing.T) {
	m := NewMachine(Transitions{StateIdle: {StateFailure}})
	require.NoError(t, m.Start())

	assert.ErrorIs(t, m.Transition(StateSelectingMove), ErrInvalidTransition)
	assert.NoError(t, m.Transition(StateFailure))
}

func TestMachineTerminalStates(t *testing.T) {
	for _, terminal := range []StateType{StateVictory, StateFailure} {
		t.Run(terminal.String(), func(t *testing.T) {
			m := NewMachine(nil)
			require.NoError(t, m.Start())
			require.NoError(t, m.Transition(terminal))

			for _, s := range States() {
				assert.Error(t, m.Transition(s), "%s -> %s", terminal, s)
			}
			assert.Error(t, m.SetOverlay(StatePause, true))
			assert.Equal(t, terminal, m.Current())

			m.Reset()
			assert.Equal(t, StateIdle, m.Current())
		})
	}
}

func TestMachineOverlays(t *testing.T) {
	m := NewMachine(nil)
	var log hookLog
	require.NoError(t, m.Start())
	watchAll(m, &log)

	require.NoError(t, m.Toggle(StatePause))
	assert.True(t, m.Overlay(StatePause))
	assert.Equal(t, StateIdle, m.Current(), "overlay keeps the gameplay state")

	require.NoError(t, m.Toggle(StateSetting))
	assert.True(t, m.Overlay(StatePause) && m.Overlay(StateSetting), "overlays are independent")

	assert.ErrorIs(t, m.Transition(StateSelectingMove), ErrInvalidTransition)

	require.NoError(t, m.Toggle(StatePause))
	require.NoError(t, m.Toggle(StateSetting))
	assert.False(t, m.Overlaid())

	assert.Equal(t, hookLog{"enter:pause", "enter:setting", "exit:pause", "exit:setting"}, log)
}

func TestMachineOverlayOnlyFromIdle(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Start())
	require.NoError(t, m.Transition(StateVacationStart))

	assert.ErrorIs(t, m.SetOverlay(StateSetting, true), ErrInvalidTransition)
	assert.ErrorIs(t, m.SetOverlay(StateIdle, true), ErrInvalidTransition)
	assert.NoError(t, m.SetOverlay(StateSetting, false), "turning off an off overlay is a no-op")
}

func TestMachineSelfCancellingCallback(t *testing.T) {
	m := NewMachine(nil)
	calls, after := 0, 0

	var sub *Subscription
	sub = m.On(StateIdle, HookEnter, func(StateType) {
		calls++
		sub.Cancel()
	})
	m.On(StateIdle, HookEnter, func(StateType) { after++ })

	require.NoError(t, m.Start())
	require.NoError(t, m.Transition(StateSelectingMove))
	require.NoError(t, m.Transition(StateIdle))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, after, "later callbacks still run during the cancelling dispatch")
}

func TestMachineCancelDuringDispatchSkipsCancelled(t *testing.T) {
	m := NewMachine(nil)
	second := 0

	var victim *Subscription
	m.On(StateIdle, HookEnter, func(StateType) { victim.Cancel() })
	victim = m.On(StateIdle, HookEnter, func(StateType) { second++ })

	require.NoError(t, m.Start())
	assert.Zero(t, second)
}

func TestMachineSubscribeDuringDispatch(t *testing.T) {
	m := NewMachine(nil)
	added := 0
	m.On(StateIdle, HookEnter, func(StateType) {
		m.On(StateIdle, HookEnter, func(StateType) { added++ })
	})

	require.NoError(t, m.Start())
	assert.Zero(t, added, "callbacks added mid-dispatch wait for the next one")

	m.Reset()
	assert.Equal(t, 1, added)
}
