package burf

import (
	"errors"
	"testing"
)

type holder struct{ status *Status }

func (h *holder) BurfStatus() *Status { return h.status }

func newHolder() *holder { return &holder{status: NewStatus()} }

func TestNewDescriptorValidation(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		magnitude int
		duration  int
		wantErr   error
	}{
		{"valid", KindHeal, 5, 5, nil},
		{"zero duration", KindDamageSplash, 0, 0, nil},
		{"negative duration", KindHeal, 5, -1, ErrNegativeDuration},
		{"negative magnitude", KindHeal, -2, 3, ErrNegativeMagnitude},
		{"unknown kind", Kind("haste"), 1, 1, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.kind, tt.magnitude, tt.duration)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewDescriptor() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyKeepsLongestDuration(t *testing.T) {
	sequences := [][]int{
		{2, 5, 3},
		{5, 2},
		{1, 1, 1},
		{3, 4, 4, 1, 6},
	}

	for _, durations := range sequences {
		h := newHolder()
		max := 0
		for _, d := range durations {
			Apply(h, Descriptor{Kind: KindOverwhelming, Duration: d})
			if d > max {
				max = d
			}
		}
		inst, ok := h.status.Get(KindOverwhelming)
		if !ok {
			t.Fatalf("durations %v: instance missing", durations)
		}
		if inst.RemainingTurns != max {
			t.Errorf("durations %v: RemainingTurns = %d, want %d", durations, inst.RemainingTurns, max)
		}
		if h.status.Len() != 1 {
			t.Errorf("durations %v: Len() = %d, want 1", durations, h.status.Len())
		}
	}
}

func TestApplyTieKeepsExistingInstance(t *testing.T) {
	h := newHolder()
	Apply(h, Descriptor{Kind: KindHeal, Magnitude: 5, Duration: 3})

	if changed := Apply(h, Descriptor{Kind: KindHeal, Magnitude: 9, Duration: 3}); changed {
		t.Error("Apply() with equal duration should not replace the instance")
	}
	inst, _ := h.status.Get(KindHeal)
	if inst.Magnitude != 5 {
		t.Errorf("Magnitude = %d, want 5 (existing kept)", inst.Magnitude)
	}
}

func TestApplyPersistentOutranksFinite(t *testing.T) {
	h := newHolder()
	Apply(h, Descriptor{Kind: KindDamageSplash, Duration: 10})
	if !Apply(h, Descriptor{Kind: KindDamageSplash, Persistent: true}) {
		t.Error("persistent descriptor should replace a finite instance")
	}
	if Apply(h, Descriptor{Kind: KindDamageSplash, Duration: 99}) {
		t.Error("finite descriptor should not replace a persistent instance")
	}
}

func TestInstancesAreIndependent(t *testing.T) {
	d := Descriptor{Kind: KindHeal, Magnitude: 5, Duration: 2}
	a, b := newHolder(), newHolder()
	Apply(a, d)
	Apply(b, d)

	Tick(a)

	ia, _ := a.status.Get(KindHeal)
	ib, _ := b.status.Get(KindHeal)
	if ia.RemainingTurns != 1 || ib.RemainingTurns != 2 {
		t.Errorf("RemainingTurns a=%d b=%d, want 1 and 2", ia.RemainingTurns, ib.RemainingTurns)
	}
	if d.Duration != 2 {
		t.Error("descriptor must not be mutated by ticking")
	}
}

func TestRemove(t *testing.T) {
	h := newHolder()
	Apply(h, Descriptor{Kind: KindMovable, Duration: 2})
	Apply(h, Descriptor{Kind: KindHeal, Duration: 2})

	if !Remove(h, KindMovable) {
		t.Error("Remove() of present kind should return true")
	}
	if Remove(h, KindMovable) {
		t.Error("Remove() of absent kind should be a no-op returning false")
	}
	if h.status.Has(KindMovable) {
		t.Error("movable should be gone")
	}
	if !h.status.Has(KindHeal) {
		t.Error("heal should remain")
	}
}

func TestTick(t *testing.T) {
	h := newHolder()
	Apply(h, Descriptor{Kind: KindHeal, Magnitude: 5, Duration: 1})
	Apply(h, Descriptor{Kind: KindOverwhelming, Duration: 2})
	Apply(h, Descriptor{Kind: KindDamageSplash, Persistent: true})

	ticks := Tick(h)
	if len(ticks) != 3 {
		t.Fatalf("Tick() returned %d reports, want 3", len(ticks))
	}
	if !ticks[0].Ended || ticks[0].Kind != KindHeal || ticks[0].Magnitude != 5 {
		t.Errorf("heal tick = %+v, want ended with magnitude 5", ticks[0])
	}
	want := TickReport{Kind: KindOverwhelming}
	if ticks[1] != want {
		t.Errorf("overwhelming tick = %+v, want %+v", ticks[1], want)
	}
	if h.status.Has(KindHeal) {
		t.Error("instance with one remaining turn must be absent after one tick")
	}

	Tick(h)
	if h.status.Has(KindOverwhelming) {
		t.Error("overwhelming should expire after two ticks")
	}
	if !h.status.Has(KindDamageSplash) {
		t.Error("persistent instance should survive ticking")
	}
}

func TestTickEmpty(t *testing.T) {
	if ticks := NewStatus().Tick(); ticks != nil {
		t.Errorf("Tick() on empty status = %v, want nil", ticks)
	}
}

func TestAllPreservesOrder(t *testing.T) {
	h := newHolder()
	Apply(h, Descriptor{Kind: KindMovable, Duration: 1})
	Apply(h, Descriptor{Kind: KindHeal, Duration: 1})
	Apply(h, Descriptor{Kind: KindMovable, Duration: 4})

	all := h.status.All()
	if len(all) != 2 || all[0].Kind != KindMovable || all[1].Kind != KindHeal {
		t.Errorf("All() = %+v, want [movable heal]", all)
	}
}
