package burf

// Status is the set of active instances on a single unit, keyed by kind.
// It is owned by the unit and mutated only through Apply, Remove and Tick.
type Status struct {
	instances map[Kind]Instance
	order     []Kind
}

// NewStatus creates an empty status container.
func NewStatus() *Status {
	return &Status{instances: make(map[Kind]Instance)}
}

// Holder is anything that owns a status container.
type Holder interface {
	BurfStatus() *Status
}

// Apply attaches a fresh instance of d to the holder's status.
func Apply(h Holder, d Descriptor) bool {
	return h.BurfStatus().Apply(d)
}

// Remove detaches the instance of kind from the holder's status.
func Remove(h Holder, kind Kind) bool {
	return h.BurfStatus().Remove(kind)
}

// Tick advances the holder's status by one turn.
func Tick(h Holder) []TickReport {
	return h.BurfStatus().Tick()
}

// Apply clones d into a new instance. If an instance of the same kind is
// already present it is replaced only when the new one lasts strictly
// longer. Returns true if the status changed.
func (s *Status) Apply(d Descriptor) bool {
	s.init()
	inst := d.Instantiate()
	existing, ok := s.instances[d.Kind]
	if ok && !inst.outlasts(existing) {
		return false
	}
	if !ok {
		s.order = append(s.order, d.Kind)
	}
	s.instances[d.Kind] = inst
	return true
}

// Remove discards the instance of kind. Removing an absent kind is a no-op
// and returns false.
func (s *Status) Remove(kind Kind) bool {
	if _, ok := s.instances[kind]; !ok {
		return false
	}
	delete(s.instances, kind)
	for i, k := range s.order {
		if k == kind {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Tick decrements every non-persistent instance by one turn and removes
// those that reach zero.
//
// Precondition: called exactly once per unit per elapsed turn. This is not
// guarded here.
func (s *Status) Tick() []TickReport {
	if len(s.order) == 0 {
		return nil
	}
	ticks := make([]TickReport, 0, len(s.order))
	remaining := s.order[:0:0]

	for _, kind := range s.order {
		inst := s.instances[kind]
		tick := TickReport{Kind: kind, Magnitude: inst.Magnitude}

		if !inst.Persistent {
			inst.RemainingTurns--
		}
		if !inst.Persistent && inst.RemainingTurns <= 0 {
			tick.Ended = true
			delete(s.instances, kind)
		} else {
			s.instances[kind] = inst
			remaining = append(remaining, kind)
		}
		ticks = append(ticks, tick)
	}

	s.order = remaining
	return ticks
}

// Get returns a copy of the instance of kind.
func (s *Status) Get(kind Kind) (Instance, bool) {
	inst, ok := s.instances[kind]
	return inst, ok
}

// Has reports whether an instance of kind is active.
func (s *Status) Has(kind Kind) bool {
	_, ok := s.instances[kind]
	return ok
}

// All returns copies of the active instances in application order.
func (s *Status) All() []Instance {
	out := make([]Instance, 0, len(s.order))
	for _, kind := range s.order {
		out = append(out, s.instances[kind])
	}
	return out
}

// Len returns the number of active instances.
func (s *Status) Len() int {
	return len(s.order)
}

// Clear removes every instance.
func (s *Status) Clear() {
	s.instances = make(map[Kind]Instance)
	s.order = nil
}

func (s *Status) init() {
	if s.instances == nil {
		s.instances = make(map[Kind]Instance)
	}
}
