package encounter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/squadcore/internal/burf"
	"github.com/samdwyer/squadcore/internal/combat"
	"github.com/samdwyer/squadcore/internal/entity"
	"github.com/samdwyer/squadcore/internal/formation"
	"github.com/samdwyer/squadcore/internal/telemetry"
)

// ErrInvalidCommand is returned for a command that does not apply to the
// current state. No state is changed.
var ErrInvalidCommand = errors.New("encounter: invalid command")

// DayCounter reports how many in-game days have passed since the session
// began. Vacations are measured against it.
type DayCounter interface {
	ElapsedDays() int
}

// Side names one of the two squads.
type Side int

const (
	SidePlayers Side = iota
	SideBosses
)

// String returns a human-readable side name.
func (s Side) String() string {
	if s == SideBosses {
		return "bosses"
	}
	return "players"
}

// Locked reports whether a unit is under a movement lock.
func Locked(u *entity.Unit) bool {
	return u.BurfStatus().Has(burf.KindMovable)
}

// Overwhelmed reports whether every active unit of a squad is overwhelmed.
func Overwhelmed(s *formation.Squad) bool {
	active := s.Active()
	if len(active) == 0 {
		return false
	}
	for _, u := range active {
		if !u.BurfStatus().Has(burf.KindOverwhelming) {
			return false
		}
	}
	return true
}

// Config wires an encounter.
type Config struct {
	Players     *formation.Squad
	Bosses      *formation.Squad
	Book        *combat.Book
	Resolver    *combat.Resolver
	Days        DayCounter
	Transitions Transitions  // nil selects DefaultTransitions
	Logger      *slog.Logger // nil selects slog.Default
}

// Encounter is one play session between the player squad and the boss
// squad.
type Encounter struct {
	ID string

	machine  *Machine
	players  *formation.Squad
	bosses   *formation.Squad
	book     *combat.Book
	resolver *combat.Resolver
	days     DayCounter
	logger   *slog.Logger
	events   bus

	selected *entity.Unit
	staged   *entity.Unit // Selection to restore when a move is cancelled
	effects  map[*entity.Unit]combat.EffectHandle
	turn     int
	messages []string
}

// New validates cfg and builds an encounter. Call Start to enter Idle.
func New(cfg Config) (*Encounter, error) {
	switch {
	case cfg.Players == nil || cfg.Bosses == nil:
		return nil, errors.New("encounter: both squads are required")
	case cfg.Book == nil:
		return nil, errors.New("encounter: skill book is required")
	case cfg.Resolver == nil:
		return nil, errors.New("encounter: resolver is required")
	case cfg.Days == nil:
		return nil, errors.New("encounter: day counter is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Encounter{
		ID:       uuid.NewString(),
		machine:  NewMachine(cfg.Transitions),
		players:  cfg.Players,
		bosses:   cfg.Bosses,
		book:     cfg.Book,
		resolver: cfg.Resolver,
		days:     cfg.Days,
		effects:  make(map[*entity.Unit]combat.EffectHandle),
	}
	e.logger = logger.With("encounter", e.ID[:8])

	var sync *Subscription
	sync = e.machine.On(StateIdle, HookEnter, func(StateType) {
		sync.Cancel()
		e.events.emit(Event{Type: EventInterfaceSync})
	})
	for _, s := range States() {
		e.machine.On(s, HookEnter, func(s StateType) { e.events.emit(Event{Type: EventStateEntered, State: s}) })
		e.machine.On(s, HookUpdate, func(s StateType) { e.events.emit(Event{Type: EventStateUpdated, State: s}) })
		e.machine.On(s, HookExit, func(s StateType) { e.events.emit(Event{Type: EventStateExited, State: s}) })
	}
	return e, nil
}

// Subscribe registers a listener for every outbound event.
func (e *Encounter) Subscribe(fn Listener) *Subscription {
	return e.events.subscribe(fn)
}

// On registers a lifecycle callback on the underlying state machine.
func (e *Encounter) On(state StateType, hook Hook, fn Callback) *Subscription {
	return e.machine.On(state, hook, fn)
}

// Start registers the formation burfs of both squads and enters Idle.
func (e *Encounter) Start(ctx context.Context) error {
	ctx, span := telemetry.Tracer("encounter").Start(ctx, "encounter.start")
	defer span.End()
	span.SetAttributes(
		attribute.String("encounter.id", e.ID),
		attribute.Int("players", len(e.players.Members())),
		attribute.Int("bosses", len(e.bosses.Members())),
	)

	e.players.RegisterBurfs(ctx)
	e.bosses.RegisterBurfs(ctx)
	if err := e.machine.Start(); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "encounter started")
	return nil
}

// State returns the active gameplay state.
func (e *Encounter) State() StateType { return e.machine.Current() }

// Paused reports whether the Pause overlay is on.
func (e *Encounter) Paused() bool { return e.machine.Overlay(StatePause) }

// InSettings reports whether the Setting overlay is on.
func (e *Encounter) InSettings() bool { return e.machine.Overlay(StateSetting) }

// Selected returns the selected player unit, or nil.
func (e *Encounter) Selected() *entity.Unit { return e.selected }

// Turn returns the number of turns advanced so far.
func (e *Encounter) Turn() int { return e.turn }

// Messages returns the victory or failure messages, if any.
func (e *Encounter) Messages() []string { return e.messages }

// Players returns the player squad.
func (e *Encounter) Players() *formation.Squad { return e.players }

// Bosses returns the boss squad.
func (e *Encounter) Bosses() *formation.Squad { return e.bosses }

// Update runs one update tick of the active state's hooks.
func (e *Encounter) Update() { e.machine.Update() }

// reject logs and returns an invalid command error.
func (e *Encounter) reject(ctx context.Context, command, reason string) error {
	e.logger.WarnContext(ctx, "command rejected",
		"command", command,
		"state", e.machine.Current().String(),
		"paused", e.Paused(),
		"settings", e.InSettings(),
		"reason", reason)
	return fmt.Errorf("%w: %s: %s", ErrInvalidCommand, command, reason)
}

// requireIdle rejects commands outside plain Idle.
func (e *Encounter) requireIdle(ctx context.Context, command string) error {
	if !e.machine.Started() {
		return e.reject(ctx, command, "not started")
	}
	if e.machine.Current() != StateIdle {
		return e.reject(ctx, command, "not idle")
	}
	if e.machine.Overlaid() {
		return e.reject(ctx, command, "overlay active")
	}
	return nil
}

func (e *Encounter) transition(ctx context.Context, command string, to StateType) error {
	if err := e.machine.Transition(to); err != nil {
		return e.reject(ctx, command, err.Error())
	}
	return nil
}

// =============================================================================
// Selection and movement
// =============================================================================

// SelectUnit selects a player unit by id and presents its skills.
func (e *Encounter) SelectUnit(ctx context.Context, unitID string) error {
	if err := e.requireIdle(ctx, "select_unit"); err != nil {
		return err
	}
	u, ok := e.players.FindByID(unitID)
	if !ok {
		return e.reject(ctx, "select_unit", "unknown unit "+unitID)
	}
	e.selected = u
	e.events.emit(Event{Type: EventUnitSelected, Unit: u})
	return nil
}

// BeginMove arms the selected unit for movement.
func (e *Encounter) BeginMove(ctx context.Context) error {
	if err := e.requireIdle(ctx, "begin_move"); err != nil {
		return err
	}
	switch {
	case e.selected == nil:
		return e.reject(ctx, "begin_move", "no unit selected")
	case !e.selected.CanAct():
		return e.reject(ctx, "begin_move", e.selected.Name+" is "+e.selected.Activity().String())
	case Locked(e.selected):
		return e.reject(ctx, "begin_move", e.selected.Name+" is movement locked")
	}
	e.staged = e.selected
	if err := e.transition(ctx, "begin_move", StateSelectingMove); err != nil {
		e.staged = nil
		return err
	}
	e.events.emit(Event{Type: EventMoveStarted, Unit: e.selected})
	return nil
}

// ConfirmMove reports that the presentation layer finished moving the
// armed unit. Moving does not use up the unit's action.
func (e *Encounter) ConfirmMove(ctx context.Context) error {
	if e.machine.Current() != StateSelectingMove {
		return e.reject(ctx, "confirm_move", "no move armed")
	}
	if err := e.transition(ctx, "confirm_move", StateIdle); err != nil {
		return err
	}
	e.staged = nil
	return nil
}

// CancelMove disarms movement and restores the selection made before it.
func (e *Encounter) CancelMove(ctx context.Context) error {
	if e.machine.Current() != StateSelectingMove {
		return e.reject(ctx, "cancel_move", "no move armed")
	}
	if err := e.transition(ctx, "cancel_move", StateIdle); err != nil {
		return err
	}
	e.selected = e.staged
	e.staged = nil
	return nil
}

// =============================================================================
// Vacation
// =============================================================================

// StartVacation stages the selected unit for a rest cycle. The formation
// anchor cannot leave.
func (e *Encounter) StartVacation(ctx context.Context) error {
	if err := e.requireIdle(ctx, "start_vacation"); err != nil {
		return err
	}
	switch {
	case e.selected == nil:
		return e.reject(ctx, "start_vacation", "no unit selected")
	case e.selected.IsCentral():
		return e.reject(ctx, "start_vacation", e.selected.Name+" anchors the formation")
	case !e.selected.CanAct():
		return e.reject(ctx, "start_vacation", e.selected.Name+" is "+e.selected.Activity().String())
	}
	return e.transition(ctx, "start_vacation", StateVacationStart)
}

// ConfirmVacation suspends the staged unit and recomputes the formation
// without it.
func (e *Encounter) ConfirmVacation(ctx context.Context) error {
	if e.machine.Current() != StateVacationStart {
		return e.reject(ctx, "confirm_vacation", "no vacation staged")
	}
	u := e.selected
	if err := u.StartVacation(e.days.ElapsedDays()); err != nil {
		return e.reject(ctx, "confirm_vacation", err.Error())
	}
	if err := e.transition(ctx, "confirm_vacation", StateIdle); err != nil {
		return err
	}
	e.selected = nil
	e.logger.InfoContext(ctx, "unit on vacation", "unit", u.Name, "day", u.VacationStartDay())
	e.formationChanged(ctx, SidePlayers)
	return nil
}

// CancelVacation returns to Idle without suspending the unit and presents
// its skills again.
func (e *Encounter) CancelVacation(ctx context.Context) error {
	if e.machine.Current() != StateVacationStart {
		return e.reject(ctx, "cancel_vacation", "no vacation staged")
	}
	if err := e.transition(ctx, "cancel_vacation", StateIdle); err != nil {
		return err
	}
	e.events.emit(Event{Type: EventUnitSelected, Unit: e.selected})
	return nil
}

// =============================================================================
// Overlays
// =============================================================================

// TogglePause turns the Pause overlay on or off.
func (e *Encounter) TogglePause(ctx context.Context) error {
	if err := e.machine.Toggle(StatePause); err != nil {
		return e.reject(ctx, "toggle_pause", err.Error())
	}
	return nil
}

// ToggleSetting turns the Setting overlay on or off.
func (e *Encounter) ToggleSetting(ctx context.Context) error {
	if err := e.machine.Toggle(StateSetting); err != nil {
		return e.reject(ctx, "toggle_setting", err.Error())
	}
	return nil
}

// =============================================================================
// Skills and turns
// =============================================================================

// InvokeSkill has the selected unit use a skill against the boss squad.
// The unit's action is spent when this returns. Its effect handle lives
// until ActFinish.
func (e *Encounter) InvokeSkill(ctx context.Context, skillID string) (*combat.Context, error) {
	if err := e.requireIdle(ctx, "invoke_skill"); err != nil {
		return nil, err
	}
	u := e.selected
	switch {
	case u == nil:
		return nil, e.reject(ctx, "invoke_skill", "no unit selected")
	case !u.CanAct():
		return nil, e.reject(ctx, "invoke_skill", u.Name+" is "+u.Activity().String())
	case !u.Knows(skillID):
		return nil, e.reject(ctx, "invoke_skill", u.Name+" does not know "+skillID)
	}
	skill := e.book.Get(skillID)
	if skill == nil {
		return nil, e.reject(ctx, "invoke_skill", "unknown skill "+skillID)
	}
	if !e.resolver.CanUse(skill, u) {
		err := &combat.ResourceError{Caster: u.Name, Skill: skill.Name(), Required: skill.Cost(), Available: u.Energy}
		e.logger.InfoContext(ctx, "skill unaffordable", "unit", u.Name, "skill", skillID)
		return nil, err
	}

	rc, err := e.cast(ctx, u, skill, e.bosses)
	if err != nil {
		return nil, err
	}
	e.selected = nil
	return rc, nil
}

// cast runs the pipeline for caster against target and reports the result.
func (e *Encounter) cast(ctx context.Context, caster *entity.Unit, skill combat.Skill, target *formation.Squad) (*combat.Context, error) {
	if err := caster.BeginAction(); err != nil {
		return nil, err
	}
	e.events.emit(Event{Type: EventActionStarted, Unit: caster})

	rc, err := e.resolver.Invoke(ctx, caster, skill, target, func(s combat.Skill) {
		e.events.emit(Event{Type: EventSkillMissed, Unit: caster, Skill: s})
	})
	if err != nil {
		caster.ResetTurn()
		e.logger.WarnContext(ctx, "skill failed", "unit", caster.Name, "skill", skill.ID(), "error", err)
		return nil, err
	}
	if rc.Effect != nil {
		if old, ok := e.effects[caster]; ok {
			old.Dispose()
		}
		e.effects[caster] = rc.Effect
	}
	e.events.emit(Event{Type: EventSkillResolved, Unit: caster, Skill: skill, Result: rc})
	return rc, nil
}

// ActFinish reports that the presentation layer is done with a unit's
// action. With returning set, it instead ends the unit's vacation, restoring
// energy for the days away, and puts the unit back into the formation.
func (e *Encounter) ActFinish(ctx context.Context, unitID string, returning bool) error {
	if !e.machine.Started() || e.machine.Current().Terminal() {
		return e.reject(ctx, "act_finish", "encounter not running")
	}
	u, side, ok := e.find(unitID)
	if !ok {
		return e.reject(ctx, "act_finish", "unknown unit "+unitID)
	}

	if returning {
		if e.machine.Overlaid() {
			return e.reject(ctx, "act_finish", "overlay active")
		}
		restored, err := u.ReturnFromVacation(e.days.ElapsedDays())
		if err != nil {
			return e.reject(ctx, "act_finish", err.Error())
		}
		e.logger.InfoContext(ctx, "unit returned", "unit", u.Name, "energy", restored)
	} else {
		if u.Activity() != entity.ActivityActing && u.Activity() != entity.ActivityFinished {
			return e.reject(ctx, "act_finish", u.Name+" is "+u.Activity().String())
		}
		u.FinishAction()
	}

	if h, ok := e.effects[u]; ok {
		h.Dispose()
		delete(e.effects, u)
	}
	e.events.emit(Event{Type: EventActionFinished, Unit: u})
	if returning {
		e.formationChanged(ctx, side)
	}
	return nil
}

// OpponentTurn has the boss anchor use the first skill in its loadout it can
// afford against the player squad. Returns nil when the boss has nothing to
// do.
func (e *Encounter) OpponentTurn(ctx context.Context) (*combat.Context, error) {
	if err := e.requireIdle(ctx, "opponent_turn"); err != nil {
		return nil, err
	}
	boss := e.bosses.Central()
	if !boss.CanAct() {
		return nil, nil
	}
	for _, slot := range boss.Loadout {
		skill := e.book.Get(slot.ID)
		if skill == nil || !e.resolver.CanUse(skill, boss) {
			continue
		}
		rc, err := e.cast(ctx, boss, skill, e.players)
		if err != nil {
			return nil, err
		}
		if err := e.ActFinish(ctx, boss.ID, false); err != nil {
			return rc, err
		}
		return rc, nil
	}
	return nil, nil
}

// AdvanceTurn ticks every unit's burfs exactly once, resolves
// heal-over-time and makes finished units idle again.
func (e *Encounter) AdvanceTurn(ctx context.Context) error {
	if err := e.requireIdle(ctx, "advance_turn"); err != nil {
		return err
	}
	ctx, span := telemetry.Tracer("encounter").Start(ctx, "encounter.turn")
	defer span.End()

	expired := 0
	for _, squad := range []*formation.Squad{e.players, e.bosses} {
		for _, u := range squad.Members() {
			for _, tick := range u.TickBurfs() {
				if tick.Ended {
					expired++
				}
			}
			u.ResetTurn()
		}
	}
	e.turn++
	span.SetAttributes(attribute.Int("turn", e.turn), attribute.Int("burfs.expired", expired))
	e.logger.DebugContext(ctx, "turn advanced", "turn", e.turn, "expired", expired)
	e.events.emit(Event{Type: EventTurnAdvanced, Turn: e.turn})
	return nil
}

// =============================================================================
// Resolution
// =============================================================================

// Victory ends the encounter in the player's favour.
func (e *Encounter) Victory(ctx context.Context, messages ...string) error {
	return e.end(ctx, "victory", StateVictory, EventVictory, messages)
}

// Failure ends the encounter against the player.
func (e *Encounter) Failure(ctx context.Context, messages ...string) error {
	return e.end(ctx, "failure", StateFailure, EventFailure, messages)
}

// GiveUp leaves any overlay or staged command and fails the encounter.
func (e *Encounter) GiveUp(ctx context.Context) error {
	if !e.machine.Started() || e.machine.Current().Terminal() {
		return e.reject(ctx, "give_up", "encounter not running")
	}
	_ = e.machine.SetOverlay(StatePause, false)
	_ = e.machine.SetOverlay(StateSetting, false)
	switch e.machine.Current() {
	case StateSelectingMove:
		_ = e.CancelMove(ctx)
	case StateVacationStart:
		_ = e.CancelVacation(ctx)
	}
	return e.Failure(ctx, "You gave up. The deadline wins.")
}

func (e *Encounter) end(ctx context.Context, command string, to StateType, ev EventType, messages []string) error {
	if e.machine.Current() != StateIdle {
		return e.reject(ctx, command, "not idle")
	}
	if err := e.transition(ctx, command, to); err != nil {
		return err
	}
	e.messages = append([]string(nil), messages...)
	e.selected = nil
	e.disposeEffects()

	_, span := telemetry.Tracer("encounter").Start(ctx, "encounter.end")
	span.SetAttributes(
		attribute.String("outcome", command),
		attribute.Int("turns_taken", e.turn),
	)
	span.End()

	e.logger.InfoContext(ctx, "encounter ended", "outcome", command, "turns", e.turn)
	e.events.emit(Event{Type: ev, Messages: e.messages})
	return nil
}

// Reset returns a finished or stuck encounter to Idle. Units, burfs and the
// turn counter are left as they are; a new encounter needs a new Encounter.
func (e *Encounter) Reset(ctx context.Context) {
	e.selected = nil
	e.staged = nil
	e.messages = nil
	e.disposeEffects()
	e.machine.Reset()
	e.logger.InfoContext(ctx, "encounter reset")
}

func (e *Encounter) disposeEffects() {
	for u, h := range e.effects {
		h.Dispose()
		delete(e.effects, u)
	}
}

func (e *Encounter) formationChanged(ctx context.Context, side Side) {
	squad := e.players
	if side == SideBosses {
		squad = e.bosses
	}
	squad.RegisterBurfs(ctx)
	e.events.emit(Event{Type: EventFormationChanged, Side: side})
}

func (e *Encounter) find(unitID string) (*entity.Unit, Side, bool) {
	if u, ok := e.players.FindByID(unitID); ok {
		return u, SidePlayers, true
	}
	if u, ok := e.bosses.FindByID(unitID); ok {
		return u, SideBosses, true
	}
	return nil, SidePlayers, false
}
