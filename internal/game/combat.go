package game

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/squadcore/internal/combat"
	"github.com/samdwyer/squadcore/internal/encounter"
	"github.com/samdwyer/squadcore/internal/telemetry"
)

// =============================================================================
// Turn flow on Session
// =============================================================================

// SelectSlot selects the player unit at index i of the squad list.
func (s *Session) SelectSlot(ctx context.Context, i int) error {
	members := s.Encounter.Players().Members()
	if i < 0 || i >= len(members) {
		return s.fail(fmt.Errorf("no unit in slot %d", i+1))
	}
	if err := s.Encounter.SelectUnit(ctx, members[i].ID); err != nil {
		return s.fail(err)
	}
	u := members[i]
	s.Notice = fmt.Sprintf("%s selected (%d/%d energy, %s).", u.Name, u.Energy, u.MaxEnergy, u.Activity())
	return nil
}

// Cast has the selected unit use the skill in loadout slot i. There is no
// animation to wait for, so the action finishes immediately.
func (s *Session) Cast(ctx context.Context, i int) error {
	u := s.Encounter.Selected()
	if u == nil {
		return s.fail(errors.New("select a unit first"))
	}
	if i < 0 || i >= len(u.Loadout) {
		return s.fail(fmt.Errorf("%s has no skill %d", u.Name, i+1))
	}

	rc, err := s.Encounter.InvokeSkill(ctx, u.Loadout[i].ID)
	if err != nil {
		return s.fail(err)
	}
	if err := s.Encounter.ActFinish(ctx, u.ID, false); err != nil {
		return s.fail(err)
	}

	if rc.Hit {
		s.Notice = fmt.Sprintf("%s hit with %s.", u.Name, rc.Skill.Name())
	} else {
		s.Notice = fmt.Sprintf("%s missed with %s.", u.Name, rc.Skill.Name())
	}
	s.CheckOutcome(ctx)
	return nil
}

// ReturnSelected brings the selected unit back from vacation.
func (s *Session) ReturnSelected(ctx context.Context) error {
	u := s.Encounter.Selected()
	if u == nil {
		return s.fail(errors.New("select a unit first"))
	}
	before := u.Energy
	if err := s.Encounter.ActFinish(ctx, u.ID, true); err != nil {
		return s.fail(err)
	}
	s.Notice = fmt.Sprintf("%s is back (+%d energy).", u.Name, u.Energy-before)
	return nil
}

// EndTurn lets the boss act, advances the turn and checks the outcome.
func (s *Session) EndTurn(ctx context.Context) error {
	ctx, span := telemetry.Tracer("game").Start(ctx, "game.end_turn")
	defer span.End()

	rc, err := s.Encounter.OpponentTurn(ctx)
	if err != nil {
		return s.fail(err)
	}
	if rc != nil {
		span.SetAttributes(attribute.String("boss.skill", rc.Skill.ID()), attribute.Bool("boss.hit", rc.Hit))
	}
	if err := s.Encounter.AdvanceTurn(ctx); err != nil {
		return s.fail(err)
	}
	span.SetAttributes(attribute.Int("turn", s.Encounter.Turn()))
	s.Notice = fmt.Sprintf("Turn %d. Day %d.", s.Encounter.Turn(), s.Clock.ElapsedDays())
	s.CheckOutcome(ctx)
	return nil
}

// CheckOutcome ends the encounter when every boss is overwhelmed or the turn
// limit is reached. Returns true once the encounter is over.
func (s *Session) CheckOutcome(ctx context.Context) bool {
	enc := s.Encounter
	if enc.State().Terminal() {
		return true
	}
	if enc.State() != encounter.StateIdle || enc.Paused() || enc.InSettings() {
		return false
	}
	switch {
	case encounter.Overwhelmed(enc.Bosses()):
		_ = enc.Victory(ctx, "Every blocker is overwhelmed.", "Shipped before the deadline!")
	case s.Config.TurnLimit > 0 && enc.Turn() >= s.Config.TurnLimit:
		_ = enc.Failure(ctx, fmt.Sprintf("Turn %d: the deadline passed.", enc.Turn()))
	default:
		return false
	}
	return true
}

// fail records err as the notice and returns it. A nil err is passed
// through untouched.
func (s *Session) fail(err error) error {
	if err == nil {
		return nil
	}
	var resErr *combat.ResourceError
	switch {
	case errors.As(err, &resErr):
		s.Notice = resErr.Error()
	case errors.Is(err, encounter.ErrInvalidCommand):
		s.Notice = "Can't do that now."
	default:
		s.Notice = err.Error()
	}
	return err
}
