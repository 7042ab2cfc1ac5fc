package game

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/squadcore/internal/encounter"
	"github.com/samdwyer/squadcore/internal/telemetry"
	"github.com/samdwyer/squadcore/internal/ui"
)

// Game runs a session in the terminal.
type Game struct {
	screen   *ui.Screen
	renderer *ui.Renderer
	session  *Session
	running  bool
}

// New creates a new game instance for session.
func New(session *Session) (*Game, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}

	return &Game{
		screen:   screen,
		renderer: ui.NewRenderer(screen),
		session:  session,
		running:  true,
	}, nil
}

// Run executes the main game loop.
func (g *Game) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("game")

	ctx, initSpan := tracer.Start(ctx, "game.init")
	enc := g.session.Encounter
	if err := enc.Start(ctx); err != nil {
		initSpan.End()
		g.screen.Close()
		return err
	}
	initSpan.SetAttributes(
		attribute.String("encounter.id", enc.ID),
		attribute.Int("turn_limit", g.session.Config.TurnLimit),
	)
	initSpan.End()

	for g.running {
		enc.Update()
		g.renderer.Render(g.view())
		g.handleInput(ctx)
	}

	g.screen.Close()
	return nil
}

func (g *Game) view() ui.View {
	s := g.session
	return ui.View{
		Encounter: s.Encounter,
		Effects:   effectAnchors(s.Effects),
		Notice:    s.Notice,
		Log:       s.Log,
		TurnLimit: s.Config.TurnLimit,
		Day:       s.Clock.ElapsedDays(),
	}
}

func effectAnchors(p *EffectPool) map[string]string {
	out := make(map[string]string)
	for _, e := range p.Live() {
		out[e.Anchor] = e.Cue
	}
	return out
}

// handleInput processes a single input event.
func (g *Game) handleInput(ctx context.Context) {
	ev := g.screen.PollEvent()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		g.screen.Sync()
	}
}

// handleKeyEvent maps keys to encounter commands. Command errors are shown
// in the notice line by the session.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	s := g.session
	enc := s.Encounter

	switch ev.Key() {
	case tcell.KeyCtrlC:
		g.running = false
		return
	case tcell.KeyEscape:
		g.cancel(ctx)
		return
	case tcell.KeyEnter:
		g.confirm(ctx)
		return
	case tcell.KeyUp, tcell.KeyDown, tcell.KeyLeft, tcell.KeyRight:
		// Moving happens outside the core; any arrow completes the move.
		if enc.State() == encounter.StateSelectingMove {
			_ = enc.ConfirmMove(ctx)
			s.Notice = "Moved."
		}
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch r := ev.Rune(); r {
	case 'q', 'Q':
		g.running = false
	case '1', '2', '3', '4', '5':
		_ = s.SelectSlot(ctx, int(r-'1'))
	case 'z':
		_ = s.Cast(ctx, 0)
	case 'x':
		_ = s.Cast(ctx, 1)
	case 'm':
		if s.fail(enc.BeginMove(ctx)) == nil {
			s.Notice = "Move with the arrow keys, Esc to cancel."
		}
	case 'v':
		if s.fail(enc.StartVacation(ctx)) == nil {
			s.Notice = "Send on vacation? Enter to confirm, Esc to cancel."
		}
	case 'r':
		_ = s.ReturnSelected(ctx)
	case 'e':
		_ = s.EndTurn(ctx)
	case 'p':
		_ = s.fail(enc.TogglePause(ctx))
	case 's':
		_ = s.fail(enc.ToggleSetting(ctx))
	case 'g':
		_ = s.fail(enc.GiveUp(ctx))
	case 'n':
		if enc.State().Terminal() {
			g.restart(ctx)
		}
	}
}

// restart swaps in a new session. On failure the finished one stays up.
func (g *Game) restart(ctx context.Context) {
	next, err := g.session.Restart(ctx)
	if err != nil {
		g.session.Notice = "Couldn't start a new board: " + err.Error()
		return
	}
	next.Notice = "New board."
	g.session = next
}

func (g *Game) confirm(ctx context.Context) {
	s := g.session
	switch s.Encounter.State() {
	case encounter.StateSelectingMove:
		_ = s.fail(s.Encounter.ConfirmMove(ctx))
	case encounter.StateVacationStart:
		if s.fail(s.Encounter.ConfirmVacation(ctx)) == nil {
			s.Notice = "Out of office."
		}
	}
}

func (g *Game) cancel(ctx context.Context) {
	s := g.session
	enc := s.Encounter
	switch {
	case enc.State() == encounter.StateSelectingMove:
		_ = s.fail(enc.CancelMove(ctx))
	case enc.State() == encounter.StateVacationStart:
		_ = s.fail(enc.CancelVacation(ctx))
	case enc.InSettings():
		_ = s.fail(enc.ToggleSetting(ctx))
	case enc.Paused():
		_ = s.fail(enc.TogglePause(ctx))
	}
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.screen != nil {
		g.screen.Close()
	}
}
