package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/squadcore/internal/encounter"
	"github.com/samdwyer/squadcore/internal/entity"
	"github.com/samdwyer/squadcore/internal/formation"
)

// Board layout.
const (
	playerAnchorX = 16
	bossAnchorX   = 46
	anchorY       = 7
	cellWidth     = 3
	cellHeight    = 2
	rosterY       = 13
	bossRosterX   = 42
)

const helpLine = "1-5 select  z/x skill  m move  v vacation  r return  e end turn  p pause  s settings  q quit"

var controls = []string{
	"1-5    select a unit",
	"z, x   use first or second skill",
	"m      move (arrows, Esc cancels)",
	"v      vacation (Enter confirms)",
	"r      return from vacation",
	"e      end turn",
	"p      pause",
	"g      give up",
	"",
	"Esc or s to close",
}

// View is what the renderer needs from a session.
type View struct {
	Encounter *encounter.Encounter
	Effects   map[string]string // Unit id to live effect cue
	Notice    string
	Log       []string
	TurnLimit int
	Day       int
}

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render draws both squads on their formation offsets, the rosters with
// burfs, the event log and any overlay.
func (r *Renderer) Render(v View) {
	r.screen.Clear()
	enc := v.Encounter
	_, height := r.screen.Size()

	r.RenderMessage(r.header(v), 0)

	r.drawSquad(enc.Players(), playerAnchorX, v, enc.Selected())
	r.drawSquad(enc.Bosses(), bossAnchorX, v, nil)

	r.drawRoster(enc.Players(), 0, rosterY, true, enc.Selected())
	r.drawRoster(enc.Bosses(), bossRosterX, rosterY, false, nil)

	logY := rosterY + 7
	for i, line := range v.Log {
		r.screen.DrawText(0, logY+i, line, tcell.StyleDefault.Foreground(tcell.ColorGray))
	}

	r.screen.DrawText(0, height-2, v.Notice, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	r.screen.DrawText(0, height-1, helpLine, tcell.StyleDefault.Foreground(tcell.ColorDarkGray))

	switch {
	case enc.State().Terminal():
		r.drawBox(strings.ToUpper(enc.State().String()), append(append([]string(nil), enc.Messages()...), "", "n: new board  q: quit"))
	case enc.InSettings():
		r.drawBox("SETTINGS", controls)
	case enc.Paused():
		r.drawBox("PAUSED", []string{"p to resume", "g to give up"})
	}

	r.screen.Show()
}

func (r *Renderer) header(v View) string {
	enc := v.Encounter
	limit := "-"
	if v.TurnLimit > 0 {
		limit = fmt.Sprint(v.TurnLimit)
	}
	h := fmt.Sprintf("squadcore  turn %d/%s  day %d  %s", enc.Turn(), limit, v.Day, enc.State())
	if enc.Paused() {
		h += " [paused]"
	}
	if enc.InSettings() {
		h += " [settings]"
	}
	return h
}

// drawSquad places each active unit at its formation offset.
func (r *Renderer) drawSquad(squad *formation.Squad, anchorX int, v View, selected *entity.Unit) {
	for _, slot := range squad.Compute() {
		x := anchorX + slot.Offset.X*cellWidth
		y := anchorY + slot.Offset.Y*cellHeight
		style := tcell.StyleDefault.Foreground(slot.Unit.Color)
		if slot.Role == formation.RoleCentral {
			style = style.Bold(true)
		}
		if slot.Unit == selected {
			style = style.Reverse(true)
		}
		if encounter.Locked(slot.Unit) {
			style = style.Underline(true)
		}
		r.screen.SetContent(x, y, slot.Unit.Symbol, style)
		if cue, ok := v.Effects[slot.Unit.ID]; ok && cue != "" {
			r.screen.SetContent(x+1, y, '*', tcell.StyleDefault.Foreground(tcell.ColorFuchsia))
		}
	}
}

func (r *Renderer) drawRoster(squad *formation.Squad, x, y int, numbered bool, selected *entity.Unit) {
	r.screen.DrawText(x, y, squad.Name+" ("+squad.Archetype().Name+")", tcell.StyleDefault.Bold(true))
	for i, u := range squad.Members() {
		prefix := "  "
		if numbered {
			prefix = fmt.Sprintf("%d ", i+1)
		}
		line := fmt.Sprintf("%s%c %-18s E%2d/%-2d H%2d/%-2d %-8s %s",
			prefix, u.Symbol, u.Name, u.Energy, u.MaxEnergy, u.Health, u.MaxHealth, u.Activity(), burfList(u))
		style := tcell.StyleDefault.Foreground(u.Color)
		if u == selected {
			style = style.Reverse(true)
		}
		if u.OnVacation() {
			style = style.Dim(true)
		}
		r.screen.DrawText(x, y+1+i, line, style)
	}
}

func burfList(u *entity.Unit) string {
	var parts []string
	for _, inst := range u.BurfStatus().All() {
		if inst.Persistent {
			parts = append(parts, inst.Kind.String())
		} else {
			parts = append(parts, fmt.Sprintf("%s:%d", inst.Kind, inst.RemainingTurns))
		}
	}
	return strings.Join(parts, " ")
}

// drawBox draws a centered framed message.
func (r *Renderer) drawBox(title string, lines []string) {
	width, height := r.screen.Size()
	w := len(title) + 4
	for _, l := range lines {
		if len(l)+4 > w {
			w = len(l) + 4
		}
	}
	h := len(lines) + 4
	x0, y0 := (width-w)/2, (height-h)/2
	frame := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)

	r.screen.Fill(x0, y0, w, h, frame)
	for x := x0; x < x0+w; x++ {
		r.screen.SetContent(x, y0, '-', frame)
		r.screen.SetContent(x, y0+h-1, '-', frame)
	}
	for y := y0; y < y0+h; y++ {
		r.screen.SetContent(x0, y, '|', frame)
		r.screen.SetContent(x0+w-1, y, '|', frame)
	}
	for _, c := range [][2]int{{x0, y0}, {x0 + w - 1, y0}, {x0, y0 + h - 1}, {x0 + w - 1, y0 + h - 1}} {
		r.screen.SetContent(c[0], c[1], '+', frame)
	}
	r.screen.DrawText(x0+(w-len(title))/2, y0+1, title, frame.Bold(true))
	for i, l := range lines {
		r.screen.DrawText(x0+2, y0+3+i, l, frame)
	}
}

// RenderMessage displays a message on row y.
func (r *Renderer) RenderMessage(msg string, y int) {
	r.screen.DrawText(0, y, msg, tcell.StyleDefault.Foreground(tcell.ColorWhite))
}
