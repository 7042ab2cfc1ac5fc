// Package ui draws an encounter in the terminal using tcell.
package ui

import "github.com/gdamore/tcell/v2"

// Screen wraps tcell.Screen with the few calls the board needs.
type Screen struct {
	screen tcell.Screen
}

// NewScreen creates and initializes a terminal screen. The board is keyboard
// only, so mouse reporting stays off.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	s.Clear()
	return &Screen{screen: s}, nil
}

// Close restores the terminal.
func (s *Screen) Close() {
	s.screen.Fini()
}

// PollEvent blocks for the next terminal event.
func (s *Screen) PollEvent() tcell.Event {
	return s.screen.PollEvent()
}

func (s *Screen) Clear() {
	s.screen.Clear()
}

func (s *Screen) Show() {
	s.screen.Show()
}

// SetContent sets one cell.
func (s *Screen) SetContent(x, y int, r rune, style tcell.Style) {
	s.screen.SetContent(x, y, r, nil, style)
}

// DrawText writes msg left to right from (x, y), clipped at the right edge.
func (s *Screen) DrawText(x, y int, msg string, style tcell.Style) {
	width, _ := s.screen.Size()
	for i, ch := range []rune(msg) {
		if x+i >= width {
			return
		}
		s.screen.SetContent(x+i, y, ch, nil, style)
	}
}

// Fill paints a w by h rectangle with blanks.
func (s *Screen) Fill(x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

func (s *Screen) Size() (width, height int) {
	return s.screen.Size()
}

// Sync redraws everything, used after a resize.
func (s *Screen) Sync() {
	s.screen.Sync()
}
