package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	model "github.com/zhouzirui/docchat/internal/model/widget"
)

type (
	profileMsg struct{ profile model.PresentationProfile }
	turnMsg    struct{ turn model.Turn }
	errorMsg   struct{ text string }
	busyMsg    struct{ busy bool }
	visibleMsg struct{ open bool }
	focusMsg   struct{}
)

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramSurface turns controller callbacks into bubbletea messages. Calls
// made before Attach are dropped.
type ProgramSurface struct {
	mu     sync.RWMutex
	sender Sender
}

// Attach routes subsequent callbacks to sender.
func (s *ProgramSurface) Attach(sender Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

func (s *ProgramSurface) send(msg tea.Msg) {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()
	if sender != nil {
		sender.Send(msg)
	}
}

func (s *ProgramSurface) ApplyProfile(profile model.PresentationProfile) {
	s.send(profileMsg{profile: profile})
}

func (s *ProgramSurface) ShowTurn(turn model.Turn) { s.send(turnMsg{turn: turn}) }
func (s *ProgramSurface) ShowError(message string) { s.send(errorMsg{text: message}) }
func (s *ProgramSurface) SetBusy(busy bool)        { s.send(busyMsg{busy: busy}) }
func (s *ProgramSurface) SetVisible(open bool)     { s.send(visibleMsg{open: open}) }
func (s *ProgramSurface) FocusInput()              { s.send(focusMsg{}) }
