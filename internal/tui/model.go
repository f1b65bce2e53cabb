package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	model "github.com/zhouzirui/docchat/internal/model/widget"
	"github.com/zhouzirui/docchat/internal/service/widget"
)

const windowWidth = 60

type mountedMsg struct{ controller *widget.Controller }
type mountFailedMsg struct{ err error }
type sendDoneMsg struct {
	outcome widget.Outcome
	err     error
}

// entry is one rendered line of the chat window: a turn or an error.
type entry struct {
	turn    model.Turn
	errText string
}

// Model is the bubbletea host of one widget controller.
type Model struct {
	ctx       context.Context
	cfg       widget.MountConfig
	mountOpts []widget.Option
	surface   *ProgramSurface

	controller *widget.Controller
	profile    model.PresentationProfile
	open       bool
	busy       bool
	pending    string
	entries    []entry
	err        error

	input  textinput.Model
	spin   spinner.Model
	width  int
	height int
}

// NewModel prepares a host. The controller is mounted by Init, once the
// program is running, so surface callbacks always have a reader.
func NewModel(ctx context.Context, cfg widget.MountConfig, opts ...widget.Option) Model {
	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Width = windowWidth - 6

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		cfg:       cfg,
		mountOpts: opts,
		surface:   &ProgramSurface{},
		profile:   model.DefaultProfile(),
		input:     in,
		spin:      s,
	}
}

// Surface is the callback target to attach to the program.
func (m Model) Surface() *ProgramSurface { return m.surface }

// Controller returns the mounted controller, nil until mounting finished.
func (m Model) Controller() *widget.Controller { return m.controller }

// Err reports why mounting failed.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	ctx, cfg, surface, opts := m.ctx, m.cfg, m.surface, m.mountOpts
	return func() tea.Msg {
		c, err := widget.Mount(ctx, cfg, surface, opts...)
		if err != nil {
			return mountFailedMsg{err: err}
		}
		return mountedMsg{controller: c}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case mountedMsg:
		m.controller = msg.controller
		return m, nil

	case mountFailedMsg:
		m.err = msg.err
		return m, tea.Quit

	case profileMsg:
		m.profile = msg.profile
		m.spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(msg.profile.AccentColor))
		return m, nil

	case turnMsg:
		m.entries = append(m.entries, entry{turn: msg.turn})
		return m, nil

	case errorMsg:
		m.entries = append(m.entries, entry{errText: msg.text})
		return m, nil

	case busyMsg:
		m.busy = msg.busy
		if m.busy {
			if m.pending != "" {
				m.input.Reset()
				m.pending = ""
			}
			m.input.Blur()
			return m, m.spin.Tick
		}
		return m, nil

	case visibleMsg:
		m.open = msg.open
		if !m.open {
			m.input.Blur()
		}
		return m, nil

	case focusMsg:
		if m.open && !m.busy {
			return m, m.input.Focus()
		}
		return m, nil

	case sendDoneMsg:
		// Outcomes are already rendered through the surface. A rejected send
		// keeps the typed text for another try.
		if msg.err == nil && m.pending != "" {
			m.input.Reset()
		}
		m.pending = ""
		if msg.err != nil && m.open && !m.busy {
			return m, m.input.Focus()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+o":
		return m, m.controllerCmd(func(c *widget.Controller) { c.Toggle() })
	case "esc":
		return m, m.controllerCmd(func(c *widget.Controller) { c.Escape() })
	case "enter":
		if m.controller == nil || !m.open || m.busy || m.pending != "" {
			return m, nil
		}
		if !m.controller.State().Accepting() {
			return m, nil
		}
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		// The input is cleared once the controller takes the message.
		m.pending = text
		c, ctx := m.controller, m.ctx
		return m, func() tea.Msg {
			outcome, err := c.Send(ctx, text)
			return sendDoneMsg{outcome: outcome, err: err}
		}
	}

	if !m.open || m.busy || m.pending != "" {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// controllerCmd runs fn off the event loop; the controller reports back
// through the surface.
func (m Model) controllerCmd(fn func(*widget.Controller)) tea.Cmd {
	c := m.controller
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		fn(c)
		return nil
	}
}
