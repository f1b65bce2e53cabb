package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	model "github.com/zhouzirui/docchat/internal/model/widget"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userStyle  = lipgloss.NewStyle().Bold(true)
)

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("widget not mounted: "+m.err.Error()) + "\n"
	}

	accent := lipgloss.Color(m.profile.AccentColor)
	bubble := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffffff")).
		Background(accent).
		Padding(0, 1).
		Render("💬")

	var body string
	if m.open {
		body = lipgloss.JoinVertical(m.alignment(), m.window(accent), bubble)
	} else {
		body = bubble + mutedStyle.Render("  ctrl+o to chat")
	}

	help := mutedStyle.Render("ctrl+o toggle • esc close • ctrl+c quit")
	return m.place(body) + "\n" + m.place(help) + "\n"
}

func (m Model) window(accent lipgloss.Color) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		Background(accent).
		Width(windowWidth-2).
		Padding(0, 1).
		Render(m.profile.DisplayName)

	lines := make([]string, 0, len(m.entries)+1)
	text := lipgloss.NewStyle().Width(windowWidth - 4)
	for _, e := range m.entries {
		switch {
		case e.errText != "":
			lines = append(lines, text.Render(errorStyle.Render("❌ "+e.errText)))
		case e.turn.Role == model.RoleUser:
			lines = append(lines, text.Render(userStyle.Render("You: ")+e.turn.Text))
		default:
			name := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(m.profile.DisplayName + ": ")
			lines = append(lines, text.Render(name+e.turn.Text))
		}
	}
	if m.busy {
		lines = append(lines, m.spin.View()+mutedStyle.Render(" typing..."))
	}

	inputView := m.input.View()
	if m.busy {
		inputView = mutedStyle.Render("> waiting for reply...")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n")),
		lipgloss.NewStyle().Padding(0, 1).Render(inputView),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Width(windowWidth).
		Render(content)
}

func (m Model) alignment() lipgloss.Position {
	if m.profile.AnchorSide == model.AnchorLeft {
		return lipgloss.Left
	}
	return lipgloss.Right
}

func (m Model) place(block string) string {
	if m.width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(m.width, m.alignment(), block)
}
