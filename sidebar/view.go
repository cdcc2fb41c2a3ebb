package sidebar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	CollapsedWidth = 8
	ExpandedWidth  = 40
)

var (
	panelStyle   = lipgloss.NewStyle().Background(lipgloss.Color("#19232d")).Foreground(lipgloss.Color("255"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	liveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("124")).Padding(0, 1)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	textStyle    = lipgloss.NewStyle().Background(lipgloss.Color("#2a3441")).Padding(0, 1)
)

// Width is the column count the sidebar occupies in its current state.
func (s *Sidebar) Width() int {
	if s.expanded {
		return ExpandedWidth
	}
	return CollapsedWidth
}

func (s *Sidebar) View(height int) string {
	width := s.Width()
	if !s.expanded {
		return panelStyle.Width(width).Height(height).Padding(1, 1).Render("→")
	}

	inner := width - 2
	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Width(inner-2).Render("Speech Translation"),
		"←",
	)
	b.WriteString(header + "\n\n")

	b.WriteString(s.controls() + "\n")
	b.WriteString(s.languageLine() + "\n")
	translateLine := keyStyle.Render("[t]") + " Translate"
	if s.Translating() {
		translateLine += " " + s.spin.View()
	}
	b.WriteString(translateLine + "\n\n")

	if s.errMsg != "" {
		b.WriteString(errorStyle.Width(inner).Render(s.errMsg) + "\n\n")
	}

	b.WriteString(headingStyle.Render("Recognized Text:") + "\n")
	b.WriteString(textStyle.Width(inner).Render(s.transcript) + "\n\n")
	b.WriteString(headingStyle.Render("Translated Text:") + "\n")
	b.WriteString(textStyle.Width(inner).Render(s.translation))

	return panelStyle.Width(width).Height(height).Padding(1, 1).Render(b.String())
}

func (s *Sidebar) controls() string {
	switch {
	case s.disabled:
		return dimStyle.Render("[m] Start (unavailable)")
	case s.listening:
		return keyStyle.Render("[m]") + " " + liveStyle.Render("● Stop")
	}
	return keyStyle.Render("[m]") + " ○ Start"
}

func (s *Sidebar) languageLine() string {
	return keyStyle.Render("[l]") + fmt.Sprintf(" %s (%s)", s.lang.Name(), s.lang.Code()) +
		dimStyle.Render("  1-5")
}
