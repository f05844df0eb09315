package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the READHUB logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "R E A D H U B" as a flowing wave of amber
// light. Deep leather brown (#3a2a14) -> warm amber (#fbbf24). Letters are
// spaced apart and rendered without a background box.
func renderShimmerLogo(frame int) string {
	const text = "READHUB"
	n := len(text)

	var out string

	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		// Flowing phase — one smooth wave advancing through the text
		phase := t*0.1 - x*3.0

		// Gentle speed modulation
		phase += math.Sin(t*0.023) * 2.0

		// Primary brightness wave
		b := math.Sin(phase)*0.5 + 0.5

		// Soft shaping
		b = math.Pow(b, 1.3)

		// Slow breathing tide
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		// Continuous RGB interpolation: leather brown -> warm amber
		// Deep:   (58, 42, 20)   #3a2a14
		// Bright: (251, 191, 36) #fbbf24
		r := clampByte(58 + b*(251-58))
		g := clampByte(42 + b*(191-42))
		bl := clampByte(20 + b*(36-20))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color))
		out += s.Render(string(text[i]))

		// Letter spacing — two spaces between each letter
		if i < n-1 {
			out += "  "
		}
	}

	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles — warm neutral palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ece8e0")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d0c8bc"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5a5448"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5a5448"))

	// Amber accent — cursor, active tab, search
	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fbbf24")).
			Bold(true)

	searchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fbbf24")).
			Bold(true)

	// Status feedback
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171")).
			Bold(true)

	// Favorite star
	favStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fbbf24"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a89880")).
				Bold(true)

	selectedRowBg = lipgloss.NewStyle().
			Background(lipgloss.Color("#1e1a14"))

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4a4438"))
)

// helpEntry renders a key + label pair for the bottom help bar.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}
