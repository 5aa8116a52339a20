package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bungeesim/internal/jump"
)

var (
	safeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	impactStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaa00"))

	reasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)
)

// ASCII charts height and velocity for a terminal.
func ASCII(res *jump.Result, width, height int) string {
	var b strings.Builder
	b.WriteString(asciigraph.Plot(res.Trajectory.Heights(),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("height (m)"),
	))
	b.WriteString("\n\n")
	b.WriteString(asciigraph.Plot(res.Trajectory.Velocities(),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("velocity (m/s) over %.1fs", res.Duration)),
	))
	return b.String()
}

// Diagnostics colours each line by its prefix.
func Diagnostics(lines []string) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = styleFor(line).Render(line)
	}
	return strings.Join(out, "\n")
}

func styleFor(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "OUTCOME: A safe"):
		return safeStyle
	case strings.HasPrefix(line, "OUTCOME:"):
		return impactStyle
	case strings.HasPrefix(line, "WARNING:"):
		return warningStyle
	case strings.HasPrefix(line, "REASON:"):
		return reasonStyle
	default:
		return lipgloss.NewStyle()
	}
}

// Metrics lists metric values sorted by name.
func Metrics(m map[string]float64) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("%s %s", labelStyle.Render(fmt.Sprintf("%-12s", name)), valueStyle.Render(fmt.Sprintf("%.4f", m[name])))
	}
	return strings.Join(lines, "\n")
}
