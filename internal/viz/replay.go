package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/bungeesim/internal/jump"
	"github.com/san-kum/bungeesim/internal/physics"
	"github.com/san-kum/bungeesim/internal/render"
)

const (
	canvasWidth  = 24
	canvasHeight = 20
	frameRate    = 30
	maxSpeed     = 64
)

type TickMsg time.Time

// Model replays a simulated jump sample by sample.
type Model struct {
	res     *jump.Result
	title   string
	frame   int
	speed   int
	running bool
	canvas  *Canvas
}

func NewModel(res *jump.Result, title string) Model {
	return Model{
		res:     res,
		title:   title,
		speed:   1,
		running: true,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
	}
}

func (m Model) Frame() int     { return m.frame }
func (m Model) Speed() int     { return m.speed }
func (m Model) Running() bool  { return m.running }
func (m Model) finished() bool { return m.frame >= len(m.res.Trajectory)-1 }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			if m.running && m.finished() {
				m.frame = 0
			}
		case "r":
			m.frame = 0
			m.running = true
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "]", "right", "l":
			m.running = false
			m.seek(m.frame + m.speed)
		case "[", "left", "h":
			m.running = false
			m.seek(m.frame - m.speed)
		}
	case TickMsg:
		if m.running {
			m.seek(m.frame + m.speed)
			if m.finished() {
				m.running = false
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) seek(frame int) {
	last := len(m.res.Trajectory) - 1
	if frame > last {
		frame = last
	}
	if frame < 0 {
		frame = 0
	}
	m.frame = frame
}

// scale maps a height in metres to a canvas row, with the platform at the
// top and the ground on the last row.
func (m Model) scale(h float64) int {
	ch := m.canvas.PixelHeight() - 1
	top := math.Max(m.res.StartHeight, 1)
	h = math.Max(0, math.Min(h, top))
	return int(math.Round(float64(ch) * (1 - h/top)))
}

func (m Model) draw() {
	c := m.canvas
	c.Clear()
	if len(m.res.Trajectory) == 0 {
		return
	}

	cw, ch := c.PixelWidth(), c.PixelHeight()
	towerX, jumperX := 3, cw/2
	platform := m.scale(m.res.StartHeight)
	ground := ch - 1

	c.DrawLine(0, ground, cw-1, ground)
	c.DrawLine(towerX, platform, towerX, ground)
	c.DrawLine(towerX, platform, jumperX, platform)

	h := m.res.Trajectory[m.frame][physics.Height]
	y := m.scale(h)

	// The rope hangs straight once it is stretched and folds while slack.
	if h <= m.res.Params.NaturalLength {
		c.DrawLine(jumperX, platform, jumperX, y)
	} else {
		c.DrawZigzag(jumperX, platform, y, 2)
	}
	c.FillRect(jumperX-1, y-2, jumperX+1, y)
}

func (m Model) status() string {
	switch {
	case m.res.Outcome.HitGround() && m.res.ImpactIndex >= 0 && m.frame >= m.res.ImpactIndex:
		return StatusImpact.Render("GROUND IMPACT")
	case m.finished():
		return StatusPaused.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render(fmt.Sprintf("PLAYING x%d", m.speed))
	}
}

func (m Model) View() string {
	if len(m.res.Trajectory) == 0 {
		return "no samples to replay\n"
	}
	m.draw()

	x := m.res.Trajectory[m.frame]
	t := 0.0
	if m.frame < len(m.res.Times) {
		t = m.res.Times[m.frame]
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", t)) + "\n")
	s.WriteString(labelStyle.Render("Height") + valueStyle.Render(fmt.Sprintf("%.2fm", x[physics.Height])) + "\n")
	s.WriteString(labelStyle.Render("Velocity") + valueStyle.Render(fmt.Sprintf("%.2fm/s", x[physics.Velocity])) + "\n")
	s.WriteString(labelStyle.Render("Outcome") + valueStyle.Render(m.res.Outcome.String()) + "\n\n")

	progress := float64(m.frame) / math.Max(1, float64(len(m.res.Trajectory)-1))
	s.WriteString(ProgressBar(progress, 30) + "\n")

	if m.frame > 1 {
		chart := asciigraph.Plot(m.res.Trajectory.Heights()[:m.frame+1],
			asciigraph.Height(5),
			asciigraph.Width(32),
			asciigraph.Caption("height (m)"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if len(m.res.Diagnostics) > 0 {
		s.WriteString("\n" + render.Diagnostics(m.res.Diagnostics) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\n+/-:Speed [ ]:Step"))

	canvasView := canvasStyle.Render(m.canvas.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// Run replays res full screen until the user quits.
func Run(res *jump.Result, title string) error {
	_, err := tea.NewProgram(NewModel(res, title), tea.WithAltScreen()).Run()
	return err
}
