package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/statesim/internal/plot"
	"github.com/san-kum/statesim/internal/sim"
)

const (
	frameInterval = time.Second / 30
	chartWindow   = 240
	chartWidth    = 60
	chartHeight   = 12
	maxSpeed      = 256
	maxRows       = 12
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Live steps a simulator a few samples per frame and charts one signal.
type Live struct {
	sim      *sim.Simulator
	title    string
	names    []string
	selected int
	speed    int
	paused   bool
	err      error
	quitting bool
}

func NewLive(s *sim.Simulator, title string) Live {
	return Live{
		sim:   s,
		title: title,
		names: s.SignalNames(),
		speed: 1,
	}
}

func (m Live) Init() tea.Cmd { return tick() }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if !m.paused {
			m.advance()
		}
		if m.sim.Done() || m.err != nil {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m Live) handleKey(msg tea.KeyMsg) (Live, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "tab", "right", "l":
		m.selected = (m.selected + 1) % len(m.names)
	case "shift+tab", "left", "h":
		m.selected = (m.selected - 1 + len(m.names)) % len(m.names)
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "0":
		m.speed = 1
	}
	return m, nil
}

func (m *Live) advance() {
	for i := 0; i < m.speed; i++ {
		done, err := m.sim.Step()
		if err != nil {
			m.err = err
			return
		}
		if done {
			return
		}
	}
}

// Err reports the step failure that stopped the view, if any.
func (m Live) Err() error { return m.err }

func (m Live) status() string {
	switch {
	case m.err != nil:
		return red.Render("FAILED")
	case m.sim.Done():
		return green.Render("DONE")
	case m.paused:
		return yellow.Render("PAUSED")
	}
	return green.Render("RUNNING")
}

func (m Live) View() string {
	if m.quitting {
		return ""
	}

	var chart string
	name := m.names[m.selected]
	values, _ := m.sim.Series().Series(name)
	if len(values) > chartWindow {
		values = values[len(values)-chartWindow:]
	}
	if len(values) > 1 {
		if c, err := plot.ASCII(values, name, chartWidth, chartHeight); err == nil {
			chart = graphStyle.Render(c)
		} else {
			chart = dim.Render("no finite samples for " + name)
		}
	}

	var left strings.Builder
	left.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	left.WriteString(m.status() + "\n")
	left.WriteString(chart)

	var right strings.Builder
	right.WriteString(labelStyle.Render("time") + valueStyle.Render(fmt.Sprintf("%.4fs", m.sim.Time())) + "\n")
	progress := float64(m.sim.Recorded()) / float64(m.sim.Steps())
	right.WriteString(labelStyle.Render("progress") + valueStyle.Render(progressBar(progress, 16)) + "\n")
	right.WriteString(labelStyle.Render("speed") + valueStyle.Render(fmt.Sprintf("%dx", m.speed)) + "\n\n")

	row := m.sim.Series().Row(m.sim.Series().Len() - 1)[1:]
	for i, n := range m.names {
		if i >= maxRows {
			right.WriteString(dimmer.Render(fmt.Sprintf("  ... %d more", len(m.names)-maxRows)) + "\n")
			break
		}
		line := fmt.Sprintf("%-8s %12.5g", n, row[i])
		if i == m.selected {
			right.WriteString(magenta.Render("> "+line) + "\n")
		} else {
			right.WriteString("  " + dim.Render(line) + "\n")
		}
	}
	if m.err != nil {
		right.WriteString("\n" + red.Render(m.err.Error()) + "\n")
	}
	right.WriteString(helpStyle.Render("SP:Pause  TAB:Signal  +/-:Speed  Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, left.String(), panelStyle.Render(right.String()))
}

func progressBar(ratio float64, width int) string {
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(ratio * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]" +
		fmt.Sprintf(" %3.0f%%", ratio*100)
}

// RunLive shows s in the terminal until it completes and the user quits.
func RunLive(ctx context.Context, s *sim.Simulator, title string) error {
	p := tea.NewProgram(NewLive(s, title), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if live, ok := final.(Live); ok {
		return live.Err()
	}
	return nil
}
