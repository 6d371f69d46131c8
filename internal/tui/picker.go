package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/statesim/internal/sim"
)

// BuildFunc prepares a fresh simulator for the named scenario.
type BuildFunc func(name string) (*sim.Simulator, error)

// Picker lists scenarios and opens the live view for the chosen one.
type Picker struct {
	names  []string
	info   map[string]string
	cursor int
	build  BuildFunc
	live   *Live
	err    error

	// session counts opened live views; ticks from an earlier one are dropped.
	session int
}

type sessionTickMsg struct {
	session int
	tick    TickMsg
}

func NewPicker(names []string, info map[string]string, build BuildFunc) Picker {
	return Picker{names: names, info: info, build: build}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(sessionTickMsg); ok {
		if m.live == nil || msg.session != m.session {
			return m, nil
		}
		next, cmd := m.live.Update(msg.tick)
		live := next.(Live)
		m.live = &live
		return m, m.tagTicks(cmd)
	}

	if m.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "q", "esc":
				m.live = nil
				return m, tea.ClearScreen
			case "ctrl+c":
				return m, tea.Quit
			}
		}
		next, cmd := m.live.Update(msg)
		live := next.(Live)
		m.live = &live
		return m, m.tagTicks(cmd)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.names) == 0 {
			return m, nil
		}
		name := m.names[m.cursor]
		s, err := m.build(name)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.session++
		live := NewLive(s, name)
		m.live = &live
		return m, tea.Batch(tea.ClearScreen, m.tagTicks(live.Init()))
	}
	return m, nil
}

// tagTicks marks the ticks cmd produces with the current session.
func (m Picker) tagTicks(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	session := m.session
	return func() tea.Msg {
		msg := cmd()
		if t, ok := msg.(TickMsg); ok {
			return sessionTickMsg{session: session, tick: t}
		}
		return msg
	}
}

func (m Picker) View() string {
	if m.live != nil {
		return m.live.View()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("          " + cyan.Render("s t a t e s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.names {
		desc := m.info[name]
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(desc) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")
	return b.String()
}

// RunPicker runs the scenario menu.
func RunPicker(ctx context.Context, names []string, info map[string]string, build BuildFunc) error {
	p := tea.NewProgram(NewPicker(names, info, build), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
