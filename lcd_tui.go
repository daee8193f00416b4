// lcd_tui.go - Bubble Tea front end showing the LCD text grid

package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	lcdStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Foreground(lipgloss.Color("22")).
			Background(lipgloss.Color("151"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("36"))
)

type lcdTickMsg time.Time

type lcdModel struct {
	machine    *Machine
	tracker    *BootTracker
	input      string
	scrollback []string
}

func newLcdModel(m *Machine) lcdModel {
	return lcdModel{
		machine: m,
		tracker: NewBootTracker(),
	}
}

func lcdTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return lcdTickMsg(t)
	})
}

func (m lcdModel) Init() tea.Cmd {
	return lcdTick()
}

func (m lcdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lcdTickMsg:
		nowMs := time.Time(msg).UnixMilli()
		m.machine.Tick(hostTStatesPerPoll)
		m.machine.PumpBasic(nowMs)
		m.drainOutput()
		fb := m.machine.GetFrameBuffer()
		lit := false
		for _, b := range fb {
			if b != 0 {
				lit = true
				break
			}
		}
		m.tracker.Observe(nowMs, m.machine.GetCpuState().TStates, lit,
			m.machine.IsRuntimeProgramRunning())
		return m, lcdTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			line := m.input
			m.input = ""
			if m.machine.Runtime().IsAwaitingInput() {
				m.machine.ProvideInput(line)
			} else {
				m.machine.ExecuteLine(line)
			}
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			if len(msg.String()) == 1 {
				ch := msg.String()[0]
				if ch >= 0x20 && ch < 0x7F {
					m.input += msg.String()
					m.machine.PushInkey(ch)
				}
			}
		}
	}
	return m, nil
}

func (m *lcdModel) drainOutput() {
	out := m.machine.DrainOutput()
	if len(out) == 0 {
		return
	}
	for _, line := range strings.Split(string(out), "\n") {
		m.scrollback = append(m.scrollback, line)
	}
	if len(m.scrollback) > 200 {
		m.scrollback = m.scrollback[len(m.scrollback)-200:]
	}
}

func (m lcdModel) View() string {
	lcd := lcdStyle.Render(strings.Join(m.machine.GetTextLines(), "\n"))

	tail := m.scrollback
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}

	status := statusStyle.Render(fmt.Sprintf("boot:%s  T:%d  running:%v",
		m.tracker.State(), m.machine.GetCpuState().TStates,
		m.machine.IsRuntimeProgramRunning()))

	return lcd + "\n" +
		strings.Join(tail, "\n") + "\n" +
		promptStyle.Render("> "+m.input) + "\n" +
		status + "\n"
}

// RunLcdTUI runs the Bubble Tea front end until the user quits.
func RunLcdTUI(m *Machine) error {
	_, err := tea.NewProgram(newLcdModel(m)).Run()
	return err
}
