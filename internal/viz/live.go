package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/lockbox/internal/control"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
)

const (
	graphWidth      = 70
	graphHeight     = 10
	historyCapacity = 600
	maxTicksFrame   = 4096
	setpointStep    = 100
)

var (
	statsStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(44)
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives a simulator from the Bubble Tea event loop.
type Model struct {
	sim           *engine.Simulator
	running       bool
	ticksPerFrame int
	selected      control.Channel
	input         []float64
	output        []float64
	last          engine.Outputs
	err           error
	showHelp      bool
}

func NewModel(sim *engine.Simulator) Model {
	return Model{
		sim:           sim,
		running:       true,
		ticksPerFrame: 16,
		input:         make([]float64, 0, historyCapacity),
		output:        make([]float64, 0, historyCapacity),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles keys and advances the loop on every frame.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "tab":
			m.selected = (m.selected + 1) % control.NumChannels
		case "r":
			m.sim.Reset()
			m.input = m.input[:0]
			m.output = m.output[:0]
			m.err = nil
		case "l":
			m.toggle("relock.enabled")
		case "h":
			m.toggle("hold")
		case "i":
			m.toggle("integratorReset")
		case "v":
			m.toggle("inverted")
		case "up", "k":
			m.nudgeSetpoint(setpointStep)
		case "down", "j":
			m.nudgeSetpoint(-setpointStep)
		case "+", "=":
			m.ticksPerFrame = min(m.ticksPerFrame*2, maxTicksFrame)
		case "-", "_":
			m.ticksPerFrame = max(m.ticksPerFrame/2, 1)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance(m.ticksPerFrame)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) toggle(name string) {
	store := m.sim.Engine().Store()
	v, err := store.Get(int(m.selected), name)
	if err == nil {
		err = store.Set(int(m.selected), name, 1-v)
	}
	m.err = err
}

func (m *Model) nudgeSetpoint(delta int64) {
	store := m.sim.Engine().Store()
	v, err := store.Get(int(m.selected), "setpoint")
	if err != nil {
		m.err = err
		return
	}
	v = max(min(v+delta, fixed.SampleMax), fixed.SampleMin)
	m.err = store.Set(int(m.selected), "setpoint", v)
}

func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		in, out, err := m.sim.Step()
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.last = out
		m.input = push(m.input, float64(in.Analog[m.selected.Input()]))
		m.output = push(m.output, float64(out.Out[m.selected.Output()]))
	}
}

func push(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

// View renders graphs on the left and channel state on the right.
func (m Model) View() string {
	e := m.sim.Engine()
	ch := m.selected

	status := StatusRunning.Render("RUNNING")
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}

	var graphs strings.Builder
	graphs.WriteString(graphStyle.Render(PlotSeries(m.input, fmt.Sprintf("in%d", ch.Input()+1), graphWidth, graphHeight)))
	graphs.WriteString("\n")
	graphs.WriteString(graphStyle.Render(PlotSeries(m.output, fmt.Sprintf("out%d", ch.Output()+1), graphWidth, graphHeight)))

	p := e.Params().Channels[ch]
	pid := e.PIDState(ch)
	terms := e.Terms(ch)
	rl := e.RelockState(ch)
	rail := e.Rail()[ch.Output()]

	var stats strings.Builder
	stats.WriteString(HeaderStyle.Render(strings.ToUpper(m.sim.Plant().Name())+" "+ch.String()) + "\n")
	lines := [][2]string{
		{"status", status},
		{"tick", fmt.Sprint(e.Ticks())},
		{"ticks/frame", fmt.Sprint(m.ticksPerFrame)},
		{"lock", LockBadge(m.last.Locked[ch])},
		{"sweep", fmt.Sprintf("%s amp %d", rl.Sweep, rl.Amplitude>>fixed.StepShift)},
		{"rail", rail.String()},
		{"setpoint", fmt.Sprint(p.PID.Setpoint)},
		{"P / I / D", fmt.Sprintf("%d / %d / %d", terms.P, terms.I, terms.D)},
		{"integrator", fmt.Sprint(pid.Integrator)},
		{"flags", flags(p.PID)},
		{"relock", relockSummary(p.Relock)},
	}
	for _, l := range lines {
		stats.WriteString(MetricLabel.Render(l[0]) + MetricValue.Render(l[1]) + "\n")
	}
	if m.err != nil {
		stats.WriteString(StatusUnlocked.Render(m.err.Error()) + "\n")
	}

	view := lipgloss.JoinHorizontal(lipgloss.Top, graphs.String(), statsStyle.Render(stats.String()))
	if m.showHelp {
		view += "\n" + helpStyle.Render("space pause  tab channel  l relock  h hold  i reset  v invert  ↑/↓ setpoint  +/- speed  r restart  q quit")
	} else {
		view += "\n" + KeyHint.Render("? help")
	}
	return view
}

// RunLive blocks until the operator quits.
func RunLive(sim *engine.Simulator) error {
	_, err := tea.NewProgram(NewModel(sim), tea.WithAltScreen()).Run()
	return err
}
