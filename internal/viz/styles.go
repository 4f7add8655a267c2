package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/control"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusUnlocked = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(24)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// ProgressBar renders a fraction in [0, 1] as a bar.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if percent > 0.8 {
		return SparkHigh.Render(bar)
	} else if percent > 0.4 {
		return SparkMid.Render(bar)
	}
	return SparkLow.Render(bar)
}

// LockBadge renders a channel's lock flag.
func LockBadge(locked bool) string {
	if locked {
		return StatusRunning.Render("LOCKED")
	}
	return StatusUnlocked.Render("UNLOCKED")
}

// ParamTable renders every register of every channel.
func ParamTable(p control.Params) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render("parameters") + "\n")
	for ch := control.Channel(0); ch < control.NumChannels; ch++ {
		cp := p.Channels[ch]
		s.WriteString(Title.Render(ch.String()) + "\n")
		rows := [][2]string{
			{"setpoint", fmt.Sprint(cp.PID.Setpoint)},
			{"kp / ki / kd", fmt.Sprintf("%d / %d / %d", cp.PID.Kp, cp.PID.Ki, cp.PID.Kd)},
			{"gain", fmt.Sprintf("kp %.4g  ki %.4g /s", control.KpGain(cp.PID.Kp), control.KiGain(cp.PID.Ki))},
			{"flags", flags(cp.PID)},
			{"reset", fmt.Sprintf("%s (center %d)", cp.PID.ResetPolicy, cp.PID.ResetCenter)},
			{"relock", relockSummary(cp.Relock)},
		}
		for _, r := range rows {
			s.WriteString("  " + MetricLabel.Render(r[0]) + MetricValue.Render(r[1]) + "\n")
		}
	}
	for o, lim := range p.Limits {
		s.WriteString("  " + MetricLabel.Render(fmt.Sprintf("limiter out%d", o+1)) +
			MetricValue.Render(fmt.Sprintf("[%d, %d]", lim.Min, lim.Max)) + "\n")
	}
	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

func flags(p control.PIDParams) string {
	var on []string
	if p.Inverted {
		on = append(on, "inverted")
	}
	if p.IntegratorReset {
		on = append(on, "integratorReset")
	}
	if p.ResetWhenRailed {
		on = append(on, "resetWhenRailed")
	}
	if p.Hold {
		on = append(on, "hold")
	}
	if len(on) == 0 {
		return "-"
	}
	return strings.Join(on, " ")
}

func relockSummary(r control.RelockParams) string {
	if !r.Enabled {
		return "off"
	}
	return fmt.Sprintf("src %d (%d, %d) %.3g counts/tick", r.Source, r.Min, r.Max, control.StepsizeRate(r.Stepsize))
}

// MetricsTable renders run metrics in name order.
func MetricsTable(metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var s strings.Builder
	s.WriteString(HeaderStyle.Render("metrics") + "\n")
	for _, name := range names {
		v := metrics[name]
		line := MetricLabel.Render(name) + MetricValue.Render(fmt.Sprintf("%10.4f", v))
		if strings.Contains(name, "fraction") {
			line += "  " + ProgressBar(v, 20)
		}
		s.WriteString(line + "\n")
	}
	return strings.TrimRight(s.String(), "\n")
}

// NameList renders a bullet list, marking the entry equal to current.
func NameList(title string, names []string, current string) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(title) + "\n")
	for _, n := range names {
		if n == current {
			s.WriteString(StatusRunning.Render("• "+n) + "\n")
		} else {
			s.WriteString("• " + n + "\n")
		}
	}
	return strings.TrimRight(s.String(), "\n")
}

// ParamNames lists the writable parameters with their channel counts.
func ParamNames() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render("writable parameters") + "\n")
	for _, name := range config.Names() {
		s.WriteString(MetricLabel.Render(name) + Subtle.Render(fmt.Sprintf("channels 0..%d", config.Channels(name)-1)) + "\n")
	}
	return strings.TrimRight(s.String(), "\n")
}
