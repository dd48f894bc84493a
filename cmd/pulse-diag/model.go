package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1).
			Width(40)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

type tickMsg time.Time

type model struct {
	col      *collector
	stats    diagStats
	started  time.Time
	deadline time.Time
}

func newModel(col *collector, duration time.Duration) model {
	m := model{col: col, started: time.Now()}
	if duration > 0 {
		m.deadline = m.started.Add(duration)
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.stats = m.col.snapshot()
		if !m.deadline.IsZero() && time.Now().After(m.deadline) {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	s := m.stats

	flipPanel := panelStyle.Render(fmt.Sprintf(
		"%s\n%s %d\n%s %s\n%s %s\n%s %s",
		titleStyle.Render("Flip timing"),
		labelStyle.Render("flips:"), s.Flips,
		labelStyle.Render("last interval:"), fmtDur(s.LastInterval),
		labelStyle.Render("mean interval:"), fmtDur(s.MeanInterval),
		labelStyle.Render("worst interval:"), fmtDur(s.WorstInterval),
	))

	driftLine := okStyle.Render("within tolerance")
	if s.Warnings > 0 {
		driftLine = warnStyle.Render(fmt.Sprintf("%d warnings reported", s.Warnings))
	}
	clockPanel := panelStyle.Render(fmt.Sprintf(
		"%s\n%s %s\n%s %s\n%s %s",
		titleStyle.Render("Clock & triggers"),
		labelStyle.Render("drift status:"), driftLine,
		labelStyle.Render("last drift:"), fmtDur(s.LastDrift),
		labelStyle.Render("last batch:"), fmtDur(s.TriggerBatch),
	))

	status := okStyle.Render("running")
	if s.Err != nil {
		status = errStyle.Render(s.Err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" pulse-diag "),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, flipPanel, " ", clockPanel),
		"",
		labelStyle.Render("status: ")+status,
		helpStyle.Render("q to quit"),
	)
}

func fmtDur(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
