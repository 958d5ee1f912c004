package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	dashboard "github.com/UAlberta-EcoCar/Sally-Dashboard"
)

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorGray   = lipgloss.Color("#6272A4")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	labelStyle = lipgloss.NewStyle().Foreground(colorGray)
	valueStyle = lipgloss.NewStyle().Foreground(colorWhite)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle  = lipgloss.NewStyle().Foreground(colorGray)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)
)

func watchCommand(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/dashboard.yaml", "Path to dashboard configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := dashboard.LoadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	presenter, frames, closeFrames := dashboard.NewChannelPresenter("watch-tui", 2)
	rt, err := dashboard.NewRuntime(cfg, dashboard.WithPresenter(presenter))
	if err != nil {
		return err
	}
	if err := rt.Start(); err != nil {
		return err
	}

	p := tea.NewProgram(newWatchModel(cfg, frames), tea.WithAltScreen())
	_, teaErr := p.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := rt.Shutdown(shutdownCtx)
	closeFrames()

	if teaErr != nil {
		return teaErr
	}
	return shutdownErr
}

type frameMsg dashboard.RenderFrame

type framesClosedMsg struct{}

type watchModel struct {
	layout []string
	units  map[string]string
	frames <-chan dashboard.RenderFrame

	frame     dashboard.RenderFrame
	haveFrame bool
	width     int
}

func newWatchModel(cfg *dashboard.Config, frames <-chan dashboard.RenderFrame) watchModel {
	units := make(map[string]string, len(cfg.Signals))
	for name, sc := range cfg.Signals {
		units[name] = sc.Unit
	}
	return watchModel{
		layout: cfg.Layout,
		units:  units,
		frames: frames,
	}
}

func (m watchModel) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func waitForFrame(frames <-chan dashboard.RenderFrame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(f)
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.frame = dashboard.RenderFrame(msg)
		m.haveFrame = true
		return m, waitForFrame(m.frames)
	case framesClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Sally Dashboard"))
	if m.haveFrame {
		b.WriteString(labelStyle.Render("  " + m.frame.Timestamp.Format("15:04:05.000")))
	}
	b.WriteString("\n\n")

	if !m.haveFrame {
		b.WriteString(dimStyle.Render("waiting for first frame..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(panelStyle.Render(m.renderSignals()))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderAlerts()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m watchModel) renderSignals() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Signals"))
	b.WriteString("\n")

	for _, name := range m.layout {
		st, ok := m.frame.Signals[dashboard.SignalID(name)]
		label := labelStyle.Render(fmt.Sprintf("%-16s", name))

		switch {
		case !ok || st.LastUpdate.IsZero():
			b.WriteString(fmt.Sprintf("%s %s\n", label, dimStyle.Render("--")))
		case !st.Valid:
			value := fmt.Sprintf("%10.2f %-5s", st.Last.Value, m.units[name])
			b.WriteString(fmt.Sprintf("%s %s %s\n", label, dimStyle.Render(value), warnStyle.Render("STALE")))
		default:
			value := fmt.Sprintf("%10.2f %-5s", st.Last.Value, m.units[name])
			b.WriteString(fmt.Sprintf("%s %s\n", label, valueStyle.Render(value)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m watchModel) renderAlerts() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.frame.Alerts) == 0 {
		b.WriteString(okStyle.Render("all clear"))
		return b.String()
	}

	for _, a := range m.frame.Alerts {
		style := okStyle
		switch a.Severity {
		case dashboard.SeverityCritical:
			style = critStyle
		case dashboard.SeverityWarning:
			style = warnStyle
		}
		line := fmt.Sprintf("%-8s %-24s %s", strings.ToUpper(a.Severity.String()), a.Code, a.Message)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
