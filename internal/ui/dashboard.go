package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/neu-se/covguide/internal/guidance"
)

// Status is the dashboard's coarse run state.
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/ui/dashboard.go
// Dashboard model: same bubbletea Model shape (Init/Update/View), same
// header/stats-panel/log-panel/progress/footer layout, retargeted from an
// HTTP fuzzing campaign to a guidance run — stats come from
// internal/guidance.Stats rather than HTTP request/anomaly counters, and
// there is no pause/resume since a guidance run has no notion of a paused
// trial.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusStopped
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusStopped:
		return "Stopped"
	case StatusCompleted:
		return "Completed"
	default:
		return "Idle"
	}
}

// LogEntry is one line in the activity log panel.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
}

// Dashboard is the bubbletea model driving the terminal view.
type Dashboard struct {
	width  int
	height int

	status    Status
	stats     *guidance.Stats
	statsView *StatsView
	progress  *ProgressView
	spinner   *SpinnerProgress

	logs    []LogEntry
	maxLogs int

	maxDuration time.Duration
	startedAt   time.Time

	tickCount int
}

// NewDashboard returns a Dashboard reading from stats, with an optional
// maxDuration used to render a determinate progress bar (zero leaves the
// bar at 0% with no ETA and never auto-completes the run).
func NewDashboard(stats *guidance.Stats, maxDuration time.Duration) *Dashboard {
	return &Dashboard{
		width:       80,
		height:      24,
		status:      StatusIdle,
		stats:       stats,
		statsView:   NewStatsView(40, 15),
		progress:    NewProgressView(70),
		spinner:     NewSpinnerProgress(),
		logs:        make([]LogEntry, 0, 100),
		maxLogs:     50,
		maxDuration: maxDuration,
		startedAt:   time.Now(),
	}
}

// AddLog appends a log entry, trimming to the last maxLogs.
func (d *Dashboard) AddLog(level, message string) {
	d.logs = append(d.logs, LogEntry{Time: time.Now(), Level: level, Message: message})
	if len(d.logs) > d.maxLogs {
		d.logs = d.logs[len(d.logs)-d.maxLogs:]
	}
}

// Start marks the run as active.
func (d *Dashboard) Start() {
	d.status = StatusRunning
	d.startedAt = time.Now()
	d.spinner.Start()
	d.AddLog("INFO", "fuzzing started")
}

// Stop marks the run as stopped by the user.
func (d *Dashboard) Stop() {
	d.status = StatusStopped
	d.spinner.Stop()
	d.AddLog("INFO", "fuzzing stopped")
}

// Complete marks the run as finished (max duration reached).
func (d *Dashboard) Complete() {
	d.status = StatusCompleted
	d.spinner.Stop()
	d.AddLog("INFO", "fuzzing completed")
}

// TickMsg drives the animation and stats refresh.
type TickMsg time.Time

// Init starts the tick loop and switches to the alt screen.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles bubbletea messages.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return d, tea.Quit
		case "s":
			if d.status == StatusRunning {
				d.Stop()
			}
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.statsView.SetSize(d.width/3, d.height-10)
		d.progress.SetSize(d.width - 4)

	case TickMsg:
		d.tickCount++
		d.spinner.Tick()

		snap := d.stats.Snapshot()
		var fraction float64
		var eta string
		if d.maxDuration > 0 {
			fraction = float64(snap.Elapsed) / float64(d.maxDuration)
			if remaining := d.maxDuration - snap.Elapsed; remaining > 0 {
				eta = formatDuration(remaining)
			}
		}
		d.progress.Update(fraction, snap.Trials, snap.QueueSize, eta)

		if d.status == StatusRunning && d.maxDuration > 0 && snap.Elapsed >= d.maxDuration {
			d.Complete()
		}

		return d, tickCmd()
	}

	return d, nil
}

// View renders the full dashboard.
func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(d.renderHeader())
	b.WriteString("\n")

	main := lipgloss.JoinHorizontal(lipgloss.Top, d.renderStatsPanel(), d.renderLogPanel())
	b.WriteString(main)
	b.WriteString("\n")

	b.WriteString(d.progress.Render())
	b.WriteString("\n")
	b.WriteString(d.renderFooter())

	return b.String()
}

func (d *Dashboard) renderHeader() string {
	title := TitleStyle.Render("covguide")

	var statusText string
	switch d.status {
	case StatusRunning:
		statusText = RunningStyle.Render("● RUNNING")
	case StatusStopped:
		statusText = StoppedStyle.Render("■ STOPPED")
	case StatusCompleted:
		statusText = SuccessStyle.Render("✓ COMPLETED")
	default:
		statusText = HelpStyle.Render("○ IDLE")
	}

	leftSide := title + "  " + statusText
	if d.status == StatusRunning {
		leftSide += "  " + d.spinner.Render(d.stats.Snapshot().UniqueFailures > 0)
	}
	padding := d.width - lipgloss.Width(leftSide) - 2
	if padding < 0 {
		padding = 0
	}
	header := leftSide + strings.Repeat(" ", padding)
	return BoxStyle.Width(d.width - 2).Render(header)
}

func (d *Dashboard) renderStatsPanel() string {
	return d.statsView.Render(d.stats.Snapshot())
}

func (d *Dashboard) renderLogPanel() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Activity log"))
	b.WriteString("\n\n")

	start := 0
	if len(d.logs) > 8 {
		start = len(d.logs) - 8
	}
	for i := start; i < len(d.logs); i++ {
		entry := d.logs[i]
		timeStr := entry.Time.Format("15:04:05")

		var levelStyle lipgloss.Style
		switch entry.Level {
		case "ERROR":
			levelStyle = ErrorStyle
		case "WARN":
			levelStyle = WarningStyle
		case "INFO":
			levelStyle = InfoStyle
		default:
			levelStyle = HelpStyle
		}

		line := fmt.Sprintf("%s %s %s",
			HelpStyle.Render(timeStr),
			levelStyle.Render(fmt.Sprintf("%-5s", entry.Level)),
			entry.Message,
		)
		if len(line) > d.width/2-10 {
			line = line[:d.width/2-13] + "..."
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return LogPanelStyle.Width(d.width/2 - 4).Render(b.String())
}

func (d *Dashboard) renderFooter() string {
	var helps []string
	if d.status == StatusRunning {
		helps = append(helps, RenderHelp("s", "stop"))
	}
	helps = append(helps, RenderHelp("q", "quit"))
	return FooterStyle.Render(strings.Join(helps, "  "))
}

// Run blocks, driving the dashboard until the user quits.
func Run(d *Dashboard) error {
	p := tea.NewProgram(d, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
