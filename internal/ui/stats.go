package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/neu-se/covguide/internal/guidance"
)

// StatsView renders a guidance.Snapshot as a styled panel.
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/ui/stats.go
// StatsView, retargeted from HTTP request/anomaly counters to the guidance
// loop's own trial/cycle/coverage counters.
type StatsView struct {
	width  int
	height int
}

// NewStatsView returns a StatsView sized to width x height.
func NewStatsView(width, height int) *StatsView {
	return &StatsView{width: width, height: height}
}

// SetSize updates the view's rendering dimensions.
func (v *StatsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Render draws the panel for snap.
func (v *StatsView) Render(snap guidance.Snapshot) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Trials"))
	b.WriteString("\n\n")
	b.WriteString(RenderLabelValue("Total", formatNumber(snap.Trials)))
	b.WriteString("\n")
	b.WriteString(RenderLabel("Valid"))
	b.WriteString(" ")
	b.WriteString(SuccessStyle.Render(formatNumber(snap.Valid)))
	b.WriteString(" | ")
	b.WriteString(RenderLabel("Invalid"))
	b.WriteString(" ")
	b.WriteString(WarningStyle.Render(formatNumber(snap.Invalid)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Execs/sec", fmt.Sprintf("%.1f", snap.IntervalExecsPS)))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Corpus"))
	b.WriteString("\n\n")
	b.WriteString(RenderLabelValue("Queue size", formatNumber(snap.QueueSize)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Cycles done", formatNumber(snap.CyclesDone)))
	b.WriteString("\n")
	b.WriteString(RenderLabel("Cur parent"))
	b.WriteString(" ")
	b.WriteString(FavoredStyle.Render(formatNumber(snap.CurParentIdx)))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Failures"))
	b.WriteString("\n\n")
	b.WriteString(RenderLabel("Unique"))
	b.WriteString(" ")
	if snap.UniqueFailures > 0 {
		b.WriteString(ErrorStyle.Render(formatNumber(snap.UniqueFailures)))
	} else {
		b.WriteString(SuccessStyle.Render("0"))
	}
	b.WriteString("\n\n")

	b.WriteString(RenderLabelValue("Elapsed", formatDuration(snap.Elapsed)))

	return StatsPanelStyle.Width(v.width).Render(b.String())
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
