package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/neu-se/covguide/internal/guidance"
)

func TestNewDashboard(t *testing.T) {
	d := NewDashboard(guidance.NewStats(), 0)

	if d == nil {
		t.Fatal("NewDashboard returned nil")
	}
	if d.status != StatusIdle {
		t.Errorf("Expected StatusIdle, got %v", d.status)
	}
	if d.stats == nil {
		t.Error("Stats should not be nil")
	}
}

func TestDashboardStatusTransitions(t *testing.T) {
	d := NewDashboard(guidance.NewStats(), 0)

	d.Start()
	if d.status != StatusRunning {
		t.Errorf("Expected StatusRunning after Start, got %v", d.status)
	}

	d.Stop()
	if d.status != StatusStopped {
		t.Errorf("Expected StatusStopped after Stop, got %v", d.status)
	}
}

func TestDashboardCompleteSetsCompletedStatus(t *testing.T) {
	stats := guidance.NewStats()
	d := NewDashboard(stats, 0)
	d.Start()
	d.Complete()
	if d.status != StatusCompleted {
		t.Errorf("Expected StatusCompleted, got %v", d.status)
	}
}

func TestDashboardAddLog(t *testing.T) {
	d := NewDashboard(guidance.NewStats(), 0)

	d.AddLog("INFO", "test message 1")
	d.AddLog("ERROR", "test message 2")

	if len(d.logs) != 2 {
		t.Errorf("Expected 2 logs, got %d", len(d.logs))
	}
	if d.logs[0].Level != "INFO" {
		t.Errorf("Expected first log level INFO, got %s", d.logs[0].Level)
	}
	if d.logs[1].Message != "test message 2" {
		t.Errorf("Expected second log message 'test message 2', got %s", d.logs[1].Message)
	}
}

func TestDashboardLogTrimming(t *testing.T) {
	d := NewDashboard(guidance.NewStats(), 0)
	d.maxLogs = 5

	for i := 0; i < 10; i++ {
		d.AddLog("INFO", "message")
	}
	if len(d.logs) != 5 {
		t.Errorf("Expected %d logs after trimming, got %d", d.maxLogs, len(d.logs))
	}
}

func TestDashboardViewRendersWithoutPanic(t *testing.T) {
	stats := guidance.NewStats()
	stats.IncTrials()
	stats.IncValid()

	d := NewDashboard(stats, 0)
	d.width = 120
	d.height = 40
	d.Start()
	d.AddLog("INFO", "seed loaded")

	out := d.View()
	if out == "" {
		t.Error("View() returned empty string")
	}
}

func TestProgressBarRender(t *testing.T) {
	p := NewProgressBar(50)
	p.SetProgress(0.5)
	p.SetETA("5m30s")

	rendered := p.Render()
	if rendered == "" {
		t.Error("ProgressBar Render returned empty string")
	}
	if len(rendered) < 10 {
		t.Error("ProgressBar Render output too short")
	}
}

func TestProgressBarStaleSwapsFillStyleAndShowsWarning(t *testing.T) {
	p := NewProgressBar(50)
	p.SetProgress(0.5)
	p.SetETA("5m30s")

	fresh := p.Render()
	if strings.Contains(fresh, "corpus stalled") {
		t.Error("a non-stale bar should not report a stalled corpus")
	}

	p.SetStale(true)
	stale := p.Render()
	if !strings.Contains(stale, "corpus stalled") {
		t.Error("a stale bar should report a stalled corpus instead of its ETA")
	}
	if stale == fresh {
		t.Error("marking the bar stale should change its rendered output")
	}
}

func TestProgressViewMarksStaleAfterUnchangedQueueSize(t *testing.T) {
	v := NewProgressView(70)

	// The first Update changes the size from its initial 0, so this loop
	// leaves staleAfterTicks-1 unchanged updates.
	for i := 0; i < staleAfterTicks; i++ {
		v.Update(0.1, int64(i), 5, "")
	}
	if v.progress.stale {
		t.Error("should not be stale before staleAfterTicks consecutive unchanged updates")
	}

	v.Update(0.1, int64(staleAfterTicks), 5, "")
	if !v.progress.stale {
		t.Error("expected stale after staleAfterTicks consecutive updates with an unchanged queue size")
	}

	v.Update(0.1, int64(staleAfterTicks+1), 6, "")
	if v.progress.stale {
		t.Error("a queue size change should clear staleness")
	}
}

func TestProgressBarBounds(t *testing.T) {
	p := NewProgressBar(50)

	p.SetProgress(-0.5)
	if p.percentage != 0 {
		t.Errorf("Expected percentage clamped to 0, got %f", p.percentage)
	}

	p.SetProgress(1.5)
	if p.percentage != 1 {
		t.Errorf("Expected percentage clamped to 1, got %f", p.percentage)
	}
}

func TestSpinnerProgress(t *testing.T) {
	s := NewSpinnerProgress()
	s.SetText("loading...")

	if !s.running {
		t.Error("Spinner should be running by default")
	}

	initialFrame := s.frame
	s.Tick()
	s.Tick()
	if s.frame == initialFrame {
		t.Error("Spinner frame should change after Tick")
	}

	s.Stop()
	if s.running {
		t.Error("Spinner should not be running after Stop")
	}
}

func TestSpinnerProgressRenderSwitchesColorOnFailures(t *testing.T) {
	s := NewSpinnerProgress()

	clean := s.Render(false)
	withFailure := s.Render(true)
	if clean == withFailure {
		t.Error("spinner render should differ once failures are present")
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusIdle, "Idle"},
		{StatusRunning, "Running"},
		{StatusStopped, "Stopped"},
		{StatusCompleted, "Completed"},
	}
	for _, tt := range tests {
		if tt.status.String() != tt.expected {
			t.Errorf("Status.String(): expected %s, got %s", tt.expected, tt.status.String())
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{1000000, "1.0M"},
		{1500000, "1.5M"},
	}
	for _, tt := range tests {
		if result := formatNumber(tt.input); result != tt.expected {
			t.Errorf("formatNumber(%d): expected %s, got %s", tt.input, tt.expected, result)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{90 * time.Minute, "1h30m"},
	}
	for _, tt := range tests {
		if result := formatDuration(tt.input); result != tt.expected {
			t.Errorf("formatDuration(%v): expected %s, got %s", tt.input, tt.expected, result)
		}
	}
}

func BenchmarkDashboardView(b *testing.B) {
	stats := guidance.NewStats()
	for i := 0; i < 100; i++ {
		stats.IncTrials()
	}

	d := NewDashboard(stats, 0)
	d.width = 120
	d.height = 40
	d.Start()
	for i := 0; i < 20; i++ {
		d.AddLog("INFO", "test message")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.View()
	}
}
