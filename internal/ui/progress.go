package ui

import (
	"fmt"
	"strings"
)

// staleAfterTicks is how many consecutive ProgressView.Update calls with an
// unchanged corpus size mark the bar as stalled. The dashboard ticks every
// 200ms (see dashboard.go's tickCmd), so this is roughly 5 seconds of no
// newly saved input.
const staleAfterTicks = 25

// ProgressBar renders a filled/empty bar plus a percentage and optional ETA.
// The filled segment's color reflects whether the corpus is still growing
// (teal) or has gone stale (dim): a flat bar color carries no information
// about whether the campaign found new coverage recently, so staleness is
// the one signal worth painting directly onto the bar itself.
type ProgressBar struct {
	width      int
	percentage float64
	showETA    bool
	eta        string
	stale      bool
}

// NewProgressBar returns a ProgressBar sized to width.
func NewProgressBar(width int) *ProgressBar {
	return &ProgressBar{width: width, showETA: true}
}

// SetProgress sets the fraction complete, clamped to [0,1].
func (p *ProgressBar) SetProgress(percentage float64) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 1 {
		percentage = 1
	}
	p.percentage = percentage
}

// SetETA sets the displayed ETA string.
func (p *ProgressBar) SetETA(eta string) { p.eta = eta }

// SetWidth updates the bar's rendering width.
func (p *ProgressBar) SetWidth(width int) { p.width = width }

// SetStale marks whether the corpus has gone a while without growing.
func (p *ProgressBar) SetStale(stale bool) { p.stale = stale }

// Render draws the bar.
func (p *ProgressBar) Render() string {
	var b strings.Builder

	barWidth := p.width - 10
	if barWidth < 10 {
		barWidth = 10
	}
	filled := int(float64(barWidth) * p.percentage)
	empty := barWidth - filled

	fillStyle := ProgressFullStyle
	if p.stale {
		fillStyle = ProgressEmptyStyle
	}
	for i := 0; i < filled; i++ {
		b.WriteString(fillStyle.Render("█"))
	}
	for i := 0; i < empty; i++ {
		b.WriteString(ProgressEmptyStyle.Render("░"))
	}

	b.WriteString(" ")
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%5.1f%%", p.percentage*100)))

	if p.stale {
		b.WriteString(" ")
		b.WriteString(WarningStyle.Render("corpus stalled"))
	} else if p.showETA && p.eta != "" {
		b.WriteString(" ")
		b.WriteString(InfoStyle.Render("ETA: " + p.eta))
	}
	return b.String()
}

// ProgressView wraps a ProgressBar with a title and trial counters, tracking
// elapsed wall-clock against a guidance run's configured max duration and
// the corpus size to detect a stalled campaign.
type ProgressView struct {
	width    int
	progress *ProgressBar
	title    string
	trials   int64

	lastQueueSize int64
	staleTicks    int
}

// NewProgressView returns a ProgressView sized to width.
func NewProgressView(width int) *ProgressView {
	return &ProgressView{
		width:    width,
		progress: NewProgressBar(width - 6),
		title:    "Run progress",
	}
}

// SetSize updates the view's rendering width.
func (v *ProgressView) SetSize(width int) {
	v.width = width
	v.progress.SetWidth(width - 6)
}

// Update sets the fraction of the configured max duration elapsed, the
// current trial count, the corpus size (to detect stalling), and an ETA
// string.
func (v *ProgressView) Update(fractionElapsed float64, trials, queueSize int64, eta string) {
	v.trials = trials
	if queueSize == v.lastQueueSize {
		v.staleTicks++
	} else {
		v.staleTicks = 0
		v.lastQueueSize = queueSize
	}
	v.progress.SetStale(v.staleTicks >= staleAfterTicks)
	v.progress.SetProgress(fractionElapsed)
	v.progress.SetETA(eta)
}

// Render draws the panel.
func (v *ProgressView) Render() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(v.title))
	b.WriteString("\n\n")
	b.WriteString(v.progress.Render())
	b.WriteString("\n\n")
	b.WriteString(RenderLabelValue("Trials run", formatNumber(v.trials)))

	return PanelStyle.Width(v.width).Render(b.String())
}

// SpinnerProgress shows indeterminate progress via an animated frame,
// rendered in the dashboard header while the run is active.
type SpinnerProgress struct {
	frame   int
	text    string
	running bool
}

// NewSpinnerProgress returns a running spinner with default text.
func NewSpinnerProgress() *SpinnerProgress {
	return &SpinnerProgress{text: "fuzzing...", running: true}
}

// SetText sets the spinner's trailing label.
func (s *SpinnerProgress) SetText(text string) { s.text = text }

// Start resumes spinning.
func (s *SpinnerProgress) Start() { s.running = true }

// Stop freezes the spinner on a checkmark.
func (s *SpinnerProgress) Stop() { s.running = false }

// Tick advances the animation by one frame.
func (s *SpinnerProgress) Tick() {
	if s.running {
		s.frame = (s.frame + 1) % len(SpinnerChars)
	}
}

// Render draws the spinner, switching to the failure color once the run has
// recorded at least one unique failure so the indicator itself flags a
// crashing campaign without the caller needing a separate glyph.
func (s *SpinnerProgress) Render(hasFailures bool) string {
	if !s.running {
		return SuccessStyle.Render("✓") + " " + s.text
	}
	style := InfoStyle
	if hasFailures {
		style = ErrorStyle
	}
	return style.Render(SpinnerChars[s.frame]) + " " + s.text
}
