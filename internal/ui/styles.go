// Package ui renders a live terminal dashboard over a running guidance
// instance's stats, built with bubbletea and lipgloss.
//
// Grounded on shwoo03-Project/smart web fuzzer's internal/ui/styles.go for
// the render-helper vocabulary (label/value/key/help composition) and the
// box/panel border idiom, but themed and composed differently: colors are
// built from a small `palette` struct rather than a flat list of
// package-level constants, and the palette itself reads as a coverage map
// lighting up (slate background, amber for in-flight work, teal for newly
// discovered edges) instead of the teacher's cyan/magenta terminal theme.
package ui

import "github.com/charmbracelet/lipgloss"

// palette is the covguide dashboard's color set. Grouping it into a struct
// (rather than the teacher's loose package-level Color* vars) makes it
// possible to build every style from the same few swatches below instead of
// re-stating hex values at each call site.
type palette struct {
	bg       lipgloss.Color // page background
	panelBg  lipgloss.Color
	headerBg lipgloss.Color

	amber  lipgloss.Color // active/in-progress
	teal   lipgloss.Color // new coverage, favored input
	slate  lipgloss.Color // titles, borders
	lime   lipgloss.Color // success/valid
	crimson lipgloss.Color // failure
	mustard lipgloss.Color // invalid/warning

	text      lipgloss.Color
	dimText   lipgloss.Color
	brightText lipgloss.Color
}

var signal = palette{
	bg:       lipgloss.Color("#0B0F14"),
	panelBg:  lipgloss.Color("#121A24"),
	headerBg: lipgloss.Color("#16222E"),

	amber:   lipgloss.Color("#F2A93B"),
	teal:    lipgloss.Color("#2DD4BF"),
	slate:   lipgloss.Color("#7C9CBF"),
	lime:    lipgloss.Color("#8CE071"),
	crimson: lipgloss.Color("#F2545B"),
	mustard: lipgloss.Color("#E0C341"),

	text:       lipgloss.Color("#D7E1EA"),
	dimText:    lipgloss.Color("#54687E"),
	brightText: lipgloss.Color("#F4F8FB"),
}

// base returns a style pre-seeded with the dashboard's background/foreground,
// the shared starting point every other style composes from.
func base() lipgloss.Style {
	return lipgloss.NewStyle().Background(signal.bg).Foreground(signal.text)
}

// bordered returns a rounded-border panel style in the given accent color.
func bordered(accent lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent)
}

var (
	BaseStyle = base()

	HeaderStyle = base().
			Bold(true).
			Foreground(signal.teal).
			Background(signal.headerBg).
			Padding(0, 1).
			MarginBottom(1)

	TitleStyle = base().
			Bold(true).
			Foreground(signal.slate).
			Background(signal.headerBg).
			Padding(0, 2)

	PanelStyle      = bordered(signal.slate).Padding(1, 2).MarginRight(1)
	StatsPanelStyle = bordered(signal.teal).Padding(1, 2)
	LogPanelStyle   = bordered(signal.lime).Padding(0, 1).Height(10)

	LabelStyle = lipgloss.NewStyle().Foreground(signal.dimText).Width(18)
	ValueStyle = lipgloss.NewStyle().Foreground(signal.brightText).Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(signal.lime).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(signal.crimson).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(signal.mustard)
	InfoStyle    = lipgloss.NewStyle().Foreground(signal.teal)

	RunningStyle = lipgloss.NewStyle().Foreground(signal.lime).Bold(true)
	StoppedStyle = lipgloss.NewStyle().Foreground(signal.crimson).Bold(true)

	// FavoredStyle highlights the current parent index in the stats panel;
	// it is applied whether or not that parent is favored.
	FavoredStyle = lipgloss.NewStyle().Foreground(signal.amber).Bold(true)

	FooterStyle = lipgloss.NewStyle().Foreground(signal.dimText).MarginTop(1)

	KeyStyle  = lipgloss.NewStyle().Foreground(signal.teal).Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(signal.dimText)

	ProgressFullStyle  = lipgloss.NewStyle().Foreground(signal.teal)
	ProgressEmptyStyle = lipgloss.NewStyle().Foreground(signal.dimText)

	BoxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(signal.slate)

	// SpinnerChars animates the "still fuzzing" indicator; a filled-block
	// sweep reads as a coverage bar scanning rather than a generic braille
	// throbber.
	SpinnerChars = []string{"▁", "▃", "▄", "▅", "▆", "▇", "▆", "▅", "▄", "▃"}
)

func RenderLabel(label string) string {
	return LabelStyle.Render(label + ":")
}

func RenderValue(value string) string {
	return ValueStyle.Render(value)
}

func RenderLabelValue(label, value string) string {
	return RenderLabel(label) + " " + RenderValue(value)
}

func RenderKey(key string) string {
	return KeyStyle.Render("[" + key + "]")
}

func RenderHelp(key, description string) string {
	return RenderKey(key) + " " + HelpStyle.Render(description)
}

const MiniBanner = `── covguide :: coverage-guided fuzzing ──`

func GetBannerStyled() string {
	return TitleStyle.Render(MiniBanner)
}
