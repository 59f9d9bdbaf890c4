package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/matzehuels/gitlane/internal/config"
	"github.com/matzehuels/gitlane/pkg/render/text"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
	colorPink   = lipgloss.Color("205")
	colorPurple = lipgloss.Color("141")
)

// laneColors cycle across graph columns.
var laneColors = []lipgloss.Color{colorCyan, colorYellow, colorPink, colorBlue, colorGreen, colorPurple, colorRed}

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error text.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// Status lines go to stderr so they never mix with a graph written to stdout.
var statusOut io.Writer = os.Stderr

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints history statistics on a single line.
func printStats(commits, lanes int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d commits", commits),
		fmt.Sprintf("%d lanes", lanes),
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(statusOut, line)
}

// =============================================================================
// Graph Colors
// =============================================================================

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves a --color mode for output written to w. Auto colors
// terminals unless NO_COLOR is set.
func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && isTerminal(w)
	}
}

// laneOptions returns the text options that color lanes for output written to
// w, or nil when mode disables color there.
func laneOptions(mode string, w io.Writer) []text.Option {
	if !colorEnabled(mode, w) {
		return nil
	}
	return []text.Option{text.WithCellStyle(laneStyle(w))}
}

// laneStyle returns a cell style that colors each graph column. The renderer
// is forced to 256 colors; callers decide whether to color at all.
func laneStyle(w io.Writer) func(col int, cell string) string {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	styles := make([]lipgloss.Style, len(laneColors))
	for i, c := range laneColors {
		styles[i] = r.NewStyle().Foreground(c)
	}
	return func(col int, cell string) string {
		if strings.TrimSpace(cell) == "" {
			return cell
		}
		return styles[col%len(styles)].Render(cell)
	}
}
