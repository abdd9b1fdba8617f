package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/micograph/pkg/pipeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan  = lipgloss.Color("36")  // root, highlights
	colorGreen = lipgloss.Color("35")  // created, success
	colorAmber = lipgloss.Color("220") // warnings
	colorRed   = lipgloss.Color("167") // removed, errors
	colorBlue  = lipgloss.Color("75")  // links, commands
	colorWhite = lipgloss.Color("255") // values
	colorGray  = lipgloss.Color("245") // headers
	colorDim   = lipgloss.Color("240") // borders, unreached nodes
)

var (
	// StyleTitle renders a root service or section title.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleHighlight renders node ids and versions inside messages.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status lines
// =============================================================================

func status(icon string, color lipgloss.Color, format string, args ...any) {
	fmt.Println(lipgloss.NewStyle().Foreground(color).Render(icon) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(iconSuccess, colorGreen, format, args...) }
func printError(format string, args ...any)   { status(iconError, colorRed, format, args...) }
func printInfo(format string, args ...any)    { status(iconInfo, colorGray, format, args...) }

func printWarning(format string, args ...any) {
	status(iconWarning, colorAmber, "%s", lipgloss.NewStyle().Foreground(colorAmber).Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(lipgloss.NewStyle().Foreground(colorGray).Width(10).Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + lipgloss.NewStyle().Foreground(colorBlue).Render(cmd))
}

// printStats prints node and edge counts, the time spent per stage and
// whether the artifacts came from the cache.
func printStats(st pipeline.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d nodes", st.NodeCount),
		fmt.Sprintf("%d edges", st.EdgeCount),
	}
	if total := st.LoadTime + st.BuildTime + st.RenderTime; total > 0 {
		parts = append(parts, total.Round(time.Millisecond).String())
	}
	src := lipgloss.NewStyle().Foreground(colorGray).Render("fresh")
	if cached {
		src = lipgloss.NewStyle().Foreground(colorGreen).Render("cached")
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")+" · ") + src)
}

// =============================================================================
// Tables
// =============================================================================

// newTable returns a bordered table. rowStyle styles data cells; header
// cells are styled uniformly.
func newTable(headers []string, rows [][]string, rowStyle func(row, col int) lipgloss.Style) *table.Table {
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return rowStyle(row, col).Padding(0, 1)
		})
}
