package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nestview/nestview/pkg/hypergraph"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, StyleSuccess.Render(iconSuccess)+" "+msg)
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(w io.Writer, s hypergraph.Stats) {
	parts := []string{
		fmt.Sprintf("%d nodes", s.Nodes),
		fmt.Sprintf("%d edges", s.Edges),
		fmt.Sprintf("%d containers", s.Containers),
	}
	if s.HyperEdges > 0 {
		parts = append(parts, fmt.Sprintf("%d hyper-edges", s.HyperEdges))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(w, line)
}

// =============================================================================
// Validation Report
// =============================================================================

// printViolations renders a validation report: a success line when
// clean, otherwise one line per violation with severity coloring.
func printViolations(w io.Writer, violations []hypergraph.Violation) {
	if len(violations) == 0 {
		printSuccess(w, "all invariants hold")
		return
	}

	for _, v := range violations {
		icon := StyleWarning.Render(iconWarning)
		if v.Severity == hypergraph.SeverityError {
			icon = StyleError.Render(iconError)
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			icon,
			StyleDim.Render(v.Rule),
			StyleValue.Render(v.EntityID),
			v.Message)
	}
}

// =============================================================================
// Container Tree
// =============================================================================

// printTree renders the container hierarchy with per-container child
// counts, collapsed containers marked.
func printTree(w io.Writer, g *hypergraph.Graph) {
	for _, root := range g.RootContainers() {
		printTreeNode(w, g, root, 0)
	}
}

func printTreeNode(w io.Writer, g *hypergraph.Graph, id string, level int) {
	c, ok := g.Container(id)
	if !ok {
		return
	}

	indent := strings.Repeat("  ", level)
	marker := StyleSuccess.Render("▾")
	if c.Collapsed {
		marker = StyleDim.Render("▸")
	}

	children := g.ContainerChildren(id)
	fmt.Fprintf(w, "%s%s %s %s\n",
		indent, marker,
		StyleValue.Render(c.DisplayLabel()),
		StyleDim.Render(fmt.Sprintf("(%d)", len(children))))

	for _, child := range children {
		if _, isContainer := g.Container(child); isContainer {
			printTreeNode(w, g, child, level+1)
		}
	}
}
