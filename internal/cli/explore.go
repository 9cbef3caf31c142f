package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nestview/nestview/pkg/hypergraph"
)

// exploreCommand creates the explore command: an interactive terminal
// UI for folding and unfolding the container hierarchy.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		hierarchy   string
		shortLabels bool
	)

	cmd := &cobra.Command{
		Use:   "explore <payload.json>",
		Short: "Explore a graph interactively in the terminal",
		Long: `Explore opens a terminal UI over the container hierarchy.
Collapsing a container folds its subtree into a summary node and lifts
crossing edges into hyper-edges; the footer tracks the visible entity
counts as the view changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := c.loadGraph(cmd.Context(), args[0], hierarchy, shortLabels)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newExploreModel(g, args[0]), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&hierarchy, "hierarchy", "", "hierarchy choice to materialize")
	cmd.Flags().BoolVar(&shortLabels, "short-labels", false, "prefer compact node labels")

	return cmd
}

// =============================================================================
// ExploreModel - Interactive container tree
// =============================================================================

// treeRow is one visible container in the flattened hierarchy.
type treeRow struct {
	id        string
	label     string
	depth     int
	collapsed bool
	children  int
}

// exploreModel is the bubbletea model for the explore command.
type exploreModel struct {
	graph *hypergraph.Graph
	title string

	rows   []treeRow
	cursor int
	offset int
	height int

	status string
}

func newExploreModel(g *hypergraph.Graph, title string) exploreModel {
	m := exploreModel{graph: g, title: title, height: 15}
	m.rebuild()
	return m
}

// rebuild re-flattens the visible container tree after a mutation.
func (m *exploreModel) rebuild() {
	m.rows = m.rows[:0]
	for _, root := range m.graph.RootContainers() {
		m.appendRows(root, 0)
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *exploreModel) appendRows(id string, depth int) {
	c, ok := m.graph.Container(id)
	if !ok || !m.graph.IsVisible(id) {
		return
	}
	children := m.graph.ContainerChildren(id)
	m.rows = append(m.rows, treeRow{
		id:        id,
		label:     c.DisplayLabel(),
		depth:     depth,
		collapsed: c.Collapsed,
		children:  len(children),
	})
	if c.Collapsed {
		return
	}
	for _, child := range children {
		if _, isContainer := m.graph.Container(child); isContainer {
			m.appendRows(child, depth+1)
		}
	}
}

// toggle folds or unfolds the container under the cursor.
func (m *exploreModel) toggle() {
	if len(m.rows) == 0 {
		return
	}
	row := m.rows[m.cursor]

	var err error
	if row.collapsed {
		err = m.graph.ExpandContainer(row.id)
	} else {
		err = m.graph.CollapseContainer(row.id)
	}
	if err != nil {
		m.status = err.Error()
	} else {
		m.status = ""
	}
	m.rebuild()
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", " ":
			m.toggle()
		case "c":
			if err := m.graph.CollapseAll(); err != nil {
				m.status = err.Error()
			}
			m.rebuild()
		case "e":
			if err := m.graph.ExpandAll(); err != nil {
				m.status = err.Error()
			}
			m.rebuild()
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  ⏎ toggle  c fold all  e unfold all  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		marker := StyleSuccess.Render("▾")
		if row.collapsed {
			marker = StyleDim.Render("▸")
		}

		line := fmt.Sprintf("%s%s%s %s %s",
			cursor,
			strings.Repeat("  ", row.depth),
			marker,
			StyleValue.Render(row.label),
			StyleDim.Render(fmt.Sprintf("(%d)", row.children)))
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.rows) == 0 {
		b.WriteString(StyleDim.Render("  no containers"))
		b.WriteString("\n")
	}

	s := m.graph.Stats()
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf(
		"visible: %d/%d nodes · %d/%d edges · %d hyper-edges",
		s.VisibleNodes, s.Nodes, s.VisibleEdges, s.Edges, s.HyperEdges)))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(StyleWarning.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}
