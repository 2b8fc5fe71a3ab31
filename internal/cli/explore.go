package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/genealogy"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// exploreCommand creates the interactive graph browser.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "explore [code]",
		Short:             "Browse parents and children interactively",
		Args:              cobra.MaximumNArgs(1),
		GroupID:           groupQuery,
		ValidArgsFunction: c.completeCodes,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, ch, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer ch.Close()

			snap, err := c.loadSnapshot(ctx, runner)
			if err != nil {
				return err
			}

			start := ""
			if len(args) == 1 {
				start = genealogy.NormalizeCode(args[0])
			} else if roots := snap.Graph.Roots(); len(roots) > 0 {
				start = roots[0]
			}
			if !snap.Graph.Contains(start) {
				return errors.New(errors.ErrCodeNotFound, "code not in graph: %q", start)
			}

			p := tea.NewProgram(newExploreModel(snap.Engine, start),
				tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// exploreModel - parent/child navigation
// =============================================================================

// exploreModel shows one code with its parents above and its children
// below. Entering a listed code moves to it; backspace goes back.
type exploreModel struct {
	engine *genealogy.Engine

	code     string
	parents  []string
	children []string
	cursor   int
	offset   int
	height   int
	history  []string
	err      error
}

func newExploreModel(engine *genealogy.Engine, code string) exploreModel {
	m := exploreModel{engine: engine, height: 20}
	m.visit(code)
	return m
}

// visit makes code the current code and reloads its neighbors.
func (m *exploreModel) visit(code string) {
	m.code = code
	m.cursor, m.offset = 0, 0
	m.err = nil

	parents, err := m.engine.Parents(code)
	if err != nil {
		m.err = err
		return
	}
	children, err := m.engine.Children(code)
	if err != nil {
		m.err = err
		return
	}
	m.parents, m.children = parents.Codes, children.Codes
}

// items lists parents followed by children; the cursor indexes into it.
func (m exploreModel) items() []string {
	return append(append([]string(nil), m.parents...), m.children...)
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		items := m.items()
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
			if m.cursor < len(items)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter", "right", "l":
			if len(items) == 0 {
				return m, nil
			}
			m.history = append(m.history, m.code)
			m.visit(items[m.cursor])
		case "backspace", "left", "h":
			if n := len(m.history); n > 0 {
				prev := m.history[n-1]
				m.history = m.history[:n-1]
				m.visit(prev)
			}
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
	}
	return m, nil
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.code))
	if label := m.label(m.code); label != "" {
		b.WriteString("  " + StyleValue.Render(label))
	}
	b.WriteString("\n")
	if len(m.history) > 0 {
		b.WriteString(listDimStyle.Render(strings.Join(m.history, " › ") + " ›"))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  ⌫ back  q quit"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(StyleWarning.Render(errors.UserMessage(m.err)))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.offset+m.height, len(m.parents)+len(m.children))
	for i := m.offset; i < end; i++ {
		if i == 0 && len(m.parents) > 0 {
			b.WriteString(listHeaderStyle.Render(fmt.Sprintf("Parents (%d)", len(m.parents))))
			b.WriteString("\n")
		}
		if i == len(m.parents) {
			b.WriteString(listHeaderStyle.Render(fmt.Sprintf("Children (%d)", len(m.children))))
			b.WriteString("\n")
		}
		b.WriteString(m.line(i))
		b.WriteString("\n")
	}
	if len(m.parents) == 0 {
		b.WriteString(listDimStyle.Render("(root)"))
		b.WriteString("\n")
	}
	if len(m.children) == 0 {
		b.WriteString(listDimStyle.Render("(leaf)"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m exploreModel) line(i int) string {
	items := m.items()
	code := items[i]
	cursor := "  "
	if i == m.cursor {
		cursor = "▸ "
	}
	text := cursor + code
	if label := m.label(code); label != "" {
		text += "  " + listDimStyle.Render(label)
	}
	if i == m.cursor {
		return listSelectedStyle.Render(text)
	}
	return listNormalStyle.Render(text)
}

// label returns the label of code when it differs from the code.
func (m exploreModel) label(code string) string {
	n, ok := m.engine.Graph().Node(code)
	if !ok {
		return ""
	}
	if l := n.Label(); l != code {
		return l
	}
	return ""
}
