// Package tui implements the socdemo terminal player.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/socdemo/internal/scenarios"
	"github.com/opencode-ai/socdemo/internal/sequencer"
	"github.com/opencode-ai/socdemo/internal/tui/components"
	"github.com/opencode-ai/socdemo/internal/tui/styles"
)

// Options configures the player.
type Options struct {
	Theme string
	// Scenarios limits the list; nil shows the whole catalog.
	Scenarios []*scenarios.Scenario
}

// Run launches the player and blocks until the user quits. Any active run
// is stopped on exit.
func Run(seq *sequencer.Sequencer, opts Options) error {
	m, err := newModel(seq, opts)
	if err != nil {
		return err
	}
	defer m.bridge.close()
	defer seq.Stop()

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

type model struct {
	seq    *sequencer.Sequencer
	bridge *eventBridge
	styles styles.Styles

	items    []*scenarios.Scenario
	cursor   int
	snapshot sequencer.Snapshot
	log      components.EventLog
	lastErr  error

	width  int
	height int
}

const (
	minWidth    = 60
	minHeight   = 15
	logLines    = 8
	barWidth    = 30
	listPadding = 2
)

func newModel(seq *sequencer.Sequencer, opts Options) (model, error) {
	if seq == nil {
		return model{}, fmt.Errorf("sequencer is required")
	}
	theme, ok := styles.Lookup(opts.Theme)
	if !ok {
		return model{}, fmt.Errorf("unknown theme %q (available: %s)", opts.Theme, strings.Join(styles.ThemeNames(), ", "))
	}

	items := opts.Scenarios
	if items == nil {
		items = seq.Catalog().List()
	}

	return model{
		seq:      seq,
		bridge:   newEventBridge(seq),
		styles:   styles.BuildStyles(theme),
		items:    items,
		snapshot: seq.State(),
		log:      components.NewEventLog(logLines),
	}, nil
}

func (m model) Init() tea.Cmd {
	return m.bridge.wait()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", " ":
			if selected := m.selected(); selected != nil {
				if _, err := m.seq.Start(selected.ID, nil); err != nil {
					m.lastErr = err
				} else {
					m.lastErr = nil
				}
				m.snapshot = m.seq.State()
			}
		case "s", "p":
			m.seq.Stop()
			m.snapshot = m.seq.State()
		case "q", "esc", "ctrl+c":
			m.seq.Stop()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case PlaybackEventMsg:
		m.log = m.log.Append(msg.Event)
		m.snapshot = m.seq.State()
		return m, m.bridge.wait()
	}
	return m, nil
}

func (m model) selected() *scenarios.Scenario {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	return m.items[m.cursor]
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 && (m.width < minWidth || m.height < minHeight) {
		return joinLines(m.smallViewLines()) + "\n"
	}

	lines := []string{
		m.styles.Title.Render("SOC Demo Player"),
		"",
	}
	lines = append(lines, m.listLines()...)
	lines = append(lines, "")
	lines = append(lines, m.playerLines()...)
	lines = append(lines, "", m.styles.Text.Render("Events"), m.log.Render(m.styles))

	if m.lastErr != nil {
		lines = append(lines, "", m.styles.Error.Render("Error: "+m.lastErr.Error()))
	}

	lines = append(lines, "", m.styles.Muted.Render("Shortcuts: up/down select | enter play | s stop | q quit"))
	return joinLines(lines) + "\n"
}

func (m model) smallViewLines() []string {
	return []string{
		m.styles.Warning.Render(fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)),
		m.styles.Muted.Render(fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)),
		m.styles.Muted.Render("Press q to quit."),
	}
}

func (m model) listLines() []string {
	if len(m.items) == 0 {
		return []string{components.NoScenariosState().Render(m.styles)}
	}

	lines := []string{m.styles.Text.Render("Scenarios")}
	for i, item := range m.items {
		label := fmt.Sprintf("%s  %s", item.Name, m.styles.Muted.Render(fmt.Sprintf("(%d phases, %d actions)", len(item.Phases), item.TotalActions())))
		prefix := strings.Repeat(" ", listPadding)
		if i == m.cursor {
			prefix = m.styles.Selected.Render("> ")
			label = m.styles.Selected.Render(item.Name) + "  " + m.styles.Muted.Render(fmt.Sprintf("(%d phases, %d actions)", len(item.Phases), item.TotalActions()))
		}
		if m.snapshot.Running && m.snapshot.Scenario != nil && m.snapshot.Scenario.ID == item.ID {
			label += " " + m.styles.StatusRunning.Render("*")
		}
		lines = append(lines, prefix+label)
	}
	return lines
}

func (m model) playerLines() []string {
	snapshot := m.snapshot
	if snapshot.Scenario == nil {
		return []string{
			components.RenderStatusBadge(m.styles, snapshot.Status),
			components.IdlePlayerState().Render(m.styles),
		}
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		components.RenderStatusBadge(m.styles, snapshot.Status),
		"  ",
		m.styles.Text.Render(snapshot.Scenario.Name),
	)
	lines := []string{
		header,
		components.RenderProgressBar(m.styles, snapshot.Progress, barWidth),
	}

	if phase := snapshot.CurrentPhase(); phase != nil {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			m.styles.Muted.Render("Phase"),
			m.styles.Accent.Render(fmt.Sprintf("%d/%d", snapshot.PhaseIndex+1, len(snapshot.Scenario.Phases))),
			m.styles.Text.Render(phase.Name),
		))
	}
	if action := snapshot.CurrentAction(); action != nil {
		lines = append(lines,
			fmt.Sprintf("%s %s %s",
				m.styles.Muted.Render("Action"),
				m.styles.Accent.Render(string(action.Kind)),
				m.styles.Text.Render(action.Target),
			),
			m.styles.Panel.Render(action.Content),
		)
	}
	return lines
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
