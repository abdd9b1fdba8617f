package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/levels"
	"github.com/matzehuels/micograph/pkg/pipeline"
	"github.com/matzehuels/micograph/pkg/reconcile"
)

var (
	tuiHelpStyle  = lipgloss.NewStyle().Foreground(colorDim)
	tuiStatStyle  = lipgloss.NewStyle().Foreground(colorGray)
	tuiAddedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	tuiGoneStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Updates
// =============================================================================

// watchUpdate is a copy of a view taken after an applied dependency graph.
// It is safe to read without the view lock.
type watchUpdate struct {
	tiers [][]*graph.Node
	stats reconcile.Stats
	at    time.Time
}

// snapshotView copies the nodes of v grouped by level. Call it with
// exclusive access to v.
func snapshotView(v *pipeline.View, st reconcile.Stats) watchUpdate {
	tiers := levels.Tiers(v.Editor.Nodes())
	out := make([][]*graph.Node, len(tiers))
	for i, tier := range tiers {
		out[i] = make([]*graph.Node, len(tier))
		for j, n := range tier {
			c := *n
			out[i][j] = &c
		}
	}
	return watchUpdate{tiers: out, stats: st, at: time.Now()}
}

// publish hands u to the model, replacing an update it has not read yet.
// There must be a single producer.
func publish(ch chan watchUpdate, u watchUpdate) {
	select {
	case ch <- u:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- u
}

func waitForUpdate(ch <-chan watchUpdate) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

// =============================================================================
// WatchModel
// =============================================================================

// WatchModel shows the levels of a watched service graph.
type WatchModel struct {
	root    string
	updates <-chan watchUpdate
	refresh func()

	last  *watchUpdate
	count int
}

func newWatchModel(root string, updates <-chan watchUpdate, refresh func()) WatchModel {
	return WatchModel{root: root, updates: updates, refresh: refresh}
}

func (m WatchModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.refresh != nil {
				m.refresh()
			}
		}
	case watchUpdate:
		m.last = &msg
		m.count++
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.root))
	b.WriteString("\n\n")

	if m.last == nil {
		b.WriteString(tuiStatStyle.Render("  waiting for the first dependency graph…"))
	} else {
		st := m.last.stats
		b.WriteString(tuiStatStyle.Render(fmt.Sprintf("  update %d at %s  ", m.count, m.last.at.Format("15:04:05"))))
		b.WriteString(tuiAddedStyle.Render(fmt.Sprintf("+%d", st.Created)))
		b.WriteString(tuiStatStyle.Render(fmt.Sprintf(" ~%d ", st.Updated)))
		b.WriteString(tuiGoneStyle.Render(fmt.Sprintf("-%d", st.Removed)))
		b.WriteString("\n")
		b.WriteString(levelsTable(m.last.tiers))
	}
	b.WriteString("\n\n")
	b.WriteString(tuiHelpStyle.Render("  r refresh · q quit"))
	return b.String()
}
