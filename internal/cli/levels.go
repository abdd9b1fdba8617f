package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/levels"
)

// levelsCommand prints the dependency levels of a service graph.
func (c *CLI) levelsCommand() *cobra.Command {
	var file string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "levels [shortName version]",
		Short: "Print the dependency levels of a service",
		Long: `Print every service of a dependency graph grouped by its distance from
the root service. Services no longer reachable from the root are listed last.`,
		Args:              cobra.RangeArgs(0, 2),
		ValidArgsFunction: c.completeVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			shortName, version, err := target(args, file)
			if err != nil {
				return err
			}
			return c.runLevels(cmd.Context(), shortName, version, file, refresh)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read a snapshot JSON file instead of querying the API")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch the snapshot even if cached")
	return cmd
}

func (c *CLI) runLevels(ctx context.Context, shortName, version, file string, refresh bool) error {
	e, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	opts, err := e.baseOptions()
	if err != nil {
		return err
	}
	opts.ShortName, opts.Version, opts.File, opts.Refresh = shortName, version, file, refresh

	snap, _, err := e.runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	v, err := e.runner.Build(ctx, snap, opts)
	if err != nil {
		return err
	}
	defer v.Close()

	fmt.Println(StyleTitle.Render(v.RootID))
	fmt.Println(levelsTable(levels.Tiers(v.Editor.Nodes())))
	return nil
}

// levelsTable renders one row per node, ordered by level.
func levelsTable(tiers [][]*graph.Node) string {
	var rows [][]string
	unreached := map[int]bool{}
	for _, tier := range tiers {
		for _, n := range tier {
			level := "–"
			if n.DependencyLevel != graph.LevelUnreached {
				level = strconv.Itoa(n.DependencyLevel)
			} else {
				unreached[len(rows)] = true
			}
			moved := ""
			if n.WasMovedByUser {
				moved = iconSuccess
			}
			rows = append(rows, []string{level, n.ShortName, n.Version, n.Title, moved})
		}
	}

	return newTable([]string{"Level", "Service", "Version", "Name", "Moved"}, rows, func(row, col int) lipgloss.Style {
		switch {
		case unreached[row]:
			return lipgloss.NewStyle().Foreground(colorDim)
		case col == 0:
			return lipgloss.NewStyle().Foreground(colorCyan)
		}
		return lipgloss.NewStyle()
	}).Render()
}
