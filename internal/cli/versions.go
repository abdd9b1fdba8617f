package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/semver"
)

// versionsCommand lists the versions of a service.
func (c *CLI) versionsCommand() *cobra.Command {
	var next string

	cmd := &cobra.Command{
		Use:   "versions shortName",
		Short: "List the versions of a service",
		Example: `  micograph versions auth
  micograph versions auth --next minor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateShortName(args[0]); err != nil {
				return err
			}
			var comp semver.Component
			if next != "" {
				var err error
				if comp, err = semver.ParseComponent(next); err != nil {
					return err
				}
			}

			e, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			services, err := withSpinner(cmd.Context(), os.Stderr, "Fetching versions of "+args[0], func() ([]graph.Service, error) {
				return e.client.ServiceVersions(cmd.Context(), args[0])
			})
			if err != nil {
				return err
			}
			if len(services) == 0 {
				return errors.New(errors.ErrCodeServiceNotFound, "service %s has no versions", args[0])
			}
			latest, _ := semver.Latest(versionsOf(services))

			if next != "" {
				v, err := semver.Increment(latest, comp)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), servicesTable(services, latest))
			return nil
		},
	}
	cmd.Flags().StringVar(&next, "next", "", "print the next major, minor or patch version after the latest")
	return cmd
}

// dependenciesCommand lists the direct dependencies of a service.
func (c *CLI) dependenciesCommand() *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:     "deps shortName version",
		Aliases: []string{"dependencies"},
		Short:   "List the direct dependencies of a service",
		Long: `List the services a service version depends on. With --reverse, list
the services depending on it instead.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			list := e.client.Dependees
			if reverse {
				list = e.client.Dependers
			}
			services, err := list(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if len(services) == 0 {
				printInfo("%s has no %s", graph.ServiceNodeID(args[0], args[1]), relation(reverse))
				return nil
			}
			semver.SortFunc(services, func(s graph.Service) string { return s.Version })
			fmt.Fprintln(cmd.OutOrStdout(), servicesTable(services, ""))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reverse, "reverse", false, "list dependent services instead")
	return cmd
}

func relation(reverse bool) string {
	if reverse {
		return "dependers"
	}
	return "dependencies"
}

func versionsOf(services []graph.Service) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.Version
	}
	return out
}

// servicesTable renders services as a table. The row of version latest is
// highlighted.
func servicesTable(services []graph.Service, latest string) string {
	rows := make([][]string, 0, len(services))
	highlight := -1
	for i, s := range services {
		if latest != "" && s.Version == latest {
			highlight = i
		}
		rows = append(rows, []string{s.ShortName, s.Version, s.Name, truncate(s.Description, 48)})
	}
	return newTable([]string{"Service", "Version", "Name", "Description"}, rows, func(row, _ int) lipgloss.Style {
		if row == highlight {
			return lipgloss.NewStyle().Foreground(colorCyan)
		}
		return lipgloss.NewStyle()
	}).Render()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
