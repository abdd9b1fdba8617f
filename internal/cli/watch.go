package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/pipeline"
	"github.com/matzehuels/micograph/pkg/reconcile"
)

// watchCommand keeps a service graph in sync with the API.
func (c *CLI) watchCommand() *cobra.Command {
	var output string
	var tui bool

	cmd := &cobra.Command{
		Use:   "watch shortName version",
		Short: "Follow the dependency graph of a service",
		Long: `Poll the MICO API for the dependency graph of a service version and apply
every change to the view. With -o the SVG is rewritten after each update;
with --tui the dependency levels are shown in an interactive terminal view.`,
		Example: `  micograph watch auth 1.0.0 -o auth.svg
  micograph watch auth 1.0.0 --tui`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completeVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], args[1], output, tui)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "rewrite this SVG file after each update")
	cmd.Flags().BoolVar(&tui, "tui", false, "show an interactive terminal view")
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, shortName, version, output string, tui bool) error {
	e, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	opts, err := e.baseOptions()
	if err != nil {
		return err
	}
	opts.View = pipeline.ViewService
	opts.ShortName, opts.Version = shortName, version

	updates := make(chan watchUpdate, 1)
	w, err := e.runner.Watch(ctx, opts, pipeline.WatchOptions{
		PollInterval: e.cfg.Watch.Interval,
		Debounce:     e.cfg.Watch.Debounce,
		OnUpdate: func(v *pipeline.View, st reconcile.Stats) {
			if output != "" {
				if err := writeViewSVG(v, output); err != nil {
					c.Logger.Error("write svg", "path", output, "err", err)
				}
			}
			if tui {
				publish(updates, snapshotView(v, st))
				return
			}
			if st.Changed() || st.Updated > 0 {
				c.Logger.Info("graph updated",
					"nodes", len(v.Editor.Nodes()),
					"created", st.Created,
					"updated", st.Updated,
					"removed", st.Removed)
			}
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	root := graph.ServiceNodeID(shortName, version)
	if tui {
		p := tea.NewProgram(newWatchModel(root, updates, w.Refresh), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	}

	printInfo("Watching %s, press Ctrl+C to stop", StyleHighlight.Render(root))
	<-ctx.Done()
	printInfo("Stopped watching %s", root)
	return nil
}

// writeViewSVG replaces path with the current drawing of v.
func writeViewSVG(v *pipeline.View, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".micograph-*.svg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := v.Editor.WriteSVG(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
