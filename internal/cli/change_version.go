package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/graph"
	"github.com/matzehuels/micograph/pkg/pipeline"
	"github.com/matzehuels/micograph/pkg/semver"
)

// changeVersionCommand swaps a direct dependency of a service for another
// version of the same service.
func (c *CLI) changeVersionCommand() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "change-version shortName version nodeID [newVersion]",
		Short: "Change the version of a direct dependency",
		Long: `Replace the direct dependency nodeID of a service with another version
of the same service. The new node keeps the saved position of the old one.
With --latest the highest available version is used.`,
		Example: `  micograph change-version shop 1.0.0 auth-1.0.0 1.1.0
  micograph change-version shop 1.0.0 auth-1.0.0 --latest`,
		Args:              cobra.RangeArgs(3, 4),
		ValidArgsFunction: c.completeVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			newVersion := ""
			if len(args) == 4 {
				newVersion = args[3]
			}
			if (newVersion == "") == !latest {
				return errors.New(errors.ErrCodeInvalidInput, "expected either <newVersion> or --latest")
			}
			return c.runChangeVersion(cmd.Context(), args[0], args[1], args[2], newVersion)
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "change to the latest version of the dependency")
	return cmd
}

func (c *CLI) runChangeVersion(ctx context.Context, shortName, version, nodeID, newVersion string) error {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return err
	}
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

	if newVersion == "" {
		if newVersion, err = e.latestVersion(ctx, opts, nodeID); err != nil {
			return err
		}
		printInfo("Latest version is %s", StyleHighlight.Render(newVersion))
	}
	if err := errors.ValidateVersion(newVersion); err != nil {
		return err
	}
	if err := e.runner.ChangeVersion(ctx, opts, nodeID, newVersion); err != nil {
		return err
	}
	printSuccess("Changed %s to version %s", StyleHighlight.Render(nodeID), StyleHighlight.Render(newVersion))
	return nil
}

// latestVersion finds the service behind nodeID in the dependency graph and
// returns its highest version.
func (e *env) latestVersion(ctx context.Context, opts pipeline.Options, nodeID string) (string, error) {
	opts.Refresh = true
	snap, _, err := e.runner.Load(ctx, opts)
	if err != nil {
		return "", err
	}
	var dep *graph.Service
	for i := range snap.Graph.Services {
		if snap.Graph.Services[i].NodeID() == nodeID {
			dep = &snap.Graph.Services[i]
			break
		}
	}
	if dep == nil {
		return "", errors.New(errors.ErrCodeNotFound, "node %s not in graph", nodeID)
	}

	services, err := e.client.ServiceVersions(ctx, dep.ShortName)
	if err != nil {
		return "", err
	}
	v, ok := semver.Latest(versionsOf(services))
	if !ok {
		return "", errors.New(errors.ErrCodeServiceNotFound, "service %s has no valid versions", dep.ShortName)
	}
	return v, nil
}
