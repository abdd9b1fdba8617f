package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/errors"
	"github.com/matzehuels/micograph/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path
	formats  []string // svg, json, dot, png
	view     string   // service or application
	file     string   // snapshot JSON instead of the API
	width    float64  // viewport width, config default if zero
	height   float64  // viewport height, config default if zero
	zoom     string   // zoom mode, config default if empty
	detailed bool     // DOT labels with metadata
	refresh  bool     // bypass the snapshot cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [shortName version]",
		Short: "Render the dependency graph of a service or application",
		Long: `Render the dependency graph of a service version (or the services of an
application with --view application) from the MICO API, or from a snapshot
JSON file with --file.`,
		Example: `  micograph render auth 1.0.0
  micograph render auth 1.0.0 -f svg,json -o build/auth
  micograph render --file snapshot.json -f dot --detailed
  micograph render shop 2.1.0 --view application`,
		Args:              cobra.RangeArgs(0, 2),
		ValidArgsFunction: c.completeVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, png (comma-separated)")
	cmd.Flags().StringVar(&opts.view, "view", pipeline.ViewService, "view: service or application")
	cmd.Flags().StringVar(&opts.file, "file", "", "render a snapshot JSON file instead of querying the API")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "viewport width")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "viewport height")
	cmd.Flags().StringVar(&opts.zoom, "zoom", "", "zoom mode: none, manual, automatic, both")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include service metadata in DOT labels")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "refetch the snapshot even if cached")

	return cmd
}

// target parses the positional shortName and version.
func target(args []string, file string) (shortName, version string, err error) {
	switch {
	case len(args) == 2:
		return args[0], args[1], nil
	case len(args) == 0 && file != "":
		return "", "", nil
	}
	return "", "", errors.New(errors.ErrCodeInvalidInput, "expected <shortName> <version> or --file")
}

func (c *CLI) runRender(ctx context.Context, args []string, ro renderOpts) error {
	shortName, version, err := target(args, ro.file)
	if err != nil {
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
	opts.View = ro.view
	opts.ShortName, opts.Version = shortName, version
	opts.File = ro.file
	opts.Formats = ro.formats
	opts.Detailed = ro.detailed
	opts.Refresh = ro.refresh
	if ro.width > 0 {
		opts.Width = ro.width
	}
	if ro.height > 0 {
		opts.Height = ro.height
	}
	if ro.zoom != "" {
		opts.ZoomMode = ro.zoom
	}

	prog := newProgress(c.Logger)
	run := func() (*pipeline.Result, error) { return e.runner.Execute(ctx, opts) }
	var res *pipeline.Result
	if ro.file == "" {
		res, err = withSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s %s", shortName, version), run)
	} else {
		res, err = run()
	}
	if err != nil {
		return err
	}

	base := outputBase(ro.output, ro.file, shortName, version)
	paths, err := writeArtifacts(base, ro.output, res)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(res.RootID))
	printStats(res.Stats, res.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	if ro.file == "" && opts.View == pipeline.ViewService {
		printNextStep("Follow changes", fmt.Sprintf("%s watch %s %s -o %s.svg", appName, shortName, version, base))
	}
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(paths)))
	return nil
}

// outputBase derives the base path of output files. An output with a
// format extension names the single output file.
func outputBase(output, file, shortName, version string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if file != "" {
		return strings.TrimSuffix(file, filepath.Ext(file))
	}
	return shortName + "-" + version
}

// writeArtifacts writes each artifact to base.<format>. A single artifact
// goes to output verbatim if it has an extension.
func writeArtifacts(base, output string, res *pipeline.Result) ([]string, error) {
	var paths []string
	for format, data := range res.Artifacts {
		path := base + "." + format
		if len(res.Artifacts) == 1 && filepath.Ext(output) != "" {
			path = output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths, nil
}
