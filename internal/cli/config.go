package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// configCommand prints the effective configuration.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			path := cfg.Path()
			if path == "" {
				path = "(defaults)"
			}
			printKeyValue("file", path)
			printKeyValue("api", cfg.API.BaseURL)
			printKeyValue("offline", strconv.FormatBool(cfg.API.Offline))
			printKeyValue("cache", cfg.Cache.Backend)
			printKeyValue("layouts", cfg.Layout.Backend)
			printKeyValue("zoom", cfg.Editor.ZoomMode)
			printKeyValue("watch", cfg.Watch.Interval.String())
			printKeyValue("listen", cfg.Server.Addr)
			return nil
		},
	}
}
