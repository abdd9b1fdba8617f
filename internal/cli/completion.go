package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/micograph/pkg/semver"
)

// completionCommand prints a shell completion script.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for the given shell. Besides commands and
flags, the version argument of a service is completed from the MICO API
(or the cache with --offline).

  bash:        source <(micograph completion bash)
  zsh:         micograph completion zsh > "${fpath[1]}/_micograph"
  fish:        micograph completion fish | source
  powershell:  micograph completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}

// completeVersion completes the version following a shortName argument,
// newest first.
func (c *CLI) completeVersion(cmd *cobra.Command, args []string, prefix string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	e, err := c.open(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer e.Close()

	services, err := e.client.ServiceVersions(cmd.Context(), args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return matchVersions(versionsOf(services), prefix), cobra.ShellCompDirectiveNoFileComp
}

// matchVersions returns the versions starting with prefix, newest first.
func matchVersions(versions []string, prefix string) []string {
	var out []string
	for _, v := range versions {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	semver.Sort(out)
	slices.Reverse(out)
	return out
}
