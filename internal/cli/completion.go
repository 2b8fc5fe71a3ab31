package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// maxCompletions caps the number of codes offered per completion.
const maxCompletions = 200

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for lineage.

Query commands complete codes from the configured classifications.

To load completions:

Bash:
  $ source <(lineage completion bash)

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ lineage completion zsh > "${fpath[1]}/_lineage"

Fish:
  $ lineage completion fish > ~/.config/fish/completions/lineage.fish

PowerShell:
  PS> lineage completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeCodes offers codes of the unified graph that start with the
// typed prefix. Completion never shows a spinner and never fails loudly.
func (c *CLI) completeCodes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Completion skips the persistent pre-run hook, so config is loaded here.
	if err := c.loadConfig(); err != nil || c.Config.Sources.Empty() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runner, ch, err := c.newRunner(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer ch.Close()
	snap, _, err := runner.LoadSnapshot(ctx, c.Config.Sources, false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var out []string
	for _, id := range snap.Graph.NodeIDs() {
		if strings.HasPrefix(id, toComplete) {
			out = append(out, id)
			if len(out) == maxCompletions {
				break
			}
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
