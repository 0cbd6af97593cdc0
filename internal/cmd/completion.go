package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `To load completions:

Bash:
  $ source <(meetus completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ meetus completion bash > /etc/bash_completion.d/meetus
  # macOS:
  $ meetus completion bash > $(brew --prefix)/etc/bash_completion.d/meetus

Zsh:
  $ meetus completion zsh > "${fpath[1]}/_meetus"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ meetus completion fish | source

  # To load completions for each session, execute once:
  $ meetus completion fish > ~/.config/fish/completions/meetus.fish

PowerShell:
  PS> meetus completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return cmd.Root().GenBashCompletion(out)
	case "zsh":
		return cmd.Root().GenZshCompletion(out)
	case "fish":
		return cmd.Root().GenFishCompletion(out, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(out)
	}
	return nil
}
