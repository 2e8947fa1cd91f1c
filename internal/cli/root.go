package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/platform/logging"
)

// NewRootCommand builds the complete command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := resolvedVersion(deps.Version)

	root := &cobra.Command{
		Use:           "market",
		Short:         "Sign up, log in, and manage your 9ja Markets account profile.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
				return errVersionShown
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			cmd.SetContext(logging.WithLogger(cmd.Context(), commandLogger(cmd, deps.Logger, verbose)))
			attachVerboseHTTPTrace(cmd, deps.Market)
			showVersion, _ := cmd.Flags().GetBool("version")
			if !showVersion {
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
			return errVersionShown
		},
	}
	root.Flags().BoolP("version", "v", false, "Show CLI version and exit.")
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	defaultHelpFunc := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == root {
			renderRootHelp(cmd.OutOrStdout(), root)
			return
		}
		defaultHelpFunc(cmd, args)
	})

	root.AddGroup(commandGroups...)
	addToGroup(root, "account",
		newSignupCommand(deps),
		newLoginCommand(deps),
		newLogoutCommand(deps),
		newAuthCommand(deps),
		newConfigureCommand(deps),
	)
	addToGroup(root, "profile", newProfileCommand(deps))
	addToGroup(root, "directory", newMarketsCommand(deps), newMallsCommand(deps))

	return root
}

func addToGroup(root *cobra.Command, groupID string, commands ...*cobra.Command) {
	for _, cmd := range commands {
		cmd.GroupID = groupID
		root.AddCommand(cmd)
	}
}

type verboseHTTPTraceSetter interface {
	SetVerboseOutput(out io.Writer)
}

func attachVerboseHTTPTrace(cmd *cobra.Command, upstream any) {
	if enableHTTPTrace(cmd, upstream) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "[verbose] http trace enabled")
	}
}

// enableHTTPTrace routes the gateway's request trace to stderr when --verbose
// is set.
func enableHTTPTrace(cmd *cobra.Command, upstream any) bool {
	setter, ok := upstream.(verboseHTTPTraceSetter)
	if !ok || cmd == nil {
		return false
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		return false
	}
	setter.SetVerboseOutput(cmd.ErrOrStderr())
	return true
}

func commandLogger(cmd *cobra.Command, base *zap.Logger, verbose bool) *zap.Logger {
	if base != nil && !verbose {
		return base
	}
	return logging.NewCLI(cmd.ErrOrStderr(), verbose)
}
