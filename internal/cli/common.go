package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/service/account"
	"github.com/ninejamarkets/market-cli/internal/service/editor"
	"github.com/ninejamarkets/market-cli/internal/service/output"
	"github.com/ninejamarkets/market-cli/internal/service/signup"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	Format       string
	Profile      string
	APIURL       string
	Token        string
	RefreshToken string
	Output       string
	Verbose      bool
}

const sharedGlobalFlagAnnotation = "market_cli_shared_global"

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "profile", func() {
		cmd.Flags().StringVar(&flags.Profile, "profile", "", "Local profile holding the saved session.")
	})
	addSharedGlobalFlag(cmd, "api-url", func() {
		cmd.Flags().StringVar(&flags.APIURL, "api-url", "", "Marketplace API base url override for this command.")
	})
	addSharedGlobalFlag(cmd, "token", func() {
		cmd.Flags().StringVar(&flags.Token, "token", "", "Access token for authenticated endpoints (JWT, Bearer value, or payload with accessToken).")
	})
	addSharedGlobalFlag(cmd, "refresh-token", func() {
		cmd.Flags().StringVar(&flags.RefreshToken, "refresh-token", "", "Refresh token used when the access token has expired.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Also write rendered output to this file path.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output (prints upstream request trace and detailed error diagnostics).")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

func parseOutputFormat(format string) (output.Format, error) {
	return output.ParseFormat(format)
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	if err := output.WriteOutput(cmd.OutOrStdout(), text, outputPath); err != nil {
		return err
	}
	return nil
}

func writeMachinePayload(cmd *cobra.Command, env output.Envelope, format output.Format, outputPath string) error {
	rendered, err := output.RenderPayload(env, format)
	if err != nil {
		return err
	}
	if err := output.WriteOutput(cmd.OutOrStdout(), rendered, outputPath); err != nil {
		return err
	}
	return nil
}

// writeResult renders data as a table or as a machine envelope.
func writeResult(cmd *cobra.Command, format output.Format, sess authSession, outputPath string, data map[string]any, table func(map[string]any) string) error {
	if format == output.FormatTable {
		text := table(data)
		for _, warning := range sess.Warnings {
			text += "\nwarning: " + warning
		}
		return writeTable(cmd, text, outputPath)
	}
	env := output.BuildEnvelope(sess.ProfileName, string(sess.UserType), data, sess.Warnings)
	return writeMachinePayload(cmd, env, format, outputPath)
}

func emitError(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	userType string,
	outputPath string,
	code string,
	message string,
) error {
	if format == output.FormatTable {
		if err := output.WriteOutput(cmd.OutOrStdout(), message, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildEnvelope(profile, userType, nil, nil).WithError(code, message)
	if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

// emitSessionError reports err for the session's profile.
func emitSessionError(cmd *cobra.Command, format output.Format, sess authSession, flags globalFlags, err error) error {
	return emitCommandError(cmd, format, sess.ProfileName, string(sess.UserType), flags.Output, flags.Verbose, err)
}

func emitCommandError(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	userType string,
	outputPath string,
	verbose bool,
	err error,
) error {
	if err == nil {
		err = market.ErrUpstream
	}
	return emitError(cmd, format, profile, userType, outputPath, errorCode(err), errorMessage(err, verbose))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, signup.ErrAccountCreated):
		return "MARKET_ACCOUNT_CREATED"
	case errors.Is(err, signup.ErrPasswordMismatch),
		errors.Is(err, signup.ErrWeakPassword),
		errors.Is(err, signup.ErrMissingField),
		errors.Is(err, editor.ErrRequiredValue),
		errors.Is(err, editor.ErrNoEntry),
		errors.Is(err, account.ErrUnknownField),
		errors.Is(err, errUnknownAffiliation):
		return "MARKET_INVALID_ARGUMENT"
	case errors.Is(err, errEmailChangeCancelled):
		return "MARKET_CANCELLED"
	case errors.Is(err, editor.ErrCodeExpired):
		return "MARKET_CODE_EXPIRED"
	case errors.Is(err, editor.ErrInvalidCode):
		return "MARKET_INVALID_CODE"
	case errors.Is(err, editor.ErrListFull):
		return "MARKET_LIST_FULL"
	case errors.Is(err, editor.ErrBusy), errors.Is(err, editor.ErrInvalidTransition):
		return "MARKET_STATE_ERROR"
	case errors.Is(err, signup.ErrIncompleteLogin):
		return "MARKET_AUTH_ERROR"
	case market.IsUnauthorized(err):
		return "MARKET_UNAUTHORIZED"
	case errors.Is(err, market.ErrUpstream):
		return "MARKET_UPSTREAM_ERROR"
	default:
		return "MARKET_ERROR"
	}
}

func errorMessage(err error, verbose bool) string {
	if verbose {
		return err.Error()
	}
	switch {
	case errors.Is(err, signup.ErrAccountCreated),
		errors.Is(err, signup.ErrPasswordMismatch),
		errors.Is(err, signup.ErrWeakPassword),
		errors.Is(err, signup.ErrMissingField):
		return signup.UserMessage(err)
	case errors.Is(err, editor.ErrInvalidCode):
		return err.Error()
	}
	message := market.RemoteMessage(err)
	if status := market.StatusCode(err); status > 0 && !strings.Contains(message, strconv.Itoa(status)) {
		message = fmt.Sprintf("%s (status %d, use --verbose for details)", message, status)
	}
	return message
}

func defaultProfileName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "default"
	}
	return trimmed
}

// parseIndexArg converts a 1-based position argument to a list index.
func parseIndexArg(raw string) (int, error) {
	position, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || position < 1 {
		return 0, fmt.Errorf("%w: position must be a number >= 1, got %q", editor.ErrNoEntry, raw)
	}
	return position - 1, nil
}
