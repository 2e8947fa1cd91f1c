package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/platform/logging"
	"github.com/ninejamarkets/market-cli/internal/service/output"
)

func newAuthCommand(deps Dependencies) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Inspect authentication state for authenticated commands.",
	}
	auth.AddCommand(newAuthStatusCommand(deps))
	return auth
}

func newAuthStatusCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in account and session expiry.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}

			sess := resolveSession(cmd, deps, flags)
			if !sess.Auth.HasCredentials() {
				data := map[string]any{
					"authenticated":      false,
					"user_id":            "",
					"user_type":          "",
					"email":              "",
					"session_expires_at": nil,
				}
				sess.Warnings = append(sess.Warnings, "no auth credentials provided")
				return writeResult(cmd, format, sess, flags.Output, data, buildAuthStatusTable)
			}
			if err := requireSession(cmd, format, sess, flags); err != nil {
				return err
			}

			refreshIfExpired(cmd.Context(), deps, &sess)
			profile, err := fetchSessionProfile(cmd.Context(), sess)
			if err != nil {
				logging.LogWarn(cmd.Context(), "auth status check failed", zap.Error(err))
				return emitSessionError(cmd, format, sess, flags, err)
			}

			data := map[string]any{
				"authenticated":      true,
				"user_id":            profile.ID,
				"user_type":          string(sess.UserType),
				"email":              profile.Email,
				"session_expires_at": emptyToNil(tokenExpiryRFC3339(sess.Auth.AccessToken)),
			}
			if flags.Verbose {
				data["token_preview"] = tokenPreview(sess.Auth.AccessToken)
				data["has_refresh_token"] = strings.TrimSpace(sess.Auth.RefreshToken) != ""
			}
			return writeResult(cmd, format, sess, flags.Output, data, buildAuthStatusTable)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func buildAuthStatusTable(data map[string]any) string {
	headers := []string{"Field", "Value"}
	rows := [][]string{
		{"Authenticated", boolToYesNo(asBool(data["authenticated"]))},
		{"User ID", fallbackString(asString(data["user_id"]), "-")},
		{"User type", fallbackString(asString(data["user_type"]), "-")},
		{"Email", fallbackString(asString(data["email"]), "-")},
		{"Session expires", fallbackString(asString(data["session_expires_at"]), "-")},
	}
	if preview := asString(data["token_preview"]); preview != "" {
		rows = append(rows, []string{"Token preview", preview})
	}
	if _, ok := data["has_refresh_token"]; ok {
		rows = append(rows, []string{"Refresh token", boolToYesNo(asBool(data["has_refresh_token"]))})
	}
	return output.RenderTable("Auth status", headers, rows)
}

func tokenPreview(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return token
	}
	return token[:6] + "..." + token[len(token)-6:]
}

func tokenExpiryRFC3339(token string) string {
	expiry, ok := tokenExpiry(token)
	if !ok {
		return ""
	}
	return expiry.Format(time.RFC3339)
}

func emptyToNil(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
