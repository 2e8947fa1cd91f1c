package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/platform/logging"
	"github.com/ninejamarkets/market-cli/internal/service/output"
	"github.com/ninejamarkets/market-cli/internal/service/signup"
)

func newSignupCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var form domain.SignupForm
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a customer account, log in, and save the session.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			sess := resolveSession(cmd, deps, flags)
			if err := requireAPI(cmd, format, sess, flags); err != nil {
				return err
			}
			if passwordStdin {
				password, confirm := readPasswords(cmd.InOrStdin())
				form.Password = password
				if strings.TrimSpace(form.ConfirmPassword) == "" {
					form.ConfirmPassword = confirm
				}
			}
			store, err := sessionStore(deps, flags)
			if err != nil {
				return emitError(cmd, format, sess.ProfileName, string(domain.UserTypeCustomer), flags.Output, "MARKET_CONFIG_ERROR", err.Error())
			}

			coordinator := signup.NewCoordinator(sess.API, store,
				signup.WithNotifier(newStreamNotifier(cmd.ErrOrStderr())),
				signup.WithLogger(logging.FromContext(cmd.Context())),
			)
			profile, err := coordinator.Submit(cmd.Context(), form)
			if err != nil {
				return emitCommandError(cmd, format, sess.ProfileName, string(domain.UserTypeCustomer), flags.Output, flags.Verbose, err)
			}

			sess.UserType = domain.UserTypeCustomer
			sess.ProfileName = defaultProfileName(flags.Profile)
			return writeResult(cmd, format, sess, flags.Output, profileData(profile), func(data map[string]any) string {
				return renderProfileTable("Signed up", data)
			})
		},
	}

	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name.")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name.")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address used to log in.")
	cmd.Flags().StringVar(&form.Phone1, "phone", "", "Primary phone number.")
	cmd.Flags().StringVar(&form.Phone2, "phone2", "", "Optional second phone number.")
	cmd.Flags().StringVar(&form.Password, "password", "", "Account password.")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password confirmation; defaults to the stdin confirmation line.")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password, then its confirmation, from stdin.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newLoginCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var credentials domain.Credentials
	var passwordStdin bool
	var merchant bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session in the selected profile.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			userType := domain.UserTypeCustomer
			if merchant {
				userType = domain.UserTypeMerchant
			}
			sess := resolveSession(cmd, deps, flags)
			sess.UserType = userType
			if err := requireAPI(cmd, format, sess, flags); err != nil {
				return err
			}
			if passwordStdin {
				credentials.Password, _ = readPasswords(cmd.InOrStdin())
			}
			store, err := sessionStore(deps, flags)
			if err != nil {
				return emitError(cmd, format, sess.ProfileName, string(userType), flags.Output, "MARKET_CONFIG_ERROR", err.Error())
			}

			coordinator := signup.NewCoordinator(sess.API, store,
				signup.WithNotifier(newStreamNotifier(cmd.ErrOrStderr())),
				signup.WithLogger(logging.FromContext(cmd.Context())),
			)
			profile, err := coordinator.Login(cmd.Context(), userType, credentials)
			if err != nil {
				return emitSessionError(cmd, format, sess, flags, err)
			}

			sess.ProfileName = defaultProfileName(flags.Profile)
			return writeResult(cmd, format, sess, flags.Output, profileData(profile), func(data map[string]any) string {
				return renderProfileTable("Logged in", data)
			})
		},
	}

	cmd.Flags().StringVar(&credentials.Email, "email", "", "Account email.")
	cmd.Flags().StringVar(&credentials.Password, "password", "", "Account password.")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin.")
	cmd.Flags().BoolVar(&merchant, "merchant", false, "Log in to a merchant account.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newLogoutCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session from the selected profile.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			profileName := defaultProfileName(flags.Profile)
			store, err := sessionStore(deps, flags)
			if err != nil {
				return emitError(cmd, format, profileName, "", flags.Output, "MARKET_CONFIG_ERROR", err.Error())
			}
			cleared, err := store.ClearSession(cmd.Context())
			if err != nil {
				return emitError(cmd, format, profileName, "", flags.Output, "MARKET_PROFILE_ERROR", err.Error())
			}
			data := map[string]any{
				"profile":    cleared.Name,
				"logged_out": true,
			}
			if format == output.FormatTable {
				return writeTable(cmd, "Logged out of profile "+cleared.Name+".", flags.Output)
			}
			env := output.BuildEnvelope(cleared.Name, "", data, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

// readPasswords reads a password line and an optional confirmation line.
func readPasswords(in io.Reader) (string, string) {
	if in == nil {
		return "", ""
	}
	scanner := bufio.NewScanner(in)
	var lines []string
	for len(lines) < 2 && scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	switch len(lines) {
	case 0:
		return "", ""
	case 1:
		return lines[0], lines[0]
	default:
		return lines[0], lines[1]
	}
}
