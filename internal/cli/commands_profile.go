package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/service/account"
	"github.com/ninejamarkets/market-cli/internal/service/appstate"
	"github.com/ninejamarkets/market-cli/internal/service/output"
)

func newProfileCommand(deps Dependencies) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit the signed-in account profile.",
	}
	profile.AddCommand(newProfileShowCommand(deps))
	profile.AddCommand(newProfileSetCommand(deps))
	profile.AddCommand(newProfileEmailCommand(deps))
	profile.AddCommand(newProfilePhonesCommand(deps))
	profile.AddCommand(newProfileAddressesCommand(deps))
	profile.AddCommand(newProfileAffiliationCommand(deps))
	return profile
}

// profileRun is a profile command bound to a loaded account editor.
type profileRun struct {
	format output.Format
	flags  globalFlags
	sess   authSession
	editor *account.Editor
	state  *appstate.ProfileState
}

// openProfileRun resolves the session and loads the profile. Errors it
// returns are already reported.
func openProfileRun(cmd *cobra.Command, deps Dependencies, flags globalFlags) (*profileRun, error) {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return nil, err
	}
	sess := resolveSession(cmd, deps, flags)
	if err := requireSession(cmd, format, sess, flags); err != nil {
		return nil, err
	}
	edit, state, err := openEditor(cmd, deps, &sess)
	if err != nil {
		return nil, emitSessionError(cmd, format, sess, flags, err)
	}
	return &profileRun{format: format, flags: flags, sess: sess, editor: edit, state: state}, nil
}

func (r *profileRun) fail(cmd *cobra.Command, err error) error {
	return emitSessionError(cmd, r.format, r.sess, r.flags, err)
}

func (r *profileRun) writeProfile(cmd *cobra.Command, title string, updated string) error {
	profile, _ := r.state.Get()
	data := profileData(profile)
	if updated != "" {
		data["updated"] = updated
	}
	return writeResult(cmd, r.format, r.sess, r.flags.Output, data, func(data map[string]any) string {
		return renderProfileTable(title, data)
	})
}

func newProfileShowCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in account profile.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			return run.writeProfile(cmd, "Profile", "")
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileSetCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Update one profile field (customer: first-name, last-name, date-of-birth; merchant: brand-name, market-name, mall-name).",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			name, err := resolveFieldName(run.editor, args[0])
			if err != nil {
				return run.fail(cmd, err)
			}
			if err := run.editor.SetField(cmd.Context(), name, args[1]); err != nil {
				return run.fail(cmd, err)
			}
			return run.writeProfile(cmd, "Profile updated", name)
		},
	}

	addGlobalFlags(cmd, &flags)
	return cmd
}

func newProfileAffiliationCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var marketName string
	var mallName string

	cmd := &cobra.Command{
		Use:   "affiliation",
		Short: "Set the market or mall a merchant account trades in.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			marketName = strings.TrimSpace(marketName)
			mallName = strings.TrimSpace(mallName)
			if (marketName == "") == (mallName == "") {
				return fmt.Errorf("provide exactly one of --market or --mall")
			}
			run, err := openProfileRun(cmd, deps, flags)
			if err != nil {
				return err
			}
			defer run.editor.Close()
			if run.editor.UserType() != domain.UserTypeMerchant {
				return emitError(cmd, run.format, run.sess.ProfileName, string(run.sess.UserType), flags.Output,
					"MARKET_INVALID_ARGUMENT", "Affiliation is only available for merchant accounts.")
			}

			field, value, err := resolveAffiliation(cmd, run.sess, marketName, mallName)
			if err != nil {
				return run.fail(cmd, err)
			}
			if err := run.editor.SetField(cmd.Context(), field, value); err != nil {
				return run.fail(cmd, err)
			}
			return run.writeProfile(cmd, "Affiliation updated", field)
		},
	}

	cmd.Flags().StringVar(&marketName, "market", "", "Market name, as listed by `market markets`.")
	cmd.Flags().StringVar(&mallName, "mall", "", "Mall name, as listed by `market malls`.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

var errUnknownAffiliation = errors.New("unknown affiliation")

func resolveAffiliation(cmd *cobra.Command, sess authSession, marketName string, mallName string) (string, string, error) {
	if marketName != "" {
		markets, err := sess.API.Markets(cmd.Context())
		if err != nil {
			return "", "", err
		}
		found, ok := domain.FindMarketByName(markets, marketName)
		if !ok {
			names := make([]string, 0, len(markets))
			for _, market := range markets {
				names = append(names, market.Name)
			}
			return "", "", fmt.Errorf("%w: market %q (available: %s)", errUnknownAffiliation, marketName, strings.Join(names, ", "))
		}
		return account.FieldMarketName, found.Name, nil
	}
	malls, err := sess.API.Malls(cmd.Context())
	if err != nil {
		return "", "", err
	}
	found, ok := domain.FindMallByName(malls, mallName)
	if !ok {
		names := make([]string, 0, len(malls))
		for _, mall := range malls {
			names = append(names, mall.Name)
		}
		return "", "", fmt.Errorf("%w: mall %q (available: %s)", errUnknownAffiliation, mallName, strings.Join(names, ", "))
	}
	return account.FieldMallName, found.Name, nil
}

// resolveFieldName matches first-name, first_name or firstName.
func resolveFieldName(edit *account.Editor, raw string) (string, error) {
	want := fieldKey(raw)
	if want == fieldKey(account.FieldEmail) {
		return "", fmt.Errorf("%w: email changes need verification, use `market profile email`", account.ErrUnknownField)
	}
	for _, name := range edit.FieldNames() {
		if fieldKey(name) == want {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w %q for %s profile (available: %s)", account.ErrUnknownField, raw, edit.UserType(), strings.Join(edit.FieldNames(), ", "))
}

func fieldKey(name string) string {
	replacer := strings.NewReplacer("-", "", "_", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(name)))
}
