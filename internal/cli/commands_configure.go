package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/config"
	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/service/profile"
)

type configureOptions struct {
	profileName  string
	apiURL       string
	token        string
	refreshToken string
	userID       string
	userType     string
	email        string
	makeDefault  bool
	overwrite    bool
}

func newConfigureCommand(deps Dependencies) *cobra.Command {
	var opts configureOptions

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Create and manage local profiles and saved sessions.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Config == nil {
				return fmt.Errorf("config storage is not available")
			}
			accessToken := normalizeAccessToken(opts.token)
			refreshToken := extractRefreshToken(opts.refreshToken)
			if refreshToken == "" {
				refreshToken = normalizeRefreshToken(opts.refreshToken)
			}
			if refreshToken == "" {
				refreshToken = extractRefreshToken(opts.token)
			}
			userID := strings.TrimSpace(opts.userID)
			if userID == "" {
				userID = tokenSubject(accessToken)
			}

			existingCfg, loadErr := deps.Config.Load(cmd.Context())
			if loadErr != nil && !errors.Is(loadErr, config.ErrConfigNotFound) {
				return loadErr
			}
			hasExisting := loadErr == nil && len(existingCfg.Profiles) > 0

			if hasExisting && !opts.overwrite {
				if !opts.hasUpdates(cmd) && accessToken == "" && refreshToken == "" {
					return fmt.Errorf("provide --api-url, --token, --refresh-token, --user-id, --user-type, --email, or --default to update the profile")
				}
				next := domain.Profile{Name: opts.profileName}
				if index := findProfileIndex(existingCfg, opts.profileName); index >= 0 {
					next = existingCfg.Profiles[index]
				}
				opts.apply(cmd, &next, accessToken, refreshToken, userID)
				store := profile.NewSessionStore(deps.Config, next.Name, "")
				if err := store.Upsert(cmd.Context(), next); err != nil {
					return err
				}
				return writeTable(cmd, "🏁 Config profile updated successfully!", "")
			}

			next := domain.Profile{Name: opts.profileName, IsDefault: true}
			opts.apply(cmd, &next, accessToken, refreshToken, userID)
			next.IsDefault = true
			if err := deps.Config.Save(cmd.Context(), domain.Config{Profiles: []domain.Profile{next}}); err != nil {
				return err
			}
			return writeTable(cmd, "🏁 Config was created successfully!", "")
		},
	}

	cmd.Flags().StringVar(&opts.profileName, "profile-name", profile.DefaultProfileName, "Profile name")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "Marketplace API base URL saved with the profile.")
	cmd.Flags().StringVar(&opts.token, "token", "", "Access token saved with the profile for authenticated commands.")
	cmd.Flags().StringVar(&opts.refreshToken, "refresh-token", "", "Refresh token saved with the profile for automatic token rotation.")
	cmd.Flags().StringVar(&opts.userID, "user-id", "", "Account id; read from the token subject when omitted.")
	cmd.Flags().StringVar(&opts.userType, "user-type", "", "Account type: customer or merchant.")
	cmd.Flags().StringVar(&opts.email, "email", "", "Account email shown by auth status.")
	cmd.Flags().BoolVar(&opts.makeDefault, "default", false, "Make this profile the default one.")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Overwrite existing config")
	return cmd
}

func (o configureOptions) hasUpdates(cmd *cobra.Command) bool {
	for _, name := range []string{"api-url", "user-id", "user-type", "email", "default"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (o configureOptions) apply(cmd *cobra.Command, target *domain.Profile, accessToken string, refreshToken string, userID string) {
	if cmd.Flags().Changed("api-url") {
		target.APIURL = strings.TrimSpace(o.apiURL)
	}
	if accessToken != "" {
		target.AccessToken = accessToken
	}
	if refreshToken != "" {
		target.RefreshToken = refreshToken
	}
	if userID != "" {
		target.UserID = userID
	}
	if cmd.Flags().Changed("user-type") {
		target.UserType = domain.ParseUserType(o.userType)
	}
	if cmd.Flags().Changed("email") {
		target.Email = strings.TrimSpace(o.email)
	}
	if o.makeDefault {
		target.IsDefault = true
	}
}

func findProfileIndex(cfg domain.Config, profileName string) int {
	trimmed := strings.TrimSpace(profileName)
	if trimmed == "" {
		for i, profile := range cfg.Profiles {
			if profile.IsDefault {
				return i
			}
		}
		return -1
	}
	for i, profile := range cfg.Profiles {
		if strings.EqualFold(strings.TrimSpace(profile.Name), trimmed) {
			return i
		}
	}
	return -1
}
