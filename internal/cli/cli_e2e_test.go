package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ninejamarkets/market-cli/internal/cli"
	"github.com/ninejamarkets/market-cli/internal/config"
	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/gateway/market"
	"github.com/ninejamarkets/market-cli/internal/service/profile"
	"github.com/ninejamarkets/market-cli/internal/testutil/fakeapi"
)

const strongPassword = "Str0ng!pass"

type harness struct {
	t     *testing.T
	api   *fakeapi.Server
	store *config.Store
	deps  cli.Dependencies
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := fakeapi.New(t)
	store := config.NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	newMarket := func(apiURL string) market.API {
		return market.NewClient(apiURL)
	}
	return &harness{
		t:     t,
		api:   api,
		store: store,
		deps: cli.Dependencies{
			Market:    newMarket(api.URL()),
			NewMarket: newMarket,
			Profiles:  profile.NewResolver(store),
			Config:    store,
			Logger:    zap.NewNop(),
			Version:   "test",
		},
	}
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	deps := h.deps
	deps.Stdin = strings.NewReader(stdin)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := cli.Execute(context.Background(), args, deps, stdout, stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) savedProfile() domain.Profile {
	h.t.Helper()
	cfg, err := h.store.Load(context.Background())
	require.NoError(h.t, err)
	require.NotEmpty(h.t, cfg.Profiles)
	return cfg.Profiles[0]
}

func (h *harness) seedCustomer(email string) domain.UserProfile {
	return h.api.SeedUser(domain.UserProfile{
		UserType:     domain.UserTypeCustomer,
		Email:        email,
		FirstName:    "Ada",
		LastName:     "Obi",
		PhoneNumbers: []domain.PhoneNumber{{Number: "08030000001"}},
	}, strongPassword)
}

func (h *harness) seedMerchant(email string) domain.UserProfile {
	return h.api.SeedUser(domain.UserProfile{
		UserType:  domain.UserTypeMerchant,
		Email:     email,
		BrandName: "Ada Fabrics",
	}, strongPassword)
}

func (h *harness) login(email string, merchant bool) {
	h.t.Helper()
	args := []string{"login", "--email", email, "--password", strongPassword}
	if merchant {
		args = append(args, "--merchant")
	}
	res := h.run("", args...)
	require.Equal(h.t, 0, res.code, "login failed: %s%s", res.stdout, res.stderr)
}

func decodeEnvelope(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload), "stdout is not json:\n%s", raw)
	return payload
}

func envelopeData(t *testing.T, raw string) map[string]any {
	t.Helper()
	data, ok := decodeEnvelope(t, raw)["data"].(map[string]any)
	require.True(t, ok, "envelope has no data object:\n%s", raw)
	return data
}

func envelopeErrorCode(t *testing.T, raw string) string {
	t.Helper()
	errPayload, ok := decodeEnvelope(t, raw)["error"].(map[string]any)
	require.True(t, ok, "envelope has no error object:\n%s", raw)
	code, _ := errPayload["code"].(string)
	return code
}

func TestSignupStoresSessionAndPublishesProfile(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "signup",
		"--first-name", "Ada",
		"--last-name", "Obi",
		"--email", "ada@example.test",
		"--phone", "08030000001",
		"--phone2", "08030000002",
		"--password", strongPassword,
		"--confirm-password", strongPassword,
	)
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Contains(t, res.stdout, "Signed up")
	assert.Contains(t, res.stdout, "Ada")
	assert.Contains(t, res.stderr, "✔ SignUp Successful")
	assert.Equal(t, 1, h.api.Calls(fakeapi.OpSignup))
	assert.Equal(t, 1, h.api.Calls(fakeapi.OpLogin))

	saved := h.savedProfile()
	assert.Equal(t, "default", saved.Name)
	assert.True(t, saved.IsDefault)
	assert.Equal(t, domain.UserTypeCustomer, saved.UserType)
	assert.NotEmpty(t, saved.AccessToken)
	assert.NotEmpty(t, saved.RefreshToken)
	assert.NotEmpty(t, saved.UserID)

	status := h.run("", "auth", "status", "--format", "json")
	require.Equal(t, 0, status.code, status.stdout)
	data := envelopeData(t, status.stdout)
	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, "ada@example.test", data["email"])
	assert.Equal(t, "customer", data["user_type"])
}

func TestSignupValidationFailsBeforeAnyRemoteCall(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "signup",
		"--first-name", "Ada",
		"--last-name", "Obi",
		"--email", "ada@example.test",
		"--phone", "08030000001",
		"--password", strongPassword,
		"--confirm-password", "different",
	)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "Passwords do not match")
	assert.Contains(t, res.stderr, "✖ Passwords do not match")
	assert.Equal(t, 0, h.api.Calls(fakeapi.OpSignup))

	weak := h.run("", "signup",
		"--first-name", "Ada",
		"--last-name", "Obi",
		"--email", "ada@example.test",
		"--phone", "08030000001",
		"--password", "weak",
		"--confirm-password", "weak",
		"--format", "json",
	)
	assert.Equal(t, 1, weak.code)
	assert.Equal(t, "MARKET_INVALID_ARGUMENT", envelopeErrorCode(t, weak.stdout))
	assert.Equal(t, 0, h.api.Calls(fakeapi.OpSignup))
}

func TestSignupReadsPasswordFromStdin(t *testing.T) {
	h := newHarness(t)

	res := h.run(strongPassword+"\n"+strongPassword+"\n", "signup",
		"--first-name", "Ada",
		"--last-name", "Obi",
		"--email", "ada@example.test",
		"--phone", "08030000001",
		"--password-stdin",
	)
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.NotEmpty(t, h.savedProfile().AccessToken)
}

func TestSignupLoginFailureReportsCreatedAccount(t *testing.T) {
	h := newHarness(t)
	h.api.FailNext(fakeapi.OpLogin, http.StatusInternalServerError, "login unavailable")

	res := h.run("", "signup",
		"--first-name", "Ada",
		"--last-name", "Obi",
		"--email", "ada@example.test",
		"--phone", "08030000001",
		"--password", strongPassword,
		"--confirm-password", strongPassword,
		"--format", "json",
	)
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "MARKET_ACCOUNT_CREATED", envelopeErrorCode(t, res.stdout))
	assert.Equal(t, 1, h.api.Calls(fakeapi.OpSignup))
	assert.NotContains(t, res.stderr, "SignUp Successful")

	_, err := h.store.Load(context.Background())
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestSignupDuplicateEmailShowsRemoteMessage(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")

	res := h.run("", "signup",
		"--first-name", "Ada",
		"--last-name", "Obi",
		"--email", "ada@example.test",
		"--phone", "08030000001",
		"--password", strongPassword,
		"--confirm-password", strongPassword,
	)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "User already exists")
	assert.Equal(t, 0, h.api.Calls(fakeapi.OpLogin))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")

	res := h.run("", "login", "--email", "ada@example.test", "--password", "nope", "--format", "json")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "MARKET_UNAUTHORIZED", envelopeErrorCode(t, res.stdout))
}

func TestLogoutClearsSavedSession(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("", "logout")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Contains(t, res.stdout, "Logged out of profile default.")
	assert.Empty(t, h.savedProfile().AccessToken)

	status := h.run("", "auth", "status", "--format", "json")
	require.Equal(t, 0, status.code)
	assert.Equal(t, false, envelopeData(t, status.stdout)["authenticated"])
	assert.Contains(t, decodeEnvelope(t, status.stdout)["warnings"], "no auth credentials provided")
}

func TestProfileCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)

	res := h.run("", "profile", "show", "--format", "json")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "MARKET_AUTH_REQUIRED", envelopeErrorCode(t, res.stdout))
}

func TestProfileSetUpdatesOneField(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("", "profile", "set", "first-name", "Bola")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Contains(t, res.stdout, "Bola")
	assert.Contains(t, res.stderr, "✔ Updated firstName")

	stored, ok := h.api.Profile(seeded.ID)
	require.True(t, ok)
	assert.Equal(t, "Bola", stored.FirstName)
	assert.Equal(t, []map[string]any{{"firstName": "Bola"}}, h.api.Updates())
}

func TestProfileSetRejectsBlankRequiredAndEmail(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	blank := h.run("", "profile", "set", "last-name", "  ", "--format", "json")
	assert.Equal(t, 1, blank.code)
	assert.Equal(t, "MARKET_INVALID_ARGUMENT", envelopeErrorCode(t, blank.stdout))

	email := h.run("", "profile", "set", "email", "x@example.test")
	assert.Equal(t, 1, email.code)
	assert.Contains(t, email.stdout, "market profile email")

	unknown := h.run("", "profile", "set", "brand-name", "Shop", "--format", "json")
	assert.Equal(t, 1, unknown.code)
	assert.Equal(t, "MARKET_INVALID_ARGUMENT", envelopeErrorCode(t, unknown.stdout))

	assert.Empty(t, h.api.Updates())
}

func TestProfileSetFailureLeavesProfileUnchanged(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)
	h.api.FailNext(fakeapi.OpUpdate, http.StatusInternalServerError, "database offline")

	res := h.run("", "profile", "set", "date-of-birth", "1990-01-01")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "database offline")
	assert.Contains(t, res.stderr, "✖ Failed to update the field")

	stored, _ := h.api.Profile(seeded.ID)
	assert.Empty(t, stored.DateOfBirth)
}

func TestProfileEmailChangeVerifiesBothAddresses(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("123456\n123457\n", "profile", "email", "--new", "ada.new@example.test")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Contains(t, res.stdout, "ada.new@example.test")
	assert.Equal(t, 2, strings.Count(res.stderr, "✔ Email Verification Sent"))
	assert.Equal(t, 2, strings.Count(res.stderr, "✔ Email Verified"))
	assert.Contains(t, res.stderr, "Code sent to ada@example.test")
	assert.Contains(t, res.stderr, "Code sent to ada.new@example.test")

	stored, _ := h.api.Profile(seeded.ID)
	assert.Equal(t, "ada.new@example.test", stored.Email)
	assert.Equal(t, []map[string]any{{"email": "ada.new@example.test"}}, h.api.Updates())
}

func TestProfileEmailChangePromptsForAddressAndRetriesBadCode(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("000000\n123456\nada.new@example.test\n123457\n", "profile", "email")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Contains(t, res.stderr, "✖ Invalid Token")
	assert.Contains(t, res.stderr, "New email address: ")

	stored, _ := h.api.Profile(seeded.ID)
	assert.Equal(t, "ada.new@example.test", stored.Email)
}

func TestProfileEmailChangeResendsCode(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("resend\n123457\n123458\n", "profile", "email", "--new", "ada.new@example.test")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Equal(t, 3, h.api.Calls(fakeapi.OpSendCode))
}

func TestProfileEmailChangeCancelKeepsEmail(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("123456\n", "profile", "email", "--new", "ada.new@example.test", "--format", "json")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "MARKET_CANCELLED", envelopeErrorCode(t, res.stdout))

	stored, _ := h.api.Profile(seeded.ID)
	assert.Equal(t, "ada@example.test", stored.Email)
	assert.Empty(t, h.api.Updates())
}

func TestProfileEmailChangeExpiredCode(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)
	h.api.FailNext(fakeapi.OpVerify, http.StatusGone, "OTP has expired")

	res := h.run("123456\n", "profile", "email", "--new", "ada.new@example.test", "--format", "json")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "The code has expired")
	assert.Contains(t, res.stderr, "✖ Invalid Token")
	assert.Equal(t, "MARKET_CANCELLED", envelopeErrorCode(t, res.stdout))
	assert.Empty(t, h.api.Updates())
}

func TestProfilePhonesRespectCap(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	added := h.run("", "profile", "phones", "add", "08030000002")
	require.Equal(t, 0, added.code, added.stdout+added.stderr)
	assert.Contains(t, added.stdout, "added phone 2")

	full := h.run("", "profile", "phones", "add", "08030000003", "--format", "json")
	assert.Equal(t, 1, full.code)
	assert.Equal(t, "MARKET_LIST_FULL", envelopeErrorCode(t, full.stdout))

	set := h.run("", "profile", "phones", "set", "1", "08090000009")
	require.Equal(t, 0, set.code, set.stdout)

	deleted := h.run("", "profile", "phones", "delete", "2", "--format", "json")
	require.Equal(t, 0, deleted.code, deleted.stdout)
	data := envelopeData(t, deleted.stdout)
	assert.Len(t, data["phone_numbers"], 1)

	stored, _ := h.api.Profile(seeded.ID)
	assert.Equal(t, []string{"08090000009"}, stored.Phones())

	missing := h.run("", "profile", "phones", "delete", "5", "--format", "json")
	assert.Equal(t, 1, missing.code)
	assert.Equal(t, "MARKET_INVALID_ARGUMENT", envelopeErrorCode(t, missing.stdout))
}

func TestProfileAddressesAddAndEdit(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	added := h.run("", "profile", "addresses", "add",
		"--name", "Home",
		"--address", "12 Allen Avenue",
		"--city", "Ikeja",
		"--state", "Lagos",
		"--country", "Nigeria",
	)
	require.Equal(t, 0, added.code, added.stdout+added.stderr)
	assert.Contains(t, added.stdout, "12 Allen Avenue")

	edited := h.run("", "profile", "addresses", "set", "1", "--city", "Lagos", "--postal-code", "100271")
	require.Equal(t, 0, edited.code, edited.stdout)

	stored, _ := h.api.Profile(seeded.ID)
	require.Len(t, stored.Addresses, 1)
	assert.Equal(t, domain.Address{
		Name:       "Home",
		Address:    "12 Allen Avenue",
		City:       "Lagos",
		State:      "Lagos",
		Country:    "Nigeria",
		PostalCode: "100271",
	}, stored.Addresses[0])

	blank := h.run("", "profile", "addresses", "add", "--format", "json")
	assert.Equal(t, 1, blank.code)
	assert.Equal(t, "MARKET_INVALID_ARGUMENT", envelopeErrorCode(t, blank.stdout))

	deleted := h.run("", "profile", "addresses", "delete", "1")
	require.Equal(t, 0, deleted.code, deleted.stdout)
	stored, _ = h.api.Profile(seeded.ID)
	assert.Empty(t, stored.Addresses)
}

func TestMerchantAddressesAreCapped(t *testing.T) {
	h := newHarness(t)
	h.seedMerchant("shop@example.test")
	h.login("shop@example.test", true)

	for _, city := range []string{"Lagos", "Abuja"} {
		res := h.run("", "profile", "addresses", "add", "--address", "Shop", "--city", city)
		require.Equal(t, 0, res.code, res.stdout+res.stderr)
	}
	full := h.run("", "profile", "addresses", "add", "--address", "Shop 3", "--format", "json")
	assert.Equal(t, 1, full.code)
	assert.Equal(t, "MARKET_LIST_FULL", envelopeErrorCode(t, full.stdout))
}

func TestMerchantAffiliation(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedMerchant("shop@example.test")
	h.login("shop@example.test", true)
	assert.Equal(t, domain.UserTypeMerchant, h.savedProfile().UserType)

	res := h.run("", "profile", "affiliation", "--market", "balogun market")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Contains(t, res.stderr, "✔ Updated marketName")

	stored, _ := h.api.Profile(seeded.ID)
	assert.Equal(t, "Balogun Market", stored.MarketName)

	mall := h.run("", "profile", "affiliation", "--mall", "Ikeja City Mall", "--format", "json")
	require.Equal(t, 0, mall.code, mall.stdout)
	assert.Equal(t, "Ikeja City Mall", envelopeData(t, mall.stdout)["mall_name"])

	unknown := h.run("", "profile", "affiliation", "--mall", "Nowhere Plaza")
	assert.Equal(t, 1, unknown.code)
	assert.Contains(t, unknown.stdout, "Nowhere Plaza")

	both := h.run("", "profile", "affiliation", "--market", "a", "--mall", "b")
	assert.Equal(t, 1, both.code)
	assert.Contains(t, both.stderr, "exactly one of --market or --mall")
}

func TestCustomerCannotSetAffiliation(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.login("ada@example.test", false)

	res := h.run("", "profile", "affiliation", "--market", "Balogun Market", "--format", "json")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "MARKET_INVALID_ARGUMENT", envelopeErrorCode(t, res.stdout))
	assert.Empty(t, h.api.Updates())
}

func TestMarketsPagination(t *testing.T) {
	h := newHarness(t)

	first := h.run("", "markets", "--limit", "2", "--format", "json")
	require.Equal(t, 0, first.code, first.stdout+first.stderr)
	data := envelopeData(t, first.stdout)
	assert.Len(t, data["items"], 2)
	assert.EqualValues(t, 3, data["total"])
	assert.EqualValues(t, 2, data["next_offset"])
	assert.EqualValues(t, 2, data["total_pages"])

	second := h.run("", "markets", "--limit", "2", "--page", "2", "--format", "json")
	require.Equal(t, 0, second.code)
	data = envelopeData(t, second.stdout)
	assert.Len(t, data["items"], 1)
	assert.NotContains(t, data, "next_offset")

	conflict := h.run("", "markets", "--limit", "2", "--page", "2", "--offset", "1")
	assert.Equal(t, 1, conflict.code)
	assert.Contains(t, conflict.stderr, "use either --offset or --page")

	malls := h.run("", "malls")
	require.Equal(t, 0, malls.code)
	assert.Contains(t, malls.stdout, "Ikeja City Mall")
	assert.Contains(t, malls.stdout, "Jabi Lake Mall")
}

func TestOutputFlagWritesFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "markets.yaml")

	res := h.run("", "markets", "--format", "yaml", "--output", path)
	require.Equal(t, 0, res.code, res.stderr)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Balogun Market")
	assert.Contains(t, res.stdout, "Balogun Market")
}

func TestExpiredAccessTokenIsRefreshedAndSaved(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.api.SetAccessTTL(-time.Minute)
	h.login("ada@example.test", false)
	h.api.SetAccessTTL(time.Hour)
	before := h.savedProfile()

	res := h.run("", "auth", "status", "--format", "json")
	require.Equal(t, 0, res.code, res.stdout+res.stderr)
	assert.Contains(t, decodeEnvelope(t, res.stdout)["warnings"], "access token refreshed automatically")
	assert.Equal(t, 1, h.api.Calls(fakeapi.OpRefresh))

	after := h.savedProfile()
	assert.NotEqual(t, before.AccessToken, after.AccessToken)
	assert.NotEqual(t, before.RefreshToken, after.RefreshToken)

	again := h.run("", "auth", "status", "--format", "json")
	require.Equal(t, 0, again.code)
	assert.Equal(t, 1, h.api.Calls(fakeapi.OpRefresh))
}

func TestExpiredTokenWithFailedRefreshStillCallsOnce(t *testing.T) {
	h := newHarness(t)
	h.seedCustomer("ada@example.test")
	h.api.SetAccessTTL(-time.Minute)
	h.login("ada@example.test", false)
	h.api.FailNext(fakeapi.OpRefresh, http.StatusUnauthorized, "refresh revoked")
	profileCalls := h.api.Calls(fakeapi.OpProfile)

	res := h.run("", "profile", "show", "--format", "json")
	require.Equal(t, 0, res.code, res.stdout)
	assert.Contains(t, decodeEnvelope(t, res.stdout)["warnings"], "automatic token refresh failed before request")
	assert.Equal(t, profileCalls+1, h.api.Calls(fakeapi.OpProfile))
}

func TestConfigureCreatesAndUpdatesProfiles(t *testing.T) {
	h := newHarness(t)
	tokens := h.api.IssueTokens("merchant-9")

	created := h.run("", "configure", "--profile-name", "shop", "--api-url", h.api.URL(), "--token", tokens.AccessToken, "--user-type", "merchant")
	require.Equal(t, 0, created.code, created.stdout+created.stderr)
	assert.Contains(t, created.stdout, "Config was created successfully")

	saved := h.savedProfile()
	assert.Equal(t, "shop", saved.Name)
	assert.Equal(t, "merchant-9", saved.UserID)
	assert.Equal(t, domain.UserTypeMerchant, saved.UserType)
	assert.True(t, saved.IsDefault)

	updated := h.run("", "configure", "--profile-name", "shop", "--email", "shop@example.test", "--refresh-token", tokens.RefreshToken)
	require.Equal(t, 0, updated.code, updated.stdout+updated.stderr)
	assert.Contains(t, updated.stdout, "Config profile updated successfully")
	saved = h.savedProfile()
	assert.Equal(t, "shop@example.test", saved.Email)
	assert.Equal(t, tokens.RefreshToken, saved.RefreshToken)
	assert.Equal(t, tokens.AccessToken, saved.AccessToken)

	nothing := h.run("", "configure", "--profile-name", "shop")
	assert.Equal(t, 1, nothing.code)
	assert.Contains(t, nothing.stderr, "to update the profile")
}

func TestUnknownCommandAndVersion(t *testing.T) {
	h := newHarness(t)

	unknown := h.run("", "checkout")
	assert.Equal(t, 2, unknown.code)
	assert.Contains(t, unknown.stderr, "No such command 'checkout'")

	version := h.run("", "--version")
	assert.Equal(t, 0, version.code)
	assert.Contains(t, version.stdout, "test")
}
