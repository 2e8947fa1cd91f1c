package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/platform/logging"
)

const (
	tracerName          = "github.com/ninejamarkets/market-cli/internal/gateway/market"
	defaultClientHeader = "market-cli"
	requestIDHeader     = "X-Request-ID"
)

// HTTPClient is implemented by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoints stores upstream endpoint urls.
type Endpoints struct {
	Signup                   string
	CustomerLogin            string
	MerchantLogin            string
	RefreshToken             string
	CustomerProfile          string
	MerchantProfile          string
	CustomerUpdate           string
	MerchantUpdate           string
	CustomerSendVerification string
	MerchantSendVerification string
	CustomerVerifyEmail      string
	MerchantVerifyEmail      string
	Markets                  string
	Malls                    string
}

// DefaultEndpoints derives all endpoint urls from the API base url.
func DefaultEndpoints(baseURL string) Endpoints {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return Endpoints{
		Signup:                   base + "/auth/customer/signup",
		CustomerLogin:            base + "/auth/customer/login",
		MerchantLogin:            base + "/auth/merchant/login",
		RefreshToken:             base + "/auth/refresh-token",
		CustomerProfile:          base + "/customers/",
		MerchantProfile:          base + "/merchants/",
		CustomerUpdate:           base + "/customers/profile",
		MerchantUpdate:           base + "/merchants/profile",
		CustomerSendVerification: base + "/auth/customer/send-verification-email",
		MerchantSendVerification: base + "/auth/merchant/send-verification-email",
		CustomerVerifyEmail:      base + "/auth/customer/verify-email",
		MerchantVerifyEmail:      base + "/auth/merchant/verify-email",
		Markets:                  base + "/markets",
		Malls:                    base + "/malls",
	}
}

// Client queries the marketplace REST API.
type Client struct {
	httpClient HTTPClient
	endpoints  Endpoints
	clientName string
	limiter    *rate.Limiter
	tracer     trace.Tracer
	logger     *zap.Logger
	loggerM    sync.RWMutex
}

// Option applies Client options.
type Option func(*Client)

// WithHTTPClient replaces default HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints replaces default endpoint set.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithBaseURL derives the endpoint set from another API base url.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.endpoints = DefaultEndpoints(baseURL)
	}
}

// WithClientName sets the X-Client header value.
func WithClientName(name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.clientName = strings.TrimSpace(name)
		}
	}
}

// WithRequestMinInterval limits request burst by enforcing minimum delay between upstream calls.
func WithRequestMinInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithTracerProvider replaces the global OpenTelemetry tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithLogger sets the logger used for request traces.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.setLogger(logger)
	}
}

// WithVerboseOutput enables per-request trace output for upstream HTTP calls.
func WithVerboseOutput(out io.Writer) Option {
	return func(c *Client) {
		c.SetVerboseOutput(out)
	}
}

// NewClient creates a marketplace gateway client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		endpoints:  DefaultEndpoints(baseURL),
		clientName: defaultClientHeader,
		tracer:     otel.Tracer(tracerName),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVerboseOutput sets destination for verbose HTTP request trace lines.
func (c *Client) SetVerboseOutput(out io.Writer) {
	c.setLogger(logging.New(out, zap.DebugLevel))
}

func (c *Client) setLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.loggerM.Lock()
	c.logger = logger
	c.loggerM.Unlock()
}

func (c *Client) headers(extra map[string]string, auth *AuthContext) map[string]string {
	headers := map[string]string{
		"Accept":        "application/json",
		"X-Client":      c.clientName,
		requestIDHeader: uuid.NewString(),
	}
	if auth != nil {
		if token := strings.TrimSpace(auth.AccessToken); token != "" {
			headers["Authorization"] = "Bearer " + token
		}
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// doJSONRequest sends body as JSON and returns the raw successful response payload.
func (c *Client) doJSONRequest(ctx context.Context, method, rawURL string, params url.Values, body any, headers map[string]string) ([]byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	res, err := c.doRequest(ctx, method, rawURL, bodyReader, headers)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	return readResponseBody(res, method, rawURL)
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	rawURL string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "market "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", rawURL),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if err := c.waitForRequestSlot(ctx); err != nil {
		return nil, err
	}

	bodyBytes := 0
	if sized, ok := body.(interface{ Len() int }); ok {
		bodyBytes = sized.Len()
	}
	startedAt := time.Now()
	c.traceRequestStart(method, rawURL, bodyBytes)

	res, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErr := &UpstreamRequestError{
			Method: method,
			URL:    rawURL,
			Cause:  err,
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		c.traceRequestDone(method, rawURL, 0, startedAt, upstreamErr)
		return nil, upstreamErr
	}
	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	if res.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(res.StatusCode))
	}
	c.traceRequestDone(method, rawURL, res.StatusCode, startedAt, nil)
	return res, nil
}

func (c *Client) traceRequestStart(method, rawURL string, bodyBytes int) {
	if bodyBytes > 0 {
		c.tracef("[http] -> %s %s body_bytes=%d", method, rawURL, bodyBytes)
		return
	}
	c.tracef("[http] -> %s %s", method, rawURL)
}

func (c *Client) traceRequestDone(method, rawURL string, statusCode int, startedAt time.Time, reqErr error) {
	duration := time.Since(startedAt).Round(time.Millisecond)
	if reqErr != nil {
		c.tracef("[http] <- %s %s error=%v duration=%s", method, rawURL, reqErr, duration)
		return
	}
	c.tracef("[http] <- %s %s status=%d duration=%s", method, rawURL, statusCode, duration)
}

func (c *Client) waitForRequestSlot(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) tracef(format string, args ...any) {
	c.loggerM.RLock()
	logger := c.logger
	c.loggerM.RUnlock()
	logger.Debug(fmt.Sprintf(format, args...))
}

func readResponseBody(res *http.Response, method string, rawURL string) ([]byte, error) {
	rawResponse, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Cause:      fmt.Errorf("read response body: %w", err),
		}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &UpstreamRequestError{
			Method:     method,
			URL:        rawURL,
			StatusCode: res.StatusCode,
			Body:       string(rawResponse),
		}
	}
	return rawResponse, nil
}

// decodeEnvelope decodes a response body, unwrapping a {"data": ...} envelope when present.
func decodeEnvelope[T any](method string, rawURL string, rawResponse []byte) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(rawResponse)
	if len(trimmed) == 0 {
		return out, &UpstreamRequestError{
			Method: method,
			URL:    rawURL,
			Cause:  fmt.Errorf("empty response body"),
		}
	}
	payload := json.RawMessage(trimmed)
	if trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if data, ok := envelope["data"]; ok && len(bytes.TrimSpace(data)) > 0 && string(bytes.TrimSpace(data)) != "null" {
				payload = data
			}
		}
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, &UpstreamRequestError{
			Method: method,
			URL:    rawURL,
			Body:   string(rawResponse),
			Cause:  fmt.Errorf("decode response body: %w", err),
		}
	}
	return out, nil
}

func decodeResponsePayload(method string, rawURL string, rawResponse []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(rawResponse)) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(rawResponse, &payload); err != nil {
		return nil, &UpstreamRequestError{
			Method: method,
			URL:    rawURL,
			Body:   string(rawResponse),
			Cause:  fmt.Errorf("decode response body: %w", err),
		}
	}
	return payload, nil
}

func payloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			switch value := rawValue.(type) {
			case string:
				if token := strings.TrimSpace(value); token != "" {
					return token
				}
			case float64, map[string]any:
				if id := domain.NormalizeID(value); id != "" {
					return id
				}
			}
		}
	}
	return ""
}

func payloadInt(payload map[string]any, keys ...string) int {
	for _, key := range keys {
		for actualKey, rawValue := range payload {
			if !strings.EqualFold(strings.TrimSpace(actualKey), strings.TrimSpace(key)) {
				continue
			}
			switch value := rawValue.(type) {
			case float64:
				return int(value)
			case int:
				return value
			case json.Number:
				if parsed, err := value.Int64(); err == nil {
					return int(parsed)
				}
			}
		}
	}
	return 0
}

// payloadLookup searches keys at the top level, then inside "data" and "user".
func payloadLookup(payload map[string]any, keys ...string) string {
	if value := payloadString(payload, keys...); value != "" {
		return value
	}
	for _, nestedKey := range []string{"data", "user"} {
		nested, ok := payload[nestedKey].(map[string]any)
		if !ok {
			continue
		}
		if value := payloadLookup(nested, keys...); value != "" {
			return value
		}
	}
	return ""
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, form domain.SignupForm) (domain.Account, error) {
	phones := []string{strings.TrimSpace(form.Phone1)}
	if phone2 := strings.TrimSpace(form.Phone2); phone2 != "" {
		phones = append(phones, phone2)
	}
	body := map[string]any{
		"firstName":    strings.TrimSpace(form.FirstName),
		"lastName":     strings.TrimSpace(form.LastName),
		"email":        strings.TrimSpace(form.Email),
		"phoneNumbers": phones,
		"password":     form.Password,
	}
	endpoint := c.endpoints.Signup
	rawResponse, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, nil, body, c.headers(jsonHeaders(), nil))
	if err != nil {
		return domain.Account{}, err
	}
	payload, err := decodeResponsePayload(http.MethodPost, endpoint, rawResponse)
	if err != nil {
		return domain.Account{}, err
	}
	account := domain.Account{
		ID:      payloadLookup(payload, "id", "_id", "userId"),
		Email:   payloadLookup(payload, "email"),
		Message: payloadString(payload, "message"),
	}
	if account.Email == "" {
		account.Email = strings.TrimSpace(form.Email)
	}
	return account, nil
}

// Login exchanges credentials for an access/refresh token pair.
func (c *Client) Login(ctx context.Context, userType domain.UserType, credentials domain.Credentials) (domain.LoginResult, error) {
	endpoint := c.endpoints.CustomerLogin
	if userType == domain.UserTypeMerchant {
		endpoint = c.endpoints.MerchantLogin
	}
	body := domain.Credentials{Email: strings.TrimSpace(credentials.Email), Password: credentials.Password}
	rawResponse, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, nil, body, c.headers(jsonHeaders(), nil))
	if err != nil {
		return domain.LoginResult{}, err
	}
	payload, err := decodeResponsePayload(http.MethodPost, endpoint, rawResponse)
	if err != nil {
		return domain.LoginResult{}, err
	}
	result := domain.LoginResult{
		AccessToken:  payloadLookup(payload, "accessToken", "access_token", "token"),
		RefreshToken: payloadLookup(payload, "refreshToken", "refresh_token"),
		UserID:       payloadLookup(payload, "id", "_id", "userId"),
	}
	if result.AccessToken == "" {
		return domain.LoginResult{}, fmt.Errorf("%w: login response missing access token", ErrUpstream)
	}
	if result.UserID == "" {
		return domain.LoginResult{}, fmt.Errorf("%w: login response missing user id", ErrUpstream)
	}
	return result, nil
}

// FetchProfile loads the full profile of userID.
func (c *Client) FetchProfile(ctx context.Context, userType domain.UserType, userID string, auth AuthContext) (domain.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, fmt.Errorf("user id is required")
	}
	endpoint := c.endpoints.CustomerProfile
	if userType == domain.UserTypeMerchant {
		endpoint = c.endpoints.MerchantProfile
	}
	endpoint = strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(userID)
	rawResponse, err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil, nil, c.headers(nil, &auth))
	if err != nil {
		return domain.UserProfile{}, err
	}
	profile, err := decodeEnvelope[domain.UserProfile](http.MethodGet, endpoint, rawResponse)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if profile.UserType == "" || userType == domain.UserTypeMerchant {
		profile.UserType = userType
	}
	return profile, nil
}

// UpdateProfile sends a partial profile update and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, userType domain.UserType, patch map[string]any, auth AuthContext) (domain.UserProfile, error) {
	if len(patch) == 0 {
		return domain.UserProfile{}, fmt.Errorf("update payload is empty")
	}
	endpoint := c.endpoints.CustomerUpdate
	if userType == domain.UserTypeMerchant {
		endpoint = c.endpoints.MerchantUpdate
	}
	rawResponse, err := c.doJSONRequest(ctx, http.MethodPatch, endpoint, nil, patch, c.headers(jsonHeaders(), &auth))
	if err != nil {
		return domain.UserProfile{}, err
	}
	profile, err := decodeEnvelope[domain.UserProfile](http.MethodPatch, endpoint, rawResponse)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if userType == domain.UserTypeMerchant {
		profile.UserType = userType
	}
	return profile, nil
}

// SendVerificationCode asks the API to email a one-time code to email.
func (c *Client) SendVerificationCode(ctx context.Context, userType domain.UserType, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	endpoint := c.endpoints.CustomerSendVerification
	if userType == domain.UserTypeMerchant {
		endpoint = c.endpoints.MerchantSendVerification
	}
	_, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, nil, map[string]any{"email": email}, c.headers(jsonHeaders(), nil))
	return err
}

// VerifyCode checks a one-time code previously sent to email.
func (c *Client) VerifyCode(ctx context.Context, userType domain.UserType, email string, code string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return fmt.Errorf("email and code are required")
	}
	endpoint := c.endpoints.CustomerVerifyEmail
	if userType == domain.UserTypeMerchant {
		endpoint = c.endpoints.MerchantVerifyEmail
	}
	body := map[string]any{"email": email, "otp": code}
	_, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, nil, body, c.headers(jsonHeaders(), nil))
	return err
}

// RefreshAccessToken exchanges refresh token for a new access token pair.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (TokenRefreshResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenRefreshResult{}, fmt.Errorf("refresh token is required")
	}
	endpoint := c.endpoints.RefreshToken
	body := map[string]any{"refreshToken": refreshToken}
	rawResponse, err := c.doJSONRequest(ctx, http.MethodPost, endpoint, nil, body, c.headers(jsonHeaders(), nil))
	if err != nil {
		return TokenRefreshResult{}, err
	}
	payload, err := decodeResponsePayload(http.MethodPost, endpoint, rawResponse)
	if err != nil {
		return TokenRefreshResult{}, err
	}
	accessToken := payloadLookup(payload, "accessToken", "access_token")
	if accessToken == "" {
		return TokenRefreshResult{}, fmt.Errorf("%w: refresh response missing access token", ErrUpstream)
	}
	resolvedRefreshToken := payloadLookup(payload, "refreshToken", "refresh_token")
	if resolvedRefreshToken == "" {
		resolvedRefreshToken = refreshToken
	}
	expiresIn := payloadInt(payload, "expiresIn", "expires_in")
	if data, ok := payload["data"].(map[string]any); ok && expiresIn <= 0 {
		expiresIn = payloadInt(data, "expiresIn", "expires_in")
	}
	return TokenRefreshResult{
		AccessToken:  accessToken,
		RefreshToken: resolvedRefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Markets lists markets merchants can be affiliated with.
func (c *Client) Markets(ctx context.Context) ([]domain.Market, error) {
	endpoint := c.endpoints.Markets
	rawResponse, err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil, nil, c.headers(nil, nil))
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]domain.Market](http.MethodGet, endpoint, rawResponse)
}

// Malls lists malls merchants can be affiliated with.
func (c *Client) Malls(ctx context.Context) ([]domain.Mall, error) {
	endpoint := c.endpoints.Malls
	rawResponse, err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil, nil, c.headers(nil, nil))
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]domain.Mall](http.MethodGet, endpoint, rawResponse)
}
