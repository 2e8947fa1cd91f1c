package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const maxErrorBodyPreview = 800

// ErrUpstream indicates marketplace API failure.
var ErrUpstream = errors.New("[market] error when trying to get response from marketplace api")

// UpstreamRequestError carries HTTP context for failed upstream calls.
type UpstreamRequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

func (e *UpstreamRequestError) Error() string {
	parts := []string{ErrUpstream.Error()}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	method := strings.TrimSpace(e.Method)
	url := strings.TrimSpace(e.URL)
	if method != "" || url != "" {
		parts = append(parts, strings.TrimSpace(method+" "+url))
	}
	if trimmed := compactBodyPreview(e.Body); trimmed != "" {
		parts = append(parts, fmt.Sprintf("body=%q", trimmed))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}
	return strings.Join(parts, "; ")
}

func (e *UpstreamRequestError) Unwrap() error {
	return ErrUpstream
}

// Message returns the API-provided message, if the body carries one.
func (e *UpstreamRequestError) Message() string {
	body := strings.TrimSpace(e.Body)
	if body == "" || !strings.HasPrefix(body, "{") {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if message := payloadString(payload, "message", "error", "detail"); message != "" {
		return message
	}
	if data, ok := payload["data"].(map[string]any); ok {
		return payloadString(data, "message", "error")
	}
	return ""
}

// RemoteMessage renders err as the human-readable message shown to users.
func RemoteMessage(err error) string {
	if err == nil {
		return ""
	}
	var upstreamErr *UpstreamRequestError
	if errors.As(err, &upstreamErr) {
		if message := upstreamErr.Message(); message != "" {
			return message
		}
		if upstreamErr.StatusCode > 0 {
			return fmt.Sprintf("request failed with status %d", upstreamErr.StatusCode)
		}
		if upstreamErr.Cause != nil {
			return upstreamErr.Cause.Error()
		}
	}
	return err.Error()
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var upstreamErr *UpstreamRequestError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports 401/403 responses.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsNotFound reports 404 responses.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports 409 responses.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsValidation reports 400/422 responses.
func IsValidation(err error) bool {
	code := StatusCode(err)
	return code == http.StatusBadRequest || code == http.StatusUnprocessableEntity
}

// IsExpired reports an expired verification code.
func IsExpired(err error) bool {
	if StatusCode(err) == http.StatusGone {
		return true
	}
	var upstreamErr *UpstreamRequestError
	if errors.As(err, &upstreamErr) {
		return strings.Contains(strings.ToLower(upstreamErr.Message()), "expired")
	}
	return false
}

func compactBodyPreview(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	body = strings.ReplaceAll(body, "\n", " ")
	body = strings.ReplaceAll(body, "\r", " ")
	body = strings.Join(strings.Fields(body), " ")
	if len(body) > maxErrorBodyPreview {
		return body[:maxErrorBodyPreview] + "..."
	}
	return body
}
