package cli

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

const tokenExtractMaxDepth = 4

var (
	jwtExactPattern = regexp.MustCompile(`(?i)^[a-z0-9_-]+\.[a-z0-9_-]+\.[a-z0-9_-]*$`)
	jwtFindPattern  = regexp.MustCompile(`(?i)[a-z0-9_-]+\.[a-z0-9_-]+\.[a-z0-9_-]+`)
)

// normalizeAccessToken accepts a bare JWT, a "Bearer" header value, a
// key=value pair, or a JSON login payload and returns the access token.
func normalizeAccessToken(raw string) string {
	raw = trimTokenWrapper(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if token := extractAccessToken(raw, 0); token != "" {
		return token
	}
	return raw
}

func normalizeRefreshToken(raw string) string {
	raw = trimTokenWrapper(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if token := extractRefreshToken(raw); token != "" {
		return token
	}
	return raw
}

// extractRefreshToken finds a refresh token inside a JSON login payload.
func extractRefreshToken(raw string) string {
	var payload any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return ""
	}
	return findTokenField(payload, refreshTokenFields, 0)
}

func extractAccessToken(raw string, depth int) string {
	if depth > tokenExtractMaxDepth {
		return ""
	}
	raw = trimTokenWrapper(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if jwtExactPattern.MatchString(raw) {
		return raw
	}
	if value, ok := stripBearerPrefix(raw); ok {
		return extractAccessToken(value, depth+1)
	}
	if key, value, ok := splitPair(raw, "="); ok && isAccessTokenField(key) {
		return extractAccessToken(value, depth+1)
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		if token := findTokenField(payload, accessTokenFields, 0); token != "" {
			return extractAccessToken(token, depth+1)
		}
		return ""
	}
	return jwtFindPattern.FindString(raw)
}

var (
	accessTokenFields  = []string{"accessToken", "access_token", "token"}
	refreshTokenFields = []string{"refreshToken", "refresh_token"}
)

func findTokenField(payload any, fields []string, depth int) string {
	if depth > tokenExtractMaxDepth {
		return ""
	}
	object, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, field := range fields {
		for key, value := range object {
			if !strings.EqualFold(key, field) {
				continue
			}
			if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
	}
	for _, nested := range []string{"data", "tokens", "user"} {
		if token := findTokenField(object[nested], fields, depth+1); token != "" {
			return token
		}
	}
	return ""
}

func isAccessTokenField(key string) bool {
	for _, field := range accessTokenFields {
		if strings.EqualFold(strings.TrimSpace(key), field) {
			return true
		}
	}
	return false
}

func trimTokenWrapper(raw string) string {
	for {
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) < 2 {
			return trimmed
		}
		start := trimmed[0]
		end := trimmed[len(trimmed)-1]
		if (start == '"' && end == '"') || (start == '\'' && end == '\'') || (start == '`' && end == '`') {
			raw = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			continue
		}
		return trimmed
	}
}

func stripBearerPrefix(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(lower, "bearer ") {
		return "", false
	}
	return strings.TrimSpace(raw[len("bearer "):]), true
}

func splitPair(raw string, sep string) (string, string, bool) {
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" || value == "" {
		return "", "", false
	}
	return strings.Trim(key, `"'`), value, true
}

func tokenClaims(token string) map[string]any {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) < 2 {
		return nil
	}
	claimsRaw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil
	}
	var claims map[string]any
	if err := json.Unmarshal(claimsRaw, &claims); err != nil {
		return nil
	}
	return claims
}

// tokenSubject returns the user id carried by the token, if any.
func tokenSubject(token string) string {
	claims := tokenClaims(token)
	for _, key := range []string{"sub", "id", "_id", "userId"} {
		if value := strings.TrimSpace(asString(claims[key])); value != "" {
			return value
		}
	}
	return ""
}

func tokenExpiry(token string) (time.Time, bool) {
	exp := asInt(tokenClaims(token)["exp"])
	if exp <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0).UTC(), true
}

func tokenExpired(token string, now time.Time, leeway time.Duration) bool {
	expiry, ok := tokenExpiry(token)
	if !ok {
		return false
	}
	return !now.Before(expiry.Add(-leeway))
}
