package cli

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeAccessToken(t *testing.T) {
	jwt := "abc.def.ghi"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain jwt",
			input: jwt,
			want:  jwt,
		},
		{
			name:  "bearer prefix",
			input: "Bearer " + jwt,
			want:  jwt,
		},
		{
			name:  "login payload",
			input: `{"accessToken":"abc.def.ghi","refreshToken":"r-1"}`,
			want:  jwt,
		},
		{
			name:  "nested data payload",
			input: `{"message":"Login Successful","data":{"access_token":"abc.def.ghi"}}`,
			want:  jwt,
		},
		{
			name:  "key value payload",
			input: `accessToken=abc.def.ghi`,
			want:  jwt,
		},
		{
			name:  "quoted token",
			input: `"abc.def.ghi"`,
			want:  jwt,
		},
		{
			name:  "token inside text",
			input: `token copied: abc.def.ghi from devtools`,
			want:  jwt,
		},
		{
			name:  "unrecognized value kept",
			input: "opaque-token",
			want:  "opaque-token",
		},
		{
			name:  "blank",
			input: "   ",
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeAccessToken(tc.input)
			if got != tc.want {
				t.Fatalf("normalizeAccessToken(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeRefreshToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "refresh-1", want: "refresh-1"},
		{name: "quoted", input: `'refresh-1'`, want: "refresh-1"},
		{name: "login payload", input: `{"accessToken":"a.b.c","refreshToken":"refresh-1"}`, want: "refresh-1"},
		{name: "nested tokens", input: `{"data":{"tokens":{"refresh_token":"refresh-2"}}}`, want: "refresh-2"},
		{name: "blank", input: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeRefreshToken(tc.input)
			if got != tc.want {
				t.Fatalf("normalizeRefreshToken(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestExtractRefreshTokenIgnoresNonJSON(t *testing.T) {
	if got := extractRefreshToken("abc.def.ghi"); got != "" {
		t.Fatalf("expected no refresh token from a bare jwt, got %q", got)
	}
}

func TestTokenSubject(t *testing.T) {
	token := buildJWT(map[string]any{"sub": "u-42"})
	if got := tokenSubject(token); got != "u-42" {
		t.Fatalf("expected subject u-42, got %q", got)
	}
	legacy := buildJWT(map[string]any{"_id": "u-7"})
	if got := tokenSubject(legacy); got != "u-7" {
		t.Fatalf("expected _id fallback u-7, got %q", got)
	}
	if got := tokenSubject("not-a-jwt"); got != "" {
		t.Fatalf("expected empty subject for malformed token, got %q", got)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "expired", token: buildExpiringJWT(now.Add(-time.Minute).Unix()), want: true},
		{name: "inside leeway", token: buildExpiringJWT(now.Add(10 * time.Second).Unix()), want: true},
		{name: "valid", token: buildExpiringJWT(now.Add(time.Hour).Unix()), want: false},
		{name: "no exp claim", token: buildJWT(map[string]any{"sub": "u-1"}), want: false},
		{name: "opaque", token: "opaque", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tokenExpired(tc.token, now, 30*time.Second); got != tc.want {
				t.Fatalf("tokenExpired() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTokenExpiryRFC3339(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := tokenExpiryRFC3339(buildExpiringJWT(exp.Unix())); got != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected expiry: %q", got)
	}
	if got := tokenExpiryRFC3339("opaque"); got != "" {
		t.Fatalf("expected empty expiry for opaque token, got %q", got)
	}
}

func buildExpiringJWT(exp int64) string {
	return buildJWT(map[string]any{"exp": exp})
}

func buildJWT(claims map[string]any) string {
	header := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"
	payloadJSON, _ := json.Marshal(claims)
	payload := base64.RawURLEncoding.EncodeToString(payloadJSON)
	return header + "." + payload + ".sig"
}
