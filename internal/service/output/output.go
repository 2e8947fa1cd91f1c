package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format selects how a command renders its result.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var formats = map[string]Format{
	"":      FormatTable,
	"table": FormatTable,
	"json":  FormatJSON,
	"yaml":  FormatYAML,
	"yml":   FormatYAML,
}

// ParseFormat maps a --format value to a Format.
func ParseFormat(v string) (Format, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(v))]
	if !ok {
		return "", fmt.Errorf("unsupported format %q (use table, json, or yaml)", v)
	}
	return format, nil
}

// Machine reports whether the format is a structured envelope.
func (f Format) Machine() bool {
	return f == FormatJSON || f == FormatYAML
}

// Meta identifies the invocation that produced an envelope.
type Meta struct {
	RequestID   string `json:"request_id" yaml:"request_id"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Profile     string `json:"profile" yaml:"profile"`
	UserType    string `json:"user_type" yaml:"user_type"`
}

// ErrorInfo is the machine-readable failure of a command.
type ErrorInfo struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Envelope is the json/yaml payload written by every command.
type Envelope struct {
	Meta     Meta       `json:"meta" yaml:"meta"`
	Data     any        `json:"data" yaml:"data"`
	Warnings []string   `json:"warnings" yaml:"warnings"`
	Error    *ErrorInfo `json:"error,omitempty" yaml:"error,omitempty"`
}

// BuildEnvelope wraps data for the given local profile.
func BuildEnvelope(profile, userType string, data any, warnings []string) Envelope {
	if warnings == nil {
		warnings = []string{}
	}
	return Envelope{
		Meta: Meta{
			RequestID:   "req_" + uuid.NewString(),
			GeneratedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
			Profile:     profile,
			UserType:    userType,
		},
		Data:     data,
		Warnings: warnings,
	}
}

// WithError returns a copy of env carrying a failure and no data.
func (env Envelope) WithError(code, message string) Envelope {
	env.Data = nil
	env.Error = &ErrorInfo{Code: code, Message: message}
	return env
}

// RenderPayload encodes env as json or yaml.
func RenderPayload(env Envelope, format Format) (string, error) {
	var (
		raw []byte
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = json.MarshalIndent(env, "", "  ")
	case FormatYAML:
		raw, err = yaml.Marshal(env)
	default:
		return "", fmt.Errorf("format %q has no envelope encoding", format)
	}
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", format, err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}

// WriteOutput prints text to w and, when outputPath is set, also saves it there.
func WriteOutput(w io.Writer, text string, outputPath string) error {
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(outputPath, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// RenderTable lays rows out in aligned columns under an optional title.
func RenderTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n ")
}
