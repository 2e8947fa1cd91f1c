package config

import (
	"errors"
	"io/fs"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAPIURL          = "MARKET_API_URL"
	envHTTPMinInterval = "MARKET_HTTP_MIN_INTERVAL_MS"
	envConfigPath      = "MARKET_CONFIG_PATH"

	// DefaultAPIURL is the production marketplace API.
	DefaultAPIURL = "https://api.9jamarkets.com/api/v1"
	// DefaultHTTPMinInterval paces outgoing requests.
	DefaultHTTPMinInterval = 150 * time.Millisecond
)

// Settings are process-level options read from the environment.
type Settings struct {
	APIURL          string
	HTTPMinInterval time.Duration
	ConfigPath      string
}

// LoadSettings reads settings from the environment after applying the
// optional dotenv files. Variables already set in the environment win.
func LoadSettings(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, err
		}
	}
	configPath, err := resolveConfigPath(os.Getenv(envConfigPath))
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		APIURL:          resolveAPIURL(os.Getenv(envAPIURL)),
		HTTPMinInterval: resolveMinInterval(os.Getenv(envHTTPMinInterval)),
		ConfigPath:      configPath,
	}, nil
}

func resolveConfigPath(raw string) (string, error) {
	if raw = strings.TrimSpace(raw); raw != "" {
		return raw, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".market", "config.json"), nil
}

func resolveAPIURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return DefaultAPIURL
	}
	return raw
}

func resolveMinInterval(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHTTPMinInterval
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return DefaultHTTPMinInterval
	}
	return time.Duration(ms) * time.Millisecond
}
