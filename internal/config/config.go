// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr   string
	DBPath       string
	AuthURL      string
	AuthTimeout  time.Duration
	AuthLoginURL string
	StaticDir    string
	CORSOrigins  []string
}

// LoadEnvFile merges KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// EnvFilePath returns KEYSHELF_ENV_FILE, defaulting to ".env".
func EnvFilePath() string {
	if v, ok := os.LookupEnv("KEYSHELF_ENV_FILE"); ok {
		return v
	}
	return ".env"
}

// Load reads configuration from environment variables and returns a validated Config.
// KEYSHELF_AUTH_URL is required. Optional variables with defaults:
// KEYSHELF_LISTEN_ADDR (127.0.0.1:3001), KEYSHELF_DB_PATH (keyshelf.db),
// KEYSHELF_AUTH_TIMEOUT (10s), KEYSHELF_AUTH_LOGIN_URL (<auth origin>/login),
// KEYSHELF_STATIC_DIR (unset, no UI served), KEYSHELF_CORS_ORIGINS (*).
func Load() (*Config, error) {
	authURL := strings.TrimSpace(os.Getenv("KEYSHELF_AUTH_URL"))
	if authURL == "" {
		return nil, errors.New("KEYSHELF_AUTH_URL is required")
	}
	parsedAuth, err := url.Parse(authURL)
	if err != nil || parsedAuth.Scheme == "" || parsedAuth.Host == "" {
		return nil, fmt.Errorf("KEYSHELF_AUTH_URL must be an absolute URL, got %q", authURL)
	}

	authTimeout := 10 * time.Second
	if v, ok := os.LookupEnv("KEYSHELF_AUTH_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("KEYSHELF_AUTH_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("KEYSHELF_AUTH_TIMEOUT must be positive, got %s", parsed)
		}
		authTimeout = parsed
	}

	loginURL := parsedAuth.Scheme + "://" + parsedAuth.Host + "/login"
	if v, ok := os.LookupEnv("KEYSHELF_AUTH_LOGIN_URL"); ok && v != "" {
		loginURL = v
	}

	listenAddr := "127.0.0.1:3001"
	if v, ok := os.LookupEnv("KEYSHELF_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "keyshelf.db"
	if v, ok := os.LookupEnv("KEYSHELF_DB_PATH"); ok {
		dbPath = v
	}

	origins := []string{"*"}
	if v, ok := os.LookupEnv("KEYSHELF_CORS_ORIGINS"); ok {
		origins = []string{}
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	return &Config{
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
		AuthURL:      authURL,
		AuthTimeout:  authTimeout,
		AuthLoginURL: loginURL,
		StaticDir:    os.Getenv("KEYSHELF_STATIC_DIR"),
		CORSOrigins:  origins,
	}, nil
}
