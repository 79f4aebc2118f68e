package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every KEYSHELF_ env var that Load() reads.
var allConfigKeys = []string{
	"KEYSHELF_LISTEN_ADDR",
	"KEYSHELF_DB_PATH",
	"KEYSHELF_AUTH_URL",
	"KEYSHELF_AUTH_TIMEOUT",
	"KEYSHELF_AUTH_LOGIN_URL",
	"KEYSHELF_STATIC_DIR",
	"KEYSHELF_CORS_ORIGINS",
	"KEYSHELF_ENV_FILE",
}

// isolateConfigEnv saves and unsets all KEYSHELF_ env vars so tests don't
// inherit values from the host environment.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("KEYSHELF_AUTH_URL", "https://auth.example.com/api/auth/verify")
	t.Setenv("KEYSHELF_AUTH_TIMEOUT", "3s")
	t.Setenv("KEYSHELF_AUTH_LOGIN_URL", "https://login.example.com/")
	t.Setenv("KEYSHELF_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("KEYSHELF_DB_PATH", "/tmp/keys.db")
	t.Setenv("KEYSHELF_STATIC_DIR", "/srv/dist")
	t.Setenv("KEYSHELF_CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/api/auth/verify", cfg.AuthURL)
	assert.Equal(t, 3*time.Second, cfg.AuthTimeout)
	assert.Equal(t, "https://login.example.com/", cfg.AuthLoginURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/keys.db", cfg.DBPath)
	assert.Equal(t, "/srv/dist", cfg.StaticDir)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("KEYSHELF_AUTH_URL", "http://localhost:4000/api/auth/verify")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3001", cfg.ListenAddr)
	assert.Equal(t, "keyshelf.db", cfg.DBPath)
	assert.Equal(t, 10*time.Second, cfg.AuthTimeout)
	assert.Equal(t, "http://localhost:4000/login", cfg.AuthLoginURL)
	assert.Empty(t, cfg.StaticDir)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_MissingAuthURL(t *testing.T) {
	isolateConfigEnv(t)

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEYSHELF_AUTH_URL")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantVar string
	}{
		{
			name:    "relative auth url",
			env:     map[string]string{"KEYSHELF_AUTH_URL": "/api/auth/verify"},
			wantVar: "KEYSHELF_AUTH_URL",
		},
		{
			name: "unparseable timeout",
			env: map[string]string{
				"KEYSHELF_AUTH_URL":     "http://auth.local/verify",
				"KEYSHELF_AUTH_TIMEOUT": "soon",
			},
			wantVar: "KEYSHELF_AUTH_TIMEOUT",
		},
		{
			name: "zero timeout",
			env: map[string]string{
				"KEYSHELF_AUTH_URL":     "http://auth.local/verify",
				"KEYSHELF_AUTH_TIMEOUT": "0s",
			},
			wantVar: "KEYSHELF_AUTH_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantVar)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	isolateConfigEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEYSHELF_AUTH_URL=http://from-file/verify\nKEYSHELF_DB_PATH=file.db\n"), 0o600))
	t.Setenv("KEYSHELF_DB_PATH", "env.db")

	require.NoError(t, LoadEnvFile(path))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://from-file/verify", cfg.AuthURL)
	assert.Equal(t, "env.db", cfg.DBPath, "process env wins over the file")
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	assert.NoError(t, LoadEnvFile(""))
}

func TestEnvFilePath(t *testing.T) {
	isolateConfigEnv(t)
	assert.Equal(t, ".env", EnvFilePath())

	t.Setenv("KEYSHELF_ENV_FILE", "/etc/keyshelf.env")
	assert.Equal(t, "/etc/keyshelf.env", EnvFilePath())
}
