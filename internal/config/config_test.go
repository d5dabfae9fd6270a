package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load(viper.New(), "")
	require.NoError(t, err)

	assert.Empty(t, cfg.ProjectID)
	assert.Equal(t, "test", cfg.Collection)
	assert.Equal(t, "init", cfg.Document)
	assert.Equal(t, "Database initialized", cfg.Target().Message)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, "test/init", cfg.Target().Path())

	sa, err := cfg.Credential()
	require.NoError(t, err)
	assert.Equal(t, credential.Placeholder(), sa)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project_id: from-file
collection: smoke
timeout: 5s
server:
  addr: ":8081"
  allowed_origins:
    - https://habits.example.com
`), 0o600))

	t.Setenv("HABIT_DOCUMENT", "ping")
	t.Setenv("HABIT_LOG_LEVEL", "debug")
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:8080")

	cfg, err := load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, "smoke/ping", cfg.Target().Path())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "localhost:8080", cfg.EmulatorHost)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, []string{"https://habits.example.com"}, cfg.Server.AllowedOrigins)
}

func TestPortOverridesServerAddr(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")

	cfg, err := load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestMessageIsNotConfigurable(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HABIT_MESSAGE", "something else")

	cfg, err := load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "Database initialized", cfg.Target().Message)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadTarget(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HABIT_COLLECTION", "a/b")

	_, err := load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not contain")
}

func TestCredentialSources(t *testing.T) {
	sa := credential.Placeholder()
	sa.ClientID = "from-json"

	cfg := &Config{CredentialsJSON: string(sa.JSON())}
	got, err := cfg.Credential()
	require.NoError(t, err)
	assert.Equal(t, "from-json", got.ClientID)

	path := filepath.Join(t.TempDir(), "key.json")
	sa.ClientID = "from-file"
	require.NoError(t, os.WriteFile(path, sa.JSON(), 0o600))
	cfg = &Config{CredentialsFile: path}
	got, err = cfg.Credential()
	require.NoError(t, err)
	assert.Equal(t, "from-file", got.ClientID)

	cfg = &Config{CredentialsJSON: "{"}
	_, err = cfg.Credential()
	assert.ErrorIs(t, err, credential.ErrInvalid)
}
