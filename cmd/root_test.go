package cmd

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
	"github.com/newbeeR2020/habit-tracker-setup/internal/setup"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--no-color"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandStructure(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "habit-setup", root.Use)

	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"init", "ping", "serve"} {
		assert.True(t, names[want], "missing command: %s", want)
	}

	for _, flag := range []string{"config", "project", "credentials", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing flag: %s", flag)
	}
	assert.Nil(t, root.PersistentFlags().Lookup("strict"))
	assert.NotNil(t, root.Flags().Lookup("strict"))

	initCmd, _, err := root.Find([]string{"init"})
	require.NoError(t, err)
	assert.NotNil(t, initCmd.Flags().Lookup("strict"))

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("addr"))
}

func TestInitWithPlaceholderCredentialTerminatesNormally(t *testing.T) {
	for _, args := range [][]string{{}, {"init"}} {
		out, err := executeRoot(t, args...)

		require.NoError(t, err)
		assert.Contains(t, out, "Setting up Firestore database...")
		assert.Contains(t, out, "Error setting up database")
		assert.Contains(t, out, "private_key")
		assert.NotContains(t, out, "completed successfully")
	}
}

func TestInitStrictReturnsError(t *testing.T) {
	_, err := executeRoot(t, "init", "--strict")

	require.Error(t, err)
	assert.ErrorIs(t, err, setup.ErrCredential)
	assert.Contains(t, err.Error(), "credential-error")
}

func TestInitUnreadableCredentialsFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")

	out, err := executeRoot(t, "init", "--credentials", missing)
	require.NoError(t, err)
	assert.Contains(t, out, "Error setting up database")

	_, err = executeRoot(t, "init", "--strict", "--credentials", missing)
	assert.ErrorIs(t, err, credential.ErrInvalid)
}

func TestPingRejectsPlaceholderCredential(t *testing.T) {
	out, err := executeRoot(t, "ping")

	require.Error(t, err)
	assert.ErrorIs(t, err, credential.ErrInvalid)
	assert.Contains(t, out, "Firebase ping failed")
}

func TestServeRejectsPlaceholderCredential(t *testing.T) {
	_, err := executeRoot(t, "serve", "--addr", "127.0.0.1:0")
	assert.ErrorIs(t, err, credential.ErrInvalid)
}

func TestBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: -1s\n"), 0o600))

	_, err := executeRoot(t, "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must be positive")
}

func TestStrictOnlyAppliesToInit(t *testing.T) {
	for _, sub := range []string{"ping", "serve"} {
		_, err := executeRoot(t, sub, "--strict")
		require.Error(t, err, sub)
		assert.Contains(t, err.Error(), "unknown flag: --strict")
	}
}

func writeKeyFile(t *testing.T, projectID string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	sa := credential.Placeholder()
	sa.ProjectID = projectID
	sa.PrivateKey = string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, sa.JSON(), 0o600))
	return path
}

func TestInitHintNamesProjectWrittenTo(t *testing.T) {
	// nothing listens on port 1, so the write fails as a connectivity error
	t.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:1")
	t.Setenv("HABIT_TIMEOUT", "2s")
	keyFile := writeKeyFile(t, "my-proj")

	tests := []struct {
		name        string
		args        []string
		wantProject string
	}{
		{
			name:        "from credential",
			args:        []string{"init", "--credentials", keyFile},
			wantProject: "my-proj",
		},
		{
			name:        "from flag",
			args:        []string{"init", "--credentials", keyFile, "--project", "other-proj"},
			wantProject: "other-proj",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeRoot(t, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, "Error setting up database")
			assert.Contains(t, out, "2. Select project: "+tt.wantProject+"\n")
		})
	}
}
