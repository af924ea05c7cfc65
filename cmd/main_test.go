package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Version: dev")
	assert.Contains(t, out.String(), "Commit: unknown")
}

func TestServeRequiresProvider(t *testing.T) {
	t.Setenv("WEB3_PROVIDER_URL", "")

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := root.Execute()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestEnvFileSeedsEnvironment(t *testing.T) {
	t.Setenv("WEB3_PROVIDER_URL", "")
	envFile := filepath.Join(t.TempDir(), "gateway.env")
	require.NoError(t, os.WriteFile(envFile, []byte("NETWORK_NAME=from-env-file\n"), 0o600))
	os.Unsetenv("NETWORK_NAME")
	t.Cleanup(func() { os.Unsetenv("NETWORK_NAME") })

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--env-file", envFile})

	assert.Error(t, root.Execute())
	assert.Equal(t, "from-env-file", os.Getenv("NETWORK_NAME"))
}
