package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadKeyFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"api_key": " k_file "}`), 0o600))

	key, err := ReadKeyFile(p)
	require.NoError(t, err)
	require.Equal(t, "k_file", key)
}

func TestReadKeyFile_MissingKey(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.json")
	require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o600))

	_, err := ReadKeyFile(p)
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestEnvProvider(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvLegacyAPIKey, "k_legacy")

	key, err := (&envProvider{}).APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k_legacy", key)

	t.Setenv(EnvAPIKey, "k_env")
	key, err = (&envProvider{}).APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k_env", key)
}

func TestEnvProvider_Missing(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvLegacyAPIKey, "")

	_, err := (&envProvider{}).APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestNewProvider_Auto(t *testing.T) {
	// 隔离真实 HOME，避免读取到开发机上的凭据文件。
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIKey, "k_env")

	p, err := NewProvider("auto", "")
	require.NoError(t, err)
	key, err := p.APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k_env", key)
}

func TestNewProvider_Unsupported(t *testing.T) {
	_, err := NewProvider("codex", "")
	require.Error(t, err)
}

func TestStatic(t *testing.T) {
	_, err := Static("").APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissingCredential)

	key, err := Static("k").APIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k", key)
}
