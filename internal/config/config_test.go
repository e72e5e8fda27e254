package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerate(t *testing.T) {
	require := require.New(t)
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadOrGenerate(cfgFile)
	require.NoError(err)
	require.NotEmpty(cfg.Signing.Secret)
	require.Equal(20, cfg.RateLimit.Public.Requests)
	require.Equal(time.Minute, cfg.RateLimit.Public.Window())
	require.Equal(5, cfg.RateLimit.Auth.Requests)
	require.Equal(15*time.Minute, cfg.RateLimit.Auth.Window())

	// A second load returns the same generated secret.
	again, err := LoadOrGenerate(cfgFile)
	require.NoError(err)
	require.Equal(cfg.Signing.Secret, again.Signing.Secret)
}

func TestValidate(t *testing.T) {
	require := require.New(t)

	cfg := NewDefault()
	cfg.Signing.Secret = "s"
	require.NoError(Validate(cfg))

	cfg.Signing.Secret = ""
	require.Error(Validate(cfg))

	cfg = NewDefault()
	cfg.Signing.Secret = "s"
	cfg.RateLimit.Public.Requests = 0
	require.Error(Validate(cfg))

	cfg = NewDefault()
	cfg.Signing.Secret = "s"
	cfg.Database = nil
	require.Error(Validate(cfg))
}
