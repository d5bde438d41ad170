package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{EnvDatabaseURI, EnvDatabaseName, EnvCollection, EnvSelectionTimeout, EnvEventsURL, EnvEventsExchange, EnvLogLevel} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.DatabaseURI)
	assert.Equal(t, "library", cfg.DatabaseName)
	assert.Equal(t, "books", cfg.Collection)
	assert.Equal(t, 5*time.Second, cfg.SelectionTimeout)
	assert.Empty(t, cfg.EventsURL)
	assert.Equal(t, "catalog.events", cfg.EventsExchange)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(EnvDatabaseURI, "mongodb://localhost:27017/shelf")
	t.Setenv(EnvCollection, "novels")
	t.Setenv(EnvSelectionTimeout, "250ms")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017/shelf", cfg.DatabaseURI)
	assert.Equal(t, "novels", cfg.Collection)
	assert.Equal(t, 250*time.Millisecond, cfg.SelectionTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv(EnvSelectionTimeout, "soon")
	_, err := Load()
	assert.ErrorContains(t, err, EnvSelectionTimeout)

	t.Setenv(EnvSelectionTimeout, "-1s")
	_, err = Load()
	assert.ErrorContains(t, err, "must be positive")
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("URI_DB=from_file\nBOOKS_COLLECTION=from_file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv(EnvDatabaseURI, "from_env")
	os.Unsetenv(EnvCollection)
	t.Cleanup(func() { _ = os.Unsetenv(EnvCollection) })

	cwd, _ := os.Getwd()
	_ = os.Chdir(tmp)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	if got := os.Getenv(EnvDatabaseURI); got != "from_env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
	if got := os.Getenv(EnvCollection); got != "from_file" {
		t.Fatalf("expected value from .env, got %q", got)
	}
}
