// ABOUTME: Tests for the wndr-data maintenance CLI
// ABOUTME: Exercises command dispatch against a store in a temp directory

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GitAcrown/WNDR/internal/config"
	"github.com/GitAcrown/WNDR/internal/datastore"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Root = t.TempDir()
	cfg.Logging.Level = "error"
	return cfg
}

// seedScope creates a domain with one populated scope database and
// returns the scope's storage key.
func seedScope(t *testing.T, cfg *config.Config, domainName string) string {
	t.Helper()

	store, err := datastore.Open(cfg.Data.Root, datastore.WithLogger(cfg.NewLogger()))
	require.NoError(t, err)
	defer store.CloseAll()

	domain, err := store.Domain(domainName)
	require.NoError(t, err)

	schema, err := datastore.NewKeyValueSchema("settings", map[string]any{"enabled": true}, datastore.ReseedOnce)
	require.NoError(t, err)
	domain.RegisterSchemas("guild", schema)

	scope := datastore.TypedScope{Kind: "guild", ID: 42}
	_, err = domain.Get(context.Background(), scope)
	require.NoError(t, err)
	return scope.Key()
}

func TestRun_DomainsAndScopes(t *testing.T) {
	cfg := testConfig(t)
	key := seedScope(t, cfg, "quotes")

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out, "domains", nil))
	assert.Contains(t, strings.Split(strings.TrimSpace(out.String()), "\n"), "quotes")

	out.Reset()
	require.NoError(t, run(cfg, &out, "scopes", []string{"quotes"}))
	assert.Equal(t, key, strings.TrimSpace(out.String()))
}

func TestRun_Tables(t *testing.T) {
	cfg := testConfig(t)
	key := seedScope(t, cfg, "quotes")

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out, "tables", []string{"quotes", key}))
	assert.Equal(t, "settings", strings.TrimSpace(out.String()))
}

func TestRun_TablesUnknownScope(t *testing.T) {
	cfg := testConfig(t)
	seedScope(t, cfg, "quotes")

	var out bytes.Buffer
	err := run(cfg, &out, "tables", []string{"quotes", "guild_999"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database")

	// Inspection must not create the file it failed to find.
	_, statErr := os.Stat(filepath.Join(cfg.Data.Root, "quotes", "data", "guild_999.db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_Delete(t *testing.T) {
	cfg := testConfig(t)
	key := seedScope(t, cfg, "quotes")

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out, "delete", []string{"quotes", key}))
	assert.Contains(t, out.String(), "deleted quotes/"+key)

	_, statErr := os.Stat(filepath.Join(cfg.Data.Root, "quotes", "data", key+".db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_UnknownCommand(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	err := run(cfg, &out, "bogus", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestLoadConfig_DefaultsWhenUnset(t *testing.T) {
	t.Setenv("WNDR_CONFIG", "")
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Default().Data.Root, cfg.Data.Root)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wndr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  root: "+filepath.Join(dir, "store")+"\n"), 0o644))
	t.Setenv("WNDR_CONFIG", path)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "store"), cfg.Data.Root)
}
