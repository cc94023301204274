// ABOUTME: Tests for the process-level store: lazy domains, reset, teardown
// ABOUTME: Covers identity-stable Domain resolution and test isolation

package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_RequiresRoot(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStoreDomain_IdentityStable(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Domain("Quotes")
	require.NoError(t, err)
	b, err := store.Domain("quotes")
	require.NoError(t, err)

	assert.Same(t, a, b, "the same name must resolve to the same Domain instance")
	assert.Equal(t, "quotes", a.Name())
	assert.Equal(t, filepath.Join(store.Root(), "quotes"), a.Dir())
	assert.DirExists(t, a.Dir())
}

func TestStoreDomain_EmptyName(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Domain("")
	assert.Error(t, err)
}

func TestStoreDomain_InvalidName(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"../escape", "a/b", "bad name", "1digits", ".hidden", "dots.db"} {
		_, err := store.Domain(name)
		assert.Errorf(t, err, "name %q should be rejected", name)
	}

	// Nothing must have been created outside or inside the root.
	entries, err := os.ReadDir(store.Root())
	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoDirExists(t, filepath.Join(store.Root(), "..", "escape"))
}

func TestStoreReset_ForgetsDomainsKeepsFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	name := "d_" + uuid.NewString()[:8]
	domain, err := store.Domain(name)
	require.NoError(t, err)

	domain.RegisterSchemas("global",
		mustSchema(t, "CREATE TABLE IF NOT EXISTS marks (id INTEGER)", nil, ReseedOnce))
	conn, err := domain.Get(ctx, GlobalScope)
	require.NoError(t, err)
	require.NoError(t, conn.Execute(ctx, "INSERT INTO marks (id) VALUES (1)"))

	require.NoError(t, store.Reset())
	assert.Empty(t, store.Domains())
	assert.ErrorIs(t, conn.Commit(), ErrClosed)

	// A fresh Domain after Reset is a new instance over the same files.
	reopened, err := store.Domain(name)
	require.NoError(t, err)
	assert.NotSame(t, domain, reopened)

	reopened.RegisterSchemas("global",
		mustSchema(t, "CREATE TABLE IF NOT EXISTS marks (id INTEGER)", nil, ReseedOnce))
	conn, err = reopened.Get(ctx, GlobalScope)
	require.NoError(t, err)
	row, err := conn.Fetch(ctx, "SELECT COUNT(*) AS n FROM marks")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.Int("n"), "data must survive Reset")
}

func TestStoreCloseAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	quotes, err := store.Domain("quotes")
	require.NoError(t, err)
	colors, err := store.Domain("colors")
	require.NoError(t, err)

	qc, err := quotes.Get(ctx, GlobalScope)
	require.NoError(t, err)
	cc, err := colors.Get(ctx, TypedScope{Kind: "guild", ID: 1})
	require.NoError(t, err)

	require.NoError(t, store.CloseAll())
	assert.ErrorIs(t, qc.Commit(), ErrClosed)
	assert.ErrorIs(t, cc.Commit(), ErrClosed)

	// Domains stay usable; connections reopen lazily.
	_, err = quotes.Get(ctx, GlobalScope)
	require.NoError(t, err)
}

func TestStoreResourcesDir(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, filepath.Join(store.Root(), "resources"), store.ResourcesDir())
}
