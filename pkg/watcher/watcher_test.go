package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/util"
)

func catalogJSON(ids ...string) string {
	recs := make([]string, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, fmt.Sprintf(`{"id":%q,"name":%q,"category":"CRM"}`, id, strings.ToUpper(id)))
	}
	return `{"name":"t","version":"1","integrations":[` + strings.Join(recs, ",") + `]}`
}

func writeCatalog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func startWatcher(t *testing.T, path string) (*CatalogWatcher, *catalog.Store) {
	t.Helper()
	qs, err := catalog.LoadAndQuery(path, nil)
	require.NoError(t, err)
	store := catalog.NewStore(qs)

	load := func() (*catalog.QueryService, error) {
		return catalog.LoadAndQuery(path, nil)
	}
	opts := DefaultOptions()
	opts.DebounceMs = 20

	w, err := New(path, store, load, opts, util.NopLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	return w, store
}

func TestCatalogWatcher_ReloadsFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, path, catalogJSON("a"))

	w, store := startWatcher(t, path)
	defer w.Stop()
	assert.Equal(t, 1, store.Current().Len())

	writeCatalog(t, path, catalogJSON("a", "b", "c"))

	require.Eventually(t, func() bool {
		return store.Current().Len() == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, w.GetStats().Reloads, uint64(1))
	assert.True(t, w.GetStats().IsRunning)

	require.NoError(t, w.Stop())
	assert.False(t, w.GetStats().IsRunning)
}

func TestCatalogWatcher_InvalidReloadKeepsPrevious(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, path, catalogJSON("a", "b"))

	w, store := startWatcher(t, path)
	defer w.Stop()
	before := store.Current()

	writeCatalog(t, path, `{"name":"t","version":"1","integrations":[{"id":"x","name":"X","category":"All"}]}`)

	require.Eventually(t, func() bool {
		return w.GetStats().Failures >= 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Same(t, before, store.Current())
	assert.Equal(t, uint64(1), store.Generation())
}

func TestCatalogWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	writeCatalog(t, path, catalogJSON("a"))

	reloaded := make(chan error, 8)
	qs, err := catalog.LoadAndQuery(path, nil)
	require.NoError(t, err)
	store := catalog.NewStore(qs)
	opts := DefaultOptions()
	opts.DebounceMs = 20
	opts.OnReload = func(err error) { reloaded <- err }

	w, err := New(path, store, func() (*catalog.QueryService, error) {
		return catalog.LoadAndQuery(path, nil)
	}, opts, util.NopLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	writeCatalog(t, filepath.Join(dir, "other.json"), catalogJSON("z"))
	writeCatalog(t, filepath.Join(dir, "catalog.json.swp"), "junk")

	select {
	case <-reloaded:
		t.Fatal("unexpected reload for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCatalogWatcher_Directory(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeCatalog(t, filepath.Join(dir, "crm.json"), catalogJSON("a"))

	w, store := startWatcher(t, dir)
	defer w.Stop()

	// A new subdirectory is picked up and its documents merged.
	writeCatalog(t, filepath.Join(dir, "legal", "more.json"), `{"integrations":[{"id":"clio","name":"Clio","category":"Legal"}]}`)

	require.Eventually(t, func() bool {
		_, ok := store.Current().GetIntegration("clio")
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"All", "CRM", "Legal"}, store.Current().Categories())
}

func TestCatalogWatcher_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "catalog.json")
	writeCatalog(t, path, catalogJSON("a"))
	w, _ := startWatcher(t, path)

	assert.Error(t, w.Start())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.Error(t, w.Start())
}

func TestNew_MissingPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json"), nil, nil, DefaultOptions(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}
