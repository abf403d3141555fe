package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/flowver/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/flowver/internal/core/domain"
	"github.com/custodia-labs/flowver/internal/core/services"
)

const startJSON = `{"name":"Notify","nodes":[{"name":"Start","type":"start"}]}`

const slackJSON = `{"name":"Notify","nodes":[{"name":"Start","type":"start"},{"name":"Slack","type":"slack"}],
"connections":{"Start":{"main":[[{"node":"Slack","type":"main","index":0}]]}}}`

func newTestWatcher(t *testing.T) (*Watcher, *services.VersionService, *memory.Archive) {
	t.Helper()
	versions := services.NewVersionService(services.NewLockRegistry(time.Second))
	archive := memory.NewArchive()
	w, err := New(t.TempDir(), versions, services.NewPersistenceService(versions, archive), domain.WatchSettings{
		Rate:     100,
		Burst:    10,
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	return w, versions, archive
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	versions := services.NewVersionService(nil)

	t.Run("requires version service", func(t *testing.T) {
		_, err := New(t.TempDir(), nil, nil, domain.WatchSettings{})
		assert.ErrorIs(t, err, ErrMissingVersionService)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "absent"), versions, nil, domain.WatchSettings{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		path := writeDoc(t, t.TempDir(), "flow.json", startJSON)
		_, err := New(path, versions, nil, domain.WatchSettings{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("zero settings use defaults", func(t *testing.T) {
		dir := t.TempDir()
		w, err := New(dir, versions, nil, domain.WatchSettings{})
		require.NoError(t, err)
		assert.Equal(t, dir, w.Dir())
		assert.Equal(t, domain.DefaultSettings().Watch.Burst, w.limiter.Burst())
	})
}

func TestWatcher_Process(t *testing.T) {
	ctx := context.Background()
	w, versions, archive := newTestWatcher(t)

	path := writeDoc(t, w.Dir(), "billing.json", startJSON)
	ev := w.Process(ctx, path)
	require.NoError(t, ev.Err)
	assert.Equal(t, "billing", ev.WorkflowID, "file stem is the fallback id")
	assert.True(t, ev.Result.Created)
	assert.Equal(t, "1.0.0", ev.Result.Version.Version)
	assert.Equal(t, 1, archive.Writes())

	ev = w.Process(ctx, path)
	require.NoError(t, ev.Err)
	assert.False(t, ev.Result.Created)
	assert.Equal(t, 1, archive.Writes(), "unchanged documents are not saved")

	writeDoc(t, w.Dir(), "billing.json", slackJSON)
	ev = w.Process(ctx, path)
	require.NoError(t, ev.Err)
	assert.Equal(t, "1.1.0", ev.Result.Version.Version)

	latest, err := versions.GetLatestVersion(ctx, "billing")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", latest.Version)
}

func TestWatcher_Process_BadDocument(t *testing.T) {
	w, versions, _ := newTestWatcher(t)

	ev := w.Process(context.Background(), writeDoc(t, w.Dir(), "broken.json", "{"))
	assert.ErrorIs(t, ev.Err, domain.ErrInvalidInput)
	assert.Nil(t, ev.Result)
	assert.Empty(t, versions.WorkflowIDs())
}

func TestWatcher_Run(t *testing.T) {
	w, _, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ev Event) { events <- ev })
	}()

	// Give fsnotify time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeDoc(t, w.Dir(), "ignored.txt", "not a document")
	writeDoc(t, w.Dir(), "flow.yaml", "id: wf1\nname: Notify\nnodes:\n  - name: Start\n")

	select {
	case ev := <-events:
		require.NoError(t, ev.Err)
		assert.Equal(t, "wf1", ev.WorkflowID)
		assert.True(t, ev.Result.Created)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
