package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, 50*time.Millisecond)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg"+string(rune('a'+i))), []byte("x"), 0o644))
	}

	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-w.Changes():
		t.Fatal("burst should produce a single notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_RemovalNotifies(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "requests")
	require.NoError(t, os.MkdirAll(pkg, 0o755))

	w, err := New([]string{dir}, 20*time.Millisecond)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.RemoveAll(pkg))
	select {
	case <-w.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification after removal")
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, 0)
	require.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing")}, 0)
	require.Error(t, err)
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New([]string{t.TempDir()}, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultDebounce, w.debounce)
	w.Start()
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
