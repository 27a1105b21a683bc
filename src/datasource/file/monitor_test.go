package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFileMonitorReportsTargetWrites(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	target := filepath.Join(dir, "day.csv")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("dteday\n"), 0644))

	monitor, err := NewFileMonitor(dir, "day.csv")
	require.NoError(t, err)
	monitor.debounce = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- monitor.Watch(ctx, func(name string) { changed <- name })
	}()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("dteday\n2011-01-01\n"), 0644))
	require.NoError(t, os.WriteFile(target, []byte("dteday\n2011-01-02\n"), 0644))

	select {
	case name := <-changed:
		require.Equal(t, target, name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case name := <-changed:
		t.Fatalf("burst reported twice: %s", name)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestNewFileMonitorMissingDir(t *testing.T) {
	_, err := NewFileMonitor(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
