package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchRunsOnChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, target, nil, func(context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()

	// Give the watcher a moment to attach before the first change.
	time.Sleep(100 * time.Millisecond)

	// An unrelated file in the same directory must not trigger a run.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	select {
	case <-ran:
		t.Fatal("run triggered by an unrelated file")
	case <-time.After(600 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(target, []byte("v2"), 0644))
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("change to the watched file never triggered a run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop on cancellation")
	}
}

func TestWatchStopsOnError(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(target, []byte("v1"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("synthesis failed")
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, target, nil, func(context.Context) error {
			return boom
		})
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(target, []byte("v2"), 0644))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, boom)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop on a run error")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "script.txt"), nil, nil)
	assert.Error(t, err)
}
