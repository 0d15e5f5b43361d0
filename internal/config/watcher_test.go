package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, path string) <-chan *Config {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	reloads := make(chan *Config, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(cfg *Config) { reloads <- cfg })
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("Watch did not return after cancel")
		}
	})

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	return reloads
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeTempFile(t, "vibin:\n  url: ws://one.local/ws\n")
	reloads := startWatch(t, path)

	require.NoError(t, os.WriteFile(path, []byte("vibin:\n  url: ws://two.local/ws\n"), 0644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, "ws://two.local/ws", cfg.Vibin.URL)
		assert.Equal(t, DefaultRetryDelay, cfg.Connection.RetryDelay, "defaults applied on reload")
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatch_ReloadsOnReplace(t *testing.T) {
	path := writeTempFile(t, "vibin:\n  url: ws://one.local/ws\n")
	reloads := startWatch(t, path)

	tmp := filepath.Join(filepath.Dir(path), "config.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("vibin:\n  url: ws://three.local/ws\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case cfg := <-reloads:
		assert.Equal(t, "ws://three.local/ws", cfg.Vibin.URL)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatch_SkipsInvalidConfig(t *testing.T) {
	path := writeTempFile(t, "vibin:\n  url: ws://one.local/ws\n")
	reloads := startWatch(t, path)

	require.NoError(t, os.WriteFile(path, []byte("vibin:\n  url: nope\n"), 0644))

	select {
	case cfg := <-reloads:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(400 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("vibin:\n  url: ws://four.local/ws\n"), 0644))

	select {
	case cfg := <-reloads:
		assert.Equal(t, "ws://four.local/ws", cfg.Vibin.URL)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	path := writeTempFile(t, "vibin:\n  url: ws://one.local/ws\n")
	reloads := startWatch(t, path)

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("vibin:\n  url: ws://other.local/ws\n"), 0644))

	select {
	case cfg := <-reloads:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "config.yaml"), nil, func(*Config) {})
	assert.Error(t, err)
}
