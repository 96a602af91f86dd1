package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestService(t *testing.T, content string) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.yaml")
	writeConfig(t, path, content)

	svc, err := NewService(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return svc, path
}

func TestNewService_InvalidFileFailsStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "governance.yaml")
	writeConfig(t, path, "defaultPageSize: 0\n")

	_, err := NewService(path, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestNewService_MissingFileFailsStartup(t *testing.T) {
	_, err := NewService(filepath.Join(t.TempDir(), "absent.yaml"), slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestService_ReloadSwapsSnapshot(t *testing.T) {
	svc, path := newTestService(t, "defaultPageSize: 10\n")
	assert.Equal(t, 10, svc.Current().Global().DefaultPageSize)

	before := svc.Current()
	writeConfig(t, path, "defaultPageSize: 30\n")
	require.NoError(t, svc.Reload())

	assert.Equal(t, 30, svc.Current().Global().DefaultPageSize)
	assert.Equal(t, 10, before.Global().DefaultPageSize,
		"held snapshots must be unaffected by reloads")
}

func TestService_InvalidReloadKeepsPreviousSnapshot(t *testing.T) {
	svc, path := newTestService(t, "defaultPageSize: 10\n")

	writeConfig(t, path, "defaultPageSize: not-a-number\n")
	assert.Error(t, svc.Reload())
	assert.Equal(t, 10, svc.Current().Global().DefaultPageSize)
}

func TestService_WatchHotReload(t *testing.T) {
	svc, path := newTestService(t, "defaultPageSize: 10\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Watch(ctx))

	writeConfig(t, path, "defaultPageSize: 42\n")
	assert.Eventually(t, func() bool {
		return svc.Current().Global().DefaultPageSize == 42
	}, 3*time.Second, 20*time.Millisecond, "valid edit should be picked up by the watcher")

	// An invalid edit must be rejected without disturbing the snapshot.
	writeConfig(t, path, "{{{")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 42, svc.Current().Global().DefaultPageSize)
}

func TestStaticService(t *testing.T) {
	svc := NewStaticService(nil)
	assert.Equal(t, DefaultSettings(), svc.Current().Global())
	assert.NoError(t, svc.Reload())
	assert.NoError(t, svc.Watch(context.Background()))
	assert.Equal(t, DefaultSettings(), svc.Resolve("/anything"))
}
