package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Service serves immutable configuration snapshots and hot-reloads them
// when the backing file changes.
//
// The read path is a single atomic pointer load; no request ever blocks on
// a reload. The watcher goroutine is the only writer and performs
// validate-then-swap: an invalid file is logged and discarded, leaving the
// previous snapshot authoritative.
type Service struct {
	path     string
	logger   *slog.Logger
	snapshot atomic.Pointer[Snapshot]

	// onReload, when set, observes the outcome of every watcher-triggered
	// reload attempt. Set before Watch; not synchronized afterwards.
	onReload func(error)
}

// NewService loads the config file at path and returns a service holding
// its snapshot. A missing or invalid file at startup is an error: the
// process should not start with a config it could never have reloaded.
func NewService(path string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snapshot, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Service{path: path, logger: logger}
	s.snapshot.Store(snapshot)
	return s, nil
}

// NewStaticService returns a service that serves the built-in defaults and
// has no backing file. Reload and Watch are no-ops. Used when the operator
// does not provide a config file.
func NewStaticService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{logger: logger}
	s.snapshot.Store(DefaultSnapshot())
	return s
}

// Path returns the backing file path, or empty for a static service.
func (s *Service) Path() string {
	return s.path
}

// OnReload registers an observer for watcher-triggered reload outcomes.
// Call before Watch.
func (s *Service) OnReload(fn func(error)) {
	s.onReload = fn
}

// Current returns the active snapshot. The snapshot is immutable; callers
// may hold it for the duration of a request without seeing partial updates.
func (s *Service) Current() *Snapshot {
	return s.snapshot.Load()
}

// Resolve returns the effective settings for an endpoint from the active
// snapshot.
func (s *Service) Resolve(endpoint string) Settings {
	return s.Current().Resolve(endpoint)
}

// Reload re-reads the backing file and swaps in the new snapshot if it
// validates. On failure the previous snapshot remains active and the error
// is returned for logging.
func (s *Service) Reload() error {
	if s.path == "" {
		return nil
	}

	snapshot, err := Load(s.path)
	if err != nil {
		return err
	}

	s.snapshot.Store(snapshot)
	return nil
}

// Watch observes the backing file for changes until ctx is cancelled,
// reloading on each change. It returns immediately for a static service.
//
// The parent directory is watched rather than the file itself: most
// editors and config management tools replace the file via rename, which
// would otherwise detach a direct file watch.
func (s *Service) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	go s.run(ctx, watcher)
	return nil
}

// run is the single writer goroutine behind the snapshot pointer.
func (s *Service) run(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			err := s.Reload()
			if s.onReload != nil {
				s.onReload(err)
			}
			if err != nil {
				s.logger.Warn("governance config reload failed, keeping previous snapshot",
					slog.String("path", s.path),
					slog.String("error", err.Error()))
				continue
			}
			s.logger.Info("governance config reloaded",
				slog.String("path", s.path),
				slog.Int("endpoint_overrides", len(s.Current().Endpoints())))

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("config watcher error", slog.String("error", err.Error()))
		}
	}
}
