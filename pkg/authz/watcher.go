package authz

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/openboard-dev/openboard/pkg/observability"
)

// Reloader serves the policy loaded from a file and hot-swaps it when the
// file changes. A reload that fails to parse keeps the previous policy; the
// kernel never runs without a valid table.
type Reloader struct {
	path    string
	current atomic.Pointer[Policy]
	logger  *observability.Logger
}

// NewReloader loads the initial policy from path.
func NewReloader(path string, logger *observability.Logger) (*Reloader, error) {
	policy, err := LoadPolicyFile(path)
	if err != nil {
		return nil, err
	}
	r := &Reloader{path: path, logger: logger}
	r.current.Store(policy)
	return r, nil
}

// Current implements Source.
func (r *Reloader) Current() *Policy {
	return r.current.Load()
}

// Watch blocks until ctx is done, reloading the policy whenever the file is
// written. The parent directory is watched so editors that replace the file
// (rename-over) are picked up too.
func (r *Reloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("failed to watch policy directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			policy, err := LoadPolicyFile(r.path)
			if err != nil {
				r.logger.WithError(err).Warn("policy reload failed, keeping previous policy")
				continue
			}
			r.current.Store(policy)
			r.logger.WithField("path", r.path).Info("authorization policy reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.WithError(err).Warn("policy watcher error")
		}
	}
}
