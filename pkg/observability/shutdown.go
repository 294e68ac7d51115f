package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc is a drain hook run during shutdown.
type ShutdownFunc func(context.Context) error

// ShutdownManager drains the API server and runs registered hooks when the
// process receives SIGINT or SIGTERM. Hooks run after the server stops
// accepting requests, newest first, so dependents close before what they
// depend on (health server before the OTel exporter, both before storage).
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	timeout time.Duration

	mu    sync.Mutex
	hooks []ShutdownFunc
}

// NewShutdownManager creates a manager draining server within timeout. A zero
// timeout defaults to 30 seconds.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		server:  server,
		timeout: timeout,
	}
}

// RegisterShutdownFunc adds a drain hook. Hooks run in reverse registration
// order.
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.hooks = append(sm.hooks, fn)
}

// WaitForShutdown blocks until SIGINT or SIGTERM arrives, then drains.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	sig := <-sigc
	sm.logger.Infof("Received %s, draining", sig)
	return sm.Shutdown(context.Background())
}

// Shutdown stops the server and runs the hooks, bounded by the configured
// timeout. All hooks run even when earlier ones fail; the failure count is
// reported at the end.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sm.timeout)
	defer cancel()

	var failed int
	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("API server drain failed")
			failed++
		} else {
			sm.logger.Info("API server drained")
		}
	}

	sm.mu.Lock()
	hooks := make([]ShutdownFunc, len(sm.hooks))
	copy(hooks, sm.hooks)
	sm.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			sm.logger.WithError(err).Errorf("Shutdown hook %d failed", i)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("shutdown finished with %d failures", failed)
	}
	sm.logger.Info("Shutdown complete")
	return nil
}
