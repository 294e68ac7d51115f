package observability

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShutdownLogger() *Logger {
	return NewLogger(ErrorLevel, io.Discard)
}

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(testShutdownLogger(), nil, time.Second)

	var order []string
	for _, name := range []string{"storage", "otel", "health"} {
		name := name
		sm.RegisterShutdownFunc(func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown(context.Background()))
	assert.Equal(t, []string{"health", "otel", "storage"}, order)
}

func TestShutdownRunsAllHooksDespiteFailures(t *testing.T) {
	sm := NewShutdownManager(testShutdownLogger(), nil, time.Second)

	var ran int
	sm.RegisterShutdownFunc(func(context.Context) error {
		ran++
		return nil
	})
	sm.RegisterShutdownFunc(func(context.Context) error {
		ran++
		return errors.New("exporter flush failed")
	})
	sm.RegisterShutdownFunc(func(context.Context) error {
		ran++
		return errors.New("listener already closed")
	})

	err := sm.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 failures")
	assert.Equal(t, 3, ran)
}

func TestShutdownHooksSeeTimeout(t *testing.T) {
	sm := NewShutdownManager(testShutdownLogger(), nil, 50*time.Millisecond)

	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := sm.Shutdown(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestShutdownDefaultTimeout(t *testing.T) {
	sm := NewShutdownManager(testShutdownLogger(), nil, 0)
	assert.Equal(t, 30*time.Second, sm.timeout)
}

func TestWaitForShutdownOnSignal(t *testing.T) {
	sm := NewShutdownManager(testShutdownLogger(), nil, time.Second)

	var drained bool
	sm.RegisterShutdownFunc(func(context.Context) error {
		drained = true
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- sm.WaitForShutdown() }()

	// Give WaitForShutdown a moment to install its signal handler.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, drained)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete after SIGTERM")
	}
}
