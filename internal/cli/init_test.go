package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestGracefulShutdownRunsCleanupOnSignal(t *testing.T) {
	// Make sure the runtime traps SIGTERM before we start raising it,
	// so a racy delivery cannot kill the test process.
	guard := make(chan os.Signal, 1)
	signal.Notify(guard, syscall.SIGTERM)
	defer signal.Stop(guard)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var cleaned atomic.Bool
	var cleanupHadDeadline atomic.Bool
	ctx, done := GracefulShutdown(logger, time.Second, func(shutdownCtx context.Context) {
		if _, ok := shutdownCtx.Deadline(); ok {
			cleanupHadDeadline.Store(true)
		}
		cleaned.Store(true)
	})

	// The handler is installed by a goroutine; keep signalling until
	// it reacts.
	deadline := time.After(10 * time.Second)
	for {
		if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
			t.Fatalf("send SIGTERM: %v", err)
		}
		select {
		case <-ctx.Done():
		case <-deadline:
			t.Fatal("context never cancelled after SIGTERM")
		case <-time.After(20 * time.Millisecond):
			continue
		}
		break
	}

	WaitForShutdown(ctx, done)

	if !cleaned.Load() {
		t.Error("cleanup did not run")
	}
	if !cleanupHadDeadline.Load() {
		t.Error("cleanup context should carry the shutdown deadline")
	}
}
