package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/yndnr/zkmesh-go/internal/telemetry/logger"
)

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"http", "watcher", "client"} {
		name := name
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	want := []string{"client", "watcher", "http"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandler_JoinsErrors(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("ok", func(context.Context) error { return nil })
	h.OnShutdown("b", func(context.Context) error { return errB })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Shutdown() error = %v, want both hook errors", err)
	}
}

func TestHandler_HooksShareDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, logger.Discard())

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Shutdown()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("hook deadline not applied")
	}
}

func TestHandler_Trigger(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())
	ran := make(chan struct{})
	h.OnShutdown("hook", func(context.Context) error {
		close(ran)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	h.Trigger()
	h.Trigger()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after Trigger")
	}
	<-ran
	select {
	case <-h.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestHandler_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestHandler_Signal(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())
	ran := make(chan struct{})
	h.OnShutdown("hook", func(context.Context) error {
		close(ran)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("hook not run after SIGTERM")
	}
	<-errCh
}

func TestHandler_ShutdownTwice(t *testing.T) {
	h := NewHandler(time.Second, logger.Discard())
	calls := 0
	h.OnShutdown("hook", func(context.Context) error {
		calls++
		return nil
	})

	_ = h.Shutdown()
	_ = h.Shutdown()
	if calls != 1 {
		t.Errorf("hook ran %d times, want 1", calls)
	}
}
