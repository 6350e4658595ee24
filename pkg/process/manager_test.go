package process_test

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/jumpstart/jumpstart/pkg/logger"
	"github.com/jumpstart/jumpstart/pkg/process"
)

func TestManager_ShutdownRunsHandlersInReverseOrder(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		m.RegisterShutdownHandler(func() error {
			order = append(order, i)
			return nil
		})
	}

	if err := m.Shutdown(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("expected %d handler calls, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("call %d: expected handler %d, got %d", i, want[i], order[i])
		}
	}
}

func TestManager_ShutdownRunsOnce(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())

	calls := 0
	m.RegisterShutdownHandler(func() error {
		calls++
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Shutdown()
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	m.RegisterShutdownHandler(func() error { return errA })
	m.RegisterShutdownHandler(func() error { return errB })

	err := m.Shutdown()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both errors, got %v", err)
	}
	if again := m.Shutdown(); again != err {
		t.Errorf("expected repeated Shutdown to return first result")
	}
}

func TestManager_StartStop(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	if !m.IsRunning() {
		t.Fatal("expected manager to be running")
	}
	m.Start(ctx)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	if m.IsRunning() {
		t.Error("expected manager to be stopped")
	}
	m.Stop()
}

func TestManager_SignalCancelsRunContextBeforeCleanup(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())
	m.GracePeriod = time.Hour

	cleaned := make(chan struct{})
	m.RegisterShutdownHandler(func() error {
		close(cleaned)
		return nil
	})

	runCtx := m.Start(context.Background())
	defer m.Stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-runCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run context was not cancelled")
	}

	select {
	case sig := <-m.Interrupted():
		if sig != syscall.SIGINT {
			t.Errorf("expected SIGINT, got %v", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not reported")
	}

	if m.Signal() != syscall.SIGINT {
		t.Errorf("expected recorded SIGINT, got %v", m.Signal())
	}

	select {
	case <-cleaned:
		t.Error("handlers ran before the run unwound")
	default:
	}
}

func TestManager_SignalForcesCleanupAfterGracePeriod(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())
	m.GracePeriod = 10 * time.Millisecond

	cleaned := make(chan struct{})
	m.RegisterShutdownHandler(func() error {
		close(cleaned)
		return nil
	})

	m.Start(context.Background())
	defer m.Stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("handlers did not run after the grace period")
	}
}

func TestManager_StopCancelsRunContext(t *testing.T) {
	m := process.NewManager(logger.NewNopLogger())
	runCtx := m.Start(context.Background())

	m.Stop()

	select {
	case <-runCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run context outlived Stop")
	}
	if m.Signal() != nil {
		t.Errorf("expected no signal, got %v", m.Signal())
	}
}
