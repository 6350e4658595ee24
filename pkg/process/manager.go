// Package process runs external programs and owns the run's cleanup scope
package process

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jumpstart/jumpstart/pkg/logger"
)

// Manager holds cleanup handlers that must run exactly once when the run
// ends, whether it ends normally, with an error, or by operator interrupt.
type Manager struct {
	logger           logger.Logger
	shutdownHandlers []func() error
	signals          []os.Signal
	interrupted      chan os.Signal
	stop             chan struct{}
	once             sync.Once
	wg               sync.WaitGroup
	mu               sync.Mutex
	running          bool
	shutdownErr      error
	received         os.Signal

	// GracePeriod bounds how long a signalled run may take to unwind
	// before the manager runs the shutdown handlers itself.
	GracePeriod time.Duration
}

// DefaultGracePeriod is the wait between cancelling the run and forcing
// cleanup after a signal.
const DefaultGracePeriod = 5 * time.Second

// NewManager creates a new process manager
func NewManager(log logger.Logger) *Manager {
	return &Manager{
		logger:      log,
		signals:     []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP},
		interrupted: make(chan os.Signal, 1),
		GracePeriod: DefaultGracePeriod,
	}
}

// RegisterShutdownHandler adds a cleanup handler. Handlers run in reverse
// registration order.
func (m *Manager) RegisterShutdownHandler(handler func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHandlers = append(m.shutdownHandlers, handler)
}

// Start installs signal handling and returns the run context. A received
// signal cancels that context first, so subprocesses started with it are
// killed before anything is removed. The run is expected to unwind and call
// Shutdown itself; if it has not called Stop within GracePeriod the manager
// runs Shutdown.
func (m *Manager) Start(ctx context.Context) context.Context {
	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		cancel()
		return ctx
	}
	m.running = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, m.signals...)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		defer signal.Stop(sigChan)

		select {
		case <-ctx.Done():
		case <-stop:
		case sig := <-sigChan:
			m.logger.Warn("Received signal, stopping run", logger.WithField("signal", sig))
			m.mu.Lock()
			m.received = sig
			m.mu.Unlock()
			cancel()
			select {
			case m.interrupted <- sig:
			default:
			}

			select {
			case <-stop:
			case <-time.After(m.GracePeriod):
				m.logger.Warn("Run did not stop in time, cleaning up", logger.WithField("signal", sig))
				_ = m.Shutdown()
			}
		}
	}()

	return runCtx
}

// Signal returns the signal that interrupted the run, or nil
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

// Interrupted delivers the signal that triggered a shutdown, if any
func (m *Manager) Interrupted() <-chan os.Signal {
	return m.interrupted
}

// Stop stops signal handling without running handlers
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
}

// IsRunning checks if signal handling is active
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Shutdown runs every registered handler exactly once. Later calls return
// the result of the first.
func (m *Manager) Shutdown() error {
	m.once.Do(func() {
		m.mu.Lock()
		handlers := make([]func() error, len(m.shutdownHandlers))
		copy(handlers, m.shutdownHandlers)
		m.mu.Unlock()

		var errs []error
		for i := len(handlers) - 1; i >= 0; i-- {
			if err := handlers[i](); err != nil {
				m.logger.Error("Cleanup handler failed", logger.WithField("error", err))
				errs = append(errs, err)
			}
		}
		m.shutdownErr = errors.Join(errs...)
	})
	return m.shutdownErr
}
