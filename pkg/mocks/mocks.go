// Package mocks provides test doubles for the runner and notifier.
package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/jumpstart/jumpstart/pkg/process"
)

// MockRunner records invocations instead of executing them
type MockRunner struct {
	mu          sync.Mutex
	invocations []process.Invocation
	failures    map[string]int
	outputs     map[string]string
	hooks       map[string]func(process.Invocation) error
}

// NewMockRunner creates a runner where every command succeeds
func NewMockRunner() *MockRunner {
	return &MockRunner{
		failures: make(map[string]int),
		outputs:  make(map[string]string),
		hooks:    make(map[string]func(process.Invocation) error),
	}
}

// FailOn makes every invocation whose rendered command starts with prefix
// exit with code.
func (m *MockRunner) FailOn(prefix string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prefix] = code
}

// SetOutput sets the captured stdout for invocations starting with prefix
func (m *MockRunner) SetOutput(prefix, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[prefix] = output
}

// OnRun registers a side effect for invocations starting with prefix, used
// to simulate generators writing files.
func (m *MockRunner) OnRun(prefix string, hook func(process.Invocation) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[prefix] = hook
}

// Run records the invocation and applies configured hooks and failures
func (m *MockRunner) Run(_ context.Context, inv process.Invocation) error {
	m.mu.Lock()
	m.invocations = append(m.invocations, inv)
	rendered := commandLine(inv)
	var hook func(process.Invocation) error
	for prefix, h := range m.hooks {
		if strings.HasPrefix(rendered, prefix) {
			hook = h
			break
		}
	}
	code, fail := m.failureFor(rendered)
	m.mu.Unlock()

	if hook != nil {
		if err := hook(inv); err != nil {
			return err
		}
	}
	if fail {
		return &process.ExitError{Command: inv.String(), Code: code}
	}
	return nil
}

// Output records the invocation and returns the configured output
func (m *MockRunner) Output(_ context.Context, inv process.Invocation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations = append(m.invocations, inv)
	rendered := commandLine(inv)
	if code, fail := m.failureFor(rendered); fail {
		return "", &process.ExitError{Command: inv.String(), Code: code}
	}
	for prefix, out := range m.outputs {
		if strings.HasPrefix(rendered, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func (m *MockRunner) failureFor(rendered string) (int, bool) {
	for prefix, code := range m.failures {
		if strings.HasPrefix(rendered, prefix) {
			return code, true
		}
	}
	return 0, false
}

// Invocations returns a copy of the recorded invocations
func (m *MockRunner) Invocations() []process.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]process.Invocation, len(m.invocations))
	copy(out, m.invocations)
	return out
}

// Commands returns each recorded invocation as "name arg1 arg2"
func (m *MockRunner) Commands() []string {
	invs := m.Invocations()
	out := make([]string, len(invs))
	for i, inv := range invs {
		out[i] = commandLine(inv)
	}
	return out
}

func commandLine(inv process.Invocation) string {
	return strings.Join(append([]string{inv.Name}, inv.Args...), " ")
}

// MockNotifier records notifications
type MockNotifier struct {
	mu        sync.Mutex
	Successes []string
	Failures  []error
}

// NotifyRunSuccess records a successful run
func (n *MockNotifier) NotifyRunSuccess(project string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, project)
}

// NotifyRunFailure records a failed run
func (n *MockNotifier) NotifyRunFailure(project string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Failures = append(n.Failures, err)
}
