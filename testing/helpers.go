// Package testing provides test utilities for shellz-based code: a
// configurable mock Command, a chaos-injecting Command wrapper, and a
// handful of assertion and timing helpers.
package testing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	mathrand "math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/shellz"
)

// MockCommand is a configurable shellz.Command. It records every
// invocation and returns whatever has been configured via WithRows/
// WithError/WithDelay/WithPanic, which is enough to drive a Job through
// any stage shape a test needs without standing up a real builtin.
type MockCommand struct { //nolint:govet // fieldalignment: test helper struct optimized for readability over memory layout
	t           *testing.T
	name        string
	callCount   int64
	lastArgs    []shellz.Value
	returnRows  []shellz.Row
	returnErr   error
	delay       time.Duration
	panicMsg    string
	outputKind  shellz.OutputType
	mu          sync.RWMutex
	callHistory []MockCall
	maxHistory  int
}

// MockCall records one MockCommand.Invoke call.
type MockCall struct {
	Arguments []shellz.Value
	Timestamp time.Time
}

// NewMockCommand creates a mock registered under name, keeping the last 100
// calls by default.
func NewMockCommand(t *testing.T, name string) *MockCommand {
	return &MockCommand{t: t, name: name, maxHistory: 100, outputKind: shellz.Unknown}
}

// WithRows configures the rows the mock writes to its Output on each call.
func (m *MockCommand) WithRows(rows []shellz.Row) *MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnRows = rows
	return m
}

// WithError configures the error the mock returns from Invoke.
func (m *MockCommand) WithError(err error) *MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returnErr = err
	return m
}

// WithDelay configures an artificial delay before Invoke returns, useful
// for exercising timeout and cancellation paths.
func (m *MockCommand) WithDelay(d time.Duration) *MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithPanic configures the mock to panic with msg instead of returning.
func (m *MockCommand) WithPanic(msg string) *MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicMsg = msg
	return m
}

// WithOutputKind configures what OutputKind reports.
func (m *MockCommand) WithOutputKind(k shellz.OutputType) *MockCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputKind = k
	return m
}

// CommandName implements shellz.Command.
func (m *MockCommand) CommandName() string { return m.name }

// Help implements shellz.Command.
func (m *MockCommand) Help() string { return "mock command for testing" }

// OutputKind implements shellz.Command.
func (m *MockCommand) OutputKind() shellz.OutputType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outputKind
}

// Invoke implements shellz.Command: records the call, then writes the
// configured rows (if any) to ec.Output and returns the configured error.
func (m *MockCommand) Invoke(ctx context.Context, ec *shellz.ExecutionContext) error {
	atomic.AddInt64(&m.callCount, 1)

	m.mu.Lock()
	m.lastArgs = ec.Arguments
	if m.maxHistory > 0 {
		m.callHistory = append(m.callHistory, MockCall{Arguments: ec.Arguments, Timestamp: time.Now()})
		if len(m.callHistory) > m.maxHistory {
			m.callHistory = m.callHistory[1:]
		}
	}
	rows := m.returnRows
	retErr := m.returnErr
	delay := m.delay
	panicMsg := m.panicMsg
	m.mu.Unlock()

	if panicMsg != "" {
		panic(panicMsg)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, row := range rows {
		if err := ec.Output.Send(row); err != nil {
			return err
		}
	}

	return retErr
}

// CallCount returns how many times Invoke has run.
func (m *MockCommand) CallCount() int { return int(atomic.LoadInt64(&m.callCount)) }

// LastArguments returns the arguments from the most recent call.
func (m *MockCommand) LastArguments() []shellz.Value {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastArgs
}

// CallHistory returns a defensive copy of every recorded call.
func (m *MockCommand) CallHistory() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := make([]MockCall, len(m.callHistory))
	copy(history, m.callHistory)
	return history
}

// Assertion helpers.

// AssertInvoked verifies the mock was invoked exactly n times.
func AssertInvoked(t *testing.T, mock *MockCommand, expected int) {
	t.Helper()
	if actual := mock.CallCount(); actual != expected {
		t.Errorf("expected mock command %q to be invoked %d times, got %d", mock.name, expected, actual)
	}
}

// AssertNotInvoked verifies the mock was never invoked.
func AssertNotInvoked(t *testing.T, mock *MockCommand) {
	t.Helper()
	AssertInvoked(t, mock, 0)
}

// ChaosCommand wraps another shellz.Command and randomly injects failures,
// latency, or panics, for exercising a job's first-error-wins and
// cancellation paths under unreliable stages.
type ChaosCommand struct { //nolint:govet // fieldalignment: test helper struct optimized for readability over memory layout
	name        string
	wrapped     shellz.Command
	failureRate float64
	latencyMin  time.Duration
	latencyMax  time.Duration
	panicRate   float64
	rng         *mathrand.Rand
	mu          sync.Mutex
	totalCalls  int64
	failedCalls int64
	panicCalls  int64
}

// ChaosConfig configures a ChaosCommand.
type ChaosConfig struct {
	FailureRate float64
	LatencyMin  time.Duration
	LatencyMax  time.Duration
	PanicRate   float64
	Seed        int64
}

// NewChaosCommand wraps wrapped with chaos injection per config.
func NewChaosCommand(name string, wrapped shellz.Command, config ChaosConfig) *ChaosCommand {
	seed := config.Seed
	if seed == 0 {
		var seedBytes [8]byte
		if _, err := rand.Read(seedBytes[:]); err != nil {
			seed = time.Now().UnixNano()
		} else {
			seed = int64(seedBytes[0])<<56 | int64(seedBytes[1])<<48 | int64(seedBytes[2])<<40 | int64(seedBytes[3])<<32 |
				int64(seedBytes[4])<<24 | int64(seedBytes[5])<<16 | int64(seedBytes[6])<<8 | int64(seedBytes[7])
		}
	}
	return &ChaosCommand{
		name:        name,
		wrapped:     wrapped,
		failureRate: config.FailureRate,
		latencyMin:  config.LatencyMin,
		latencyMax:  config.LatencyMax,
		panicRate:   config.PanicRate,
		rng:         mathrand.New(mathrand.NewSource(seed)), //nolint:gosec // G404: deterministic test chaos, not security sensitive
	}
}

// CommandName implements shellz.Command.
func (c *ChaosCommand) CommandName() string { return c.name }

// Help implements shellz.Command.
func (c *ChaosCommand) Help() string { return "chaos-injecting command wrapper for testing" }

// OutputKind implements shellz.Command.
func (c *ChaosCommand) OutputKind() shellz.OutputType { return c.wrapped.OutputKind() }

// Invoke implements shellz.Command with chaos injection.
func (c *ChaosCommand) Invoke(ctx context.Context, ec *shellz.ExecutionContext) error {
	atomic.AddInt64(&c.totalCalls, 1)

	c.mu.Lock()
	if c.rng.Float64() < c.panicRate {
		c.mu.Unlock()
		atomic.AddInt64(&c.panicCalls, 1)
		panic("chaos command induced panic")
	}
	var latency time.Duration
	if c.latencyMax > c.latencyMin {
		latency = c.latencyMin + time.Duration(c.rng.Int63n(int64(c.latencyMax-c.latencyMin)))
	} else if c.latencyMin > 0 {
		latency = c.latencyMin
	}
	injectFailure := c.rng.Float64() < c.failureRate
	c.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := c.wrapped.Invoke(ctx, ec)
	if injectFailure && err == nil {
		atomic.AddInt64(&c.failedCalls, 1)
		return errors.New("chaos command induced failure")
	}
	return err
}

// Stats reports counts of injected behavior observed so far.
func (c *ChaosCommand) Stats() ChaosStats {
	return ChaosStats{
		TotalCalls:  atomic.LoadInt64(&c.totalCalls),
		FailedCalls: atomic.LoadInt64(&c.failedCalls),
		PanicCalls:  atomic.LoadInt64(&c.panicCalls),
	}
}

// ChaosStats holds chaos injection counters.
type ChaosStats struct {
	TotalCalls  int64
	FailedCalls int64
	PanicCalls  int64
}

// String renders the stats for test failure messages.
func (s ChaosStats) String() string {
	return fmt.Sprintf("ChaosStats{Total: %d, Failed: %d, Panics: %d}", s.TotalCalls, s.FailedCalls, s.PanicCalls)
}

// ParallelTest runs testFunc across goroutines concurrently and waits for
// all of them to finish, for exercising Scope/List/Dict's concurrency
// guarantees.
func ParallelTest(t *testing.T, goroutines int, testFunc func(int)) {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			testFunc(id)
		}(i)
	}
	wg.Wait()
}

// MeasureLatency times a single call to fn.
func MeasureLatency(fn func()) time.Duration {
	start := time.Now()
	fn()
	return time.Since(start)
}
