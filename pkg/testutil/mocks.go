// Package testutil provides mocks shared by package tests.
package testutil

import (
	"sync"
	"time"

	"github.com/Veraticus/activitybar/pkg/types"
)

// MockIdleReader is a thread-safe mock implementation of interfaces.IdleReader for testing
type MockIdleReader struct {
	mu         sync.Mutex
	millis     uint64
	err        error
	calls      int
	closeCount int
	closeErr   error
}

// NewMockIdleReader creates a mock reader reporting millis
func NewMockIdleReader(millis uint64) *MockIdleReader {
	return &MockIdleReader{millis: millis}
}

// IdleMillis implements the IdleReader interface
func (m *MockIdleReader) IdleMillis() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.millis, nil
}

// Close implements the IdleReader interface
func (m *MockIdleReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCount++
	return m.closeErr
}

// SetMillis sets the value returned by IdleMillis and clears any error
func (m *MockIdleReader) SetMillis(ms uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.millis = ms
	m.err = nil
}

// SetError makes IdleMillis fail with err
func (m *MockIdleReader) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times IdleMillis was called
func (m *MockIdleReader) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CloseCount returns how many times Close was called
func (m *MockIdleReader) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

// FakeClock is a manually advanced interfaces.Clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock stopped at start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now implements the Clock interface
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// RecordingRenderer is a mock implementation of interfaces.Renderer that keeps every render
type RecordingRenderer struct {
	mu      sync.Mutex
	renders [][]types.Update
	err     error
	notify  chan struct{}
}

// NewRecordingRenderer creates a new recording renderer
func NewRecordingRenderer() *RecordingRenderer {
	return &RecordingRenderer{notify: make(chan struct{}, 64)}
}

// Render implements the Renderer interface
func (r *RecordingRenderer) Render(updates ...types.Update) error {
	r.mu.Lock()
	cp := make([]types.Update, len(updates))
	copy(cp, updates)
	r.renders = append(r.renders, cp)
	err := r.err
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return err
}

// SetError makes Render fail with err
func (r *RecordingRenderer) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Renders returns a copy of all renders so far
func (r *RecordingRenderer) Renders() [][]types.Update {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([][]types.Update, len(r.renders))
	copy(result, r.renders)
	return result
}

// WaitForRenders blocks until at least n renders happened or timeout expires
func (r *RecordingRenderer) WaitForRenders(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if len(r.Renders()) >= n {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline:
			return len(r.Renders()) >= n
		}
	}
}
