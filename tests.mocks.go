package main

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// This file contains mocks definitions needed to perform unit tests.

// MockClocker implements a fake Clocker. Its timers never fire
// on their own, tests trigger them with Fire.
type MockClocker struct {
	MockNow time.Time
	mu      sync.Mutex
	timers  []*MockTimer
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{MockNow: time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
// equals to `2023-07-02 00:00:00 +0000 UTC` in String format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// AfterFunc records a timer which runs f once fired.
func (mck *MockClocker) AfterFunc(d time.Duration, f func()) Timer {
	mck.mu.Lock()
	defer mck.mu.Unlock()
	t := &MockTimer{Delay: d, f: f}
	mck.timers = append(mck.timers, t)
	return t
}

// Timers returns all timers created so far.
func (mck *MockClocker) Timers() []*MockTimer {
	mck.mu.Lock()
	defer mck.mu.Unlock()
	return append([]*MockTimer{}, mck.timers...)
}

// Armed returns the number of timers neither fired nor stopped.
func (mck *MockClocker) Armed() int {
	n := 0
	for _, t := range mck.Timers() {
		if t.Active() {
			n++
		}
	}
	return n
}

// Fire runs every armed timer.
func (mck *MockClocker) Fire() {
	for _, t := range mck.Timers() {
		t.fire()
	}
}

// MockTimer implements a fake Timer.
type MockTimer struct {
	Delay   time.Duration
	f       func()
	mu      sync.Mutex
	fired   bool
	stopped bool
}

func (mt *MockTimer) Stop() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	active := !mt.fired && !mt.stopped
	mt.stopped = true
	return active
}

// Active reports whether the timer is still waiting to fire.
func (mt *MockTimer) Active() bool {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return !mt.fired && !mt.stopped
}

func (mt *MockTimer) fire() {
	mt.mu.Lock()
	if mt.fired || mt.stopped {
		mt.mu.Unlock()
		return
	}
	mt.fired = true
	mt.mu.Unlock()
	mt.f()
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// MockShelfService implements ShelfServiceProvider. Unset functions
// return zero values.
type MockShelfService struct {
	ShelvesFunc func() []Shelf
	ShelfFunc   func(name ShelfName) (Shelf, error)
	StatsFunc   func() StreamStats
}

func (m *MockShelfService) HandlePayload(_ context.Context, _ []byte) {}

func (m *MockShelfService) Connected(_, _ string) {}

func (m *MockShelfService) Disconnected(_, _ string, _ error) {}

func (m *MockShelfService) Shelves() []Shelf {
	if m.ShelvesFunc == nil {
		return []Shelf{}
	}
	return m.ShelvesFunc()
}

func (m *MockShelfService) Shelf(name ShelfName) (Shelf, error) {
	if m.ShelfFunc == nil {
		return Shelf{}, ErrShelfNotFound
	}
	return m.ShelfFunc(name)
}

func (m *MockShelfService) Snapshot() ShelfSnapshot {
	return ShelfSnapshot{}
}

func (m *MockShelfService) Subscribe(_ func(ShelfSnapshot)) func() {
	return func() {}
}

func (m *MockShelfService) Stats() StreamStats {
	if m.StatsFunc == nil {
		return StreamStats{}
	}
	return m.StatsFunc()
}

// MockStreamHandler records what a receiver delivers.
type MockStreamHandler struct {
	mu           sync.Mutex
	Payloads     []string
	Sources      []string
	Disconnects  []error
	received     chan struct{}
	disconnected chan struct{}
}

func NewMockStreamHandler() *MockStreamHandler {
	return &MockStreamHandler{
		received:     make(chan struct{}, 64),
		disconnected: make(chan struct{}, 1),
	}
}

func (m *MockStreamHandler) HandlePayload(_ context.Context, payload []byte) {
	m.mu.Lock()
	m.Payloads = append(m.Payloads, string(payload))
	m.mu.Unlock()
	m.received <- struct{}{}
}

func (m *MockStreamHandler) Connected(_, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sources = append(m.Sources, source)
}

func (m *MockStreamHandler) Disconnected(_, _ string, err error) {
	m.mu.Lock()
	m.Disconnects = append(m.Disconnects, err)
	m.mu.Unlock()
	select {
	case m.disconnected <- struct{}{}:
	default:
	}
}

// Received returns a copy of the recorded payloads.
func (m *MockStreamHandler) Received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Payloads...)
}

// WaitPayloads blocks until n payloads were handled or the timeout elapsed.
func (m *MockStreamHandler) WaitPayloads(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-m.received:
		case <-deadline:
			return false
		}
	}
	return true
}

// MockApplier records the applied snapshots.
type MockApplier struct {
	mu      sync.Mutex
	Applied []ShelfSnapshot
}

func (m *MockApplier) Apply(snapshot ShelfSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Applied = append(m.Applied, snapshot)
}

func (m *MockApplier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Applied)
}

// MockKafkaReader implements kafkaReader from a list of messages. Once
// they are consumed it returns EndErr, or blocks until the context is
// done when EndErr is nil.
type MockKafkaReader struct {
	mu        sync.Mutex
	Messages  []kafka.Message
	Errs      []error
	EndErr    error
	Committed []kafka.Message
	Closed    bool
	Fetches   int
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	m.Fetches++
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		m.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(m.Messages) > 0 {
		msg := m.Messages[0]
		m.Messages = m.Messages[1:]
		m.mu.Unlock()
		return msg, nil
	}
	end := m.EndErr
	m.mu.Unlock()
	if end != nil {
		return kafka.Message{}, end
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *MockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Committed = append(m.Committed, msgs...)
	return nil
}

func (m *MockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
