package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DisplayBuffer delays the display of new snapshots. It holds at most one
// pending snapshot: a snapshot offered while the delay is running is merged
// into the pending one shelf by shelf and does not restart the timer. When
// the timer fires the pending snapshot is handed to the applier and the slot
// is cleared.
type DisplayBuffer struct {
	logger  *zap.Logger
	clock   Clocker
	delay   time.Duration
	applier SnapshotApplier

	mu      sync.Mutex
	pending ShelfSnapshot
	timer   Timer
	stopped bool
}

// NewDisplayBuffer provides a buffer which applies snapshots
// to the applier once the delay elapsed.
func NewDisplayBuffer(logger *zap.Logger, clock Clocker, delay time.Duration, applier SnapshotApplier) *DisplayBuffer {
	return &DisplayBuffer{
		logger:  logger,
		clock:   clock,
		delay:   delay,
		applier: applier,
	}
}

// Offer schedules the snapshot to become visible. With no delay configured
// the snapshot is applied right away.
func (db *DisplayBuffer) Offer(snapshot ShelfSnapshot) {
	if db.delay <= 0 {
		db.mu.Lock()
		stopped := db.stopped
		db.mu.Unlock()
		if !stopped {
			db.applier.Apply(snapshot)
		}
		return
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.stopped {
		return
	}
	if db.pending == nil {
		db.pending = make(ShelfSnapshot, len(snapshot))
	} else {
		db.logger.Debug("display: pending snapshot merged", zap.Int("shelves.count", len(snapshot)))
	}
	for name, entries := range snapshot {
		db.pending[name] = entries
	}
	if db.timer == nil {
		db.timer = db.clock.AfterFunc(db.delay, db.flush)
	}
}

// flush swaps the pending snapshot out and applies it.
func (db *DisplayBuffer) flush() {
	db.mu.Lock()
	snapshot := db.pending
	db.pending = nil
	db.timer = nil
	stopped := db.stopped
	db.mu.Unlock()

	if stopped || snapshot == nil {
		return
	}
	db.applier.Apply(snapshot)
}

// Pending reports whether a snapshot waits for the delay to elapse.
func (db *DisplayBuffer) Pending() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.pending != nil
}

// Stop discards any pending snapshot. Later offers are ignored.
func (db *DisplayBuffer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stopped = true
	db.pending = nil
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
