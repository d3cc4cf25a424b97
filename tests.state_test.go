package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// This file contains unit tests for the shelves board and the display buffer.

func entry(barcode string, quantity int) AggregatedEntry {
	return AggregatedEntry{BookRecord: BookRecord{Barcode: barcode, ProductName: "p-" + barcode, Author: "a-" + barcode}, Quantity: quantity}
}

func TestNewShelfBoard(t *testing.T) {
	b := NewShelfBoard([]ShelfName{"Shelf 2", "Shelf 1", "Shelf 2"})
	assert.Equal(t, []ShelfName{"Shelf 2", "Shelf 1"}, b.Names())
	assert.Equal(t, ShelfSnapshot{"Shelf 1": {}, "Shelf 2": {}}, b.Snapshot())

	shelves := b.Shelves()
	require.Len(t, shelves, 2)
	assert.Equal(t, Shelf{Name: "Shelf 2", Entries: []AggregatedEntry{}, Copies: 0}, shelves[0])
}

func TestShelfBoardApply(t *testing.T) {
	b := NewShelfBoard(DefaultShelves)
	b.Apply(ShelfSnapshot{"Shelf 1": {entry("A1", 2)}, "Shelf 2": {entry("B1", 1)}})

	t.Run("partial update keeps other shelves", func(t *testing.T) {
		b.Apply(ShelfSnapshot{"Shelf 1": {entry("A2", 1)}})
		want := ShelfSnapshot{
			"Shelf 1": {entry("A2", 1)},
			"Shelf 2": {entry("B1", 1)},
			"Shelf 3": {},
			"Shelf 4": {},
		}
		if diff := cmp.Diff(want, b.Snapshot()); diff != "" {
			t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty shelf replaces entries", func(t *testing.T) {
		b.Apply(ShelfSnapshot{"Shelf 2": {}})
		shelf, err := b.Shelf("Shelf 2")
		require.NoError(t, err)
		assert.Empty(t, shelf.Entries)
		assert.Equal(t, 0, shelf.Copies)
	})

	t.Run("unknown shelves are listed last by name", func(t *testing.T) {
		b.Apply(ShelfSnapshot{"Shelf 9": {entry("Z", 1)}, "Shelf 5": {entry("Y", 3)}})
		assert.Equal(t, []ShelfName{"Shelf 1", "Shelf 2", "Shelf 3", "Shelf 4", "Shelf 5", "Shelf 9"}, b.Names())
		shelf, err := b.Shelf("Shelf 5")
		require.NoError(t, err)
		assert.Equal(t, 3, shelf.Copies)
	})

	t.Run("missing shelf", func(t *testing.T) {
		_, err := b.Shelf("Shelf 42")
		assert.ErrorIs(t, err, ErrShelfNotFound)
	})
}

func TestShelfBoardIsolation(t *testing.T) {
	b := NewShelfBoard(DefaultShelves)
	applied := ShelfSnapshot{"Shelf 1": {entry("A1", 1)}}
	b.Apply(applied)
	applied["Shelf 1"][0].Quantity = 10

	snap := b.Snapshot()
	assert.Equal(t, 1, snap["Shelf 1"][0].Quantity)
	snap["Shelf 1"][0].Quantity = 20

	shelf, err := b.Shelf("Shelf 1")
	require.NoError(t, err)
	assert.Equal(t, 1, shelf.Entries[0].Quantity)
}

func TestShelfBoardSubscribe(t *testing.T) {
	b := NewShelfBoard(DefaultShelves)
	var calls []ShelfSnapshot
	unsubscribe := b.Subscribe(func(s ShelfSnapshot) {
		calls = append(calls, s)
		// listeners run outside of the board lock.
		_ = b.Shelves()
	})

	b.Apply(ShelfSnapshot{"Shelf 1": {entry("A1", 1)}})
	require.Len(t, calls, 1)
	assert.Len(t, calls[0], 4)
	assert.Equal(t, []AggregatedEntry{entry("A1", 1)}, calls[0]["Shelf 1"])

	unsubscribe()
	b.Apply(ShelfSnapshot{"Shelf 1": {}})
	assert.Len(t, calls, 1)
}

func TestDisplayBufferCoalesces(t *testing.T) {
	clock := NewMockClocker()
	applier := &MockApplier{}
	db := NewDisplayBuffer(zap.NewNop(), clock, 500*time.Millisecond, applier)

	first := ShelfSnapshot{"Shelf 1": {entry("A1", 1)}}
	second := ShelfSnapshot{"Shelf 1": {entry("A1", 2)}}
	third := ShelfSnapshot{"Shelf 2": {entry("B1", 1)}}

	db.Offer(first)
	db.Offer(second)
	assert.True(t, db.Pending())
	assert.Equal(t, 0, applier.Count())

	// the window is not restarted by later offers.
	timers := clock.Timers()
	require.Len(t, timers, 1)
	assert.Equal(t, 500*time.Millisecond, timers[0].Delay)

	clock.Fire()
	assert.False(t, db.Pending())
	require.Equal(t, 1, applier.Count())
	assert.Equal(t, second, applier.Applied[0])

	// a new window opens with the next offer.
	db.Offer(third)
	assert.Len(t, clock.Timers(), 2)
	assert.Equal(t, 1, clock.Armed())
	clock.Fire()
	require.Equal(t, 2, applier.Count())
	assert.Equal(t, third, applier.Applied[1])
}

func TestDisplayBufferMergesShelvesWithinWindow(t *testing.T) {
	clock := NewMockClocker()
	board := NewShelfBoard(DefaultShelves)
	db := NewDisplayBuffer(zap.NewNop(), clock, 500*time.Millisecond, board)

	db.Offer(ShelfSnapshot{"Shelf 1": {entry("A1", 2)}})
	db.Offer(ShelfSnapshot{"Shelf 2": {entry("B1", 1)}})
	db.Offer(ShelfSnapshot{"Shelf 2": {entry("B2", 1)}, "Shelf 3": {entry("C1", 4)}})
	require.Len(t, clock.Timers(), 1)

	clock.Fire()
	want := ShelfSnapshot{
		"Shelf 1": {entry("A1", 2)},
		"Shelf 2": {entry("B2", 1)},
		"Shelf 3": {entry("C1", 4)},
		"Shelf 4": {},
	}
	if diff := cmp.Diff(want, board.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplayBufferDoesNotChangeOffered(t *testing.T) {
	clock := NewMockClocker()
	applier := &MockApplier{}
	db := NewDisplayBuffer(zap.NewNop(), clock, time.Second, applier)

	first := ShelfSnapshot{"Shelf 1": {entry("A1", 1)}}
	db.Offer(first)
	db.Offer(ShelfSnapshot{"Shelf 2": {}})
	assert.Equal(t, ShelfSnapshot{"Shelf 1": {entry("A1", 1)}}, first)
}

func TestDisplayBufferWithoutDelay(t *testing.T) {
	clock := NewMockClocker()
	applier := &MockApplier{}
	db := NewDisplayBuffer(zap.NewNop(), clock, -1, applier)

	db.Offer(ShelfSnapshot{"Shelf 1": {}})
	db.Offer(ShelfSnapshot{"Shelf 2": {}})
	assert.Equal(t, 2, applier.Count())
	assert.Empty(t, clock.Timers())
	assert.False(t, db.Pending())
}

func TestDisplayBufferStop(t *testing.T) {
	clock := NewMockClocker()
	applier := &MockApplier{}
	db := NewDisplayBuffer(zap.NewNop(), clock, time.Second, applier)

	db.Offer(ShelfSnapshot{"Shelf 1": {entry("A1", 1)}})
	db.Stop()
	assert.False(t, db.Pending())
	assert.Equal(t, 0, clock.Armed())

	clock.Fire()
	db.Offer(ShelfSnapshot{"Shelf 1": {}})
	assert.Equal(t, 0, applier.Count())
	assert.Equal(t, 0, clock.Armed())
}

func TestDisplayBufferRealClock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	board := NewShelfBoard(DefaultShelves)
	db := NewDisplayBuffer(zap.NewNop(), NewClock(false), 20*time.Millisecond, board)

	db.Offer(ShelfSnapshot{"Shelf 1": {entry("A1", 1)}})
	db.Offer(ShelfSnapshot{"Shelf 1": {entry("A1", 3)}})
	_, err := board.Shelf("Shelf 1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		shelf, _ := board.Shelf("Shelf 1")
		return shelf.Copies == 3
	}, time.Second, 5*time.Millisecond)

	db.Offer(ShelfSnapshot{"Shelf 2": {entry("B1", 1)}})
	db.Stop()
	time.Sleep(40 * time.Millisecond)
	shelf, err := board.Shelf("Shelf 2")
	require.NoError(t, err)
	assert.Empty(t, shelf.Entries)
}
