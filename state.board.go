package main

import (
	"errors"
	"sort"
	"sync"
)

var ErrShelfNotFound = errors.New("shelf not found")

var _ SnapshotApplier = (*ShelfBoard)(nil) // ensure ShelfBoard implements SnapshotApplier.

// SnapshotApplier receives the snapshots which become visible.
type SnapshotApplier interface {
	Apply(snapshot ShelfSnapshot)
}

// Shelf is a named view of one shelf, used by the api and the dashboard.
type Shelf struct {
	Name    ShelfName         `json:"name"`
	Entries []AggregatedEntry `json:"entries"`
	Copies  int               `json:"copies"`
}

// ShelfBoard holds the visible state of all shelves. It is created once with
// the configured shelves and afterwards only changed through Apply.
type ShelfBoard struct {
	mu         sync.RWMutex
	configured []ShelfName
	shelves    ShelfSnapshot
	listeners  map[int]func(ShelfSnapshot)
	nextID     int
}

// NewShelfBoard provides a board where each configured shelf is empty.
func NewShelfBoard(names []ShelfName) *ShelfBoard {
	shelves := make(ShelfSnapshot, len(names))
	configured := make([]ShelfName, 0, len(names))
	for _, name := range names {
		if _, dup := shelves[name]; dup {
			continue
		}
		shelves[name] = []AggregatedEntry{}
		configured = append(configured, name)
	}
	return &ShelfBoard{
		configured: configured,
		shelves:    shelves,
		listeners:  make(map[int]func(ShelfSnapshot)),
	}
}

// Apply merges the snapshot into the board. Each shelf of the snapshot replaces
// the previous entries of that shelf, other shelves keep their entries.
// Listeners are called after the merge with a copy of the whole board.
func (b *ShelfBoard) Apply(snapshot ShelfSnapshot) {
	b.mu.Lock()
	for name, entries := range snapshot {
		b.shelves[name] = append(make([]AggregatedEntry, 0, len(entries)), entries...)
	}
	listeners := make([]func(ShelfSnapshot), 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	visible := b.shelves.Clone()
	b.mu.Unlock()

	for _, l := range listeners {
		l(visible)
	}
}

// Snapshot returns a copy of the visible state.
func (b *ShelfBoard) Snapshot() ShelfSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.shelves.Clone()
}

// Names lists the configured shelves first, in configuration
// order, then any other shelf received from the stream by name.
func (b *ShelfBoard) Names() []ShelfName {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.names()
}

func (b *ShelfBoard) names() []ShelfName {
	names := append([]ShelfName{}, b.configured...)
	known := make(map[ShelfName]struct{}, len(b.configured))
	for _, name := range b.configured {
		known[name] = struct{}{}
	}
	var extra []ShelfName
	for name := range b.shelves {
		if _, ok := known[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(names, extra...)
}

// Shelves returns every shelf in display order.
func (b *ShelfBoard) Shelves() []Shelf {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := b.names()
	shelves := make([]Shelf, 0, len(names))
	for _, name := range names {
		shelves = append(shelves, newShelf(name, b.shelves[name]))
	}
	return shelves
}

// Shelf returns a single shelf or ErrShelfNotFound.
func (b *ShelfBoard) Shelf(name ShelfName) (Shelf, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries, ok := b.shelves[name]
	if !ok {
		return Shelf{}, ErrShelfNotFound
	}
	return newShelf(name, entries), nil
}

// Subscribe registers a listener called after each Apply.
// The returned function removes the listener.
func (b *ShelfBoard) Subscribe(f func(ShelfSnapshot)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = f
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func newShelf(name ShelfName, entries []AggregatedEntry) Shelf {
	return Shelf{
		Name:    name,
		Entries: append(make([]AggregatedEntry, 0, len(entries)), entries...),
		Copies:  Copies(entries),
	}
}
