package main

// ShelfName identifies a shelf of the cabinet.
type ShelfName string

// BookRecord represents a single book copy as reported by the shelf reader.
type BookRecord struct {
	Barcode     string `json:"barcode"`
	ProductName string `json:"productName"`
	Author      string `json:"author"`
}

// AggregatedEntry is one distinct barcode of a shelf with the
// number of copies seen in the latest message.
type AggregatedEntry struct {
	BookRecord
	Quantity int `json:"quantity"`
}

// ShelfSnapshot maps each shelf to its aggregated entries. Entries
// are kept in the first-seen order of their barcode.
type ShelfSnapshot map[ShelfName][]AggregatedEntry

// DefaultShelves is used when the configuration does not list any shelf.
var DefaultShelves = []ShelfName{"Shelf 1", "Shelf 2", "Shelf 3", "Shelf 4"}

// Aggregate groups the books of each shelf by barcode. Only the shelves
// present in the input are returned and each one is processed on its own.
// Records are never validated: a missing barcode is the empty string and
// all such records end up in the same entry.
func Aggregate(input map[ShelfName][]BookRecord) ShelfSnapshot {
	snapshot := make(ShelfSnapshot, len(input))
	for name, books := range input {
		snapshot[name] = aggregateShelf(books)
	}
	return snapshot
}

func aggregateShelf(books []BookRecord) []AggregatedEntry {
	entries := make([]AggregatedEntry, 0, len(books))
	positions := make(map[string]int, len(books))
	for _, book := range books {
		if i, found := positions[book.Barcode]; found {
			entries[i].Quantity++
			continue
		}
		positions[book.Barcode] = len(entries)
		entries = append(entries, AggregatedEntry{BookRecord: book, Quantity: 1})
	}
	return entries
}

// Copies returns the total number of book copies on the shelf entries.
func Copies(entries []AggregatedEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total
}

// Clone returns a deep copy of the snapshot.
func (s ShelfSnapshot) Clone() ShelfSnapshot {
	c := make(ShelfSnapshot, len(s))
	for name, entries := range s {
		c[name] = append(make([]AggregatedEntry, 0, len(entries)), entries...)
	}
	return c
}
