package main

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This file contains unit tests for the shelf messages parsing and aggregation.

func TestAggregate(t *testing.T) {
	x := BookRecord{Barcode: "A1", ProductName: "Sách X", Author: "Nguyễn"}
	y := BookRecord{Barcode: "A2", ProductName: "Sách Y", Author: "Trần"}
	z := BookRecord{Barcode: "A3", ProductName: "Sách Z", Author: "Lê"}

	testCases := []struct {
		name     string
		input    map[ShelfName][]BookRecord
		expected ShelfSnapshot
	}{
		{
			"duplicates are counted in first seen order",
			map[ShelfName][]BookRecord{"Shelf 1": {x, y, x}},
			ShelfSnapshot{"Shelf 1": {{BookRecord: x, Quantity: 2}, {BookRecord: y, Quantity: 1}}},
		},
		{
			"distinct barcodes have one copy each",
			map[ShelfName][]BookRecord{"Shelf 1": {z, y, x}},
			ShelfSnapshot{"Shelf 1": {{BookRecord: z, Quantity: 1}, {BookRecord: y, Quantity: 1}, {BookRecord: x, Quantity: 1}}},
		},
		{
			"shelves are grouped independently",
			map[ShelfName][]BookRecord{"Shelf 1": {x, x}, "Shelf 2": {x, y, y, y}},
			ShelfSnapshot{
				"Shelf 1": {{BookRecord: x, Quantity: 2}},
				"Shelf 2": {{BookRecord: x, Quantity: 1}, {BookRecord: y, Quantity: 3}},
			},
		},
		{
			"empty shelf stays present",
			map[ShelfName][]BookRecord{"Shelf 3": {}},
			ShelfSnapshot{"Shelf 3": {}},
		},
		{
			"first occurrence fields are kept",
			map[ShelfName][]BookRecord{"Shelf 1": {x, {Barcode: "A1", ProductName: "other", Author: "other"}}},
			ShelfSnapshot{"Shelf 1": {{BookRecord: x, Quantity: 2}}},
		},
		{
			"books without barcode share one entry",
			map[ShelfName][]BookRecord{"Shelf 1": {{ProductName: "a"}, x, {ProductName: "b"}}},
			ShelfSnapshot{"Shelf 1": {{BookRecord: BookRecord{ProductName: "a"}, Quantity: 2}, {BookRecord: x, Quantity: 1}}},
		},
		{
			"no shelves",
			map[ShelfName][]BookRecord{},
			ShelfSnapshot{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Aggregate(tc.input)
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestAggregateCounts checks every output quantity against the input counts.
func TestAggregateCounts(t *testing.T) {
	books := []BookRecord{}
	codes := []string{"b", "a", "c", "a", "b", "a", "d", "", "c", ""}
	for _, code := range codes {
		books = append(books, BookRecord{Barcode: code})
	}
	entries := Aggregate(map[ShelfName][]BookRecord{"Shelf 1": books})["Shelf 1"]

	expected := map[string]int{}
	for _, code := range codes {
		expected[code]++
	}
	seen := map[string]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.Barcode], "barcode %q listed twice", e.Barcode)
		seen[e.Barcode] = true
		assert.Equal(t, expected[e.Barcode], e.Quantity, "barcode %q", e.Barcode)
	}
	assert.Equal(t, len(expected), len(entries))
	assert.Equal(t, len(codes), Copies(entries))
	assert.Equal(t, []string{"b", "a", "c", "d", ""}, []string{entries[0].Barcode, entries[1].Barcode, entries[2].Barcode, entries[3].Barcode, entries[4].Barcode})
}

func TestAggregateDoesNotChangeInput(t *testing.T) {
	input := map[ShelfName][]BookRecord{"Shelf 1": {{Barcode: "A1"}, {Barcode: "A1"}}}
	_ = Aggregate(input)
	assert.Equal(t, map[ShelfName][]BookRecord{"Shelf 1": {{Barcode: "A1"}, {Barcode: "A1"}}}, input)
}

func TestSnapshotClone(t *testing.T) {
	s := ShelfSnapshot{"Shelf 1": {{BookRecord: BookRecord{Barcode: "A1"}, Quantity: 1}}}
	c := s.Clone()
	c["Shelf 1"][0].Quantity = 5
	c["Shelf 2"] = nil
	assert.Equal(t, 1, s["Shelf 1"][0].Quantity)
	assert.Len(t, s, 1)
}

func TestParseMessage(t *testing.T) {
	testCases := []struct {
		name       string
		payload    string
		recognized bool
		shelves    map[ShelfName][]BookRecord
		reason     string
	}{
		{
			name:       "shelf data message",
			payload:    `{"type":"CUSTOM_SHELF_DATA","data":{"Shelf 1":[{"barcode":"A1","productName":"Sách X","author":"Nguyễn","rssi":-40}],"Shelf 2":[]}}`,
			recognized: true,
			shelves: map[ShelfName][]BookRecord{
				"Shelf 1": {{Barcode: "A1", ProductName: "Sách X", Author: "Nguyễn"}},
				"Shelf 2": {},
			},
		},
		{
			name:       "missing fields are passed through",
			payload:    `{"type":"CUSTOM_SHELF_DATA","data":{"Shelf 1":[{"productName":"Sách X"}]}}`,
			recognized: true,
			shelves:    map[ShelfName][]BookRecord{"Shelf 1": {{ProductName: "Sách X"}}},
		},
		{
			name:       "null data",
			payload:    `{"type":"CUSTOM_SHELF_DATA","data":null}`,
			recognized: true,
			shelves:    map[ShelfName][]BookRecord{},
		},
		{
			name:       "no data",
			payload:    `{"type":"CUSTOM_SHELF_DATA"}`,
			recognized: true,
			shelves:    map[ShelfName][]BookRecord{},
		},
		{
			name:    "other message type",
			payload: `{"type":"OTHER","data":{"Shelf 1":[]}}`,
		},
		{
			name:    "other message type with any data",
			payload: `{"type":"PING","data":"whatever"}`,
		},
		{
			name:    "invalid json",
			payload: `{"type":"CUSTOM_SHELF_DATA",`,
			reason:  "malformed payload",
		},
		{
			name:    "empty payload",
			payload: ``,
			reason:  "malformed payload",
		},
		{name: "string payload", payload: `"hello"`},
		{name: "list payload", payload: `[1,2]`},
		{name: "number payload", payload: `42`},
		{name: "null payload", payload: `null`},
		{name: "no type", payload: `{"data":{"Shelf 1":[]}}`},
		{name: "null type", payload: `{"type":null}`},
		{name: "number type", payload: `{"type":5}`},
		{name: "list type", payload: `{"type":["CUSTOM_SHELF_DATA"]}`},
		{
			name:    "shelf without book list",
			payload: `{"type":"CUSTOM_SHELF_DATA","data":{"Shelf 1":null,"Shelf 2":[]}}`,
			reason:  "malformed shelves data",
		},
		{
			name:    "shelves data is a list",
			payload: `{"type":"CUSTOM_SHELF_DATA","data":[1,2]}`,
			reason:  "malformed shelves data",
		},
		{
			name:    "books are not a list",
			payload: `{"type":"CUSTOM_SHELF_DATA","data":{"Shelf 1":"A1"}}`,
			reason:  "malformed shelves data",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tc.payload))
			if tc.reason != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParseMessage))
				var perr *ParseError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, tc.reason, perr.Reason)
				assert.False(t, msg.Recognized())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.recognized, msg.Recognized())
			if tc.recognized {
				assert.Equal(t, tc.shelves, msg.Shelves)
			} else {
				assert.Nil(t, msg.Shelves)
			}
		})
	}
}
