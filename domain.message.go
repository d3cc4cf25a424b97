package main

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ShelfDataMessageType is the only message type consumed from the stream.
const ShelfDataMessageType = "CUSTOM_SHELF_DATA"

// ErrParseMessage is matched by every error returned from ParseMessage.
var ErrParseMessage = errors.New("invalid shelf message")

// ParseError reports a payload which could not be decoded.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse message: %s: %v", e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParseMessage) true for any *ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseMessage
}

// ParsedMessage is a decoded stream payload.
type ParsedMessage struct {
	Type    string
	Shelves map[ShelfName][]BookRecord
}

// Recognized tells whether the message carries shelf data.
func (m ParsedMessage) Recognized() bool {
	return m.Type == ShelfDataMessageType
}

// ParseMessage decodes a raw payload. Only invalid JSON is an error: any
// well-formed payload which is not an object with the shelf data type as its
// string `type` field is returned as not recognized. The `data` field of a
// recognized message must map shelf names to lists of book records.
func ParseMessage(payload []byte) (ParsedMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return ParsedMessage{}, &ParseError{Reason: "malformed payload", Err: err}
		}
		// valid json but not an object.
		return ParsedMessage{}, nil
	}

	var msg ParsedMessage
	if err := json.Unmarshal(fields["type"], &msg.Type); err != nil {
		return ParsedMessage{}, nil
	}
	if !msg.Recognized() {
		return msg, nil
	}

	shelves := map[ShelfName][]BookRecord{}
	if data := fields["data"]; len(data) != 0 {
		if err := json.Unmarshal(data, &shelves); err != nil {
			return ParsedMessage{}, &ParseError{Reason: "malformed shelves data", Err: err}
		}
	}
	for name, books := range shelves {
		if books == nil {
			return ParsedMessage{}, &ParseError{Reason: "malformed shelves data", Err: fmt.Errorf("shelf %q has no book list", name)}
		}
	}
	// json decodes `null` into a nil map.
	if shelves == nil {
		shelves = map[ShelfName][]BookRecord{}
	}
	msg.Shelves = shelves
	return msg, nil
}
