package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ StreamHandler = (*ShelfService)(nil) // ensure ShelfService implements StreamHandler.

type ShelfServiceProvider interface {
	StreamHandler
	Shelves() []Shelf
	Shelf(name ShelfName) (Shelf, error)
	Snapshot() ShelfSnapshot
	Subscribe(f func(ShelfSnapshot)) func()
	Stats() StreamStats
}

// StreamStats describes the stream connection and its messages.
type StreamStats struct {
	Kind           string    `json:"kind"`
	Source         string    `json:"source"`
	Connected      bool      `json:"connected"`
	ConnectedAt    time.Time `json:"connected_at"`
	DisconnectedAt time.Time `json:"disconnected_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
	Received       uint64    `json:"received"`
	Aggregated     uint64    `json:"aggregated"`
	Ignored        uint64    `json:"ignored"`
	Failed         uint64    `json:"failed"`
}

// ShelfService turns stream payloads into visible shelf snapshots.
type ShelfService struct {
	logger  *zap.Logger
	clock   Clocker
	board   *ShelfBoard
	display *DisplayBuffer
	metrics *Metrics

	mu    sync.Mutex
	stats StreamStats
}

func NewShelfService(logger *zap.Logger, clock Clocker, board *ShelfBoard, display *DisplayBuffer, metrics *Metrics) *ShelfService {
	return &ShelfService{
		logger:  logger,
		clock:   clock,
		board:   board,
		display: display,
		metrics: metrics,
	}
}

// HandlePayload parses the payload and, for shelf data messages, aggregates
// the books and offers the result to the display buffer. Invalid payloads are
// logged and dropped so the visible state is left as it was.
func (ss *ShelfService) HandlePayload(_ context.Context, payload []byte) {
	ss.mu.Lock()
	ss.stats.Received++
	ss.stats.LastMessageAt = ss.clock.Now()
	ss.mu.Unlock()

	msg, err := ParseMessage(payload)
	if err != nil {
		ss.logger.Error("service: failed to parse stream message", zap.Int("message.size", len(payload)), zap.Error(err))
		ss.count(OutcomeFailed)
		return
	}

	if !msg.Recognized() {
		ss.logger.Debug("service: ignored stream message", zap.String("message.type", msg.Type))
		ss.count(OutcomeIgnored)
		return
	}

	snapshot := Aggregate(msg.Shelves)
	for name, books := range msg.Shelves {
		missing := 0
		for _, book := range books {
			if book.Barcode == "" {
				missing++
			}
		}
		if missing > 0 {
			ss.logger.Debug("service: books without barcode grouped together", zap.String("shelf.name", string(name)), zap.Int("books.count", missing))
		}
	}
	ss.logger.Debug("service: shelf data received", zap.Int("shelves.count", len(snapshot)), zap.Any("shelves", snapshot))
	ss.display.Offer(snapshot)
	ss.count(OutcomeAggregated)
}

func (ss *ShelfService) count(outcome string) {
	ss.mu.Lock()
	switch outcome {
	case OutcomeAggregated:
		ss.stats.Aggregated++
	case OutcomeIgnored:
		ss.stats.Ignored++
	case OutcomeFailed:
		ss.stats.Failed++
	}
	ss.mu.Unlock()
	if ss.metrics != nil {
		ss.metrics.StreamMessagesTotal.WithLabelValues(outcome).Inc()
	}
}

// Connected records the opening of the stream connection.
func (ss *ShelfService) Connected(kind, source string) {
	ss.mu.Lock()
	ss.stats.Kind = kind
	ss.stats.Source = source
	ss.stats.Connected = true
	ss.stats.ConnectedAt = ss.clock.Now()
	ss.mu.Unlock()
	if ss.metrics != nil {
		ss.metrics.StreamConnected.Set(1)
	}
	ss.logger.Info("stream connected", zap.String("stream.kind", kind), zap.String("stream.source", source))
}

// Disconnected records the end of the stream connection.
func (ss *ShelfService) Disconnected(kind, source string, err error) {
	ss.mu.Lock()
	ss.stats.Connected = false
	ss.stats.DisconnectedAt = ss.clock.Now()
	ss.mu.Unlock()
	if ss.metrics != nil {
		ss.metrics.StreamConnected.Set(0)
	}
	ss.logger.Info("stream disconnected", zap.String("stream.kind", kind), zap.String("stream.source", source), zap.Error(err))
}

func (ss *ShelfService) Shelves() []Shelf {
	return ss.board.Shelves()
}

func (ss *ShelfService) Shelf(name ShelfName) (Shelf, error) {
	return ss.board.Shelf(name)
}

func (ss *ShelfService) Snapshot() ShelfSnapshot {
	return ss.board.Snapshot()
}

func (ss *ShelfService) Subscribe(f func(ShelfSnapshot)) func() {
	return ss.board.Subscribe(f)
}

// Stats returns a copy of the stream statistics.
func (ss *ShelfService) Stats() StreamStats {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.stats
}
