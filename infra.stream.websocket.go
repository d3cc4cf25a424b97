package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var _ StreamReceiver = (*websocketReceiver)(nil)

// websocketReceiver reads shelf messages from a websocket endpoint. The shelf
// server is a SockJS server, its raw websocket transport lives under
// `<prefix>/websocket` and carries unframed text messages.
type websocketReceiver struct {
	logger *zap.Logger
	config *StreamConfig
	dialer *websocket.Dialer
}

// NewWebsocketReceiver provides a receive-only websocket client.
func NewWebsocketReceiver(logger *zap.Logger, config *StreamConfig) StreamReceiver {
	return &websocketReceiver{
		logger: logger,
		config: config,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   4096,
		},
	}
}

func (wr *websocketReceiver) Kind() string {
	return StreamKindWebsocket
}

// Receive dials the endpoint then reads messages until the connection
// is closed. The context cancellation closes the connection.
func (wr *websocketReceiver) Receive(ctx context.Context, h StreamHandler) error {
	url := wr.config.URL
	conn, resp, err := wr.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("websocket: failed to dial %s: %w", url, err)
	}
	defer conn.Close()

	if wr.config.ReadLimit > 0 {
		conn.SetReadLimit(wr.config.ReadLimit)
	}
	h.Connected(wr.Kind(), url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
				wr.logger.Debug("websocket: failed to send close frame", zap.Error(err))
			}
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Disconnected(wr.Kind(), url, nil)
			} else {
				h.Disconnected(wr.Kind(), url, err)
			}
			return nil
		}
		h.HandlePayload(ctx, payload)
	}
}
