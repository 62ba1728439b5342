package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Default websocket configuration.
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadTimeout      = 30 * time.Second
)

// WSSource collects transaction records from a live websocket feed. The feed
// pushes one JSON record per message; the source accumulates until the server
// closes the stream or maxRecords is reached, then hands the batch to the
// pipeline like any other source.
type WSSource struct {
	endpoint         string
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	maxRecords       int
}

// WSOption configures WSSource.
type WSOption func(*WSSource)

// WithHandshakeTimeout sets the dial handshake timeout.
func WithHandshakeTimeout(d time.Duration) WSOption {
	return func(s *WSSource) {
		s.handshakeTimeout = d
	}
}

// WithReadTimeout sets the per-message read deadline.
func WithReadTimeout(d time.Duration) WSOption {
	return func(s *WSSource) {
		s.readTimeout = d
	}
}

// WithMaxRecords caps the number of records collected before the source
// closes the stream itself. Zero means no cap.
func WithMaxRecords(n int) WSOption {
	return func(s *WSSource) {
		s.maxRecords = n
	}
}

// NewWSSource creates a source reading from the given websocket endpoint.
func NewWSSource(endpoint string, opts ...WSOption) *WSSource {
	s := &WSSource{
		endpoint:         endpoint,
		handshakeTimeout: DefaultHandshakeTimeout,
		readTimeout:      DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements TransactionSource. A normal close from the server ends the
// stream cleanly; any other read failure is an error.
func (s *WSSource) Fetch(ctx context.Context) ([]map[string]any, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.endpoint, err)
	}
	defer conn.Close()

	// Tear the connection down when ctx is canceled so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var records []map[string]any
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}

		var record map[string]any
		if err := conn.ReadJSON(&record); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return records, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, fmt.Errorf("read timeout after %d records", len(records))
			}
			return nil, fmt.Errorf("read record: %w", err)
		}

		records = append(records, record)

		if s.maxRecords > 0 && len(records) >= s.maxRecords {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteMessage(websocket.CloseMessage, msg)
			return records, nil
		}
	}
}
