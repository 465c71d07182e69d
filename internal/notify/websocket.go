package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"salesops-backend/internal/logging"
)

// WSSubscriber receives events from the server's websocket stream.
type WSSubscriber struct {
	url    string
	local  *Bus
	logger *zap.Logger
}

func NewWSSubscriber(url string, logger *zap.Logger) *WSSubscriber {
	return &WSSubscriber{
		url:    url,
		local:  NewBus(),
		logger: logging.OrNop(logger).Named("ws"),
	}
}

func (s *WSSubscriber) Subscribe(h Handler) func() {
	return s.local.Subscribe(h)
}

// Run connects and dispatches events until ctx is done or the connection
// drops. A cancelled context is not an error.
func (s *WSSubscriber) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Warn("dropping malformed sync event", zap.Error(err))
			continue
		}
		s.logger.Debug("event received", zap.String("type", ev.Type), zap.String("key", ev.Key))
		s.local.Publish(ctx, ev)
	}
}
