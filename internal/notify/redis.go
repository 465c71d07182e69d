package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"salesops-backend/internal/logging"
	"salesops-backend/internal/metrics"
)

// RedisNotifier publishes events on a Redis Pub/Sub channel. When Redis is
// unavailable (nil client or a failed publish) the event is delivered to
// this process's subscribers only.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	local   *Bus
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRedisNotifier(client *redis.Client, channel string, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: channel,
		local:   NewBus(),
		logger:  logging.OrNop(logger).Named("notify"),
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	metrics.SyncEventsPublished.Inc()
	if n.client == nil {
		return n.local.Publish(ctx, ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Warn("redis publish failed, delivering locally",
			zap.String("channel", n.channel), zap.Error(err))
		return n.local.Publish(ctx, ev)
	}
	return nil
}

// Subscribe registers h for local and Redis deliveries. The Redis
// subscription is opened on first use and shared by all handlers.
func (n *RedisNotifier) Subscribe(h Handler) func() {
	unsubscribe := n.local.Subscribe(h)
	if n.client != nil {
		n.ensureListening()
	}
	return unsubscribe
}

func (n *RedisNotifier) ensureListening() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	ps := n.client.Subscribe(ctx, n.channel)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer ps.Close()

		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					n.logger.Warn("dropping malformed sync event", zap.Error(err))
					continue
				}
				n.local.Publish(ctx, ev)
			}
		}
	}()
}

// Close stops the Redis listener.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	cancel := n.cancel
	n.cancel = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		n.wg.Wait()
	}
	return nil
}
