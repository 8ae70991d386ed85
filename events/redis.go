package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisPublisher publishes events as JSON to one pub/sub channel so that
// every server instance sees every write.
type RedisPublisher struct {
	client  *redis.Client
	channel string

	// Run waits between failed subscriptions, doubling from minBackoff up
	// to maxBackoff.
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:     client,
		channel:    channel,
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e.Message())
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.channel, err)
	}
	return nil
}

// Listen forwards every event on the channel to sink until ctx is done.
func (p *RedisPublisher) Listen(ctx context.Context, sink Publisher) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}
	log.Printf("[EventListener] Listening for events on %q", p.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			e, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Printf("[EventListener] Failed to parse event: %v", err)
				continue
			}
			if err := sink.Publish(ctx, e); err != nil {
				log.Printf("[EventListener] deliver %s: %v", e.Type, err)
			}
		}
	}
}

// Run keeps Listen alive until ctx is done, resubscribing after every
// failure so a Redis outage at startup or later only pauses delivery.
func (p *RedisPublisher) Run(ctx context.Context, sink Publisher) {
	backoff := p.minBackoff
	for {
		err := p.Listen(ctx, sink)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// the subscription worked before it closed; start over quickly
			backoff = p.minBackoff
		} else {
			log.Printf("[EventListener] %v; retrying in %s", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if err != nil {
			backoff *= 2
			if backoff > p.maxBackoff {
				backoff = p.maxBackoff
			}
		}
	}
}

// Decode turns a published message back into an event. The payload is kept
// as raw JSON.
func Decode(data []byte) (Event, error) {
	var m struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
		Time    int64           `json:"time"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Event{}, err
	}
	if m.Type == "" {
		return Event{}, fmt.Errorf("event without type")
	}
	e := Event{Type: Type(m.Type), At: time.Unix(m.Time, 0).UTC()}
	if len(m.Payload) > 0 {
		e.Payload = m.Payload
	}
	return e, nil
}
