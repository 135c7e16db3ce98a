// internal/changefeed/redis.go
package changefeed

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisChannel is the single Redis pub/sub channel all change events flow
// through. Routing to per-scope channels happens on the subscriber side.
const redisChannel = "devconnect:changefeed"

// RedisBus fans change events out across server replicas using Redis pub/sub.
type RedisBus struct {
	client *redis.Client
	pubsub *redis.PubSub

	mu       sync.RWMutex
	handlers map[int]func(Event)
	nextID   int

	cancel context.CancelFunc
}

// NewRedisBus connects to Redis and starts the subscriber loop.
func NewRedisBus(redisURL string) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to Redis!")

	loopCtx, loopCancel := context.WithCancel(context.Background())
	bus := &RedisBus{
		client:   client,
		pubsub:   client.Subscribe(loopCtx, redisChannel),
		handlers: make(map[int]func(Event)),
		cancel:   loopCancel,
	}

	go bus.receiveLoop(loopCtx)

	return bus, nil
}

func (b *RedisBus) receiveLoop(ctx context.Context) {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("Changefeed: dropping malformed event: %v", err)
				continue
			}

			b.mu.RLock()
			handlers := make([]func(Event), 0, len(b.handlers))
			for _, handler := range b.handlers {
				handlers = append(handlers, handler)
			}
			b.mu.RUnlock()

			for _, handler := range handlers {
				handler(event)
			}
		}
	}
}

// Publish marshals the event and sends it through Redis. Every replica,
// including this one, receives it via the subscriber loop.
func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, redisChannel, payload).Err()
}

// Subscribe registers a handler and returns a function that removes it.
func (b *RedisBus) Subscribe(handler func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Close stops the subscriber loop and closes the Redis connection.
func (b *RedisBus) Close() error {
	b.cancel()
	if err := b.pubsub.Close(); err != nil {
		return err
	}
	return b.client.Close()
}
