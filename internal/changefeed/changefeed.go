// internal/changefeed/changefeed.go
package changefeed

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Op is the kind of change that happened to a row.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Channel names follow the pattern "{topic}:{scope}", for example
// "messages:3f2a..." for one conversation or "user-presence" globally.
const (
	ChannelPresence = "user-presence"
)

func MessagesChannel(conversationID string) string {
	return "messages:" + conversationID
}

func TypingChannel(conversationID string) string {
	return "typing:" + conversationID
}

// ConversationsChannel carries per-user invalidations of the conversation
// list, for example when a new message bumps a thread.
func ConversationsChannel(userID string) string {
	return "conversations:" + userID
}

func PostsChannel(communityID string) string {
	return "posts:" + communityID
}

func CommentsChannel(postID string) string {
	return "comments:" + postID
}

// Event tells subscribers that a row changed. Clients treat it as an
// invalidation signal and refetch, so Payload is optional.
type Event struct {
	Channel   string          `json:"channel"`
	Table     string          `json:"table"`
	Op        Op              `json:"op"`
	RecordID  string          `json:"recordId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Bus fans change events out to subscribers. The local implementation covers
// a single process, the Redis one spans replicas.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(handler func(Event)) (unsubscribe func())
	Close() error
}

// LocalBus delivers events to in-process subscribers.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[int]func(Event)
	nextID   int
	closed   bool
}

// NewLocalBus creates an in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{
		handlers: make(map[int]func(Event)),
	}
}

// Publish delivers the event to every subscriber synchronously so tests can
// observe ordering.
func (b *LocalBus) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
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
	return nil
}

// Subscribe registers a handler and returns a function that removes it.
func (b *LocalBus) Subscribe(handler func(Event)) func() {
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

// Close drops all subscribers.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.handlers = make(map[int]func(Event))
	b.closed = true
	b.mu.Unlock()
	return nil
}
