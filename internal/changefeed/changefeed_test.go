package changefeed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBusDeliversToSubscribers(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	var received []Event
	unsubscribe := bus.Subscribe(func(e Event) {
		received = append(received, e)
	})
	defer unsubscribe()

	err := bus.Publish(context.Background(), Event{
		Channel:  MessagesChannel("abc"),
		Table:    "messages",
		Op:       OpInsert,
		RecordID: "m1",
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, "messages:abc", received[0].Channel)
	assert.Equal(t, OpInsert, received[0].Op)
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestLocalBusPreservesOrder(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	var ops []Op
	bus.Subscribe(func(e Event) {
		ops = append(ops, e.Op)
	})

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Channel: "c", Op: OpInsert}))
	require.NoError(t, bus.Publish(ctx, Event{Channel: "c", Op: OpUpdate}))
	require.NoError(t, bus.Publish(ctx, Event{Channel: "c", Op: OpDelete}))

	assert.Equal(t, []Op{OpInsert, OpUpdate, OpDelete}, ops)
}

func TestLocalBusUnsubscribe(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	count := 0
	unsubscribe := bus.Subscribe(func(e Event) {
		count++
	})

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Channel: "c"}))
	unsubscribe()
	require.NoError(t, bus.Publish(ctx, Event{Channel: "c"}))

	assert.Equal(t, 1, count)
}

func TestLocalBusMultipleSubscribers(t *testing.T) {
	bus := NewLocalBus()
	defer bus.Close()

	first, second := 0, 0
	bus.Subscribe(func(e Event) { first++ })
	bus.Subscribe(func(e Event) { second++ })

	require.NoError(t, bus.Publish(context.Background(), Event{Channel: "c"}))

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "messages:id1", MessagesChannel("id1"))
	assert.Equal(t, "typing:id2", TypingChannel("id2"))
	assert.Equal(t, "posts:id3", PostsChannel("id3"))
	assert.Equal(t, "comments:id4", CommentsChannel("id4"))
	assert.Equal(t, "conversations:id5", ConversationsChannel("id5"))
	assert.Equal(t, "user-presence", ChannelPresence)
}
