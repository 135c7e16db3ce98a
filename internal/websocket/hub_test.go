package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"devconnect/internal/changefeed"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		Hub:    hub,
		UserID: uuid.New(),
		Send:   make(chan []byte, 16),
	}
}

func waitForPayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func TestHubRoutesEventsToSubscribers(t *testing.T) {
	bus := changefeed.NewLocalBus()
	defer bus.Close()

	hub := NewHub(bus)
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register <- client
	hub.subscribe <- &subscription{client: client, channel: changefeed.MessagesChannel("conv1")}

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(changefeed.MessagesChannel("conv1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	err := bus.Publish(context.Background(), changefeed.Event{
		Channel:  changefeed.MessagesChannel("conv1"),
		Table:    "messages",
		Op:       changefeed.OpInsert,
		RecordID: "m1",
	})
	require.NoError(t, err)

	payload := waitForPayload(t, client)

	var event changefeed.Event
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "messages:conv1", event.Channel)
	assert.Equal(t, changefeed.OpInsert, event.Op)
	assert.Equal(t, "m1", event.RecordID)
}

func TestHubDoesNotRouteToOtherChannels(t *testing.T) {
	bus := changefeed.NewLocalBus()
	defer bus.Close()

	hub := NewHub(bus)
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register <- client
	hub.subscribe <- &subscription{client: client, channel: changefeed.MessagesChannel("conv1")}

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(changefeed.MessagesChannel("conv1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), changefeed.Event{
		Channel: changefeed.MessagesChannel("conv2"),
		Op:      changefeed.OpInsert,
	}))

	select {
	case <-client.Send:
		t.Fatal("client received event for a channel it never subscribed to")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	bus := changefeed.NewLocalBus()
	defer bus.Close()

	hub := NewHub(bus)
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	channel := changefeed.TypingChannel("conv1")

	hub.Register <- client
	hub.subscribe <- &subscription{client: client, channel: channel}

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(channel) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.unsubscribe <- &subscription{client: client, channel: channel}

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(channel) == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), changefeed.Event{Channel: channel}))

	select {
	case <-client.Send:
		t.Fatal("client received event after unsubscribing")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHubUnregisterSweepsChannelSubscriptions(t *testing.T) {
	bus := changefeed.NewLocalBus()
	defer bus.Close()

	hub := NewHub(bus)
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	channel := changefeed.PostsChannel("all")

	hub.Register <- client
	hub.subscribe <- &subscription{client: client, channel: channel}

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(channel) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Unregister <- client

	require.Eventually(t, func() bool {
		return hub.SubscriberCount(channel) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubSendDirectMessage(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Stop()
	go hub.Run()

	client := newTestClient(hub)
	hub.Register <- client

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.Clients[client.UserID]) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.SendDirectMessage(client.UserID, []byte("hello"))

	assert.Equal(t, []byte("hello"), waitForPayload(t, client))
}
