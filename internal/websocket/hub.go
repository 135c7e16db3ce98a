package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"devconnect/internal/changefeed"

	"github.com/google/uuid"
)

// MessageToSend defines the structure for sending a message to a specific user.
type MessageToSend struct {
	TargetUserID uuid.UUID
	Payload      []byte
}

// subscription pairs a client with a changefeed channel name.
type subscription struct {
	client  *Client
	channel string
}

// Hub maintains the set of active clients, their channel subscriptions and
// routes change events to the clients that asked for them.
type Hub struct {
	// Registered clients. Maps user ID to a set of active client connections.
	Clients map[uuid.UUID]map[*Client]bool

	// Channel subscriptions. Maps changefeed channel name to subscribed clients.
	channels map[string]map[*Client]bool

	// Channel for sending messages to specific users.
	SendDirect chan *MessageToSend

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Subscribe/unsubscribe requests parsed from client frames.
	subscribe   chan *subscription
	unsubscribe chan *subscription

	// Change events arriving from the bus.
	events chan changefeed.Event

	unsubscribeBus func()

	// Mutex to protect concurrent access to the clients map.
	mu sync.RWMutex
}

// NewHub creates a hub wired to the given changefeed bus.
func NewHub(bus changefeed.Bus) *Hub {
	h := &Hub{
		Clients:     make(map[uuid.UUID]map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		SendDirect:  make(chan *MessageToSend),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		subscribe:   make(chan *subscription),
		unsubscribe: make(chan *subscription),
		events:      make(chan changefeed.Event, 256),
	}

	if bus != nil {
		h.unsubscribeBus = bus.Subscribe(func(event changefeed.Event) {
			select {
			case h.events <- event:
			default:
				log.Printf("Hub event buffer full, dropping event on channel %s", event.Channel)
			}
		})
	}

	return h
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			log.Printf("WebSocket Client registered for User %s. Total connections for user: %d", client.UserID, len(h.Clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
						log.Printf("WebSocket Client unregistered. User %s has no more connections.", client.UserID)
					} else {
						log.Printf("WebSocket Client unregistered for User %s. Remaining connections: %d", client.UserID, len(userClients))
					}
				}
			}
			// Drop the client from every channel it was subscribed to.
			for channel, subscribers := range h.channels {
				if subscribers[client] {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.channels, channel)
					}
				}
			}
			h.mu.Unlock()

		case sub := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.channels[sub.channel]; !ok {
				h.channels[sub.channel] = make(map[*Client]bool)
			}
			h.channels[sub.channel][sub.client] = true
			log.Printf("User %s subscribed to channel %s", sub.client.UserID, sub.channel)
			h.mu.Unlock()

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.channels[sub.channel]; ok {
				delete(subscribers, sub.client)
				if len(subscribers) == 0 {
					delete(h.channels, sub.channel)
				}
			}
			h.mu.Unlock()

		case event := <-h.events:
			h.routeEvent(event)

		case directMessage := <-h.SendDirect:
			h.mu.RLock()
			if userClients, ok := h.Clients[directMessage.TargetUserID]; ok {
				for client := range userClients {
					select {
					case client.Send <- directMessage.Payload:
					default:
						log.Printf("Send channel full for client of User %s. Message dropped for this client.", client.UserID)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// routeEvent delivers a change event to every client subscribed to its channel.
func (h *Hub) routeEvent(event changefeed.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal change event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers, ok := h.channels[event.Channel]
	if !ok {
		return
	}
	for client := range subscribers {
		select {
		case client.Send <- payload:
		default:
			log.Printf("Send channel full for client of User %s. Event dropped for this client.", client.UserID)
		}
	}
}

// SubscriberCount reports how many clients are listening on a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// SendDirectMessage allows other parts of the application (like actors) to
// push a payload to all connections of one user.
func (h *Hub) SendDirectMessage(targetUserID uuid.UUID, payload []byte) {
	message := &MessageToSend{
		TargetUserID: targetUserID,
		Payload:      payload,
	}
	select {
	case h.SendDirect <- message:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing message in hub's SendDirect channel for User %s. Hub might be busy or blocked.", targetUserID)
	}
}

// Stop detaches the hub from the changefeed bus.
func (h *Hub) Stop() {
	if h.unsubscribeBus != nil {
		h.unsubscribeBus()
	}
}
