package handlers

import (
	"log"
	"net/http"

	"devconnect/internal/engine/actors"
	"devconnect/internal/middleware"
	"devconnect/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: check the Origin header against config.Server.AllowedOrigins
		return true
	},
}

// HandleWebSocket upgrades the connection and attaches the client to the hub.
// The token travels in the query string because browsers cannot set headers
// on websocket upgrades.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			log.Println("WebSocket connection failed: Missing token")
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			log.Printf("WebSocket connection failed: Invalid token: %v", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		userID := claims.UserID
		if userID == uuid.Nil {
			log.Println("WebSocket connection failed: Nil userID in token claims")
			http.Error(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for User %s: %v", userID, err)
			return
		}
		log.Printf("WebSocket connection upgraded for User %s", userID)

		client := &websocket.Client{
			Hub:    s.Hub,
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		client.Hub.Register <- client
		s.Context.Send(s.Engine.GetUserSupervisor(), &actors.ConnectUserMsg{UserID: userID})

		go client.WritePump()
		go func() {
			// ReadPump returns when the connection dies; that is the
			// moment the user goes offline.
			client.ReadPump()
			s.Context.Send(s.Engine.GetUserSupervisor(), &actors.DisconnectUserMsg{UserID: userID})
		}()
	}
}
