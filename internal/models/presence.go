package models

import (
	"time"

	"github.com/google/uuid"
)

// UserPresence is a user's live connection state. Stored in the ephemeral
// store with a TTL so stale entries expire on their own.
type UserPresence struct {
	UserID   uuid.UUID      `json:"userId" bson:"user_id"`
	Status   PresenceStatus `json:"status" bson:"status"`
	LastSeen time.Time      `json:"lastSeen" bson:"last_seen"`
}

// TypingIndicator marks a user as typing in a conversation. Entries expire a
// few seconds after the last keystroke.
type TypingIndicator struct {
	ConversationID uuid.UUID `json:"conversationId" bson:"conversation_id"`
	UserID         uuid.UUID `json:"userId" bson:"user_id"`
	Username       string    `json:"username" bson:"username"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}
