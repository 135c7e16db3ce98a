package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a direct or group message thread.
type Conversation struct {
	ID           uuid.UUID                  `json:"id" db:"id"`
	Type         ConversationType           `json:"type" db:"type"`
	Name         string                     `json:"name" db:"name"`
	Description  string                     `json:"description" db:"description"`
	IsPrivate    bool                       `json:"isPrivate" db:"is_private"`
	CreatedBy    uuid.UUID                  `json:"createdBy" db:"created_by"`
	CreatedAt    time.Time                  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time                  `json:"updatedAt" db:"updated_at"`
	Participants []*ConversationParticipant `json:"participants,omitempty" db:"-"`
	LastMessage  *Message                   `json:"lastMessage,omitempty" db:"-"`
	UnreadCount  int                        `json:"unreadCount" db:"unread_count"`
}

// ConversationParticipant is a user's membership in a conversation.
type ConversationParticipant struct {
	ConversationID uuid.UUID       `json:"conversationId" db:"conversation_id"`
	UserID         uuid.UUID       `json:"userId" db:"user_id"`
	Role           ParticipantRole `json:"role" db:"role"`
	JoinedAt       time.Time       `json:"joinedAt" db:"joined_at"`
	LastReadAt     *time.Time      `json:"lastReadAt,omitempty" db:"last_read_at"`
	User           *UserSnippet    `json:"user,omitempty" db:"-"`
}
