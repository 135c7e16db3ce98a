package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single entry in a conversation. Soft-deleted messages stay in
// the table but are excluded from reads.
type Message struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	ConversationID uuid.UUID          `json:"conversationId" db:"conversation_id"`
	SenderID       uuid.UUID          `json:"senderId" db:"sender_id"`
	Content        string             `json:"content" db:"content"`
	Type           MessageType        `json:"type" db:"type"`
	FileURL        string             `json:"fileUrl" db:"file_url"`
	FileName       string             `json:"fileName" db:"file_name"`
	ReplyToID      *uuid.UUID         `json:"replyToId,omitempty" db:"reply_to_id"`
	IsEdited       bool               `json:"isEdited" db:"is_edited"`
	IsDeleted      bool               `json:"isDeleted" db:"is_deleted"`
	Sender         *UserSnippet       `json:"sender,omitempty" db:"-"`
	ReplyTo        *Message           `json:"replyTo,omitempty" db:"-"`
	Reactions      []*MessageReaction `json:"reactions,omitempty" db:"-"`
	CreatedAt      time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time          `json:"updatedAt" db:"updated_at"`
}

// MessageReaction is one user's emoji reaction on a message. A user can add
// each emoji at most once per message.
type MessageReaction struct {
	ID        uuid.UUID `json:"id" db:"id"`
	MessageID uuid.UUID `json:"messageId" db:"message_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Emoji     string    `json:"emoji" db:"emoji"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
