package models

// StatusResponse is a generic success/failure payload returned by actors.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UserSnippet is the denormalized slice of a user embedded in participants,
// message senders and reactions.
type UserSnippet struct {
	ID        string `json:"id" db:"id"`
	Username  string `json:"username" db:"username"`
	FullName  string `json:"fullName" db:"full_name"`
	AvatarURL string `json:"avatarUrl" db:"avatar_url"`
}

// ConversationType distinguishes two-party and multi-party threads.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// ParticipantRole is the role of a user inside a conversation.
type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

// MessageType describes the payload kind of a message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageFile  MessageType = "file"
	MessageImage MessageType = "image"
)

// AttendanceStatus is a user's RSVP state for an event.
type AttendanceStatus string

const (
	Attending    AttendanceStatus = "attending"
	MaybeGoing   AttendanceStatus = "maybe"
	NotAttending AttendanceStatus = "not_attending"
)

// PresenceStatus is a user's connection state.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)
