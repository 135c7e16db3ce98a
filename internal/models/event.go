package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled meetup, optionally scoped to a community.
type Event struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	CreatorID     uuid.UUID  `json:"creatorId" db:"creator_id"`
	CommunityID   *uuid.UUID `json:"communityId,omitempty" db:"community_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Location      string     `json:"location" db:"location"`
	IsVirtual     bool       `json:"isVirtual" db:"is_virtual"`
	MeetingURL    string     `json:"meetingUrl" db:"meeting_url"`
	StartsAt      time.Time  `json:"startsAt" db:"starts_at"`
	EndsAt        time.Time  `json:"endsAt" db:"ends_at"`
	AttendeeCount int        `json:"attendeeCount" db:"attendee_count"`
	UserStatus    string     `json:"userStatus,omitempty" db:"user_status"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// EventAttendee is a user's RSVP for an event.
type EventAttendee struct {
	EventID   uuid.UUID        `json:"eventId" db:"event_id"`
	UserID    uuid.UUID        `json:"userId" db:"user_id"`
	Status    AttendanceStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}
