package models

import (
	"time"

	"github.com/google/uuid"
)

// Community is a topic-based group users can join and post into.
type Community struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	AvatarURL   string    `json:"avatarUrl" db:"avatar_url"`
	CreatorID   uuid.UUID `json:"creatorId" db:"creator_id"`
	MemberCount int       `json:"memberCount" db:"member_count"`
	IsMember    bool      `json:"isMember" db:"is_member"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CommunityMember links a user to a community.
type CommunityMember struct {
	CommunityID uuid.UUID `json:"communityId" db:"community_id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	JoinedAt    time.Time `json:"joinedAt" db:"joined_at"`
}
