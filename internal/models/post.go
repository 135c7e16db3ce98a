package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a top-level submission inside a community or on the global feed.
type Post struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	AuthorID     uuid.UUID    `json:"authorId" db:"author_id"`
	CommunityID  *uuid.UUID   `json:"communityId,omitempty" db:"community_id"`
	Title        string       `json:"title" db:"title"`
	Content      string       `json:"content" db:"content"`
	ImageURL     string       `json:"imageUrl" db:"image_url"`
	Upvotes      int          `json:"upvotes" db:"upvotes"`
	Downvotes    int          `json:"downvotes" db:"downvotes"`
	CommentCount int          `json:"commentCount" db:"comment_count"`
	UserVote     *int         `json:"userVote,omitempty" db:"user_vote"`
	Author       *UserSnippet `json:"author,omitempty" db:"-"`
	CreatedAt    time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time    `json:"updatedAt" db:"updated_at"`
}

// Vote is a single user's up or down vote on a post. Value is +1 or -1.
type Vote struct {
	PostID    uuid.UUID `json:"postId" db:"post_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Value     int       `json:"value" db:"value"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
