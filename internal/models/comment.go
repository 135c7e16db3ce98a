package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reply on a post. ParentID is nil for top-level comments.
type Comment struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	PostID    uuid.UUID    `json:"postId" db:"post_id"`
	AuthorID  uuid.UUID    `json:"authorId" db:"author_id"`
	ParentID  *uuid.UUID   `json:"parentId,omitempty" db:"parent_id"`
	Content   string       `json:"content" db:"content"`
	IsDeleted bool         `json:"isDeleted" db:"is_deleted"`
	Author    *UserSnippet `json:"author,omitempty" db:"-"`
	Replies   []*Comment   `json:"replies"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`
}

// BuildCommentTree nests a flat, creation-ordered comment list. Children keep
// the input order under each parent. A comment whose parent is missing from
// the list, or which claims itself as parent, is promoted to a root so no
// comment is lost.
func BuildCommentTree(flat []*Comment) []*Comment {
	byID := make(map[uuid.UUID]*Comment, len(flat))
	for _, c := range flat {
		c.Replies = []*Comment{}
		byID[c.ID] = c
	}

	roots := []*Comment{}
	for _, c := range flat {
		if c.ParentID == nil || *c.ParentID == c.ID {
			roots = append(roots, c)
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok {
			roots = append(roots, c)
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}
	return roots
}

// CountComments returns the total number of comments in a tree.
func CountComments(tree []*Comment) int {
	total := 0
	for _, c := range tree {
		total += 1 + CountComments(c.Replies)
	}
	return total
}
