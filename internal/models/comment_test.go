package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComment(parent *uuid.UUID) *Comment {
	return &Comment{
		ID:       uuid.New(),
		PostID:   uuid.New(),
		AuthorID: uuid.New(),
		ParentID: parent,
		Content:  "test comment",
	}
}

func TestBuildCommentTreeNesting(t *testing.T) {
	root := newComment(nil)
	child1 := newComment(&root.ID)
	child2 := newComment(&root.ID)
	grandchild := newComment(&child1.ID)

	tree := BuildCommentTree([]*Comment{root, child1, child2, grandchild})

	require.Len(t, tree, 1)
	assert.Equal(t, root.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, child1.ID, tree[0].Replies[0].ID)
	assert.Equal(t, child2.ID, tree[0].Replies[1].ID)
	require.Len(t, tree[0].Replies[0].Replies, 1)
	assert.Equal(t, grandchild.ID, tree[0].Replies[0].Replies[0].ID)
}

func TestBuildCommentTreePreservesCount(t *testing.T) {
	root1 := newComment(nil)
	root2 := newComment(nil)
	child := newComment(&root1.ID)
	grandchild := newComment(&child.ID)

	flat := []*Comment{root1, root2, child, grandchild}
	tree := BuildCommentTree(flat)

	assert.Equal(t, len(flat), CountComments(tree))
}

func TestBuildCommentTreeChildOrder(t *testing.T) {
	root := newComment(nil)
	first := newComment(&root.ID)
	second := newComment(&root.ID)
	third := newComment(&root.ID)

	tree := BuildCommentTree([]*Comment{root, first, second, third})

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 3)
	assert.Equal(t, first.ID, tree[0].Replies[0].ID)
	assert.Equal(t, second.ID, tree[0].Replies[1].ID)
	assert.Equal(t, third.ID, tree[0].Replies[2].ID)
}

func TestBuildCommentTreeOrphanBecomesRoot(t *testing.T) {
	missingParent := uuid.New()
	root := newComment(nil)
	orphan := newComment(&missingParent)

	tree := BuildCommentTree([]*Comment{root, orphan})

	require.Len(t, tree, 2)
	assert.Equal(t, root.ID, tree[0].ID)
	assert.Equal(t, orphan.ID, tree[1].ID)
	assert.Equal(t, 2, CountComments(tree))
}

func TestBuildCommentTreeSelfParentBecomesRoot(t *testing.T) {
	c := newComment(nil)
	c.ParentID = &c.ID

	tree := BuildCommentTree([]*Comment{c})

	require.Len(t, tree, 1)
	assert.Equal(t, c.ID, tree[0].ID)
	assert.Empty(t, tree[0].Replies)
}

func TestBuildCommentTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildCommentTree(nil))
	assert.Zero(t, CountComments(nil))
}
