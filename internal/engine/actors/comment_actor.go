package actors

import (
	stdctx "context"
	"log"
	"time"

	"devconnect/internal/changefeed"
	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		Content  string     `json:"content"`
		AuthorID uuid.UUID  `json:"authorId"`
		PostID   uuid.UUID  `json:"postId"`
		ParentID *uuid.UUID `json:"parentId,omitempty"`
	}

	DeleteCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
		AuthorID  uuid.UUID `json:"authorId"`
	}

	GetCommentMsg struct {
		CommentID uuid.UUID `json:"commentId"`
	}

	GetCommentsForPostMsg struct {
		PostID uuid.UUID `json:"postId"`
	}
)

// CommentActor manages comment operations
type CommentActor struct {
	db  database.DBAdapter
	bus changefeed.Bus
}

func NewCommentActor(db database.DBAdapter, bus changefeed.Bus) actor.Actor {
	return &CommentActor{
		db:  db,
		bus: bus,
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommentActor started with PID: %v", context.Self())

	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)

	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)

	case *GetCommentMsg:
		a.handleGetComment(context, msg)

	case *GetCommentsForPostMsg:
		a.handleGetPostComments(context, msg)

	default:
		log.Printf("CommentActor: Unknown message type %T", msg)
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	log.Printf("Creating new comment for post %s by user %s", msg.PostID, msg.AuthorID)
	ctx := stdctx.Background()

	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "comment content is required", nil))
		return
	}

	// The post must exist before we attach anything to it.
	if _, err := a.db.GetPost(ctx, msg.PostID, uuid.Nil); err != nil {
		context.Respond(err)
		return
	}

	// A reply must point at a comment on the same post.
	if msg.ParentID != nil {
		parent, err := a.db.GetComment(ctx, *msg.ParentID)
		if err != nil {
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				context.Respond(utils.NewAppError(utils.ErrNotFound, "Parent comment not found", nil))
			} else {
				context.Respond(err)
			}
			return
		}
		if parent.PostID != msg.PostID {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "parent comment belongs to a different post", nil))
			return
		}
	}

	now := time.Now()
	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    msg.PostID,
		AuthorID:  msg.AuthorID,
		ParentID:  msg.ParentID,
		Content:   msg.Content,
		Replies:   []*models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.db.SaveComment(ctx, comment); err != nil {
		log.Printf("Error saving comment to database: %v", err)
		context.Respond(err)
		return
	}

	a.publishCommentEvent(msg.PostID, comment.ID, changefeed.OpInsert)

	log.Printf("Successfully created comment with ID: %s", comment.ID)
	context.Respond(comment)
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	ctx := stdctx.Background()
	log.Printf("Attempting to delete comment ID: %s by user %s", msg.CommentID, msg.AuthorID)

	comment, err := a.db.GetComment(ctx, msg.CommentID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			context.Respond(utils.NewAppError(utils.ErrNotFound, "Comment not found", nil))
			return
		}
		context.Respond(err)
		return
	}

	if comment.AuthorID != msg.AuthorID {
		context.Respond(utils.NewAppError(utils.ErrUnauthorized, "User not authorized to delete this comment", nil))
		return
	}

	if err := a.db.SoftDeleteComment(ctx, msg.CommentID, msg.AuthorID); err != nil {
		context.Respond(err)
		return
	}

	a.publishCommentEvent(comment.PostID, comment.ID, changefeed.OpDelete)

	context.Respond(&models.StatusResponse{Success: true, Message: "Comment deleted successfully"})
}

func (a *CommentActor) handleGetComment(context actor.Context, msg *GetCommentMsg) {
	ctx := stdctx.Background()
	comment, err := a.db.GetComment(ctx, msg.CommentID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(comment)
}

// handleGetPostComments returns the comment tree for a post.
func (a *CommentActor) handleGetPostComments(context actor.Context, msg *GetCommentsForPostMsg) {
	ctx := stdctx.Background()

	flat, err := a.db.GetPostComments(ctx, msg.PostID)
	if err != nil {
		log.Printf("Error fetching comments for post %s: %v", msg.PostID, err)
		context.Respond(err)
		return
	}

	tree := models.BuildCommentTree(flat)
	log.Printf("Fetched %d comments for post %s", len(flat), msg.PostID)
	context.Respond(tree)
}

func (a *CommentActor) publishCommentEvent(postID, commentID uuid.UUID, op changefeed.Op) {
	if a.bus == nil {
		return
	}
	event := changefeed.Event{
		Channel:  changefeed.CommentsChannel(postID.String()),
		Table:    "comments",
		Op:       op,
		RecordID: commentID.String(),
	}
	if err := a.bus.Publish(stdctx.Background(), event); err != nil {
		log.Printf("CommentActor: Failed to publish change event: %v", err)
	}
}
