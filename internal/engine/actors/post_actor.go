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

// FeedChannelAll is the changefeed scope for the global feed.
const FeedChannelAll = "all"

// Message types for Post operations
type (
	CreatePostMsg struct {
		Title       string
		Content     string
		ImageURL    string
		AuthorID    uuid.UUID
		CommunityID *uuid.UUID
	}

	GetPostMsg struct {
		PostID           uuid.UUID
		RequestingUserID uuid.UUID
	}

	GetFeedMsg struct {
		Limit            int
		Offset           int
		RequestingUserID uuid.UUID
	}

	GetCommunityPostsMsg struct {
		CommunityID      uuid.UUID
		Limit            int
		Offset           int
		RequestingUserID uuid.UUID
	}

	GetUserPostsMsg struct {
		UserID           uuid.UUID
		Limit            int
		Offset           int
		RequestingUserID uuid.UUID
	}

	DeletePostMsg struct {
		PostID   uuid.UUID
		AuthorID uuid.UUID
	}

	VotePostMsg struct {
		PostID uuid.UUID
		UserID uuid.UUID
		Value  int
	}
)

// PostActor handles post and vote operations
type PostActor struct {
	db  database.DBAdapter
	bus changefeed.Bus
}

func NewPostActor(db database.DBAdapter, bus changefeed.Bus) actor.Actor {
	return &PostActor{
		db:  db,
		bus: bus,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started")

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)

	case *GetPostMsg:
		a.handleGetPost(context, msg)

	case *GetFeedMsg:
		a.handleGetFeed(context, msg)

	case *GetCommunityPostsMsg:
		a.handleGetCommunityPosts(context, msg)

	case *GetUserPostsMsg:
		a.handleGetUserPosts(context, msg)

	case *DeletePostMsg:
		a.handleDeletePost(context, msg)

	case *VotePostMsg:
		a.handleVotePost(context, msg)
	}
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	ctx := stdctx.Background()

	if msg.Title == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "post title is required", nil))
		return
	}

	// Posting into a community requires membership.
	if msg.CommunityID != nil {
		isMember, err := a.db.IsCommunityMember(ctx, *msg.CommunityID, msg.AuthorID)
		if err != nil {
			context.Respond(err)
			return
		}
		if !isMember {
			context.Respond(utils.NewAppError(utils.ErrNotCommunityMember, "must join the community before posting", nil))
			return
		}
	}

	post := &models.Post{
		ID:          uuid.New(),
		AuthorID:    msg.AuthorID,
		CommunityID: msg.CommunityID,
		Title:       msg.Title,
		Content:     msg.Content,
		ImageURL:    msg.ImageURL,
		CreatedAt:   time.Now(),
	}

	if err := a.db.SavePost(ctx, post); err != nil {
		context.Respond(err)
		return
	}

	a.publishPostEvent(post, changefeed.OpInsert)

	log.Printf("PostActor: Created post %s by user %s", post.ID, msg.AuthorID)
	context.Respond(post)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	ctx := stdctx.Background()
	post, err := a.db.GetPost(ctx, msg.PostID, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(post)
}

func (a *PostActor) handleGetFeed(context actor.Context, msg *GetFeedMsg) {
	ctx := stdctx.Background()
	posts, err := a.db.GetRecentPosts(ctx, normalizeLimit(msg.Limit), msg.Offset, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(posts)
}

func (a *PostActor) handleGetCommunityPosts(context actor.Context, msg *GetCommunityPostsMsg) {
	ctx := stdctx.Background()
	posts, err := a.db.GetCommunityPosts(ctx, msg.CommunityID, normalizeLimit(msg.Limit), msg.Offset, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(posts)
}

func (a *PostActor) handleGetUserPosts(context actor.Context, msg *GetUserPostsMsg) {
	ctx := stdctx.Background()
	posts, err := a.db.GetUserPosts(ctx, msg.UserID, normalizeLimit(msg.Limit), msg.Offset, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(posts)
}

func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	ctx := stdctx.Background()

	post, err := a.db.GetPost(ctx, msg.PostID, uuid.Nil)
	if err != nil {
		context.Respond(err)
		return
	}

	if err := a.db.DeletePost(ctx, msg.PostID, msg.AuthorID); err != nil {
		context.Respond(err)
		return
	}

	a.publishPostEvent(post, changefeed.OpDelete)

	context.Respond(&models.StatusResponse{Success: true, Message: "Post deleted"})
}

func (a *PostActor) handleVotePost(context actor.Context, msg *VotePostMsg) {
	ctx := stdctx.Background()

	if err := a.db.RecordVote(ctx, msg.PostID, msg.UserID, msg.Value); err != nil {
		context.Respond(err)
		return
	}

	post, err := a.db.GetPost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.publishPostEvent(post, changefeed.OpUpdate)

	context.Respond(post)
}

func (a *PostActor) publishPostEvent(post *models.Post, op changefeed.Op) {
	if a.bus == nil {
		return
	}
	ctx := stdctx.Background()

	event := changefeed.Event{
		Channel:  changefeed.PostsChannel(FeedChannelAll),
		Table:    "posts",
		Op:       op,
		RecordID: post.ID.String(),
	}
	if err := a.bus.Publish(ctx, event); err != nil {
		log.Printf("PostActor: Failed to publish change event: %v", err)
	}

	if post.CommunityID != nil {
		event.Channel = changefeed.PostsChannel(post.CommunityID.String())
		if err := a.bus.Publish(ctx, event); err != nil {
			log.Printf("PostActor: Failed to publish community change event: %v", err)
		}
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
