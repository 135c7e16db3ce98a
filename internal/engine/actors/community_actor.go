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

// GetCountsMsg asks an actor for the number of records it manages.
type GetCountsMsg struct{}

// Message types for Community operations
type (
	CreateCommunityMsg struct {
		Name        string
		Description string
		AvatarURL   string
		CreatorID   uuid.UUID
	}

	GetCommunityMsg struct {
		CommunityID      uuid.UUID
		RequestingUserID uuid.UUID
	}

	GetCommunityByNameMsg struct {
		Name string
	}

	ListCommunitiesMsg struct {
		RequestingUserID uuid.UUID
	}

	JoinCommunityMsg struct {
		CommunityID uuid.UUID
		UserID      uuid.UUID
	}

	LeaveCommunityMsg struct {
		CommunityID uuid.UUID
		UserID      uuid.UUID
	}

	GetCommunityMembersMsg struct {
		CommunityID uuid.UUID
	}
)

// CommunityActor handles all community-related operations
type CommunityActor struct {
	db  database.DBAdapter
	bus changefeed.Bus
}

func NewCommunityActor(db database.DBAdapter, bus changefeed.Bus) actor.Actor {
	return &CommunityActor{
		db:  db,
		bus: bus,
	}
}

func (a *CommunityActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommunityActor started")

	case *actor.Stopping:
		log.Printf("CommunityActor stopping")

	case *CreateCommunityMsg:
		a.handleCreateCommunity(context, msg)

	case *GetCommunityMsg:
		a.handleGetCommunity(context, msg)

	case *GetCommunityByNameMsg:
		a.handleGetCommunityByName(context, msg)

	case *ListCommunitiesMsg:
		a.handleListCommunities(context, msg)

	case *JoinCommunityMsg:
		a.handleMembershipChange(context, msg.CommunityID, msg.UserID, true)

	case *LeaveCommunityMsg:
		a.handleMembershipChange(context, msg.CommunityID, msg.UserID, false)

	case *GetCommunityMembersMsg:
		a.handleGetMembers(context, msg)

	case *GetCountsMsg:
		a.handleGetCounts(context)
	}
}

func (a *CommunityActor) handleCreateCommunity(context actor.Context, msg *CreateCommunityMsg) {
	log.Printf("CommunityActor: Creating community: %s", msg.Name)
	ctx := stdctx.Background()

	if msg.Name == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "community name is required", nil))
		return
	}

	community := &models.Community{
		ID:          uuid.New(),
		Name:        msg.Name,
		Description: msg.Description,
		AvatarURL:   msg.AvatarURL,
		CreatorID:   msg.CreatorID,
		MemberCount: 0,
		CreatedAt:   time.Now(),
	}

	if err := a.db.CreateCommunity(ctx, community); err != nil {
		context.Respond(err)
		return
	}

	// The creator joins automatically.
	if err := a.db.UpdateCommunityMembership(ctx, community.ID, msg.CreatorID, true); err != nil {
		log.Printf("CommunityActor: Failed to add creator %s as member of %s: %v", msg.CreatorID, community.ID, err)
	} else {
		community.MemberCount = 1
		community.IsMember = true
	}

	log.Printf("CommunityActor: Successfully created community: %s", community.ID)
	context.Respond(community)
}

func (a *CommunityActor) handleGetCommunity(context actor.Context, msg *GetCommunityMsg) {
	ctx := stdctx.Background()
	community, err := a.db.GetCommunityByID(ctx, msg.CommunityID, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(community)
}

func (a *CommunityActor) handleGetCommunityByName(context actor.Context, msg *GetCommunityByNameMsg) {
	ctx := stdctx.Background()
	community, err := a.db.GetCommunityByName(ctx, msg.Name)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(community)
}

func (a *CommunityActor) handleListCommunities(context actor.Context, msg *ListCommunitiesMsg) {
	ctx := stdctx.Background()
	communities, err := a.db.GetAllCommunities(ctx, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(communities)
}

func (a *CommunityActor) handleMembershipChange(context actor.Context, communityID, userID uuid.UUID, join bool) {
	ctx := stdctx.Background()

	if err := a.db.UpdateCommunityMembership(ctx, communityID, userID, join); err != nil {
		context.Respond(err)
		return
	}

	op := changefeed.OpInsert
	message := "Joined community"
	if !join {
		op = changefeed.OpDelete
		message = "Left community"
	}
	a.publish(changefeed.Event{
		Channel:  changefeed.PostsChannel(communityID.String()),
		Table:    "community_members",
		Op:       op,
		RecordID: userID.String(),
	})

	context.Respond(&models.StatusResponse{Success: true, Message: message})
}

func (a *CommunityActor) handleGetMembers(context actor.Context, msg *GetCommunityMembersMsg) {
	ctx := stdctx.Background()
	memberIDs, err := a.db.GetCommunityMemberIDs(ctx, msg.CommunityID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(memberIDs)
}

func (a *CommunityActor) handleGetCounts(context actor.Context) {
	ctx := stdctx.Background()
	communities, err := a.db.GetAllCommunities(ctx, uuid.Nil)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(len(communities))
}

func (a *CommunityActor) publish(event changefeed.Event) {
	if a.bus == nil {
		return
	}
	if err := a.bus.Publish(stdctx.Background(), event); err != nil {
		log.Printf("CommunityActor: Failed to publish change event: %v", err)
	}
}
