package engine

import (
	"devconnect/internal/changefeed"
	"devconnect/internal/database"
	"devconnect/internal/engine/actors"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	userSupervisor    *actor.PID
	communityActor    *actor.PID
	postActor         *actor.PID
	commentActor      *actor.PID
	conversationActor *actor.PID
	eventActor        *actor.PID
}

func NewEngine(system *actor.ActorSystem, db database.DBAdapter, bus changefeed.Bus, presence actors.PresenceAdapter) *Engine {
	context := system.Root

	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserSupervisor(db, bus, presence)
	})
	userPID := context.Spawn(userProps)

	communityProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommunityActor(db, bus)
	})
	communityPID := context.Spawn(communityProps)

	postProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(db, bus)
	})
	postPID := context.Spawn(postProps)

	commentProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(db, bus)
	})
	commentPID := context.Spawn(commentProps)

	conversationProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewConversationActor(db, bus, presence)
	})
	conversationPID := context.Spawn(conversationProps)

	eventProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewEventActor(db)
	})
	eventPID := context.Spawn(eventProps)

	return &Engine{
		userSupervisor:    userPID,
		communityActor:    communityPID,
		postActor:         postPID,
		commentActor:      commentPID,
		conversationActor: conversationPID,
		eventActor:        eventPID,
	}
}

// GetUserSupervisor returns the PID of the user supervisor
func (e *Engine) GetUserSupervisor() *actor.PID {
	return e.userSupervisor
}

// GetCommunityActor returns the PID of the community actor
func (e *Engine) GetCommunityActor() *actor.PID {
	return e.communityActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetCommentActor returns the PID of the comment actor
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

// GetConversationActor returns the PID of the conversation actor
func (e *Engine) GetConversationActor() *actor.PID {
	return e.conversationActor
}

// GetEventActor returns the PID of the event actor
func (e *Engine) GetEventActor() *actor.PID {
	return e.eventActor
}
