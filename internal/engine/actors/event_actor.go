package actors

import (
	stdctx "context"
	"log"
	"time"

	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for EventActor
type (
	CreateEventMsg struct {
		Title       string
		Description string
		Location    string
		IsVirtual   bool
		MeetingURL  string
		StartsAt    time.Time
		EndsAt      time.Time
		CreatorID   uuid.UUID
		CommunityID *uuid.UUID
	}

	GetEventMsg struct {
		EventID          uuid.UUID
		RequestingUserID uuid.UUID
	}

	ListUpcomingEventsMsg struct {
		Limit            int
		Offset           int
		RequestingUserID uuid.UUID
	}

	GetCommunityEventsMsg struct {
		CommunityID      uuid.UUID
		RequestingUserID uuid.UUID
	}

	RSVPMsg struct {
		EventID uuid.UUID
		UserID  uuid.UUID
		Status  models.AttendanceStatus
	}

	CancelRSVPMsg struct {
		EventID uuid.UUID
		UserID  uuid.UUID
	}

	GetEventAttendeesMsg struct {
		EventID uuid.UUID
	}
)

// EventActor handles meetup scheduling and RSVPs.
type EventActor struct {
	db database.DBAdapter
}

func NewEventActor(db database.DBAdapter) actor.Actor {
	return &EventActor{
		db: db,
	}
}

func (a *EventActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("EventActor started")

	case *CreateEventMsg:
		a.handleCreateEvent(context, msg)

	case *GetEventMsg:
		a.handleGetEvent(context, msg)

	case *ListUpcomingEventsMsg:
		a.handleListUpcoming(context, msg)

	case *GetCommunityEventsMsg:
		a.handleGetCommunityEvents(context, msg)

	case *RSVPMsg:
		a.handleRSVP(context, msg)

	case *CancelRSVPMsg:
		a.handleCancelRSVP(context, msg)

	case *GetEventAttendeesMsg:
		a.handleGetAttendees(context, msg)
	}
}

func (a *EventActor) handleCreateEvent(context actor.Context, msg *CreateEventMsg) {
	ctx := stdctx.Background()

	if msg.Title == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "event title is required", nil))
		return
	}
	if msg.StartsAt.IsZero() || msg.EndsAt.IsZero() || !msg.EndsAt.After(msg.StartsAt) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "event must end after it starts", nil))
		return
	}
	if msg.IsVirtual && msg.MeetingURL == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "virtual events need a meeting URL", nil))
		return
	}

	event := &models.Event{
		ID:          uuid.New(),
		CreatorID:   msg.CreatorID,
		CommunityID: msg.CommunityID,
		Title:       msg.Title,
		Description: msg.Description,
		Location:    msg.Location,
		IsVirtual:   msg.IsVirtual,
		MeetingURL:  msg.MeetingURL,
		StartsAt:    msg.StartsAt,
		EndsAt:      msg.EndsAt,
		CreatedAt:   time.Now(),
	}

	if err := a.db.CreateEvent(ctx, event); err != nil {
		context.Respond(err)
		return
	}

	// The creator attends their own event.
	if err := a.db.SetAttendance(ctx, event.ID, msg.CreatorID, models.Attending); err != nil {
		log.Printf("EventActor: Failed to RSVP creator %s for event %s: %v", msg.CreatorID, event.ID, err)
	} else {
		event.AttendeeCount = 1
		event.UserStatus = string(models.Attending)
	}

	log.Printf("EventActor: Created event %s (%s)", event.ID, event.Title)
	context.Respond(event)
}

func (a *EventActor) handleGetEvent(context actor.Context, msg *GetEventMsg) {
	ctx := stdctx.Background()
	event, err := a.db.GetEvent(ctx, msg.EventID, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(event)
}

func (a *EventActor) handleListUpcoming(context actor.Context, msg *ListUpcomingEventsMsg) {
	ctx := stdctx.Background()
	events, err := a.db.GetUpcomingEvents(ctx, normalizeLimit(msg.Limit), msg.Offset, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(events)
}

func (a *EventActor) handleGetCommunityEvents(context actor.Context, msg *GetCommunityEventsMsg) {
	ctx := stdctx.Background()
	events, err := a.db.GetCommunityEvents(ctx, msg.CommunityID, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(events)
}

func (a *EventActor) handleRSVP(context actor.Context, msg *RSVPMsg) {
	ctx := stdctx.Background()

	switch msg.Status {
	case models.Attending, models.MaybeGoing, models.NotAttending:
	default:
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid attendance status", nil))
		return
	}

	if err := a.db.SetAttendance(ctx, msg.EventID, msg.UserID, msg.Status); err != nil {
		context.Respond(err)
		return
	}

	event, err := a.db.GetEvent(ctx, msg.EventID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(event)
}

func (a *EventActor) handleCancelRSVP(context actor.Context, msg *CancelRSVPMsg) {
	ctx := stdctx.Background()

	if err := a.db.RemoveAttendance(ctx, msg.EventID, msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	event, err := a.db.GetEvent(ctx, msg.EventID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(event)
}

func (a *EventActor) handleGetAttendees(context actor.Context, msg *GetEventAttendeesMsg) {
	ctx := stdctx.Background()
	attendees, err := a.db.GetEventAttendees(ctx, msg.EventID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(attendees)
}
