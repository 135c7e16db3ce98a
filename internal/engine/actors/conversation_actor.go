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

// Message types for ConversationActor
type (
	CreateConversationMsg struct {
		Type           models.ConversationType `json:"type"`
		Name           string                  `json:"name"`
		Description    string                  `json:"description"`
		IsPrivate      bool                    `json:"isPrivate"`
		CreatorID      uuid.UUID               `json:"creatorId"`
		ParticipantIDs []uuid.UUID             `json:"participantIds"`
	}

	ListConversationsMsg struct {
		UserID uuid.UUID `json:"userId"`
	}

	GetConversationMsg struct {
		ConversationID uuid.UUID `json:"conversationId"`
		UserID         uuid.UUID `json:"userId"`
	}

	AddParticipantsMsg struct {
		ConversationID uuid.UUID   `json:"conversationId"`
		RequesterID    uuid.UUID   `json:"requesterId"`
		ParticipantIDs []uuid.UUID `json:"participantIds"`
	}

	SendMessageMsg struct {
		ConversationID uuid.UUID          `json:"conversationId"`
		SenderID       uuid.UUID          `json:"senderId"`
		Content        string             `json:"content"`
		Type           models.MessageType `json:"type"`
		FileURL        string             `json:"fileUrl"`
		FileName       string             `json:"fileName"`
		ReplyToID      *uuid.UUID         `json:"replyToId,omitempty"`
	}

	GetMessagesMsg struct {
		ConversationID uuid.UUID `json:"conversationId"`
		UserID         uuid.UUID `json:"userId"`
		Limit          int       `json:"limit"`
		Offset         int       `json:"offset"`
	}

	EditMessageMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		SenderID  uuid.UUID `json:"senderId"`
		Content   string    `json:"content"`
	}

	DeleteMessageMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		SenderID  uuid.UUID `json:"senderId"`
	}

	MarkReadMsg struct {
		ConversationID uuid.UUID `json:"conversationId"`
		UserID         uuid.UUID `json:"userId"`
	}

	AddReactionMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"`
		Emoji     string    `json:"emoji"`
	}

	RemoveReactionMsg struct {
		MessageID uuid.UUID `json:"messageId"`
		UserID    uuid.UUID `json:"userId"`
		Emoji     string    `json:"emoji"`
	}

	SetTypingMsg struct {
		ConversationID uuid.UUID `json:"conversationId"`
		UserID         uuid.UUID `json:"userId"`
		Username       string    `json:"username"`
	}

	ClearTypingMsg struct {
		ConversationID uuid.UUID `json:"conversationId"`
		UserID         uuid.UUID `json:"userId"`
	}

	GetTypingMsg struct {
		ConversationID   uuid.UUID `json:"conversationId"`
		RequestingUserID uuid.UUID `json:"requestingUserId"`
	}
)

// ConversationActor manages direct and group messaging.
type ConversationActor struct {
	db       database.DBAdapter
	bus      changefeed.Bus
	presence PresenceAdapter
}

func NewConversationActor(db database.DBAdapter, bus changefeed.Bus, presence PresenceAdapter) actor.Actor {
	return &ConversationActor{
		db:       db,
		bus:      bus,
		presence: presence,
	}
}

func (a *ConversationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ConversationActor started with PID: %v", context.Self())

	case *CreateConversationMsg:
		a.handleCreateConversation(context, msg)

	case *ListConversationsMsg:
		a.handleListConversations(context, msg)

	case *GetConversationMsg:
		a.handleGetConversation(context, msg)

	case *AddParticipantsMsg:
		a.handleAddParticipants(context, msg)

	case *SendMessageMsg:
		a.handleSendMessage(context, msg)

	case *GetMessagesMsg:
		a.handleGetMessages(context, msg)

	case *EditMessageMsg:
		a.handleEditMessage(context, msg)

	case *DeleteMessageMsg:
		a.handleDeleteMessage(context, msg)

	case *MarkReadMsg:
		a.handleMarkRead(context, msg)

	case *AddReactionMsg:
		a.handleAddReaction(context, msg)

	case *RemoveReactionMsg:
		a.handleRemoveReaction(context, msg)

	case *SetTypingMsg:
		a.handleSetTyping(context, msg)

	case *ClearTypingMsg:
		a.handleClearTyping(context, msg)

	case *GetTypingMsg:
		a.handleGetTyping(context, msg)

	default:
		log.Printf("ConversationActor: Unknown message type %T", msg)
	}
}

// handleCreateConversation creates the thread and then adds participants in a
// second call. No lookup for an existing direct thread happens here, so two
// users can hold several direct conversations.
func (a *ConversationActor) handleCreateConversation(context actor.Context, msg *CreateConversationMsg) {
	ctx := stdctx.Background()

	if msg.Type != models.ConversationDirect && msg.Type != models.ConversationGroup {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "conversation type must be direct or group", nil))
		return
	}
	if len(msg.ParticipantIDs) == 0 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "at least one participant is required", nil))
		return
	}
	if msg.Type == models.ConversationDirect && len(msg.ParticipantIDs) != 1 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "direct conversations have exactly one other participant", nil))
		return
	}

	conv := &models.Conversation{
		ID:          uuid.New(),
		Type:        msg.Type,
		Name:        msg.Name,
		Description: msg.Description,
		IsPrivate:   msg.IsPrivate,
		CreatedBy:   msg.CreatorID,
		CreatedAt:   time.Now(),
	}

	if err := a.db.CreateConversation(ctx, conv); err != nil {
		context.Respond(err)
		return
	}

	// Second step: participants are inserted after the conversation row. A
	// crash in between leaves a conversation without members.
	participants := []*models.ConversationParticipant{
		{ConversationID: conv.ID, UserID: msg.CreatorID, Role: models.RoleAdmin},
	}
	for _, userID := range msg.ParticipantIDs {
		if userID == msg.CreatorID {
			continue
		}
		participants = append(participants, &models.ConversationParticipant{
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           models.RoleMember,
		})
	}

	if err := a.db.AddParticipants(ctx, conv.ID, participants); err != nil {
		log.Printf("ConversationActor: Conversation %s created but adding participants failed: %v", conv.ID, err)
		context.Respond(err)
		return
	}

	full, err := a.db.GetConversation(ctx, conv.ID)
	if err != nil {
		context.Respond(err)
		return
	}

	log.Printf("ConversationActor: Created %s conversation %s with %d participants", conv.Type, conv.ID, len(participants))
	context.Respond(full)
}

func (a *ConversationActor) handleListConversations(context actor.Context, msg *ListConversationsMsg) {
	ctx := stdctx.Background()
	conversations, err := a.db.GetUserConversations(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(conversations)
}

func (a *ConversationActor) handleGetConversation(context actor.Context, msg *GetConversationMsg) {
	ctx := stdctx.Background()

	if ok := a.requireParticipant(context, ctx, msg.ConversationID, msg.UserID); !ok {
		return
	}

	conv, err := a.db.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(conv)
}

func (a *ConversationActor) handleAddParticipants(context actor.Context, msg *AddParticipantsMsg) {
	ctx := stdctx.Background()

	conv, err := a.db.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		context.Respond(err)
		return
	}
	if conv.Type != models.ConversationGroup {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "participants can only be added to group conversations", nil))
		return
	}

	// Only group admins may add members.
	isAdmin := false
	for _, participant := range conv.Participants {
		if participant.UserID == msg.RequesterID && participant.Role == models.RoleAdmin {
			isAdmin = true
			break
		}
	}
	if !isAdmin {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "only group admins can add participants", nil))
		return
	}

	participants := make([]*models.ConversationParticipant, 0, len(msg.ParticipantIDs))
	for _, userID := range msg.ParticipantIDs {
		participants = append(participants, &models.ConversationParticipant{
			ConversationID: msg.ConversationID,
			UserID:         userID,
			Role:           models.RoleMember,
		})
	}

	if err := a.db.AddParticipants(ctx, msg.ConversationID, participants); err != nil {
		context.Respond(err)
		return
	}

	full, err := a.db.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(full)
}

func (a *ConversationActor) handleSendMessage(context actor.Context, msg *SendMessageMsg) {
	ctx := stdctx.Background()

	if msg.Content == "" && msg.FileURL == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "message content is required", nil))
		return
	}
	if ok := a.requireParticipant(context, ctx, msg.ConversationID, msg.SenderID); !ok {
		return
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Type:           msg.Type,
		FileURL:        msg.FileURL,
		FileName:       msg.FileName,
		ReplyToID:      msg.ReplyToID,
		CreatedAt:      time.Now(),
	}

	if err := a.db.SaveMessage(ctx, message); err != nil {
		context.Respond(err)
		return
	}

	// Sending also clears the sender's typing indicator.
	if a.presence != nil {
		if err := a.presence.ClearTyping(ctx, msg.ConversationID, msg.SenderID); err != nil {
			log.Printf("ConversationActor: Failed to clear typing indicator: %v", err)
		}
	}

	a.publishMessageEvent(msg.ConversationID, message.ID, changefeed.OpInsert)
	a.notifyParticipants(ctx, msg.ConversationID)

	saved, err := a.db.GetMessage(ctx, message.ID)
	if err != nil {
		// The insert succeeded, fall back to the local copy.
		context.Respond(message)
		return
	}
	context.Respond(saved)
}

func (a *ConversationActor) handleGetMessages(context actor.Context, msg *GetMessagesMsg) {
	ctx := stdctx.Background()

	if ok := a.requireParticipant(context, ctx, msg.ConversationID, msg.UserID); !ok {
		return
	}

	messages, err := a.db.GetConversationMessages(ctx, msg.ConversationID, normalizeLimit(msg.Limit), msg.Offset)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(messages)
}

func (a *ConversationActor) handleEditMessage(context actor.Context, msg *EditMessageMsg) {
	ctx := stdctx.Background()

	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "message content is required", nil))
		return
	}

	existing, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}

	if err := a.db.UpdateMessageContent(ctx, msg.MessageID, msg.SenderID, msg.Content); err != nil {
		context.Respond(err)
		return
	}

	a.publishMessageEvent(existing.ConversationID, msg.MessageID, changefeed.OpUpdate)

	updated, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(updated)
}

func (a *ConversationActor) handleDeleteMessage(context actor.Context, msg *DeleteMessageMsg) {
	ctx := stdctx.Background()

	existing, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}

	if err := a.db.SoftDeleteMessage(ctx, msg.MessageID, msg.SenderID); err != nil {
		context.Respond(err)
		return
	}

	// Soft deletes surface as an update: the row still exists, readers
	// refetch and drop it from their view.
	a.publishMessageEvent(existing.ConversationID, msg.MessageID, changefeed.OpUpdate)

	context.Respond(&models.StatusResponse{Success: true, Message: "Message deleted"})
}

func (a *ConversationActor) handleMarkRead(context actor.Context, msg *MarkReadMsg) {
	ctx := stdctx.Background()

	if err := a.db.UpdateLastRead(ctx, msg.ConversationID, msg.UserID); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(&models.StatusResponse{Success: true, Message: "Conversation marked read"})
}

func (a *ConversationActor) handleAddReaction(context actor.Context, msg *AddReactionMsg) {
	ctx := stdctx.Background()

	if msg.Emoji == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "emoji is required", nil))
		return
	}

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	if ok := a.requireParticipant(context, ctx, message.ConversationID, msg.UserID); !ok {
		return
	}

	reaction := &models.MessageReaction{
		ID:        uuid.New(),
		MessageID: msg.MessageID,
		UserID:    msg.UserID,
		Emoji:     msg.Emoji,
		CreatedAt: time.Now(),
	}
	if err := a.db.AddReaction(ctx, reaction); err != nil {
		context.Respond(err)
		return
	}

	a.publishMessageEvent(message.ConversationID, msg.MessageID, changefeed.OpUpdate)

	reactions, err := a.db.GetMessageReactions(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(reactions)
}

func (a *ConversationActor) handleRemoveReaction(context actor.Context, msg *RemoveReactionMsg) {
	ctx := stdctx.Background()

	message, err := a.db.GetMessage(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}

	if err := a.db.RemoveReaction(ctx, msg.MessageID, msg.UserID, msg.Emoji); err != nil {
		context.Respond(err)
		return
	}

	a.publishMessageEvent(message.ConversationID, msg.MessageID, changefeed.OpUpdate)

	reactions, err := a.db.GetMessageReactions(ctx, msg.MessageID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(reactions)
}

func (a *ConversationActor) handleSetTyping(context actor.Context, msg *SetTypingMsg) {
	ctx := stdctx.Background()

	if a.presence == nil {
		context.Respond(&models.StatusResponse{Success: true})
		return
	}

	indicator := &models.TypingIndicator{
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		Username:       msg.Username,
	}
	if err := a.presence.SetTyping(ctx, indicator); err != nil {
		context.Respond(err)
		return
	}

	a.publishTypingEvent(msg.ConversationID, msg.UserID, changefeed.OpInsert)
	context.Respond(&models.StatusResponse{Success: true})
}

func (a *ConversationActor) handleClearTyping(context actor.Context, msg *ClearTypingMsg) {
	ctx := stdctx.Background()

	if a.presence == nil {
		context.Respond(&models.StatusResponse{Success: true})
		return
	}

	if err := a.presence.ClearTyping(ctx, msg.ConversationID, msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	a.publishTypingEvent(msg.ConversationID, msg.UserID, changefeed.OpDelete)
	context.Respond(&models.StatusResponse{Success: true})
}

func (a *ConversationActor) handleGetTyping(context actor.Context, msg *GetTypingMsg) {
	ctx := stdctx.Background()

	if a.presence == nil {
		context.Respond([]*models.TypingIndicator{})
		return
	}

	indicators, err := a.presence.GetTypingUsers(ctx, msg.ConversationID, msg.RequestingUserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(indicators)
}

// requireParticipant responds with an error and returns false when the user
// is not a member of the conversation.
func (a *ConversationActor) requireParticipant(context actor.Context, ctx stdctx.Context, conversationID, userID uuid.UUID) bool {
	isParticipant, err := a.db.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		context.Respond(err)
		return false
	}
	if !isParticipant {
		context.Respond(utils.NewAppError(utils.ErrNotParticipant, "user is not a participant of this conversation", nil))
		return false
	}
	return true
}

func (a *ConversationActor) publishMessageEvent(conversationID, messageID uuid.UUID, op changefeed.Op) {
	if a.bus == nil {
		return
	}
	event := changefeed.Event{
		Channel:  changefeed.MessagesChannel(conversationID.String()),
		Table:    "messages",
		Op:       op,
		RecordID: messageID.String(),
	}
	if err := a.bus.Publish(stdctx.Background(), event); err != nil {
		log.Printf("ConversationActor: Failed to publish message event: %v", err)
	}
}

// notifyParticipants tells each member's conversation-list channel to refetch,
// so previews and ordering stay current after a new message.
func (a *ConversationActor) notifyParticipants(ctx stdctx.Context, conversationID uuid.UUID) {
	if a.bus == nil {
		return
	}
	conv, err := a.db.GetConversation(ctx, conversationID)
	if err != nil {
		log.Printf("ConversationActor: Failed to load participants for notify: %v", err)
		return
	}
	for _, participant := range conv.Participants {
		event := changefeed.Event{
			Channel:  changefeed.ConversationsChannel(participant.UserID.String()),
			Table:    "conversations",
			Op:       changefeed.OpUpdate,
			RecordID: conversationID.String(),
		}
		if err := a.bus.Publish(ctx, event); err != nil {
			log.Printf("ConversationActor: Failed to publish conversation event: %v", err)
		}
	}
}

func (a *ConversationActor) publishTypingEvent(conversationID, userID uuid.UUID, op changefeed.Op) {
	if a.bus == nil {
		return
	}
	event := changefeed.Event{
		Channel:  changefeed.TypingChannel(conversationID.String()),
		Table:    "typing_indicators",
		Op:       op,
		RecordID: userID.String(),
	}
	if err := a.bus.Publish(stdctx.Background(), event); err != nil {
		log.Printf("ConversationActor: Failed to publish typing event: %v", err)
	}
}
