package actors

import (
	stdctx "context"
	"sync"
	"testing"
	"time"

	"devconnect/internal/changefeed"
	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConvDB is an in-memory stand-in for the conversation and message
// repositories. Unimplemented interface methods panic through the embedded
// nil adapter, which is fine because the actor never calls them.
type fakeConvDB struct {
	database.DBAdapter

	mu            sync.Mutex
	conversations map[uuid.UUID]*models.Conversation
	participants  map[uuid.UUID][]*models.ConversationParticipant
	messages      map[uuid.UUID]*models.Message
	reactions     map[uuid.UUID][]*models.MessageReaction
	lastRead      map[uuid.UUID]map[uuid.UUID]time.Time
}

func newFakeConvDB() *fakeConvDB {
	return &fakeConvDB{
		conversations: make(map[uuid.UUID]*models.Conversation),
		participants:  make(map[uuid.UUID][]*models.ConversationParticipant),
		messages:      make(map[uuid.UUID]*models.Message),
		reactions:     make(map[uuid.UUID][]*models.MessageReaction),
		lastRead:      make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (f *fakeConvDB) CreateConversation(ctx stdctx.Context, conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *conv
	f.conversations[conv.ID] = &stored
	return nil
}

func (f *fakeConvDB) AddParticipants(ctx stdctx.Context, conversationID uuid.UUID, participants []*models.ConversationParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[conversationID] = append(f.participants[conversationID], participants...)
	return nil
}

func (f *fakeConvDB) GetConversation(ctx stdctx.Context, id uuid.UUID) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrConversationNotFound, "conversation not found", nil)
	}
	result := *conv
	result.Participants = f.participants[id]
	return &result, nil
}

func (f *fakeConvDB) IsParticipant(ctx stdctx.Context, conversationID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants[conversationID] {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConvDB) UpdateLastRead(ctx stdctx.Context, conversationID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastRead[conversationID] == nil {
		f.lastRead[conversationID] = make(map[uuid.UUID]time.Time)
	}
	f.lastRead[conversationID][userID] = time.Now()
	return nil
}

func (f *fakeConvDB) SaveMessage(ctx stdctx.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *msg
	f.messages[msg.ID] = &stored
	return nil
}

func (f *fakeConvDB) GetMessage(ctx stdctx.Context, id uuid.UUID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok || msg.IsDeleted {
		return nil, utils.NewAppError(utils.ErrMessageNotFound, "message not found", nil)
	}
	result := *msg
	result.Reactions = f.reactions[id]
	return &result, nil
}

func (f *fakeConvDB) GetConversationMessages(ctx stdctx.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	messages := []*models.Message{}
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID && !msg.IsDeleted {
			result := *msg
			messages = append(messages, &result)
		}
	}
	return messages, nil
}

func (f *fakeConvDB) UpdateMessageContent(ctx stdctx.Context, messageID, senderID uuid.UUID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok || msg.IsDeleted || msg.SenderID != senderID {
		return utils.NewAppError(utils.ErrMessageNotFound, "message not found or not owned by sender", nil)
	}
	msg.Content = content
	msg.IsEdited = true
	return nil
}

func (f *fakeConvDB) SoftDeleteMessage(ctx stdctx.Context, messageID, senderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok || msg.IsDeleted || msg.SenderID != senderID {
		return utils.NewAppError(utils.ErrMessageNotFound, "message not found or not owned by sender", nil)
	}
	msg.IsDeleted = true
	return nil
}

func (f *fakeConvDB) AddReaction(ctx stdctx.Context, reaction *models.MessageReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reactions[reaction.MessageID] {
		if existing.UserID == reaction.UserID && existing.Emoji == reaction.Emoji {
			return nil
		}
	}
	stored := *reaction
	f.reactions[reaction.MessageID] = append(f.reactions[reaction.MessageID], &stored)
	return nil
}

func (f *fakeConvDB) RemoveReaction(ctx stdctx.Context, messageID, userID uuid.UUID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.reactions[messageID][:0]
	for _, reaction := range f.reactions[messageID] {
		if reaction.UserID == userID && reaction.Emoji == emoji {
			continue
		}
		kept = append(kept, reaction)
	}
	f.reactions[messageID] = kept
	return nil
}

func (f *fakeConvDB) GetMessageReactions(ctx stdctx.Context, messageID uuid.UUID) ([]*models.MessageReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reactions := []*models.MessageReaction{}
	for _, reaction := range f.reactions[messageID] {
		result := *reaction
		reactions = append(reactions, &result)
	}
	return reactions, nil
}

// eventRecorder collects bus events so tests can assert on what the actor
// published.
type eventRecorder struct {
	mu     sync.Mutex
	events []changefeed.Event
}

func (r *eventRecorder) record(event changefeed.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []changefeed.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]changefeed.Event{}, r.events...)
}

type fakePresence struct {
	mu       sync.Mutex
	presence map[uuid.UUID]*models.UserPresence
	typing   map[uuid.UUID]map[uuid.UUID]*models.TypingIndicator
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		presence: make(map[uuid.UUID]*models.UserPresence),
		typing:   make(map[uuid.UUID]map[uuid.UUID]*models.TypingIndicator),
	}
}

func (f *fakePresence) SetPresence(ctx stdctx.Context, presence *models.UserPresence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *presence
	f.presence[presence.UserID] = &stored
	return nil
}

func (f *fakePresence) ClearPresence(ctx stdctx.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.presence, userID)
	return nil
}

func (f *fakePresence) GetOnlineUsers(ctx stdctx.Context) ([]*models.UserPresence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	online := []*models.UserPresence{}
	for _, entry := range f.presence {
		if entry.Status != models.PresenceOnline {
			continue
		}
		result := *entry
		online = append(online, &result)
	}
	return online, nil
}

func (f *fakePresence) SetTyping(ctx stdctx.Context, indicator *models.TypingIndicator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.typing[indicator.ConversationID] == nil {
		f.typing[indicator.ConversationID] = make(map[uuid.UUID]*models.TypingIndicator)
	}
	stored := *indicator
	f.typing[indicator.ConversationID][indicator.UserID] = &stored
	return nil
}

func (f *fakePresence) ClearTyping(ctx stdctx.Context, conversationID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.typing[conversationID], userID)
	return nil
}

func (f *fakePresence) GetTypingUsers(ctx stdctx.Context, conversationID, excludeUserID uuid.UUID) ([]*models.TypingIndicator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	indicators := []*models.TypingIndicator{}
	for userID, indicator := range f.typing[conversationID] {
		if userID == excludeUserID {
			continue
		}
		result := *indicator
		indicators = append(indicators, &result)
	}
	return indicators, nil
}

func newConversationFixture(t *testing.T) (*actor.ActorSystem, *actor.PID, *fakeConvDB, *eventRecorder) {
	t.Helper()

	db := newFakeConvDB()
	bus := changefeed.NewLocalBus()
	recorder := &eventRecorder{}
	bus.Subscribe(recorder.record)

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewConversationActor(db, bus, nil)
	})
	pid := system.Root.Spawn(props)

	t.Cleanup(func() {
		system.Root.Stop(pid)
		bus.Close()
	})
	return system, pid, db, recorder
}

func ask(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func mustConversation(t *testing.T, result interface{}) *models.Conversation {
	t.Helper()
	conv, ok := result.(*models.Conversation)
	require.True(t, ok, "expected *models.Conversation, got %T: %v", result, result)
	return conv
}

func mustAppError(t *testing.T, result interface{}, code string) *utils.AppError {
	t.Helper()
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected *utils.AppError, got %T: %v", result, result)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestCreateDirectConversation(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()
	bob := uuid.New()

	first := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{bob},
	}))
	assert.Equal(t, models.ConversationDirect, first.Type)
	assert.Len(t, first.Participants, 2)
	for _, p := range first.Participants {
		if p.UserID == alice {
			assert.Equal(t, models.RoleAdmin, p.Role)
		} else {
			assert.Equal(t, models.RoleMember, p.Role)
		}
	}

	// No dedup: creating again yields a second thread between the same pair.
	again := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{bob},
	}))
	assert.NotEqual(t, first.ID, again.ID)
}

func TestCreateConversationValidation(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	creator := uuid.New()

	mustAppError(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationType("broadcast"),
		CreatorID:      creator,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}), utils.ErrInvalidInput)

	mustAppError(t, ask(t, system, pid, &CreateConversationMsg{
		Type:      models.ConversationGroup,
		Name:      "empty group",
		CreatorID: creator,
	}), utils.ErrInvalidInput)

	mustAppError(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      creator,
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}), utils.ErrInvalidInput)
}

func TestCreateGroupConversationCreatorIsAdmin(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	creator := uuid.New()
	member := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationGroup,
		Name:           "gophers",
		CreatorID:      creator,
		ParticipantIDs: []uuid.UUID{member},
	}))

	require.Len(t, conv.Participants, 2)
	roles := make(map[uuid.UUID]models.ParticipantRole)
	for _, p := range conv.Participants {
		roles[p.UserID] = p.Role
	}
	assert.Equal(t, models.RoleAdmin, roles[creator])
	assert.Equal(t, models.RoleMember, roles[member])
}

func TestAddParticipantsRequiresGroupAdmin(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	admin := uuid.New()
	member := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationGroup,
		Name:           "reviewers",
		CreatorID:      admin,
		ParticipantIDs: []uuid.UUID{member},
	}))

	mustAppError(t, ask(t, system, pid, &AddParticipantsMsg{
		ConversationID: conv.ID,
		RequesterID:    member,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}), utils.ErrForbidden)

	updated := mustConversation(t, ask(t, system, pid, &AddParticipantsMsg{
		ConversationID: conv.ID,
		RequesterID:    admin,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))
	assert.Len(t, updated.Participants, 3)
}

func TestAddParticipantsRejectsDirectConversation(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))

	mustAppError(t, ask(t, system, pid, &AddParticipantsMsg{
		ConversationID: conv.ID,
		RequesterID:    alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}), utils.ErrInvalidInput)
}

func TestSendMessageRequiresParticipant(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))

	mustAppError(t, ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       uuid.New(),
		Content:        "let me in",
		Type:           models.MessageText,
	}), utils.ErrNotParticipant)
}

func TestSendMessagePublishesInvalidation(t *testing.T) {
	system, pid, _, recorder := newConversationFixture(t)
	alice := uuid.New()
	bob := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{bob},
	}))

	result := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "hello",
		Type:           models.MessageText,
	})
	message, ok := result.(*models.Message)
	require.True(t, ok, "expected *models.Message, got %T", result)
	assert.Equal(t, "hello", message.Content)

	byChannel := make(map[string][]changefeed.Event)
	for _, event := range recorder.all() {
		byChannel[event.Channel] = append(byChannel[event.Channel], event)
	}

	messageEvents := byChannel[changefeed.MessagesChannel(conv.ID.String())]
	require.Len(t, messageEvents, 1)
	assert.Equal(t, changefeed.OpInsert, messageEvents[0].Op)
	assert.Equal(t, "messages", messageEvents[0].Table)
	assert.Equal(t, message.ID.String(), messageEvents[0].RecordID)

	// Both participants get a conversation-list invalidation.
	for _, userID := range []uuid.UUID{alice, bob} {
		listEvents := byChannel[changefeed.ConversationsChannel(userID.String())]
		require.Len(t, listEvents, 1)
		assert.Equal(t, changefeed.OpUpdate, listEvents[0].Op)
		assert.Equal(t, conv.ID.String(), listEvents[0].RecordID)
	}
}

func TestSendMessageRejectsEmptyBody(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))

	mustAppError(t, ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Type:           models.MessageText,
	}), utils.ErrInvalidInput)

	// A file attachment without text is a valid message.
	result := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Type:           models.MessageFile,
		FileURL:        "https://files.example.com/report.pdf",
		FileName:       "report.pdf",
	})
	message, ok := result.(*models.Message)
	require.True(t, ok, "expected *models.Message, got %T", result)
	assert.Equal(t, models.MessageFile, message.Type)
	assert.Equal(t, "report.pdf", message.FileName)
}

func TestSendMessageWithReplyTarget(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()
	bob := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{bob},
	}))
	original := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "anyone tried 1.23 yet?",
		Type:           models.MessageText,
	}).(*models.Message)

	reply := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       bob,
		Content:        "yes, upgrade was painless",
		Type:           models.MessageText,
		ReplyToID:      &original.ID,
	}).(*models.Message)
	require.NotNil(t, reply.ReplyToID)
	assert.Equal(t, original.ID, *reply.ReplyToID)
}

func TestEditMessageOnlyBySender(t *testing.T) {
	system, pid, _, recorder := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))
	message := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "draft",
		Type:           models.MessageText,
	}).(*models.Message)

	mustAppError(t, ask(t, system, pid, &EditMessageMsg{
		MessageID: message.ID,
		SenderID:  uuid.New(),
		Content:   "hijacked",
	}), utils.ErrMessageNotFound)

	result := ask(t, system, pid, &EditMessageMsg{
		MessageID: message.ID,
		SenderID:  alice,
		Content:   "final",
	})
	updated, ok := result.(*models.Message)
	require.True(t, ok, "expected *models.Message, got %T", result)
	assert.Equal(t, "final", updated.Content)
	assert.True(t, updated.IsEdited)

	lastEvent := recorder.all()[len(recorder.all())-1]
	assert.Equal(t, changefeed.OpUpdate, lastEvent.Op)
	assert.Equal(t, message.ID.String(), lastEvent.RecordID)
}

func TestDeleteMessageHidesFromReads(t *testing.T) {
	system, pid, db, recorder := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))
	message := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "oops",
		Type:           models.MessageText,
	}).(*models.Message)

	result := ask(t, system, pid, &DeleteMessageMsg{MessageID: message.ID, SenderID: alice})
	status, ok := result.(*models.StatusResponse)
	require.True(t, ok, "expected *models.StatusResponse, got %T", result)
	assert.True(t, status.Success)

	// The row is kept but flagged; listing skips it.
	db.mu.Lock()
	assert.True(t, db.messages[message.ID].IsDeleted)
	db.mu.Unlock()

	messages := ask(t, system, pid, &GetMessagesMsg{
		ConversationID: conv.ID,
		UserID:         alice,
	}).([]*models.Message)
	assert.Empty(t, messages)

	// A soft delete is announced as an update, not a delete.
	lastEvent := recorder.all()[len(recorder.all())-1]
	assert.Equal(t, changefeed.OpUpdate, lastEvent.Op)
	assert.Equal(t, changefeed.MessagesChannel(conv.ID.String()), lastEvent.Channel)
}

func TestReactionsAreIdempotentPerEmoji(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()
	bob := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{bob},
	}))
	message := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "ship it",
		Type:           models.MessageText,
	}).(*models.Message)

	react := &AddReactionMsg{MessageID: message.ID, UserID: bob, Emoji: "🚀"}
	reactions := ask(t, system, pid, react).([]*models.MessageReaction)
	require.Len(t, reactions, 1)
	assert.Equal(t, "🚀", reactions[0].Emoji)

	// Same user, same emoji again stays a single reaction.
	reactions = ask(t, system, pid, react).([]*models.MessageReaction)
	assert.Len(t, reactions, 1)

	// A different user adds a second one.
	reactions = ask(t, system, pid, &AddReactionMsg{
		MessageID: message.ID, UserID: alice, Emoji: "🚀",
	}).([]*models.MessageReaction)
	assert.Len(t, reactions, 2)

	remove := &RemoveReactionMsg{MessageID: message.ID, UserID: bob, Emoji: "🚀"}
	reactions = ask(t, system, pid, remove).([]*models.MessageReaction)
	assert.Len(t, reactions, 1)
	assert.Equal(t, alice, reactions[0].UserID)

	// Removing an already-removed reaction is a no-op, not an error.
	reactions = ask(t, system, pid, remove).([]*models.MessageReaction)
	assert.Len(t, reactions, 1)
}

func TestReactionRequiresParticipant(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))
	message := ask(t, system, pid, &SendMessageMsg{
		ConversationID: conv.ID,
		SenderID:       alice,
		Content:        "members only",
		Type:           models.MessageText,
	}).(*models.Message)

	mustAppError(t, ask(t, system, pid, &AddReactionMsg{
		MessageID: message.ID,
		UserID:    uuid.New(),
		Emoji:     "👀",
	}), utils.ErrNotParticipant)

	mustAppError(t, ask(t, system, pid, &AddReactionMsg{
		MessageID: message.ID,
		UserID:    alice,
	}), utils.ErrInvalidInput)
}

func TestTypingListExcludesCaller(t *testing.T) {
	db := newFakeConvDB()
	presence := newFakePresence()
	bus := changefeed.NewLocalBus()

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewConversationActor(db, bus, presence)
	})
	pid := system.Root.Spawn(props)
	t.Cleanup(func() {
		system.Root.Stop(pid)
		bus.Close()
	})

	conv := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	for userID, name := range map[uuid.UUID]string{alice: "alice", bob: "bob"} {
		status := ask(t, system, pid, &SetTypingMsg{
			ConversationID: conv,
			UserID:         userID,
			Username:       name,
		}).(*models.StatusResponse)
		assert.True(t, status.Success)
	}

	// Alice asking who is typing must not see herself.
	indicators := ask(t, system, pid, &GetTypingMsg{
		ConversationID:   conv,
		RequestingUserID: alice,
	}).([]*models.TypingIndicator)
	require.Len(t, indicators, 1)
	assert.Equal(t, bob, indicators[0].UserID)
}

func TestTypingWithoutPresenceStore(t *testing.T) {
	system, pid, _, _ := newConversationFixture(t)
	conv := uuid.New()

	// With no presence store configured typing is accepted as a no-op.
	status := ask(t, system, pid, &SetTypingMsg{
		ConversationID: conv,
		UserID:         uuid.New(),
		Username:       "gopher",
	}).(*models.StatusResponse)
	assert.True(t, status.Success)

	indicators := ask(t, system, pid, &GetTypingMsg{ConversationID: conv}).([]*models.TypingIndicator)
	assert.Empty(t, indicators)
}

func TestMarkReadRecordsTimestamp(t *testing.T) {
	system, pid, db, _ := newConversationFixture(t)
	alice := uuid.New()

	conv := mustConversation(t, ask(t, system, pid, &CreateConversationMsg{
		Type:           models.ConversationDirect,
		CreatorID:      alice,
		ParticipantIDs: []uuid.UUID{uuid.New()},
	}))

	status := ask(t, system, pid, &MarkReadMsg{
		ConversationID: conv.ID,
		UserID:         alice,
	}).(*models.StatusResponse)
	assert.True(t, status.Success)

	db.mu.Lock()
	_, recorded := db.lastRead[conv.ID][alice]
	db.mu.Unlock()
	assert.True(t, recorded)
}
