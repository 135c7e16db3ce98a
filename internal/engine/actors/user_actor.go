package actors

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"sync"
	"time"

	stdctx "context"

	"devconnect/internal/changefeed"
	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for user operations
type (
	RegisterUserMsg struct {
		Username string
		Email    string
		Password string
		FullName string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	// OAuthLoginMsg carries the profile returned by the OAuth provider. The
	// handler has already exchanged the code for these fields.
	OAuthLoginMsg struct {
		Email          string
		Username       string
		FullName       string
		AvatarURL      string
		GitHubUsername string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}

	UpdateProfileMsg struct {
		UserID         uuid.UUID
		FullName       string
		Bio            string
		AvatarURL      string
		GitHubUsername string
	}

	SearchUsersMsg struct {
		Query string
		Limit int
	}

	ConnectUserMsg struct {
		UserID uuid.UUID
	}

	DisconnectUserMsg struct {
		UserID uuid.UUID
	}

	SetPresenceMsg struct {
		UserID uuid.UUID
		Status models.PresenceStatus
	}

	GetOnlineUsersMsg struct{}

	RequestPasswordResetMsg struct {
		Email string
	}

	ResetPasswordMsg struct {
		Token       string
		NewPassword string
	}

	ChangePasswordMsg struct {
		UserID          uuid.UUID
		CurrentPassword string
		NewPassword     string
	}
)

// resetTokenTTL is how long a password reset link stays valid.
const resetTokenTTL = time.Hour

// UserSupervisor manages per-user actors and the account-level operations
// that don't belong to a single session.
type UserSupervisor struct {
	userActors map[uuid.UUID]*actor.PID
	mu         sync.RWMutex
	db         database.DBAdapter
	bus        changefeed.Bus
	presence   PresenceAdapter
}

func NewUserSupervisor(db database.DBAdapter, bus changefeed.Bus, presence PresenceAdapter) actor.Actor {
	return &UserSupervisor{
		userActors: make(map[uuid.UUID]*actor.PID),
		db:         db,
		bus:        bus,
		presence:   presence,
	}
}

func (s *UserSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *RegisterUserMsg:
		s.handleRegister(context, msg)

	case *LoginMsg:
		s.forwardToUserByEmail(context, msg.Email, msg)

	case *OAuthLoginMsg:
		s.handleOAuthLogin(context, msg)

	case *GetUserProfileMsg:
		s.forwardToUser(context, msg.UserID, msg)

	case *UpdateProfileMsg:
		s.forwardToUser(context, msg.UserID, msg)

	case *ConnectUserMsg:
		s.forwardToUser(context, msg.UserID, msg)

	case *DisconnectUserMsg:
		s.forwardToUser(context, msg.UserID, msg)

	case *SetPresenceMsg:
		s.forwardToUser(context, msg.UserID, msg)

	case *SearchUsersMsg:
		s.handleSearch(context, msg)

	case *GetOnlineUsersMsg:
		s.handleGetOnlineUsers(context)

	case *RequestPasswordResetMsg:
		s.handleRequestPasswordReset(context, msg)

	case *ResetPasswordMsg:
		s.handleResetPassword(context, msg)

	case *ChangePasswordMsg:
		s.forwardToUser(context, msg.UserID, msg)
	}
}

func (s *UserSupervisor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	log.Printf("UserSupervisor: Processing registration for email: %s", msg.Email)
	ctx := stdctx.Background()

	if msg.Username == "" || msg.Email == "" || msg.Password == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username, email and password are required", nil))
		return
	}

	if existing, _ := s.db.GetUserByEmail(ctx, msg.Email); existing != nil {
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashedPassword, err := hashPassword(msg.Password)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       msg.Username,
		Email:          msg.Email,
		HashedPassword: hashedPassword,
		FullName:       msg.FullName,
		CreatedAt:      time.Now(),
	}

	if err := s.db.SaveUser(ctx, user); err != nil {
		context.Respond(err)
		return
	}

	log.Printf("UserSupervisor: Registered user %s (%s)", user.ID, user.Username)
	context.Respond(user)
}

// handleOAuthLogin finds or creates the account matching the provider profile.
func (s *UserSupervisor) handleOAuthLogin(context actor.Context, msg *OAuthLoginMsg) {
	ctx := stdctx.Background()

	if msg.Email == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "OAuth profile has no email", nil))
		return
	}

	user, err := s.db.GetUserByEmail(ctx, msg.Email)
	if err == nil {
		context.Respond(user)
		return
	}
	if !utils.IsErrorCode(err, utils.ErrUserNotFound) {
		context.Respond(err)
		return
	}

	// First login through the provider: create the account with a random
	// password so the credential path stays unusable until reset.
	randomSecret, err := generateToken()
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to generate credentials", err))
		return
	}
	hashedPassword, err := hashPassword(randomSecret)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	user = &models.User{
		ID:             uuid.New(),
		Username:       msg.Username,
		Email:          msg.Email,
		HashedPassword: hashedPassword,
		FullName:       msg.FullName,
		AvatarURL:      msg.AvatarURL,
		GitHubUsername: msg.GitHubUsername,
		CreatedAt:      time.Now(),
	}

	if err := s.db.SaveUser(ctx, user); err != nil {
		context.Respond(err)
		return
	}

	log.Printf("UserSupervisor: Created user %s from OAuth profile", user.ID)
	context.Respond(user)
}

func (s *UserSupervisor) handleSearch(context actor.Context, msg *SearchUsersMsg) {
	ctx := stdctx.Background()
	snippets, err := s.db.SearchUsers(ctx, msg.Query, normalizeLimit(msg.Limit))
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(snippets)
}

func (s *UserSupervisor) handleGetOnlineUsers(context actor.Context) {
	if s.presence == nil {
		context.Respond([]*models.UserPresence{})
		return
	}
	ctx := stdctx.Background()
	presences, err := s.presence.GetOnlineUsers(ctx)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(presences)
}

func (s *UserSupervisor) handleRequestPasswordReset(context actor.Context, msg *RequestPasswordResetMsg) {
	ctx := stdctx.Background()

	user, err := s.db.GetUserByEmail(ctx, msg.Email)
	if err != nil {
		// Do not reveal whether the email exists.
		context.Respond(&models.StatusResponse{Success: true, Message: "If the account exists, a reset link was sent"})
		return
	}

	token, err := generateToken()
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to generate reset token", err))
		return
	}

	reset := &models.PasswordResetToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.CreatePasswordResetToken(ctx, reset); err != nil {
		context.Respond(err)
		return
	}

	// Delivery is the mailer's job; the token is returned so the handler can
	// hand it to the configured sender.
	context.Respond(reset)
}

func (s *UserSupervisor) handleResetPassword(context actor.Context, msg *ResetPasswordMsg) {
	ctx := stdctx.Background()

	if msg.NewPassword == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "new password is required", nil))
		return
	}

	reset, err := s.db.GetPasswordResetToken(ctx, msg.Token)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired reset token", nil))
		return
	}
	if reset.Used || time.Now().After(reset.ExpiresAt) {
		context.Respond(utils.NewAppError(utils.ErrInvalidToken, "Invalid or expired reset token", nil))
		return
	}

	hashedPassword, err := hashPassword(msg.NewPassword)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}

	if err := s.db.UpdateUserPassword(ctx, reset.UserID, hashedPassword); err != nil {
		context.Respond(err)
		return
	}
	if err := s.db.MarkResetTokenUsed(ctx, msg.Token); err != nil {
		log.Printf("UserSupervisor: Failed to mark reset token used: %v", err)
	}

	context.Respond(&models.StatusResponse{Success: true, Message: "Password updated"})
}

// forwardToUserByEmail resolves the account and routes the message to the
// per-user actor.
func (s *UserSupervisor) forwardToUserByEmail(context actor.Context, email string, message interface{}) {
	ctx := stdctx.Background()
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
		return
	}
	s.forwardToUser(context, user.ID, message)
}

func (s *UserSupervisor) forwardToUser(context actor.Context, userID uuid.UUID, message interface{}) {
	pid := s.getOrCreateUserActor(context, userID)

	future := context.RequestFuture(pid, message, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrActorTimeout, "User operation timed out", err))
		return
	}
	context.Respond(result)
}

func (s *UserSupervisor) getOrCreateUserActor(context actor.Context, userID uuid.UUID) *actor.PID {
	s.mu.RLock()
	pid, exists := s.userActors[userID]
	s.mu.RUnlock()

	if exists {
		return pid
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserActor(userID, s.db, s.bus, s.presence)
	})
	pid = context.Spawn(props)

	s.mu.Lock()
	s.userActors[userID] = pid
	s.mu.Unlock()

	return pid
}

// UserActor serves one account's session-level operations.
type UserActor struct {
	id       uuid.UUID
	db       database.DBAdapter
	bus      changefeed.Bus
	presence PresenceAdapter
}

func NewUserActor(id uuid.UUID, db database.DBAdapter, bus changefeed.Bus, presence PresenceAdapter) *UserActor {
	return &UserActor{
		id:       id,
		db:       db,
		bus:      bus,
		presence: presence,
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started for user %s", a.id)

	case *LoginMsg:
		a.handleLogin(context, msg)

	case *GetUserProfileMsg:
		a.handleGetProfile(context)

	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)

	case *ChangePasswordMsg:
		a.handleChangePassword(context, msg)

	case *ConnectUserMsg:
		a.handlePresenceChange(context, models.PresenceOnline, true)

	case *DisconnectUserMsg:
		a.handlePresenceChange(context, models.PresenceOffline, false)

	case *SetPresenceMsg:
		a.handlePresenceChange(context, msg.Status, msg.Status != models.PresenceOffline)
	}
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	ctx := stdctx.Background()

	user, err := a.db.GetUser(ctx, a.id)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil))
		return
	}

	if err := a.db.UpdateUserActivity(ctx, a.id, true); err != nil {
		log.Printf("UserActor: Failed to update activity for %s: %v", a.id, err)
	}
	user.IsConnected = true

	context.Respond(user)
}

func (a *UserActor) handleGetProfile(context actor.Context) {
	ctx := stdctx.Background()
	user, err := a.db.GetUser(ctx, a.id)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	ctx := stdctx.Background()

	user, err := a.db.GetUser(ctx, a.id)
	if err != nil {
		context.Respond(err)
		return
	}

	user.FullName = msg.FullName
	user.Bio = msg.Bio
	user.AvatarURL = msg.AvatarURL
	user.GitHubUsername = msg.GitHubUsername

	if err := a.db.UpdateUserProfile(ctx, user); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleChangePassword(context actor.Context, msg *ChangePasswordMsg) {
	ctx := stdctx.Background()

	if msg.NewPassword == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "new password is required", nil))
		return
	}

	user, err := a.db.GetUser(ctx, a.id)
	if err != nil {
		context.Respond(err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.CurrentPassword)); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "Current password is incorrect", nil))
		return
	}

	hashedPassword, err := hashPassword(msg.NewPassword)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Failed to hash password", err))
		return
	}
	if err := a.db.UpdateUserPassword(ctx, a.id, hashedPassword); err != nil {
		context.Respond(err)
		return
	}

	context.Respond(&models.StatusResponse{Success: true, Message: "Password updated"})
}

func (a *UserActor) handlePresenceChange(context actor.Context, status models.PresenceStatus, active bool) {
	ctx := stdctx.Background()

	if err := a.db.UpdateUserActivity(ctx, a.id, active); err != nil {
		context.Respond(err)
		return
	}

	if a.presence != nil {
		if status == models.PresenceOffline {
			if err := a.presence.ClearPresence(ctx, a.id); err != nil {
				log.Printf("UserActor: Failed to clear presence for %s: %v", a.id, err)
			}
		} else {
			entry := &models.UserPresence{UserID: a.id, Status: status}
			if err := a.presence.SetPresence(ctx, entry); err != nil {
				log.Printf("UserActor: Failed to set presence for %s: %v", a.id, err)
			}
		}
	}

	if a.bus != nil {
		op := changefeed.OpUpdate
		if status == models.PresenceOffline {
			op = changefeed.OpDelete
		}
		event := changefeed.Event{
			Channel:  changefeed.ChannelPresence,
			Table:    "user_presence",
			Op:       op,
			RecordID: a.id.String(),
		}
		if err := a.bus.Publish(ctx, event); err != nil {
			log.Printf("UserActor: Failed to publish presence event: %v", err)
		}
	}

	context.Respond(&models.StatusResponse{Success: true})
}
