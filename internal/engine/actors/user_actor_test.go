package actors

import (
	stdctx "context"
	"strings"
	"sync"
	"testing"
	"time"

	"devconnect/internal/database"
	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserDB struct {
	database.DBAdapter

	mu          sync.Mutex
	users       map[uuid.UUID]*models.User
	resetTokens map[string]*models.PasswordResetToken
}

func newFakeUserDB() *fakeUserDB {
	return &fakeUserDB{
		users:       make(map[uuid.UUID]*models.User),
		resetTokens: make(map[string]*models.PasswordResetToken),
	}
}

func (f *fakeUserDB) GetUserByEmail(ctx stdctx.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			result := *user
			return &result, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
}

func (f *fakeUserDB) GetUser(ctx stdctx.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
	}
	result := *user
	return &result, nil
}

func (f *fakeUserDB) SaveUser(ctx stdctx.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserDB) UpdateUserProfile(ctx stdctx.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.users[user.ID]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
	}
	existing.FullName = user.FullName
	existing.Bio = user.Bio
	existing.AvatarURL = user.AvatarURL
	existing.GitHubUsername = user.GitHubUsername
	return nil
}

func (f *fakeUserDB) UpdateUserActivity(ctx stdctx.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		user.IsConnected = active
		user.LastActive = time.Now()
	}
	return nil
}

func (f *fakeUserDB) UpdateUserPassword(ctx stdctx.Context, id uuid.UUID, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
	}
	user.HashedPassword = hashedPassword
	return nil
}

func (f *fakeUserDB) SearchUsers(ctx stdctx.Context, query string, limit int) ([]*models.UserSnippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snippets := []*models.UserSnippet{}
	for _, user := range f.users {
		if strings.Contains(user.Username, query) {
			snippets = append(snippets, &models.UserSnippet{
				ID:       user.ID.String(),
				Username: user.Username,
				FullName: user.FullName,
			})
		}
		if len(snippets) >= limit {
			break
		}
	}
	return snippets, nil
}

func (f *fakeUserDB) CreatePasswordResetToken(ctx stdctx.Context, token *models.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *token
	f.resetTokens[token.Token] = &stored
	return nil
}

func (f *fakeUserDB) GetPasswordResetToken(ctx stdctx.Context, token string) (*models.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reset, ok := f.resetTokens[token]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotFound, "token not found", nil)
	}
	result := *reset
	return &result, nil
}

func (f *fakeUserDB) MarkResetTokenUsed(ctx stdctx.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reset, ok := f.resetTokens[token]; ok {
		reset.Used = true
	}
	return nil
}

func newUserFixture(t *testing.T) (*actor.ActorSystem, *actor.PID, *fakeUserDB) {
	t.Helper()

	db := newFakeUserDB()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(db, nil, nil)
	})
	pid := system.Root.Spawn(props)
	t.Cleanup(func() { system.Root.Stop(pid) })
	return system, pid, db
}

func mustUser(t *testing.T, result interface{}) *models.User {
	t.Helper()
	user, ok := result.(*models.User)
	require.True(t, ok, "expected *models.User, got %T: %v", result, result)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	registered := mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "hunter22",
		FullName: "Glenda Gopher",
	}))
	assert.Equal(t, "gopher", registered.Username)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(registered.HashedPassword), []byte("hunter22")))

	mustAppError(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "other",
		Email:    "gopher@example.com",
		Password: "different",
	}), utils.ErrUserAlreadyExists)

	logged := mustUser(t, ask(t, system, pid, &LoginMsg{
		Email:    "gopher@example.com",
		Password: "hunter22",
	}))
	assert.Equal(t, registered.ID, logged.ID)
	assert.True(t, logged.IsConnected)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "hunter22",
	}))

	// Wrong password and unknown email produce the same error code.
	mustAppError(t, ask(t, system, pid, &LoginMsg{
		Email:    "gopher@example.com",
		Password: "wrong",
	}), utils.ErrInvalidCredentials)

	mustAppError(t, ask(t, system, pid, &LoginMsg{
		Email:    "nobody@example.com",
		Password: "hunter22",
	}), utils.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	mustAppError(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
	}), utils.ErrInvalidInput)
}

func TestOAuthLoginCreatesAccountOnce(t *testing.T) {
	system, pid, db := newUserFixture(t)

	profile := &OAuthLoginMsg{
		Email:          "octocat@example.com",
		Username:       "octocat",
		FullName:       "The Octocat",
		AvatarURL:      "https://avatars.example.com/octocat",
		GitHubUsername: "octocat",
	}

	first := mustUser(t, ask(t, system, pid, profile))
	assert.Equal(t, "octocat", first.GitHubUsername)
	assert.NotEmpty(t, first.HashedPassword)

	second := mustUser(t, ask(t, system, pid, profile))
	assert.Equal(t, first.ID, second.ID)

	db.mu.Lock()
	assert.Len(t, db.users, 1)
	db.mu.Unlock()

	// The generated password is random, so the credential login stays shut.
	mustAppError(t, ask(t, system, pid, &LoginMsg{
		Email:    "octocat@example.com",
		Password: "",
	}), utils.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	user := mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "hunter22",
	}))

	updated := mustUser(t, ask(t, system, pid, &UpdateProfileMsg{
		UserID:         user.ID,
		FullName:       "Glenda",
		Bio:            "plan 9 fan",
		GitHubUsername: "glenda",
	}))
	assert.Equal(t, "Glenda", updated.FullName)
	assert.Equal(t, "plan 9 fan", updated.Bio)
	assert.Equal(t, "glenda", updated.GitHubUsername)
}

func TestPasswordResetFlow(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	user := mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "oldpass",
	}))

	result := ask(t, system, pid, &RequestPasswordResetMsg{Email: "gopher@example.com"})
	reset, ok := result.(*models.PasswordResetToken)
	require.True(t, ok, "expected *models.PasswordResetToken, got %T", result)
	assert.Equal(t, user.ID, reset.UserID)
	assert.NotEmpty(t, reset.Token)
	assert.WithinDuration(t, time.Now().Add(resetTokenTTL), reset.ExpiresAt, time.Minute)

	status := ask(t, system, pid, &ResetPasswordMsg{
		Token:       reset.Token,
		NewPassword: "newpass",
	}).(*models.StatusResponse)
	assert.True(t, status.Success)

	mustUser(t, ask(t, system, pid, &LoginMsg{
		Email:    "gopher@example.com",
		Password: "newpass",
	}))
	mustAppError(t, ask(t, system, pid, &LoginMsg{
		Email:    "gopher@example.com",
		Password: "oldpass",
	}), utils.ErrInvalidCredentials)

	// A token is single use.
	mustAppError(t, ask(t, system, pid, &ResetPasswordMsg{
		Token:       reset.Token,
		NewPassword: "again",
	}), utils.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	user := mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "oldpass",
	}))

	mustAppError(t, ask(t, system, pid, &ChangePasswordMsg{
		UserID:          user.ID,
		CurrentPassword: "wrong",
		NewPassword:     "newpass",
	}), utils.ErrInvalidCredentials)

	status := ask(t, system, pid, &ChangePasswordMsg{
		UserID:          user.ID,
		CurrentPassword: "oldpass",
		NewPassword:     "newpass",
	}).(*models.StatusResponse)
	assert.True(t, status.Success)

	mustUser(t, ask(t, system, pid, &LoginMsg{
		Email:    "gopher@example.com",
		Password: "newpass",
	}))
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	system, pid, db := newUserFixture(t)

	result := ask(t, system, pid, &RequestPasswordResetMsg{Email: "ghost@example.com"})
	status, ok := result.(*models.StatusResponse)
	require.True(t, ok, "expected *models.StatusResponse, got %T", result)
	assert.True(t, status.Success)

	db.mu.Lock()
	assert.Empty(t, db.resetTokens)
	db.mu.Unlock()
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	system, pid, db := newUserFixture(t)

	user := mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "oldpass",
	}))

	db.mu.Lock()
	db.resetTokens["stale"] = &models.PasswordResetToken{
		Token:     "stale",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	db.mu.Unlock()

	mustAppError(t, ask(t, system, pid, &ResetPasswordMsg{
		Token:       "stale",
		NewPassword: "newpass",
	}), utils.ErrInvalidToken)
}

func TestSearchUsers(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "hunter22",
	}))

	result := ask(t, system, pid, &SearchUsersMsg{Query: "goph", Limit: 10})
	snippets, ok := result.([]*models.UserSnippet)
	require.True(t, ok, "expected []*models.UserSnippet, got %T", result)
	require.Len(t, snippets, 1)
	assert.Equal(t, "gopher", snippets[0].Username)
}

func TestPresenceFollowsConnectionLifecycle(t *testing.T) {
	db := newFakeUserDB()
	presence := newFakePresence()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(db, nil, presence)
	})
	pid := system.Root.Spawn(props)
	t.Cleanup(func() { system.Root.Stop(pid) })

	user := mustUser(t, ask(t, system, pid, &RegisterUserMsg{
		Username: "gopher",
		Email:    "gopher@example.com",
		Password: "hunter22",
	}))

	status := ask(t, system, pid, &ConnectUserMsg{UserID: user.ID}).(*models.StatusResponse)
	assert.True(t, status.Success)

	online := ask(t, system, pid, &GetOnlineUsersMsg{}).([]*models.UserPresence)
	require.Len(t, online, 1)
	assert.Equal(t, user.ID, online[0].UserID)

	// Away users keep a presence entry but are not reported as online.
	ask(t, system, pid, &SetPresenceMsg{UserID: user.ID, Status: models.PresenceAway})
	online = ask(t, system, pid, &GetOnlineUsersMsg{}).([]*models.UserPresence)
	assert.Empty(t, online)

	ask(t, system, pid, &DisconnectUserMsg{UserID: user.ID})
	online = ask(t, system, pid, &GetOnlineUsersMsg{}).([]*models.UserPresence)
	assert.Empty(t, online)
}

func TestGetOnlineUsersWithoutPresenceStore(t *testing.T) {
	system, pid, _ := newUserFixture(t)

	result := ask(t, system, pid, &GetOnlineUsersMsg{})
	presences, ok := result.([]*models.UserPresence)
	require.True(t, ok, "expected []*models.UserPresence, got %T", result)
	assert.Empty(t, presences)
}
