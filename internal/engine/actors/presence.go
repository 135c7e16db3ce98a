package actors

import (
	stdctx "context"

	"devconnect/internal/models"

	"github.com/google/uuid"
)

// PresenceAdapter is the slice of the ephemeral store the actors depend on.
// The mongo-backed implementation lives in internal/database. A nil adapter
// disables presence and typing.
type PresenceAdapter interface {
	SetPresence(ctx stdctx.Context, presence *models.UserPresence) error
	ClearPresence(ctx stdctx.Context, userID uuid.UUID) error
	GetOnlineUsers(ctx stdctx.Context) ([]*models.UserPresence, error)
	SetTyping(ctx stdctx.Context, indicator *models.TypingIndicator) error
	ClearTyping(ctx stdctx.Context, conversationID, userID uuid.UUID) error
	GetTypingUsers(ctx stdctx.Context, conversationID, excludeUserID uuid.UUID) ([]*models.TypingIndicator, error)
}
