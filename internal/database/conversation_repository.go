// internal/database/conversation_repository.go
package database

import (
	"context"
	"database/sql"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
)

type scanParticipant struct {
	models.ConversationParticipant
	Username sql.NullString `db:"username"`
	FullName sql.NullString `db:"full_name"`
	Avatar   sql.NullString `db:"avatar_url"`
}

func (sp *scanParticipant) toParticipant() *models.ConversationParticipant {
	participant := sp.ConversationParticipant
	if sp.Username.Valid {
		participant.User = &models.UserSnippet{
			ID:        participant.UserID.String(),
			Username:  sp.Username.String,
			FullName:  sp.FullName.String,
			AvatarURL: sp.Avatar.String,
		}
	}
	return &participant
}

// CreateConversation inserts the conversation row. Participants are added in
// a separate call, so a failure in between leaves an empty conversation.
func (p *PostgresDB) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	now := time.Now()
	conv.UpdatedAt = now
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}

	query := `
		INSERT INTO conversations (id, type, name, description, is_private, created_by, created_at, updated_at)
		VALUES (:id, :type, :name, :description, :is_private, :created_by, :created_at, :updated_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, conv)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to create conversation", err)
	}
	return nil
}

// AddParticipants inserts participant rows for a conversation.
func (p *PostgresDB) AddParticipants(ctx context.Context, conversationID uuid.UUID, participants []*models.ConversationParticipant) error {
	query := `
		INSERT INTO conversation_participants (conversation_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`
	for _, participant := range participants {
		if _, err := p.DB.ExecContext(ctx, query, conversationID, participant.UserID, participant.Role); err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to add conversation participant", err)
		}
	}
	return nil
}

// GetConversation fetches a conversation with its participants.
func (p *PostgresDB) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `SELECT id, type, name, description, is_private, created_by, created_at, updated_at FROM conversations WHERE id = $1`
	var conv models.Conversation
	err := p.DB.GetContext(ctx, &conv, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrConversationNotFound, "conversation not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query conversation", err)
	}

	participants, err := p.getParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Participants = participants

	return &conv, nil
}

func (p *PostgresDB) getParticipants(ctx context.Context, conversationID uuid.UUID) ([]*models.ConversationParticipant, error) {
	query := `
		SELECT
			cp.conversation_id, cp.user_id, cp.role, cp.joined_at, cp.last_read_at,
			u.username, u.full_name, u.avatar_url
		FROM conversation_participants cp
		JOIN users u ON cp.user_id = u.id
		WHERE cp.conversation_id = $1
		ORDER BY cp.joined_at ASC
	`
	scanned := []scanParticipant{}
	err := p.DB.SelectContext(ctx, &scanned, query, conversationID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query conversation participants", err)
	}

	participants := make([]*models.ConversationParticipant, len(scanned))
	for i := range scanned {
		participants[i] = scanned[i].toParticipant()
	}
	return participants, nil
}

// GetUserConversations lists a user's conversations newest-activity first,
// each with participants, the last visible message and an unread count.
func (p *PostgresDB) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	query := `
		SELECT c.id, c.type, c.name, c.description, c.is_private, c.created_by, c.created_at, c.updated_at,
			(
				SELECT COUNT(*) FROM messages m
				WHERE m.conversation_id = c.id
				  AND m.is_deleted = FALSE
				  AND m.sender_id != $1
				  AND (cp.last_read_at IS NULL OR m.created_at > cp.last_read_at)
			) AS unread_count
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		ORDER BY c.updated_at DESC
	`
	conversations := []*models.Conversation{}
	err := p.DB.SelectContext(ctx, &conversations, query, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user conversations", err)
	}

	for _, conv := range conversations {
		participants, err := p.getParticipants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		conv.Participants = participants

		lastMsg, err := p.getLastMessage(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		conv.LastMessage = lastMsg
	}

	return conversations, nil
}

func (p *PostgresDB) getLastMessage(ctx context.Context, conversationID uuid.UUID) (*models.Message, error) {
	query := messageSelect + `
		WHERE m.conversation_id = $1 AND m.is_deleted = FALSE
		ORDER BY m.created_at DESC
		LIMIT 1
	`
	var sm scanMessage
	err := p.DB.GetContext(ctx, &sm, query, conversationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query last message", err)
	}
	return sm.toMessage(), nil
}

// IsParticipant reports whether a user belongs to a conversation.
func (p *PostgresDB) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`
	var isParticipant bool
	err := p.DB.GetContext(ctx, &isParticipant, query, conversationID, userID)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check conversation participation", err)
	}
	return isParticipant, nil
}

// UpdateLastRead stamps the participant's read marker with the current time.
func (p *PostgresDB) UpdateLastRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	query := `UPDATE conversation_participants SET last_read_at = NOW() WHERE conversation_id = $1 AND user_id = $2`
	result, err := p.DB.ExecContext(ctx, query, conversationID, userID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update last read marker", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotParticipant, "user is not a participant", nil)
	}
	return nil
}
