// internal/database/message_repository.go
package database

import (
	"context"
	"database/sql"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type scanMessage struct {
	models.Message
	SenderUsername sql.NullString `db:"sender_username"`
	SenderFullName sql.NullString `db:"sender_full_name"`
	SenderAvatar   sql.NullString `db:"sender_avatar"`
}

func (sm *scanMessage) toMessage() *models.Message {
	msg := sm.Message
	if sm.SenderUsername.Valid {
		msg.Sender = &models.UserSnippet{
			ID:        msg.SenderID.String(),
			Username:  sm.SenderUsername.String,
			FullName:  sm.SenderFullName.String,
			AvatarURL: sm.SenderAvatar.String,
		}
	}
	return &msg
}

const messageSelect = `
	SELECT
		m.id, m.conversation_id, m.sender_id, m.content, m.type, m.file_url, m.file_name,
		m.reply_to_id, m.is_edited, m.is_deleted, m.created_at, m.updated_at,
		u.username AS sender_username, u.full_name AS sender_full_name, u.avatar_url AS sender_avatar
	FROM messages m
	JOIN users u ON m.sender_id = u.id
`

// SaveMessage inserts a new message and bumps the conversation's updated_at
// in the same transaction so the conversation list keeps its ordering.
func (p *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for save message", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	now := time.Now()
	msg.UpdatedAt = now
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if msg.Type == "" {
		msg.Type = models.MessageText
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, type, file_url, file_name, reply_to_id, is_edited, is_deleted, created_at, updated_at)
		VALUES (:id, :conversation_id, :sender_id, :content, :type, :file_url, :file_name, :reply_to_id, :is_edited, :is_deleted, :created_at, :updated_at)
	`
	_, err = tx.NamedExecContext(ctx, query, msg)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save message", err)
	}

	touchQuery := `UPDATE conversations SET updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, touchQuery, msg.ConversationID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to touch conversation", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrConversationNotFound, "conversation not found for message", nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit message transaction", err)
	}
	return nil
}

// GetMessage fetches a single message by its ID, deleted or not.
func (p *PostgresDB) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := messageSelect + ` WHERE m.id = $1`
	var sm scanMessage
	err := p.DB.GetContext(ctx, &sm, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrMessageNotFound, "message not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query message by id", err)
	}
	return sm.toMessage(), nil
}

// GetConversationMessages fetches the visible messages of a conversation in
// creation order, each with its sender snippet and reactions. Soft-deleted
// messages are excluded.
func (p *PostgresDB) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error) {
	query := messageSelect + `
		WHERE m.conversation_id = $1 AND m.is_deleted = FALSE
		ORDER BY m.created_at ASC
		LIMIT $2 OFFSET $3
	`
	scanned := []scanMessage{}
	err := p.DB.SelectContext(ctx, &scanned, query, conversationID, limit, offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query conversation messages", err)
	}

	messages := make([]*models.Message, len(scanned))
	messageIDs := make([]uuid.UUID, len(scanned))
	for i := range scanned {
		messages[i] = scanned[i].toMessage()
		messageIDs[i] = messages[i].ID
	}

	if len(messageIDs) > 0 {
		reactionQuery := `
			SELECT id, message_id, user_id, emoji, created_at
			FROM message_reactions
			WHERE message_id = ANY($1)
			ORDER BY created_at ASC
		`
		reactions := []*models.MessageReaction{}
		err = p.DB.SelectContext(ctx, &reactions, reactionQuery, pq.Array(messageIDs))
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to query message reactions", err)
		}

		byMessage := make(map[uuid.UUID][]*models.MessageReaction)
		for _, reaction := range reactions {
			byMessage[reaction.MessageID] = append(byMessage[reaction.MessageID], reaction)
		}
		for _, msg := range messages {
			msg.Reactions = byMessage[msg.ID]
		}
	}

	if err := p.attachReplyTargets(ctx, messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// attachReplyTargets resolves each message's reply_to_id to a nested message.
// Targets usually sit in the same page, so those are linked from the slice;
// the rest are fetched in one extra query. Targets are not nested further.
func (p *PostgresDB) attachReplyTargets(ctx context.Context, messages []*models.Message) error {
	byID := make(map[uuid.UUID]*models.Message, len(messages))
	for _, msg := range messages {
		byID[msg.ID] = msg
	}

	missing := []uuid.UUID{}
	for _, msg := range messages {
		if msg.ReplyToID == nil {
			continue
		}
		if target, ok := byID[*msg.ReplyToID]; ok {
			shallow := *target
			shallow.ReplyTo = nil
			msg.ReplyTo = &shallow
		} else {
			missing = append(missing, *msg.ReplyToID)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	query := messageSelect + ` WHERE m.id = ANY($1)`
	scanned := []scanMessage{}
	if err := p.DB.SelectContext(ctx, &scanned, query, pq.Array(missing)); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to query reply targets", err)
	}
	targets := make(map[uuid.UUID]*models.Message, len(scanned))
	for i := range scanned {
		target := scanned[i].toMessage()
		targets[target.ID] = target
	}
	for _, msg := range messages {
		if msg.ReplyTo == nil && msg.ReplyToID != nil {
			msg.ReplyTo = targets[*msg.ReplyToID]
		}
	}
	return nil
}

// UpdateMessageContent edits a message's text. Only the sender can edit, and
// the message is flagged as edited.
func (p *PostgresDB) UpdateMessageContent(ctx context.Context, messageID, senderID uuid.UUID, content string) error {
	query := `
		UPDATE messages
		SET content = $1, is_edited = TRUE, updated_at = NOW()
		WHERE id = $2 AND sender_id = $3 AND is_deleted = FALSE
	`
	result, err := p.DB.ExecContext(ctx, query, content, messageID, senderID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update message content", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrMessageNotFound, "message not found or not owned by sender", nil)
	}
	return nil
}

// SoftDeleteMessage marks a message deleted so reads skip it. The row stays.
func (p *PostgresDB) SoftDeleteMessage(ctx context.Context, messageID, senderID uuid.UUID) error {
	query := `
		UPDATE messages
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND sender_id = $2 AND is_deleted = FALSE
	`
	result, err := p.DB.ExecContext(ctx, query, messageID, senderID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to soft delete message", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrMessageNotFound, "message not found or not owned by sender", nil)
	}
	return nil
}

// AddReaction records an emoji reaction. Adding the same emoji twice for the
// same user and message is a no-op.
func (p *PostgresDB) AddReaction(ctx context.Context, reaction *models.MessageReaction) error {
	if reaction.CreatedAt.IsZero() {
		reaction.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO message_reactions (id, message_id, user_id, emoji, created_at)
		VALUES (:id, :message_id, :user_id, :emoji, :created_at)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
	`
	_, err := p.DB.NamedExecContext(ctx, query, reaction)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to add reaction", err)
	}
	return nil
}

// RemoveReaction deletes one user's emoji reaction from a message. Removing a
// reaction that is already gone is a no-op.
func (p *PostgresDB) RemoveReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	query := `DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`
	if _, err := p.DB.ExecContext(ctx, query, messageID, userID, emoji); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to remove reaction", err)
	}
	return nil
}

// GetMessageReactions fetches all reactions on a message in creation order.
func (p *PostgresDB) GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]*models.MessageReaction, error) {
	query := `
		SELECT id, message_id, user_id, emoji, created_at
		FROM message_reactions
		WHERE message_id = $1
		ORDER BY created_at ASC
	`
	reactions := []*models.MessageReaction{}
	err := p.DB.SelectContext(ctx, &reactions, query, messageID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query message reactions", err)
	}
	return reactions, nil
}
