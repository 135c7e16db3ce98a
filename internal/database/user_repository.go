// internal/database/user_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, username, email, hashed_password, full_name, bio, avatar_url, github_username, karma, is_connected, last_active, created_at, updated_at`

// GetUserByEmail fetches a user by their email address.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by email", err)
	}
	return &user, nil
}

// GetUserByUsername fetches a user by their username.
func (p *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by username", err)
	}
	return &user, nil
}

// GetUser fetches a user by their ID, including community memberships.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by id", err)
	}

	membershipQuery := `SELECT community_id FROM community_members WHERE user_id = $1`
	var communityIDs []uuid.UUID
	err = p.DB.SelectContext(ctx, &communityIDs, membershipQuery, id)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user community memberships", err)
	}
	user.Communities = communityIDs

	return &user, nil
}

// SaveUser inserts a new user into the database.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.UpdatedAt = now
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastActive.IsZero() {
		user.LastActive = now
	}

	query := `
		INSERT INTO users (id, username, email, hashed_password, full_name, bio, avatar_url, github_username, karma, is_connected, last_active, created_at, updated_at)
		VALUES (:id, :username, :email, :hashed_password, :full_name, :bio, :avatar_url, :github_username, :karma, :is_connected, :last_active, :created_at, :updated_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, user)
	if err != nil {
		// Check for duplicate key violation (username or email)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrDuplicate, fmt.Sprintf("user already exists: %v", pqErr.Constraint), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// UpdateUserProfile updates the editable profile fields of a user.
func (p *PostgresDB) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET full_name = $1, bio = $2, avatar_url = $3, github_username = $4, updated_at = NOW()
		WHERE id = $5
	`
	result, err := p.DB.ExecContext(ctx, query, user.FullName, user.Bio, user.AvatarURL, user.GitHubUsername, user.ID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user profile", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for profile update", nil)
	}
	return nil
}

// UpdateUserActivity updates the user's last active time and connection status.
func (p *PostgresDB) UpdateUserActivity(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET last_active = NOW(), is_connected = $1, updated_at = NOW() WHERE id = $2`
	result, err := p.DB.ExecContext(ctx, query, active, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user activity", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for activity update", nil)
	}
	return nil
}

// UpdateUserPassword replaces a user's password hash.
func (p *PostgresDB) UpdateUserPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	query := `UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2`
	result, err := p.DB.ExecContext(ctx, query, hashedPassword, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update user password", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for password update", nil)
	}
	return nil
}

// SearchUsers finds users whose username or full name matches the query.
func (p *PostgresDB) SearchUsers(ctx context.Context, search string, limit int) ([]*models.UserSnippet, error) {
	query := `
		SELECT id, username, full_name, avatar_url
		FROM users
		WHERE username ILIKE $1 OR full_name ILIKE $1
		ORDER BY username ASC
		LIMIT $2
	`
	snippets := []*models.UserSnippet{}
	err := p.DB.SelectContext(ctx, &snippets, query, "%"+search+"%", limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to search users", err)
	}
	return snippets, nil
}

// CreatePasswordResetToken stores a new single-use reset token.
func (p *PostgresDB) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO password_reset_tokens (token, user_id, expires_at, used, created_at)
		VALUES (:token, :user_id, :expires_at, :used, :created_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, token)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to create password reset token", err)
	}
	return nil
}

// GetPasswordResetToken fetches a reset token by its value.
func (p *PostgresDB) GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `SELECT token, user_id, expires_at, used, created_at FROM password_reset_tokens WHERE token = $1`
	var reset models.PasswordResetToken
	err := p.DB.GetContext(ctx, &reset, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "reset token not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query reset token", err)
	}
	return &reset, nil
}

// MarkResetTokenUsed invalidates a reset token after a successful reset.
func (p *PostgresDB) MarkResetTokenUsed(ctx context.Context, token string) error {
	query := `UPDATE password_reset_tokens SET used = TRUE WHERE token = $1`
	result, err := p.DB.ExecContext(ctx, query, token)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to mark reset token used", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "reset token not found", nil)
	}
	return nil
}
