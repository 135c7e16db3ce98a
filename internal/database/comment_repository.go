// internal/database/comment_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
)

type scanComment struct {
	models.Comment
	AuthorUsername sql.NullString `db:"author_username"`
	AuthorFullName sql.NullString `db:"author_full_name"`
	AuthorAvatar   sql.NullString `db:"author_avatar"`
}

func (sc *scanComment) toComment() *models.Comment {
	comment := sc.Comment
	if sc.AuthorUsername.Valid {
		comment.Author = &models.UserSnippet{
			ID:        comment.AuthorID.String(),
			Username:  sc.AuthorUsername.String,
			FullName:  sc.AuthorFullName.String,
			AvatarURL: sc.AuthorAvatar.String,
		}
	}
	return &comment
}

// SaveComment inserts a new comment and increments the comment_count on the
// post in the same transaction.
func (p *PostgresDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for save comment", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	comment.UpdatedAt = time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = comment.UpdatedAt
	}

	commentQuery := `
		INSERT INTO comments (id, post_id, author_id, parent_id, content, is_deleted, created_at, updated_at)
		VALUES (:id, :post_id, :author_id, :parent_id, :content, :is_deleted, :created_at, :updated_at)
	`
	_, err = tx.NamedExecContext(ctx, commentQuery, comment)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save comment", err)
	}

	updatePostCountQuery := `UPDATE posts SET comment_count = comment_count + 1, updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, updatePostCountQuery, comment.PostID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post comment_count", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, fmt.Sprintf("post %s not found to update comment count", comment.PostID), nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit comment transaction", err)
	}
	return nil
}

// GetComment fetches a single comment by its ID.
func (p *PostgresDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	query := `
		SELECT
			c.id, c.post_id, c.author_id, c.parent_id, c.content, c.is_deleted, c.created_at, c.updated_at,
			u.username AS author_username, u.full_name AS author_full_name, u.avatar_url AS author_avatar
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.id = $1
	`
	var sc scanComment
	err := p.DB.GetContext(ctx, &sc, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "comment not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query comment by id", err)
	}
	return sc.toComment(), nil
}

// GetPostComments fetches the flat comment list for a post in creation order.
// Nesting happens in the caller.
func (p *PostgresDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	query := `
		SELECT
			c.id, c.post_id, c.author_id, c.parent_id, c.content, c.is_deleted, c.created_at, c.updated_at,
			u.username AS author_username, u.full_name AS author_full_name, u.avatar_url AS author_avatar
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`
	scanned := []scanComment{}
	err := p.DB.SelectContext(ctx, &scanned, query, postID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post comments", err)
	}

	comments := make([]*models.Comment, len(scanned))
	for i := range scanned {
		comments[i] = scanned[i].toComment()
	}
	return comments, nil
}

// SoftDeleteComment blanks a comment's content and marks it deleted, keeping
// the row so replies stay attached. The post's comment_count is decremented.
func (p *PostgresDB) SoftDeleteComment(ctx context.Context, commentID, authorID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction for delete comment", err)
	}
	defer tx.Rollback()

	var postID uuid.UUID
	getPostIDQuery := `SELECT post_id FROM comments WHERE id = $1 AND author_id = $2 AND is_deleted = FALSE`
	err = tx.GetContext(ctx, &postID, getPostIDQuery, commentID, authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.NewAppError(utils.ErrNotFound, fmt.Sprintf("comment %s not found for deletion", commentID), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to get post_id from comment for deletion", err)
	}

	deleteQuery := `UPDATE comments SET content = '', is_deleted = TRUE, updated_at = NOW() WHERE id = $1`
	if _, err = tx.ExecContext(ctx, deleteQuery, commentID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to soft delete comment", err)
	}

	updatePostCountQuery := `UPDATE posts SET comment_count = GREATEST(0, comment_count - 1), updated_at = NOW() WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updatePostCountQuery, postID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post comment_count after deleting comment", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit comment deletion", err)
	}
	return nil
}
