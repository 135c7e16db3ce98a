// internal/database/post_repository.go
package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
)

// scanPost carries the joined author columns alongside the post row.
type scanPost struct {
	models.Post
	AuthorUsername sql.NullString `db:"author_username"`
	AuthorFullName sql.NullString `db:"author_full_name"`
	AuthorAvatar   sql.NullString `db:"author_avatar"`
}

func (sp *scanPost) toPost() *models.Post {
	post := sp.Post
	if sp.AuthorUsername.Valid {
		post.Author = &models.UserSnippet{
			ID:        post.AuthorID.String(),
			Username:  sp.AuthorUsername.String,
			FullName:  sp.AuthorFullName.String,
			AvatarURL: sp.AuthorAvatar.String,
		}
	}
	return &post
}

const postSelect = `
	SELECT
		p.id, p.author_id, p.community_id, p.title, p.content, p.image_url,
		p.upvotes, p.downvotes, p.comment_count, p.created_at, p.updated_at,
		u.username AS author_username, u.full_name AS author_full_name, u.avatar_url AS author_avatar,
		v.value AS user_vote
	FROM posts p
	JOIN users u ON p.author_id = u.id
	LEFT JOIN votes v ON v.post_id = p.id AND v.user_id = $1
`

// SavePost inserts a new post or updates an existing one based on the ID.
func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = post.UpdatedAt
	}

	query := `
		INSERT INTO posts (id, author_id, community_id, title, content, image_url, upvotes, downvotes, comment_count, created_at, updated_at)
		VALUES (:id, :author_id, :community_id, :title, :content, :image_url, :upvotes, :downvotes, :comment_count, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			image_url = EXCLUDED.image_url,
			updated_at = EXCLUDED.updated_at
	`
	// Note: author_id and community_id are never changed on conflict

	_, err := p.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// GetPost fetches a post by its ID including the requesting user's vote.
func (p *PostgresDB) GetPost(ctx context.Context, postID uuid.UUID, requestingUserID uuid.UUID) (*models.Post, error) {
	query := postSelect + ` WHERE p.id = $2`
	var sp scanPost
	err := p.DB.GetContext(ctx, &sp, query, requestingUserID, postID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "post not found", err)
		}
		log.Printf("Error fetching post %s: %v", postID, err)
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post by id", err)
	}
	return sp.toPost(), nil
}

// GetRecentPosts retrieves the newest posts across the whole platform.
func (p *PostgresDB) GetRecentPosts(ctx context.Context, limit, offset int, requestingUserID uuid.UUID) ([]*models.Post, error) {
	query := postSelect + ` ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`
	scanned := []scanPost{}
	err := p.DB.SelectContext(ctx, &scanned, query, requestingUserID, limit, offset)
	if err != nil {
		log.Printf("Error querying recent posts: %v", err)
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query recent posts", err)
	}

	posts := make([]*models.Post, len(scanned))
	for i := range scanned {
		posts[i] = scanned[i].toPost()
	}
	return posts, nil
}

// GetCommunityPosts retrieves posts for a specific community with pagination.
func (p *PostgresDB) GetCommunityPosts(ctx context.Context, communityID uuid.UUID, limit, offset int, requestingUserID uuid.UUID) ([]*models.Post, error) {
	query := postSelect + ` WHERE p.community_id = $2 ORDER BY p.created_at DESC LIMIT $3 OFFSET $4`
	scanned := []scanPost{}
	err := p.DB.SelectContext(ctx, &scanned, query, requestingUserID, communityID, limit, offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query community posts", err)
	}

	posts := make([]*models.Post, len(scanned))
	for i := range scanned {
		posts[i] = scanned[i].toPost()
	}
	return posts, nil
}

// GetUserPosts retrieves posts authored by a specific user.
func (p *PostgresDB) GetUserPosts(ctx context.Context, userID uuid.UUID, limit, offset int, requestingUserID uuid.UUID) ([]*models.Post, error) {
	query := postSelect + ` WHERE p.author_id = $2 ORDER BY p.created_at DESC LIMIT $3 OFFSET $4`
	scanned := []scanPost{}
	err := p.DB.SelectContext(ctx, &scanned, query, requestingUserID, userID, limit, offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user posts", err)
	}

	posts := make([]*models.Post, len(scanned))
	for i := range scanned {
		posts[i] = scanned[i].toPost()
	}
	return posts, nil
}

// DeletePost removes a post. Only the author may delete it.
func (p *PostgresDB) DeletePost(ctx context.Context, postID, authorID uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1 AND author_id = $2`
	result, err := p.DB.ExecContext(ctx, query, postID, authorID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "post not found or not owned by user", nil)
	}
	return nil
}

// RecordVote applies a vote with toggle semantics: voting the same direction
// again removes the vote, voting the other direction flips it. The post's
// upvote/downvote counters are kept consistent in the same transaction.
func (p *PostgresDB) RecordVote(ctx context.Context, postID, userID uuid.UUID, value int) error {
	if value != 1 && value != -1 {
		return utils.NewAppError(utils.ErrInvalidInput, "vote value must be 1 or -1", nil)
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin vote transaction", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	var existing sql.NullInt64
	getQuery := `SELECT value FROM votes WHERE post_id = $1 AND user_id = $2`
	err = tx.GetContext(ctx, &existing, getQuery, postID, userID)
	if err != nil && err != sql.ErrNoRows {
		return utils.NewAppError(utils.ErrDatabase, "failed to check existing vote", err)
	}

	upDelta := 0
	downDelta := 0
	switch {
	case !existing.Valid:
		// New vote
		insertQuery := `INSERT INTO votes (post_id, user_id, value, created_at) VALUES ($1, $2, $3, NOW())`
		if _, err = tx.ExecContext(ctx, insertQuery, postID, userID, value); err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to insert vote", err)
		}
		if value == 1 {
			upDelta = 1
		} else {
			downDelta = 1
		}
	case int(existing.Int64) == value:
		// Same direction again removes the vote
		deleteQuery := `DELETE FROM votes WHERE post_id = $1 AND user_id = $2`
		if _, err = tx.ExecContext(ctx, deleteQuery, postID, userID); err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to remove vote", err)
		}
		if value == 1 {
			upDelta = -1
		} else {
			downDelta = -1
		}
	default:
		// Flip direction
		updateQuery := `UPDATE votes SET value = $1, created_at = NOW() WHERE post_id = $2 AND user_id = $3`
		if _, err = tx.ExecContext(ctx, updateQuery, value, postID, userID); err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to update vote", err)
		}
		if value == 1 {
			upDelta = 1
			downDelta = -1
		} else {
			upDelta = -1
			downDelta = 1
		}
	}

	countQuery := `
		UPDATE posts
		SET upvotes = GREATEST(0, upvotes + $1), downvotes = GREATEST(0, downvotes + $2), updated_at = NOW()
		WHERE id = $3
	`
	result, err := tx.ExecContext(ctx, countQuery, upDelta, downDelta, postID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post vote counts", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "post not found for vote", nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit vote transaction", err)
	}
	return nil
}
