// internal/database/community_repository.go
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

// CreateCommunity inserts a new community record.
func (p *PostgresDB) CreateCommunity(ctx context.Context, community *models.Community) error {
	now := time.Now()
	community.UpdatedAt = now
	if community.CreatedAt.IsZero() {
		community.CreatedAt = now
	}
	if community.MemberCount < 0 {
		community.MemberCount = 0
	}

	query := `
		INSERT INTO communities (id, name, description, avatar_url, creator_id, member_count, created_at, updated_at)
		VALUES (:id, :name, :description, :avatar_url, :creator_id, :member_count, :created_at, :updated_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, community)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrCommunityExists, fmt.Sprintf("community %q already exists", community.Name), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to create community", err)
	}
	return nil
}

// GetCommunityByID fetches a community by its ID and flags whether the
// requesting user is a member.
func (p *PostgresDB) GetCommunityByID(ctx context.Context, id uuid.UUID, requestingUserID uuid.UUID) (*models.Community, error) {
	query := `
		SELECT c.id, c.name, c.description, c.avatar_url, c.creator_id, c.member_count, c.created_at, c.updated_at,
			(m.user_id IS NOT NULL) AS is_member
		FROM communities c
		LEFT JOIN community_members m ON m.community_id = c.id AND m.user_id = $2
		WHERE c.id = $1
	`
	var community models.Community
	err := p.DB.GetContext(ctx, &community, query, id, requestingUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrCommunityNotFound, "community not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query community by id", err)
	}
	return &community, nil
}

// GetCommunityByName fetches a community by its name.
func (p *PostgresDB) GetCommunityByName(ctx context.Context, name string) (*models.Community, error) {
	query := `SELECT id, name, description, avatar_url, creator_id, member_count, created_at, updated_at FROM communities WHERE name = $1`
	var community models.Community
	err := p.DB.GetContext(ctx, &community, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrCommunityNotFound, "community not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query community by name", err)
	}
	return &community, nil
}

// GetAllCommunities fetches all communities with the requesting user's
// membership flag, newest first.
func (p *PostgresDB) GetAllCommunities(ctx context.Context, requestingUserID uuid.UUID) ([]*models.Community, error) {
	query := `
		SELECT c.id, c.name, c.description, c.avatar_url, c.creator_id, c.member_count, c.created_at, c.updated_at,
			(m.user_id IS NOT NULL) AS is_member
		FROM communities c
		LEFT JOIN community_members m ON m.community_id = c.id AND m.user_id = $1
		ORDER BY c.created_at DESC
	`
	communities := []*models.Community{}
	err := p.DB.SelectContext(ctx, &communities, query, requestingUserID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query all communities", err)
	}
	return communities, nil
}

// UpdateCommunityMembership joins or leaves a community and keeps the
// member_count in step, all inside one transaction.
func (p *PostgresDB) UpdateCommunityMembership(ctx context.Context, communityID, userID uuid.UUID, join bool) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin membership transaction", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	var changed int64
	if join {
		query := `INSERT INTO community_members (community_id, user_id, joined_at) VALUES ($1, $2, NOW()) ON CONFLICT (community_id, user_id) DO NOTHING`
		result, err := tx.ExecContext(ctx, query, communityID, userID)
		if err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to add community member", err)
		}
		changed, _ = result.RowsAffected()
		if changed == 0 {
			return utils.NewAppError(utils.ErrAlreadyCommunityMember, "user is already a member", nil)
		}
	} else {
		query := `DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`
		result, err := tx.ExecContext(ctx, query, communityID, userID)
		if err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to remove community member", err)
		}
		changed, _ = result.RowsAffected()
		if changed == 0 {
			return utils.NewAppError(utils.ErrNotCommunityMember, "user is not a member", nil)
		}
	}

	delta := 1
	if !join {
		delta = -1
	}
	countQuery := `UPDATE communities SET member_count = GREATEST(0, member_count + $1), updated_at = NOW() WHERE id = $2`
	result, err := tx.ExecContext(ctx, countQuery, delta, communityID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update community member count", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrCommunityNotFound, "community not found when updating member count", nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit membership transaction", err)
	}
	return nil
}

// GetCommunityMemberIDs fetches all member IDs for a given community.
func (p *PostgresDB) GetCommunityMemberIDs(ctx context.Context, communityID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM community_members WHERE community_id = $1`
	var memberIDs []uuid.UUID
	err := p.DB.SelectContext(ctx, &memberIDs, query, communityID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query community member IDs", err)
	}
	return memberIDs, nil
}

// IsCommunityMember reports whether a user belongs to a community.
func (p *PostgresDB) IsCommunityMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM community_members WHERE community_id = $1 AND user_id = $2)`
	var isMember bool
	err := p.DB.GetContext(ctx, &isMember, query, communityID, userID)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check community membership", err)
	}
	return isMember, nil
}
