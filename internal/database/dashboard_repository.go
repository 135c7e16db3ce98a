// internal/database/dashboard_repository.go
package database

import (
	"context"

	"devconnect/internal/models"
	"devconnect/internal/utils"
)

// GetDashboardStats aggregates platform-wide counters in one round trip.
func (p *PostgresDB) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM posts) AS total_posts,
			(SELECT COUNT(*) FROM communities) AS total_communities,
			(SELECT COUNT(*) FROM events) AS total_events,
			(SELECT COUNT(*) FROM posts WHERE created_at > NOW() - INTERVAL '1 day') AS posts_today,
			(SELECT COUNT(*) FROM users WHERE is_connected = TRUE) AS active_users
	`
	var stats models.DashboardStats
	err := p.DB.GetContext(ctx, &stats, query)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query dashboard stats", err)
	}
	return &stats, nil
}
