package models

// DashboardStats aggregates platform-wide counters for the overview page.
type DashboardStats struct {
	TotalUsers       int `json:"totalUsers" db:"total_users"`
	TotalPosts       int `json:"totalPosts" db:"total_posts"`
	TotalCommunities int `json:"totalCommunities" db:"total_communities"`
	TotalEvents      int `json:"totalEvents" db:"total_events"`
	PostsToday       int `json:"postsToday" db:"posts_today"`
	ActiveUsers      int `json:"activeUsers" db:"active_users"`
}
