// internal/database/postgres.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"devconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DBAdapter defines the common interface for database operations.
type DBAdapter interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUserProfile(ctx context.Context, user *models.User) error
	UpdateUserActivity(ctx context.Context, id uuid.UUID, active bool) error
	UpdateUserPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	SearchUsers(ctx context.Context, query string, limit int) ([]*models.UserSnippet, error)
	CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error
	GetPasswordResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, token string) error

	// Community methods
	CreateCommunity(ctx context.Context, community *models.Community) error
	GetCommunityByID(ctx context.Context, id uuid.UUID, requestingUserID uuid.UUID) (*models.Community, error)
	GetCommunityByName(ctx context.Context, name string) (*models.Community, error)
	GetAllCommunities(ctx context.Context, requestingUserID uuid.UUID) ([]*models.Community, error)
	UpdateCommunityMembership(ctx context.Context, communityID, userID uuid.UUID, join bool) error
	GetCommunityMemberIDs(ctx context.Context, communityID uuid.UUID) ([]uuid.UUID, error)
	IsCommunityMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID uuid.UUID, requestingUserID uuid.UUID) (*models.Post, error)
	GetRecentPosts(ctx context.Context, limit, offset int, requestingUserID uuid.UUID) ([]*models.Post, error)
	GetCommunityPosts(ctx context.Context, communityID uuid.UUID, limit, offset int, requestingUserID uuid.UUID) ([]*models.Post, error)
	GetUserPosts(ctx context.Context, userID uuid.UUID, limit, offset int, requestingUserID uuid.UUID) ([]*models.Post, error)
	DeletePost(ctx context.Context, postID, authorID uuid.UUID) error
	RecordVote(ctx context.Context, postID, userID uuid.UUID, value int) error

	// Comment methods
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	SoftDeleteComment(ctx context.Context, commentID, authorID uuid.UUID) error

	// Conversation methods
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	AddParticipants(ctx context.Context, conversationID uuid.UUID, participants []*models.ConversationParticipant) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	UpdateLastRead(ctx context.Context, conversationID, userID uuid.UUID) error

	// Message methods
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, error)
	UpdateMessageContent(ctx context.Context, messageID, senderID uuid.UUID, content string) error
	SoftDeleteMessage(ctx context.Context, messageID, senderID uuid.UUID) error
	AddReaction(ctx context.Context, reaction *models.MessageReaction) error
	RemoveReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
	GetMessageReactions(ctx context.Context, messageID uuid.UUID) ([]*models.MessageReaction, error)

	// Event methods
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID, requestingUserID uuid.UUID) (*models.Event, error)
	GetUpcomingEvents(ctx context.Context, limit, offset int, requestingUserID uuid.UUID) ([]*models.Event, error)
	GetCommunityEvents(ctx context.Context, communityID uuid.UUID, requestingUserID uuid.UUID) ([]*models.Event, error)
	SetAttendance(ctx context.Context, eventID, userID uuid.UUID, status models.AttendanceStatus) error
	RemoveAttendance(ctx context.Context, eventID, userID uuid.UUID) error
	GetEventAttendees(ctx context.Context, eventID uuid.UUID) ([]*models.EventAttendee, error)

	// Dashboard
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB *sqlx.DB
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL!")

	return &PostgresDB{
		DB: db,
	}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	log.Println("Closing PostgreSQL connection...")
	return p.DB.Close()
}

// InitializeTables creates all necessary tables if they don't exist
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				username VARCHAR(50) UNIQUE NOT NULL,
				email VARCHAR(100) UNIQUE NOT NULL,
				hashed_password VARCHAR(100) NOT NULL,
				full_name VARCHAR(100) DEFAULT '',
				bio TEXT DEFAULT '',
				avatar_url VARCHAR(255) DEFAULT '',
				github_username VARCHAR(50) DEFAULT '',
				karma INTEGER DEFAULT 0,
				is_connected BOOLEAN DEFAULT FALSE NOT NULL,
				last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"communities", `
			CREATE TABLE IF NOT EXISTS communities (
				id UUID PRIMARY KEY,
				name VARCHAR(50) UNIQUE NOT NULL,
				description TEXT DEFAULT '',
				avatar_url VARCHAR(255) DEFAULT '',
				creator_id UUID REFERENCES users(id),
				member_count INTEGER DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"community_members", `
			CREATE TABLE IF NOT EXISTS community_members (
				community_id UUID REFERENCES communities(id),
				user_id UUID REFERENCES users(id),
				joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (community_id, user_id)
			)
		`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id UUID PRIMARY KEY,
				author_id UUID REFERENCES users(id),
				community_id UUID REFERENCES communities(id),
				title VARCHAR(300) NOT NULL,
				content TEXT DEFAULT '',
				image_url VARCHAR(255) DEFAULT '',
				upvotes INTEGER DEFAULT 0,
				downvotes INTEGER DEFAULT 0,
				comment_count INTEGER DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"votes", `
			CREATE TABLE IF NOT EXISTS votes (
				post_id UUID REFERENCES posts(id) ON DELETE CASCADE,
				user_id UUID REFERENCES users(id),
				value INTEGER NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (post_id, user_id)
			)
		`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id UUID PRIMARY KEY,
				post_id UUID REFERENCES posts(id) ON DELETE CASCADE,
				author_id UUID REFERENCES users(id),
				parent_id UUID REFERENCES comments(id),
				content TEXT NOT NULL,
				is_deleted BOOLEAN DEFAULT FALSE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"conversations", `
			CREATE TABLE IF NOT EXISTS conversations (
				id UUID PRIMARY KEY,
				type VARCHAR(10) NOT NULL,
				name VARCHAR(100) DEFAULT '',
				description TEXT DEFAULT '',
				is_private BOOLEAN DEFAULT FALSE NOT NULL,
				created_by UUID REFERENCES users(id),
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"conversation_participants", `
			CREATE TABLE IF NOT EXISTS conversation_participants (
				conversation_id UUID REFERENCES conversations(id) ON DELETE CASCADE,
				user_id UUID REFERENCES users(id),
				role VARCHAR(10) DEFAULT 'member' NOT NULL,
				joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				last_read_at TIMESTAMP WITH TIME ZONE,
				PRIMARY KEY (conversation_id, user_id)
			)
		`},
		{"messages", `
			CREATE TABLE IF NOT EXISTS messages (
				id UUID PRIMARY KEY,
				conversation_id UUID REFERENCES conversations(id) ON DELETE CASCADE,
				sender_id UUID REFERENCES users(id),
				content TEXT NOT NULL,
				type VARCHAR(10) DEFAULT 'text' NOT NULL,
				file_url VARCHAR(255) DEFAULT '',
				file_name VARCHAR(255) DEFAULT '',
				reply_to_id UUID REFERENCES messages(id),
				is_edited BOOLEAN DEFAULT FALSE NOT NULL,
				is_deleted BOOLEAN DEFAULT FALSE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"message_reactions", `
			CREATE TABLE IF NOT EXISTS message_reactions (
				id UUID PRIMARY KEY,
				message_id UUID REFERENCES messages(id) ON DELETE CASCADE,
				user_id UUID REFERENCES users(id),
				emoji VARCHAR(20) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				UNIQUE(message_id, user_id, emoji)
			)
		`},
		{"events", `
			CREATE TABLE IF NOT EXISTS events (
				id UUID PRIMARY KEY,
				creator_id UUID REFERENCES users(id),
				community_id UUID REFERENCES communities(id),
				title VARCHAR(200) NOT NULL,
				description TEXT DEFAULT '',
				location VARCHAR(255) DEFAULT '',
				is_virtual BOOLEAN DEFAULT FALSE NOT NULL,
				meeting_url VARCHAR(255) DEFAULT '',
				starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
				ends_at TIMESTAMP WITH TIME ZONE NOT NULL,
				attendee_count INTEGER DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
		{"event_attendees", `
			CREATE TABLE IF NOT EXISTS event_attendees (
				event_id UUID REFERENCES events(id) ON DELETE CASCADE,
				user_id UUID REFERENCES users(id),
				status VARCHAR(20) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				PRIMARY KEY (event_id, user_id)
			)
		`},
		{"password_reset_tokens", `
			CREATE TABLE IF NOT EXISTS password_reset_tokens (
				token VARCHAR(100) PRIMARY KEY,
				user_id UUID REFERENCES users(id),
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				used BOOLEAN DEFAULT FALSE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`},
	}

	for _, stmt := range statements {
		if _, err := p.DB.ExecContext(ctx, stmt.query); err != nil {
			return fmt.Errorf("failed to create %s table: %v", stmt.name, err)
		}
	}

	return nil
}
