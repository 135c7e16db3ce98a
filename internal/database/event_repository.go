// internal/database/event_repository.go
package database

import (
	"context"
	"database/sql"
	"time"

	"devconnect/internal/models"
	"devconnect/internal/utils"

	"github.com/google/uuid"
)

type scanEvent struct {
	models.Event
	RawUserStatus sql.NullString `db:"user_status"`
}

func (se *scanEvent) toEvent() *models.Event {
	event := se.Event
	if se.RawUserStatus.Valid {
		event.UserStatus = se.RawUserStatus.String
	}
	return &event
}

const eventSelect = `
	SELECT
		e.id, e.creator_id, e.community_id, e.title, e.description, e.location,
		e.is_virtual, e.meeting_url, e.starts_at, e.ends_at, e.attendee_count,
		e.created_at, e.updated_at,
		a.status AS user_status
	FROM events e
	LEFT JOIN event_attendees a ON a.event_id = e.id AND a.user_id = $1
`

// CreateEvent inserts a new event record.
func (p *PostgresDB) CreateEvent(ctx context.Context, event *models.Event) error {
	now := time.Now()
	event.UpdatedAt = now
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}

	query := `
		INSERT INTO events (id, creator_id, community_id, title, description, location, is_virtual, meeting_url, starts_at, ends_at, attendee_count, created_at, updated_at)
		VALUES (:id, :creator_id, :community_id, :title, :description, :location, :is_virtual, :meeting_url, :starts_at, :ends_at, :attendee_count, :created_at, :updated_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, event)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to create event", err)
	}
	return nil
}

// GetEvent fetches an event by its ID with the requesting user's RSVP.
func (p *PostgresDB) GetEvent(ctx context.Context, id uuid.UUID, requestingUserID uuid.UUID) (*models.Event, error) {
	query := eventSelect + ` WHERE e.id = $2`
	var se scanEvent
	err := p.DB.GetContext(ctx, &se, query, requestingUserID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrNotFound, "event not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query event by id", err)
	}
	return se.toEvent(), nil
}

// GetUpcomingEvents lists events that have not ended yet, soonest first.
func (p *PostgresDB) GetUpcomingEvents(ctx context.Context, limit, offset int, requestingUserID uuid.UUID) ([]*models.Event, error) {
	query := eventSelect + `
		WHERE e.ends_at > NOW()
		ORDER BY e.starts_at ASC
		LIMIT $2 OFFSET $3
	`
	scanned := []scanEvent{}
	err := p.DB.SelectContext(ctx, &scanned, query, requestingUserID, limit, offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query upcoming events", err)
	}

	events := make([]*models.Event, len(scanned))
	for i := range scanned {
		events[i] = scanned[i].toEvent()
	}
	return events, nil
}

// GetCommunityEvents lists all events scoped to a community, soonest first.
func (p *PostgresDB) GetCommunityEvents(ctx context.Context, communityID uuid.UUID, requestingUserID uuid.UUID) ([]*models.Event, error) {
	query := eventSelect + `
		WHERE e.community_id = $2
		ORDER BY e.starts_at ASC
	`
	scanned := []scanEvent{}
	err := p.DB.SelectContext(ctx, &scanned, query, requestingUserID, communityID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query community events", err)
	}

	events := make([]*models.Event, len(scanned))
	for i := range scanned {
		events[i] = scanned[i].toEvent()
	}
	return events, nil
}

// SetAttendance upserts a user's RSVP and recomputes the attendee count.
// Only the "attending" status counts toward attendee_count.
func (p *PostgresDB) SetAttendance(ctx context.Context, eventID, userID uuid.UUID, status models.AttendanceStatus) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin attendance transaction", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	upsertQuery := `
		INSERT INTO event_attendees (event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
	`
	if _, err = tx.ExecContext(ctx, upsertQuery, eventID, userID, status); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to upsert attendance", err)
	}

	if err := recountAttendees(ctx, tx, eventID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit attendance transaction", err)
	}
	return nil
}

// RemoveAttendance deletes a user's RSVP and recomputes the attendee count.
func (p *PostgresDB) RemoveAttendance(ctx context.Context, eventID, userID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin attendance transaction", err)
	}
	defer tx.Rollback()

	deleteQuery := `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	result, err := tx.ExecContext(ctx, deleteQuery, eventID, userID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to remove attendance", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "attendance record not found", nil)
	}

	if err := recountAttendees(ctx, tx, eventID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit attendance transaction", err)
	}
	return nil
}

type execGetter interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func recountAttendees(ctx context.Context, tx execGetter, eventID uuid.UUID) error {
	query := `
		UPDATE events
		SET attendee_count = (SELECT COUNT(*) FROM event_attendees WHERE event_id = $1 AND status = 'attending'),
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, eventID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to recount event attendees", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrNotFound, "event not found for attendee recount", nil)
	}
	return nil
}

// GetEventAttendees fetches all RSVP rows for an event.
func (p *PostgresDB) GetEventAttendees(ctx context.Context, eventID uuid.UUID) ([]*models.EventAttendee, error) {
	query := `
		SELECT event_id, user_id, status, created_at, updated_at
		FROM event_attendees
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	attendees := []*models.EventAttendee{}
	err := p.DB.SelectContext(ctx, &attendees, query, eventID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query event attendees", err)
	}
	return attendees, nil
}
