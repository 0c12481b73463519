package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachEscrow/internal/models"
)

// Session ids and scheduled times are unsigned 64-bit values stored in
// BIGINT columns; they are bit-cast on the way in and out so the full range
// round-trips.

const sessionColumns = `session_id, client, coach, amount, scheduled_time, attended, attendance_marked, completed, created_at, updated_at`

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.CoachingSession) error {
	query := `
		INSERT INTO coaching_sessions (session_id, client, coach, amount, scheduled_time, attended, attendance_marked, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		int64(session.SessionID),
		session.Client,
		session.Coach,
		session.Amount,
		int64(session.ScheduledTime),
		session.Attended,
		session.AttendanceMarked,
		session.Completed,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uint64) (*models.CoachingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM coaching_sessions
		WHERE session_id = $1
	`
	session, err := scanSession(r.db.QueryRow(ctx, query, int64(sessionID)))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return session, nil
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID uint64) (*models.CoachingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM coaching_sessions
		WHERE session_id = $1
		FOR UPDATE
	`
	session, err := scanSession(r.db.QueryRow(ctx, query, int64(sessionID)))
	if err != nil {
		return nil, translateNoRows(err)
	}
	return session, nil
}

func (r *SessionRepository) UpdateFlags(ctx context.Context, session *models.CoachingSession) error {
	query := `
		UPDATE coaching_sessions
		SET attended = $2, attendance_marked = $3, completed = $4, updated_at = NOW()
		WHERE session_id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		int64(session.SessionID),
		session.Attended,
		session.AttendanceMarked,
		session.Completed,
	).Scan(&session.UpdatedAt)
	return translateNoRows(err)
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.CoachingSession, error) {
	partyColumn := "client"
	if filter.Party == "coach" {
		partyColumn = "coach"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM coaching_sessions
		WHERE %s = $1
		ORDER BY session_id ASC
	`, sessionColumns, partyColumn)

	rows, err := r.db.Query(ctx, query, filter.Identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.CoachingSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func scanSession(row pgx.Row) (*models.CoachingSession, error) {
	var (
		session       models.CoachingSession
		sessionID     int64
		scheduledTime int64
	)
	err := row.Scan(
		&sessionID,
		&session.Client,
		&session.Coach,
		&session.Amount,
		&scheduledTime,
		&session.Attended,
		&session.AttendanceMarked,
		&session.Completed,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.SessionID = uint64(sessionID)
	session.ScheduledTime = uint64(scheduledTime)
	return &session, nil
}
