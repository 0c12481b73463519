package repository

import (
	"context"

	"github.com/saeid-a/CoachEscrow/internal/models"
)

type ClientStatsRepository struct {
	db DBTX
}

func NewClientStatsRepository(db DBTX) *ClientStatsRepository {
	return &ClientStatsRepository{db: db}
}

func (r *ClientStatsRepository) Get(ctx context.Context, client string) (*models.ClientStats, error) {
	query := `
		SELECT client, total_sessions, attended_sessions, missed_sessions, at_risk
		FROM client_stats
		WHERE client = $1
	`
	return r.scanOne(ctx, query, client)
}

func (r *ClientStatsRepository) GetForUpdate(ctx context.Context, client string) (*models.ClientStats, error) {
	query := `
		SELECT client, total_sessions, attended_sessions, missed_sessions, at_risk
		FROM client_stats
		WHERE client = $1
		FOR UPDATE
	`
	return r.scanOne(ctx, query, client)
}

func (r *ClientStatsRepository) Save(ctx context.Context, stats *models.ClientStats) error {
	query := `
		INSERT INTO client_stats (client, total_sessions, attended_sessions, missed_sessions, at_risk)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client) DO UPDATE
		SET total_sessions = EXCLUDED.total_sessions,
		    attended_sessions = EXCLUDED.attended_sessions,
		    missed_sessions = EXCLUDED.missed_sessions,
		    at_risk = EXCLUDED.at_risk,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(
		ctx,
		query,
		stats.Client,
		int64(stats.TotalSessions),
		int64(stats.AttendedSessions),
		int64(stats.MissedSessions),
		stats.AtRisk,
	)
	return err
}

func (r *ClientStatsRepository) scanOne(ctx context.Context, query, client string) (*models.ClientStats, error) {
	var (
		stats                   models.ClientStats
		total, attended, missed int64
	)
	err := r.db.QueryRow(ctx, query, client).Scan(
		&stats.Client,
		&total,
		&attended,
		&missed,
		&stats.AtRisk,
	)
	if err != nil {
		return nil, translateNoRows(err)
	}
	stats.TotalSessions = uint64(total)
	stats.AttendedSessions = uint64(attended)
	stats.MissedSessions = uint64(missed)
	return &stats, nil
}
