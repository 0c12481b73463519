package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/saeid-a/CoachEscrow/internal/repository"
)

const (
	missedSessionsRiskThreshold  = 2
	minSessionsForAttendanceRate = 3
	minAttendanceRatePercent     = 50
)

type statsReader interface {
	Repositories() repository.Repositories
}

// RiskTracker maintains per-client attendance counters and the at-risk flag.
// Writes only happen through the session ledger, inside its transaction.
type RiskTracker struct {
	store statsReader
}

func NewRiskTracker(store statsReader) *RiskTracker {
	return &RiskTracker{store: store}
}

// GetClientStats returns a zeroed record for clients without history.
func (t *RiskTracker) GetClientStats(ctx context.Context, client string) (*models.ClientStats, error) {
	stats, err := t.store.Repositories().Stats.Get(ctx, client)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.ClientStats{Client: client}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load client stats: %w", err)
	}
	return stats, nil
}

type riskUpdate struct {
	Stats        models.ClientStats
	BecameAtRisk bool
}

func (t *RiskTracker) record(
	ctx context.Context,
	statsStore repository.ClientStatsStore,
	client string,
	newSession bool,
	attended bool,
) (riskUpdate, error) {
	current := models.ClientStats{Client: client}
	stored, err := statsStore.GetForUpdate(ctx, client)
	switch {
	case err == nil:
		current = *stored
	case !errors.Is(err, repository.ErrNotFound):
		return riskUpdate{}, fmt.Errorf("load client stats: %w", err)
	}

	next := applyOutcome(current, newSession, attended)
	if err := statsStore.Save(ctx, &next); err != nil {
		return riskUpdate{}, fmt.Errorf("save client stats: %w", err)
	}

	return riskUpdate{
		Stats:        next,
		BecameAtRisk: next.AtRisk && !current.AtRisk,
	}, nil
}

// applyOutcome increments exactly one counter and re-evaluates risk.
func applyOutcome(stats models.ClientStats, newSession bool, attended bool) models.ClientStats {
	switch {
	case newSession:
		stats.TotalSessions++
	case attended:
		stats.AttendedSessions++
	default:
		stats.MissedSessions++
	}

	stats.AtRisk = evaluateRisk(stats)
	return stats
}

// evaluateRisk keeps the previous flag when neither rule applies. Once two
// sessions are missed the flag stays set; below that, a client with three or
// more sessions is re-rated on every update.
func evaluateRisk(stats models.ClientStats) bool {
	if stats.MissedSessions >= missedSessionsRiskThreshold {
		return true
	}
	if stats.TotalSessions >= minSessionsForAttendanceRate {
		return stats.AttendedSessions*100/stats.TotalSessions < minAttendanceRatePercent
	}
	return stats.AtRisk
}
