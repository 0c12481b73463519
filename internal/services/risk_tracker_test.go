package services

import (
	"context"
	"testing"

	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/saeid-a/CoachEscrow/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestApplyOutcomeIncrementsExactlyOneCounter(t *testing.T) {
	base := models.ClientStats{Client: "c", TotalSessions: 4, AttendedSessions: 2, MissedSessions: 1}

	booked := applyOutcome(base, true, true)
	require.Equal(t, uint64(5), booked.TotalSessions)
	require.Equal(t, uint64(2), booked.AttendedSessions)
	require.Equal(t, uint64(1), booked.MissedSessions)

	attended := applyOutcome(base, false, true)
	require.Equal(t, uint64(4), attended.TotalSessions)
	require.Equal(t, uint64(3), attended.AttendedSessions)

	missed := applyOutcome(base, false, false)
	require.Equal(t, uint64(2), missed.MissedSessions)
	require.True(t, missed.AtRisk)
}

func TestEvaluateRisk(t *testing.T) {
	cases := []struct {
		name  string
		stats models.ClientStats
		want  bool
	}{
		{"two misses", models.ClientStats{TotalSessions: 10, AttendedSessions: 8, MissedSessions: 2}, true},
		{"under three sessions keeps false", models.ClientStats{TotalSessions: 2}, false},
		{"under three sessions keeps true", models.ClientStats{TotalSessions: 2, AtRisk: true}, true},
		{"rate below half", models.ClientStats{TotalSessions: 3, AttendedSessions: 1}, true},
		{"rate exactly half", models.ClientStats{TotalSessions: 4, AttendedSessions: 2}, false},
		{"truncated rate", models.ClientStats{TotalSessions: 201, AttendedSessions: 100}, true},
		{"healthy rate clears", models.ClientStats{TotalSessions: 3, AttendedSessions: 3, AtRisk: true}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, evaluateRisk(tc.stats))
		})
	}
}

func TestRiskStaysSetOnceMissedTwice(t *testing.T) {
	stats := models.ClientStats{}
	for i := 0; i < 3; i++ {
		stats = applyOutcome(stats, true, false)
	}
	stats = applyOutcome(stats, false, false)
	stats = applyOutcome(stats, false, false)
	require.True(t, stats.AtRisk)

	for i := 0; i < 10; i++ {
		stats = applyOutcome(stats, true, false)
		stats = applyOutcome(stats, false, true)
		require.True(t, stats.AtRisk)
	}
}

func TestGetClientStatsWithoutHistory(t *testing.T) {
	tracker := NewRiskTracker(repository.NewMemoryStore())

	stats, err := tracker.GetClientStats(context.Background(), "GNEW")
	require.NoError(t, err)
	require.Equal(t, models.ClientStats{Client: "GNEW"}, *stats)
}

func TestRecordReportsTransitionIntoRisk(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	tracker := NewRiskTracker(store)
	statsStore := store.Repositories().Stats

	for i := 0; i < 2; i++ {
		_, err := tracker.record(ctx, statsStore, "GCLIENT", true, false)
		require.NoError(t, err)
	}

	first, err := tracker.record(ctx, statsStore, "GCLIENT", false, false)
	require.NoError(t, err)
	require.False(t, first.BecameAtRisk)

	second, err := tracker.record(ctx, statsStore, "GCLIENT", false, false)
	require.NoError(t, err)
	require.True(t, second.BecameAtRisk)

	third, err := tracker.record(ctx, statsStore, "GCLIENT", false, false)
	require.NoError(t, err)
	require.False(t, third.BecameAtRisk)
	require.True(t, third.Stats.AtRisk)
}
