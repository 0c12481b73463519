package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/saeid-a/CoachEscrow/internal/ledger"
	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCommitsSuccessfulTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.InTx(ctx, func(repos Repositories) error {
		if err := repos.Config.Insert(ctx, "USDC"); err != nil {
			return err
		}
		return repos.Sessions.Create(ctx, &models.CoachingSession{
			SessionID: 1,
			Client:    "client-a",
			Coach:     "coach-a",
			Amount:    decimal.NewFromInt(100),
		})
	})
	require.NoError(t, err)

	cfg, err := store.Repositories().Config.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "USDC", cfg.PaymentAsset)

	session, err := store.Repositories().Sessions.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "coach-a", session.Coach)
	require.False(t, session.CreatedAt.IsZero())
}

func TestMemoryStoreRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(repos Repositories) error {
		if err := repos.Accounts.Credit(ctx, "USDC", "client-a", decimal.NewFromInt(50)); err != nil {
			return err
		}
		if err := repos.Stats.Save(ctx, &models.ClientStats{Client: "client-a", TotalSessions: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := store.Repositories().Accounts.Balance(ctx, "USDC", "client-a")
	require.NoError(t, err)
	require.True(t, balance.IsZero())

	_, err = store.Repositories().Stats.Get(ctx, "client-a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConfigInsertIsInitOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repos := store.Repositories()

	require.NoError(t, repos.Config.Insert(ctx, "USDC"))
	require.ErrorIs(t, repos.Config.Insert(ctx, "EURC"), ErrAlreadyExists)

	cfg, err := repos.Config.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "USDC", cfg.PaymentAsset)
	require.Zero(t, cfg.SessionCounter)
}

func TestMemoryStoreDebitRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryStore().Repositories()

	require.NoError(t, repos.Accounts.Credit(ctx, "USDC", "client-a", decimal.NewFromInt(10)))
	require.ErrorIs(t, repos.Accounts.Debit(ctx, "USDC", "client-a", decimal.NewFromInt(11)), ledger.ErrInsufficientFunds)
	require.NoError(t, repos.Accounts.Debit(ctx, "USDC", "client-a", decimal.NewFromInt(10)))

	balance, err := repos.Accounts.Balance(ctx, "USDC", "client-a")
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}

func TestMemoryStoreListsSessionsByParty(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryStore().Repositories()

	for id, pair := range map[uint64][2]string{
		3: {"client-a", "coach-a"},
		1: {"client-a", "coach-b"},
		2: {"client-b", "coach-a"},
	} {
		require.NoError(t, repos.Sessions.Create(ctx, &models.CoachingSession{SessionID: id, Client: pair[0], Coach: pair[1]}))
	}

	asClient, err := repos.Sessions.List(ctx, SessionListFilter{Party: "client", Identity: "client-a"})
	require.NoError(t, err)
	require.Len(t, asClient, 2)
	require.Equal(t, uint64(1), asClient[0].SessionID)
	require.Equal(t, uint64(3), asClient[1].SessionID)

	asCoach, err := repos.Sessions.List(ctx, SessionListFilter{Party: "coach", Identity: "coach-a"})
	require.NoError(t, err)
	require.Len(t, asCoach, 2)
	require.Equal(t, uint64(2), asCoach[0].SessionID)
}

func TestMemoryStoreUpdateFlagsRequiresExistingSession(t *testing.T) {
	repos := NewMemoryStore().Repositories()
	err := repos.Sessions.UpdateFlags(context.Background(), &models.CoachingSession{SessionID: 9, Completed: true})
	require.ErrorIs(t, err, ErrNotFound)
}
