package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mapAccounts map[string]decimal.Decimal

func (m mapAccounts) Debit(_ context.Context, asset, holder string, amount decimal.Decimal) error {
	current := m[asset+"/"+holder]
	if current.LessThan(amount) {
		return ErrInsufficientFunds
	}
	m[asset+"/"+holder] = current.Sub(amount)
	return nil
}

func (m mapAccounts) Credit(_ context.Context, asset, holder string, amount decimal.Decimal) error {
	m[asset+"/"+holder] = m[asset+"/"+holder].Add(amount)
	return nil
}

func (m mapAccounts) Balance(_ context.Context, asset, holder string) (decimal.Decimal, error) {
	return m[asset+"/"+holder], nil
}

func TestTransferMovesFunds(t *testing.T) {
	ctx := context.Background()
	accounts := mapAccounts{"USDC/alice": decimal.NewFromInt(150)}

	require.NoError(t, Transfer(ctx, accounts, "USDC", "alice", "escrow", decimal.NewFromInt(100)))

	alice, _ := accounts.Balance(ctx, "USDC", "alice")
	escrow, _ := accounts.Balance(ctx, "USDC", "escrow")
	require.True(t, alice.Equal(decimal.NewFromInt(50)), "alice=%s", alice)
	require.True(t, escrow.Equal(decimal.NewFromInt(100)), "escrow=%s", escrow)
}

func TestTransferRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	accounts := mapAccounts{"USDC/alice": decimal.NewFromInt(10)}

	err := Transfer(ctx, accounts, "USDC", "alice", "escrow", decimal.NewFromInt(11))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	escrow, _ := accounts.Balance(ctx, "USDC", "escrow")
	require.True(t, escrow.IsZero())
}

func TestTransferRejectsNegativeAmount(t *testing.T) {
	err := Transfer(context.Background(), mapAccounts{}, "USDC", "alice", "escrow", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestTransferOfZeroIsNoop(t *testing.T) {
	accounts := mapAccounts{}
	require.NoError(t, Transfer(context.Background(), accounts, "USDC", "alice", "escrow", decimal.Zero))
	require.Empty(t, accounts)
}

func TestMintCreditsHolder(t *testing.T) {
	ctx := context.Background()
	accounts := mapAccounts{}

	require.NoError(t, Mint(ctx, accounts, "USDC", "alice", decimal.NewFromInt(1000)))
	balance, _ := accounts.Balance(ctx, "USDC", "alice")
	require.True(t, balance.Equal(decimal.NewFromInt(1000)))

	require.ErrorIs(t, Mint(ctx, accounts, "USDC", "", decimal.NewFromInt(1)), ErrMissingAccount)
}
