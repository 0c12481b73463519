package repository

import (
	"context"

	"github.com/saeid-a/CoachEscrow/internal/ledger"
	"github.com/shopspring/decimal"
)

// BalanceRepository implements ledger.Accounts on the ledger_balances table.
type BalanceRepository struct {
	db DBTX
}

func NewBalanceRepository(db DBTX) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) Debit(ctx context.Context, asset, holder string, amount decimal.Decimal) error {
	query := `
		UPDATE ledger_balances
		SET balance = balance - $3, updated_at = NOW()
		WHERE asset = $1 AND holder = $2 AND balance >= $3
	`
	tag, err := r.db.Exec(ctx, query, asset, holder, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrInsufficientFunds
	}
	return nil
}

func (r *BalanceRepository) Credit(ctx context.Context, asset, holder string, amount decimal.Decimal) error {
	query := `
		INSERT INTO ledger_balances (asset, holder, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset, holder) DO UPDATE
		SET balance = ledger_balances.balance + EXCLUDED.balance,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, asset, holder, amount)
	return err
}

func (r *BalanceRepository) Balance(ctx context.Context, asset, holder string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE((
			SELECT balance FROM ledger_balances WHERE asset = $1 AND holder = $2
		), 0)
	`
	var balance decimal.Decimal
	if err := r.db.QueryRow(ctx, query, asset, holder).Scan(&balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

var _ ledger.Accounts = (*BalanceRepository)(nil)
