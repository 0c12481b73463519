// Package ledger moves a single settlement asset between identities.
//
// Transfers run against an Accounts implementation bound to the caller's
// storage transaction, so a failed debit or credit never leaves a partial
// movement behind once the transaction is rolled back.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeAmount    = errors.New("negative amount is not allowed")
	ErrSameAccount       = errors.New("source and destination accounts are the same")
	ErrMissingAccount    = errors.New("account identity is required")
)

// Accounts is the balance book for one storage transaction.
type Accounts interface {
	// Debit removes amount from holder and must fail with
	// ErrInsufficientFunds instead of going below zero.
	Debit(ctx context.Context, asset, holder string, amount decimal.Decimal) error
	Credit(ctx context.Context, asset, holder string, amount decimal.Decimal) error
	Balance(ctx context.Context, asset, holder string) (decimal.Decimal, error)
}

func Transfer(
	ctx context.Context,
	accounts Accounts,
	asset string,
	from string,
	to string,
	amount decimal.Decimal,
) error {
	if from == "" || to == "" || asset == "" {
		return ErrMissingAccount
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if from == to {
		return ErrSameAccount
	}
	if amount.IsZero() {
		return nil
	}

	if err := accounts.Debit(ctx, asset, from, amount); err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if err := accounts.Credit(ctx, asset, to, amount); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}

// Mint credits newly issued units to holder.
func Mint(ctx context.Context, accounts Accounts, asset, holder string, amount decimal.Decimal) error {
	if holder == "" || asset == "" {
		return ErrMissingAccount
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if amount.IsZero() {
		return nil
	}
	return accounts.Credit(ctx, asset, holder, amount)
}
