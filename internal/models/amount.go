package models

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountNotInteger = errors.New("amount must be a whole number of asset units")
	ErrAmountOutOfRange = errors.New("amount does not fit in a signed 128-bit integer")
)

var (
	maxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)), 0)
	minAmount = decimal.NewFromBigInt(new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127)), 0)
)

// ValidateAmount checks that amount is an integral quantity inside the
// signed 128-bit range. Sign is not checked here; the ledger rejects
// negative transfers.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(0)) {
		return ErrAmountNotInteger
	}
	if amount.GreaterThan(maxAmount) || amount.LessThan(minAmount) {
		return ErrAmountOutOfRange
	}
	return nil
}
