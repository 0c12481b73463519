package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidateAmountAcceptsIntegralValues(t *testing.T) {
	for _, raw := range []string{"0", "100", "-5", "170141183460469231731687303715884105727", "-170141183460469231731687303715884105728"} {
		require.NoError(t, ValidateAmount(decimal.RequireFromString(raw)), raw)
	}
}

func TestValidateAmountRejectsFractions(t *testing.T) {
	require.ErrorIs(t, ValidateAmount(decimal.RequireFromString("10.5")), ErrAmountNotInteger)
}

func TestValidateAmountRejectsValuesBeyondInt128(t *testing.T) {
	require.ErrorIs(t, ValidateAmount(decimal.RequireFromString("170141183460469231731687303715884105728")), ErrAmountOutOfRange)
	require.ErrorIs(t, ValidateAmount(decimal.RequireFromString("-170141183460469231731687303715884105729")), ErrAmountOutOfRange)
}

func TestValidateAmountTreatsTrailingZeroFractionAsIntegral(t *testing.T) {
	require.NoError(t, ValidateAmount(decimal.RequireFromString("42.000")))
}
