package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/saeid-a/CoachEscrow/internal/ledger"
	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/saeid-a/CoachEscrow/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService exposes the settlement-asset balance book: admin deposits
// to fund identities, and balance reads.
type LedgerService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewLedgerService(store repository.Store, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{store: store, logger: logger}
}

func (s *LedgerService) Deposit(
	ctx context.Context,
	auth AuthContext,
	holder string,
	amount decimal.Decimal,
) (*models.Balance, error) {
	if !auth.IsAdmin() {
		return nil, ErrForbidden
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return nil, fmt.Errorf("%w: holder is required", ErrInvalidInput)
	}
	if err := models.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit must be positive", ErrInvalidInput)
	}

	var result models.Balance
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		cfg, err := repos.Config.Get(ctx)
		if err != nil {
			return configError(err)
		}
		if err := ledger.Mint(ctx, repos.Accounts, cfg.PaymentAsset, holder, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		balance, err := repos.Accounts.Balance(ctx, cfg.PaymentAsset, holder)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		result = models.Balance{Asset: cfg.PaymentAsset, Holder: holder, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deposit credited",
		zap.String("holder", holder),
		zap.String("amount", amount.String()),
		zap.String("by", auth.Identity),
	)
	return &result, nil
}

// Balance reads holder's balance; an empty holder means the caller.
// Only admins may read other identities.
func (s *LedgerService) Balance(ctx context.Context, auth AuthContext, holder string) (*models.Balance, error) {
	if auth.Identity == "" {
		return nil, ErrUnauthorized
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		holder = auth.Identity
	}
	if holder != auth.Identity && !auth.IsAdmin() {
		return nil, ErrForbidden
	}

	repos := s.store.Repositories()
	cfg, err := repos.Config.Get(ctx)
	if err != nil {
		return nil, configError(err)
	}
	balance, err := repos.Accounts.Balance(ctx, cfg.PaymentAsset, holder)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	return &models.Balance{Asset: cfg.PaymentAsset, Holder: holder, Balance: balance}, nil
}
