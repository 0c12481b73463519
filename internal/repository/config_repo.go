package repository

import (
	"context"

	"github.com/saeid-a/CoachEscrow/internal/models"
)

// ConfigRepository reads and writes the single escrow_config row.
type ConfigRepository struct {
	db DBTX
}

func NewConfigRepository(db DBTX) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) Get(ctx context.Context) (*models.EscrowConfig, error) {
	query := `
		SELECT payment_asset, session_counter, initialized_at
		FROM escrow_config
		WHERE singleton
	`
	return r.scanOne(ctx, query)
}

func (r *ConfigRepository) GetForUpdate(ctx context.Context) (*models.EscrowConfig, error) {
	query := `
		SELECT payment_asset, session_counter, initialized_at
		FROM escrow_config
		WHERE singleton
		FOR UPDATE
	`
	return r.scanOne(ctx, query)
}

func (r *ConfigRepository) Insert(ctx context.Context, paymentAsset string) error {
	query := `
		INSERT INTO escrow_config (singleton, payment_asset, session_counter)
		VALUES (TRUE, $1, 0)
		ON CONFLICT (singleton) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, paymentAsset)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *ConfigRepository) SetSessionCounter(ctx context.Context, counter uint64) error {
	query := `
		UPDATE escrow_config
		SET session_counter = $1
		WHERE singleton
	`
	tag, err := r.db.Exec(ctx, query, int64(counter))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ConfigRepository) scanOne(ctx context.Context, query string) (*models.EscrowConfig, error) {
	var (
		cfg     models.EscrowConfig
		counter int64
	)
	if err := r.db.QueryRow(ctx, query).Scan(&cfg.PaymentAsset, &counter, &cfg.InitializedAt); err != nil {
		return nil, translateNoRows(err)
	}
	cfg.SessionCounter = uint64(counter)
	return &cfg, nil
}
