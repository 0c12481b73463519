package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CoachEscrow/internal/ledger"
	"github.com/saeid-a/CoachEscrow/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SessionListFilter struct {
	Party    string
	Identity string
}

type SessionStore interface {
	Create(ctx context.Context, session *models.CoachingSession) error
	GetByID(ctx context.Context, sessionID uint64) (*models.CoachingSession, error)
	GetByIDForUpdate(ctx context.Context, sessionID uint64) (*models.CoachingSession, error)
	UpdateFlags(ctx context.Context, session *models.CoachingSession) error
	List(ctx context.Context, filter SessionListFilter) ([]models.CoachingSession, error)
}

type ClientStatsStore interface {
	Get(ctx context.Context, client string) (*models.ClientStats, error)
	GetForUpdate(ctx context.Context, client string) (*models.ClientStats, error)
	Save(ctx context.Context, stats *models.ClientStats) error
}

type ConfigStore interface {
	Get(ctx context.Context) (*models.EscrowConfig, error)
	GetForUpdate(ctx context.Context) (*models.EscrowConfig, error)
	Insert(ctx context.Context, paymentAsset string) error
	SetSessionCounter(ctx context.Context, counter uint64) error
}

// Repositories groups the namespaces one operation reads and writes. The
// values returned by Store.InTx are bound to a single transaction.
type Repositories struct {
	Sessions SessionStore
	Stats    ClientStatsStore
	Config   ConfigStore
	Accounts ledger.Accounts
}

type Store interface {
	InTx(ctx context.Context, fn func(repos Repositories) error) error
	Repositories() Repositories
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func newRepositories(db DBTX) Repositories {
	return Repositories{
		Sessions: NewSessionRepository(db),
		Stats:    NewClientStatsRepository(db),
		Config:   NewConfigRepository(db),
		Accounts: NewBalanceRepository(db),
	}
}

func (s *PostgresStore) Repositories() Repositories {
	return newRepositories(s.pool)
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func translateNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
