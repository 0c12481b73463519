package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CoachEscrow/internal/repository"
)

func openStore(ctx context.Context) (*repository.PostgresStore, func(), error) {
	if err := requireDBURL(); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return repository.NewPostgresStore(pool), pool.Close, nil
}
