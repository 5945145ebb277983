package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"goflare.io/marketplace/driver"
)

// migrate applies every statement in one transaction and rolls back on failure.
func migrate(ctx context.Context, conn driver.PostgresPool, drop bool) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}

	if err = apply(ctx, tx, drop); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func apply(ctx context.Context, tx pgx.Tx, drop bool) error {
	if drop {
		if _, err := tx.Exec(ctx, dropSQL); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
