package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrations returns the schema migration statements, one SQL statement per
// string. Statements are idempotent so the engine can run them on every
// startup.
func Migrations() []string {
	return []string{
		// Service packages and their QoS parameters
		`CREATE TABLE IF NOT EXISTS packages (
			id                   BIGSERIAL PRIMARY KEY,
			name                 TEXT NOT NULL UNIQUE,
			speed_up             TEXT NOT NULL DEFAULT '',
			speed_down           TEXT NOT NULL DEFAULT '',
			burst_limit_up       TEXT NOT NULL DEFAULT '',
			burst_limit_down     TEXT NOT NULL DEFAULT '',
			burst_threshold_up   TEXT NOT NULL DEFAULT '',
			burst_threshold_down TEXT NOT NULL DEFAULT '',
			burst_time           TEXT NOT NULL DEFAULT '',
			priority             INTEGER NOT NULL DEFAULT 0,
			min_limit_up         TEXT NOT NULL DEFAULT '',
			min_limit_down       TEXT NOT NULL DEFAULT '',
			price_cents          BIGINT NOT NULL DEFAULT 0,
			validity_days        INTEGER NOT NULL DEFAULT 30,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Subscriber accounts, including the parent/child hierarchy
		`CREATE TABLE IF NOT EXISTS subscribers (
			id             BIGSERIAL PRIMARY KEY,
			account_no     TEXT NOT NULL UNIQUE,
			status         TEXT NOT NULL DEFAULT 'active',
			parent_id      BIGINT REFERENCES subscribers(id),
			is_independent BOOLEAN NOT NULL DEFAULT FALSE,
			expiry_date    TIMESTAMPTZ NOT NULL,
			extension_date TIMESTAMPTZ,
			balance_cents  BIGINT NOT NULL DEFAULT 0,
			package_id     BIGINT NOT NULL REFERENCES packages(id),
			phone          TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_parent ON subscribers(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_expiry ON subscribers(expiry_date)`,

		// Incoming M-Pesa receipts
		`CREATE TABLE IF NOT EXISTS payments (
			id            BIGSERIAL PRIMARY KEY,
			mpesa_code    TEXT NOT NULL UNIQUE,
			amount_cents  BIGINT NOT NULL,
			phone         TEXT NOT NULL DEFAULT '',
			bill_ref      TEXT NOT NULL DEFAULT '',
			first_name    TEXT,
			last_name     TEXT,
			status        TEXT NOT NULL DEFAULT 'pending',
			subscriber_id BIGINT REFERENCES subscribers(id),
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at   TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status, created_at DESC)`,

		// Immutable subscriber ledger
		`CREATE TABLE IF NOT EXISTS transactions (
			id             UUID PRIMARY KEY,
			subscriber_id  BIGINT NOT NULL REFERENCES subscribers(id),
			amount_cents   BIGINT NOT NULL,
			type           TEXT NOT NULL,
			category       TEXT NOT NULL,
			balance_before BIGINT NOT NULL,
			balance_after  BIGINT NOT NULL,
			payment_id     BIGINT REFERENCES payments(id),
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_subscriber ON transactions(subscriber_id, created_at DESC)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_payment ON transactions(payment_id) WHERE payment_id IS NOT NULL`,

		// Daily revenue rollup written by the billing worker
		`CREATE TABLE IF NOT EXISTS revenue_daily (
			day            DATE PRIMARY KEY,
			credits_cents  BIGINT NOT NULL DEFAULT 0,
			payments_count INTEGER NOT NULL DEFAULT 0,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
}

// Migrate applies every migration statement against the primary.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Migrations() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
