package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RevenueRollup aggregates the day's payment credits into revenue_daily.
type RevenueRollup struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewRevenueRollup creates the rollup job. log may be nil.
func NewRevenueRollup(db *sql.DB, log *logrus.Logger) *RevenueRollup {
	if log == nil {
		log = logrus.New()
	}
	return &RevenueRollup{db: db, log: log}
}

// RollupDay recomputes the revenue row for one calendar day (UTC) from the
// transaction ledger. Safe to re-run for any day; the row is upserted.
func (r *RevenueRollup) RollupDay(ctx context.Context, day time.Time) error {
	day = day.UTC().Truncate(24 * time.Hour)

	query := `
		INSERT INTO revenue_daily (day, credits_cents, payments_count, updated_at)
		SELECT
			$1::date AS day,
			COALESCE(SUM(t.amount_cents), 0) AS credits_cents,
			COUNT(t.id) AS payments_count,
			NOW()
		FROM transactions t
		WHERE t.category = 'payment'
			AND t.created_at >= $1::date
			AND t.created_at < $1::date + INTERVAL '1 day'
		ON CONFLICT (day) DO UPDATE SET
			credits_cents = EXCLUDED.credits_cents,
			payments_count = EXCLUDED.payments_count,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, day); err != nil {
		return fmt.Errorf("revenue rollup for %s failed: %w", day.Format("2006-01-02"), err)
	}

	r.log.WithField("day", day.Format("2006-01-02")).Info("revenue rollup complete")
	return nil
}
