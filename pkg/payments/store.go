package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore implements Store using PostgreSQL. The subscriber ledger
// (balance plus transactions) is only ever touched through ResolvePending's
// single transaction, so every balance mutation has exactly one ledger row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const paymentColumns = `id, mpesa_code, amount_cents, phone, bill_ref,
	COALESCE(first_name, ''), COALESCE(last_name, ''), status, subscriber_id, created_at, resolved_at`

// ListPending returns pending receipts, newest first. The search filter is a
// case-insensitive substring match over mpesa_code, phone and last_name.
func (s *PostgresStore) ListPending(ctx context.Context, filter Filter) ([]*Payment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = 'pending'`
	args := []any{}

	if filter.Search != "" {
		query += ` AND (mpesa_code ILIKE $1 OR phone ILIKE $1 OR last_name ILIKE $1)`
		args = append(args, "%"+filter.Search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.MpesaCode, &p.AmountCents, &p.Phone, &p.BillRef,
			&p.FirstName, &p.LastName, &p.Status, &p.SubscriberID, &p.CreatedAt, &p.ResolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

// CountPending returns the number of unmatched receipts.
func (s *PostgresStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending payments: %w", err)
	}
	return count, nil
}

// ResolvePending performs the at-most-once resolve:
//
//  1. compare-and-set the payment from pending to completed
//  2. move the subscriber balance
//  3. append the ledger credit
//
// all inside one database transaction. If the CAS matches no row the payment
// is either unknown (ErrNotFound) or already completed (ErrAlreadyResolved);
// in both cases nothing is written.
func (s *PostgresStore) ResolvePending(ctx context.Context, paymentID, subscriberID int64, transactionID string) (*Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var amount int64
	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status = 'completed', subscriber_id = $2, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING amount_cents
	`, paymentID, subscriberID).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.classifyResolveMiss(ctx, paymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}

	var balanceAfter int64
	err = tx.QueryRowContext(ctx, `
		UPDATE subscribers
		SET balance_cents = balance_cents + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance_cents
	`, subscriberID, amount).Scan(&balanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscriber %d: %w", subscriberID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to credit subscriber balance: %w", err)
	}

	record := &Transaction{
		ID:            transactionID,
		SubscriberID:  subscriberID,
		AmountCents:   amount,
		Type:          EntryCredit,
		Category:      CategoryPayment,
		BalanceBefore: balanceAfter - amount,
		BalanceAfter:  balanceAfter,
		PaymentID:     &paymentID,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO transactions
			(id, subscriber_id, amount_cents, type, category, balance_before, balance_after, payment_id)
		VALUES ($1, $2, $3, 'credit', $4, $5, $6, $7)
		RETURNING created_at
	`, record.ID, record.SubscriberID, record.AmountCents, record.Category,
		record.BalanceBefore, record.BalanceAfter, paymentID).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit resolve: %w", err)
	}
	return record, nil
}

// classifyResolveMiss distinguishes an unknown payment from one that was
// already completed, using a plain read outside the failed CAS.
func (s *PostgresStore) classifyResolveMiss(ctx context.Context, paymentID int64) error {
	var status PaymentStatus
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM payments WHERE id = $1`, paymentID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("payment %d: %w", paymentID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check payment status: %w", err)
	}
	return fmt.Errorf("payment %d: %w", paymentID, ErrAlreadyResolved)
}
