package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
)

// Store is the persistence contract the engine drives. ResolvePending must
// be atomic: the status compare-and-set, the ledger append and the balance
// update happen in one transaction or not at all.
type Store interface {
	ListPending(ctx context.Context, filter Filter) ([]*Payment, error)
	ResolvePending(ctx context.Context, paymentID, subscriberID int64, transactionID string) (*Transaction, error)
	CountPending(ctx context.Context) (int, error)
}

// Engine is the reconciliation workflow. It adds the per-payment in-flight
// guard on top of the store's compare-and-set, so a double-click can never
// issue two resolve calls before the first settles.
type Engine struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	inFlight map[int64]struct{}
}

// NewEngine creates a reconciliation engine. metrics may be nil.
func NewEngine(store Store, logger *observability.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		inFlight: make(map[int64]struct{}),
	}
}

// ListPending returns the unmatched receipts, newest first, optionally
// filtered by the operator's search string.
func (e *Engine) ListPending(ctx context.Context, filter Filter) ([]*Payment, error) {
	payments, err := e.store.ListPending(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return payments, nil
}

// Resolve links a pending receipt to a subscriber, crediting their ledger
// with exactly one Transaction. A second call for the same payment returns
// ErrAlreadyResolved (settled) or ErrResolveInFlight (still running); in
// either case no additional Transaction is created. I/O failures leave the
// payment pending so the operator may retry.
func (e *Engine) Resolve(ctx context.Context, paymentID, subscriberID int64) (*Transaction, error) {
	if err := e.acquire(paymentID); err != nil {
		return nil, err
	}
	defer e.release(paymentID)

	tx, err := e.store.ResolvePending(ctx, paymentID, subscriberID, uuid.NewString())
	if err != nil {
		if e.metrics != nil {
			e.metrics.ReconciliationsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.ReconciliationsTotal.WithLabelValues("resolved").Inc()
	}
	e.logger.WithField("payment_id", paymentID).
		WithField("subscriber_id", subscriberID).
		WithField("transaction_id", tx.ID).
		Info("payment resolved")

	return tx, nil
}

// PendingCount reports the size of the unmatched queue.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.store.CountPending(ctx)
}

func (e *Engine) acquire(paymentID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[paymentID]; busy {
		return fmt.Errorf("payment %d: %w", paymentID, ErrResolveInFlight)
	}
	e.inFlight[paymentID] = struct{}{}
	return nil
}

func (e *Engine) release(paymentID int64) {
	e.mu.Lock()
	delete(e.inFlight, paymentID)
	e.mu.Unlock()
}
