package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derrickgolden/easyisp-engine/pkg/async"
	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/subscribers"
)

// Invalidator evicts a subscriber's cached record after a status change.
type Invalidator interface {
	InvalidateSubscriber(ctx context.Context, id int64) error
}

// Sweeper marks subscribers whose paid window has lapsed as expired and
// evicts their cache entries so the new status is visible immediately.
type Sweeper struct {
	service     subscribers.Service
	invalidator Invalidator
	metrics     *observability.Metrics
	log         *logrus.Logger

	// invalidations per sweep run in parallel, bounded by this
	concurrency int
}

// NewSweeper creates an expiry sweeper. invalidator and metrics may be nil.
func NewSweeper(service subscribers.Service, invalidator Invalidator, metrics *observability.Metrics, log *logrus.Logger) *Sweeper {
	if log == nil {
		log = logrus.New()
	}
	return &Sweeper{
		service:     service,
		invalidator: invalidator,
		metrics:     metrics,
		log:         log,
		concurrency: 8,
	}
}

// Run executes one sweep as of now, returning how many subscribers were
// expired. Re-running is safe: rows already expired do not match again.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.service.SweepExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ExpiredSweepsTotal.Inc()
		s.metrics.SubscribersSuspended.Add(float64(len(ids)))
	}

	if len(ids) == 0 {
		s.log.Debug("expiry sweep found nothing to do")
		return 0, nil
	}

	s.log.WithFields(logrus.Fields{
		"count": len(ids),
		"as_of": now.Format(time.RFC3339),
	}).Info("expired subscribers")

	if s.invalidator != nil {
		// Fire and forget: the DB rows are already updated, and stale cache
		// entries age out on their TTL. The sweep result must not wait on
		// Redis round trips.
		async.SafeGo(ctx, time.Minute, s.log, "sweep cache invalidation", func(ctx context.Context) error {
			return async.Batch(ctx, ids, s.concurrency, func(ctx context.Context, id int64) error {
				return s.invalidator.InvalidateSubscriber(ctx, id)
			})
		})
	}

	return len(ids), nil
}
