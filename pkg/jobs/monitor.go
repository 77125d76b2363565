package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
)

// QueueMonitor keeps the pending-payments gauge in step with the database.
type QueueMonitor struct {
	engine  *payments.Engine
	metrics *observability.Metrics
	log     *logrus.Logger
}

// NewQueueMonitor creates the gauge refresher. log may be nil.
func NewQueueMonitor(engine *payments.Engine, metrics *observability.Metrics, log *logrus.Logger) *QueueMonitor {
	if log == nil {
		log = logrus.New()
	}
	return &QueueMonitor{engine: engine, metrics: metrics, log: log}
}

// Refresh reads the pending queue size and updates the gauge.
func (m *QueueMonitor) Refresh(ctx context.Context) error {
	count, err := m.engine.PendingCount(ctx)
	if err != nil {
		m.log.WithError(err).Warn("pending queue count failed")
		return err
	}

	if m.metrics != nil {
		m.metrics.PendingPayments.Set(float64(count))
	}
	return nil
}
