package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/payments"
)

func TestRollupDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO revenue_daily").
		WithArgs(day.Truncate(24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rollup := NewRevenueRollup(db, quietLogrus())
	require.NoError(t, rollup.RollupDay(context.Background(), day))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRollupDayError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO revenue_daily").
		WillReturnError(errors.New("deadlock detected"))

	rollup := NewRevenueRollup(db, quietLogrus())
	err = rollup.RollupDay(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue rollup")
}

type countStubStore struct {
	payments.Store

	count int
	err   error
}

func (s *countStubStore) CountPending(context.Context) (int, error) {
	return s.count, s.err
}

func TestQueueMonitorRefresh(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	engine := payments.NewEngine(&countStubStore{count: 17}, logger, nil)
	monitor := NewQueueMonitor(engine, metrics, quietLogrus())

	require.NoError(t, monitor.Refresh(context.Background()))
	assert.Equal(t, float64(17), testutil.ToFloat64(metrics.PendingPayments))
}

func TestQueueMonitorRefreshError(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	engine := payments.NewEngine(&countStubStore{err: errors.New("db down")}, logger, nil)
	monitor := NewQueueMonitor(engine, nil, quietLogrus())

	require.Error(t, monitor.Refresh(context.Background()))
}
