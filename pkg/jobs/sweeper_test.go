package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/subscribers"
)

type sweepStubService struct {
	subscribers.Service

	ids []int64
	err error
}

func (s *sweepStubService) SweepExpired(context.Context, time.Time) ([]int64, error) {
	return s.ids, s.err
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (r *recordingInvalidator) InvalidateSubscriber(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, id)
	return nil
}

func (r *recordingInvalidator) invalidated() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

func quietLogrus() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSweeperExpiresAndInvalidates(t *testing.T) {
	service := &sweepStubService{ids: []int64{4, 9, 12}}
	invalidator := &recordingInvalidator{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	sweeper := NewSweeper(service, invalidator, metrics, quietLogrus())

	count, err := sweeper.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Invalidation runs in the background after Run returns.
	require.Eventually(t, func() bool {
		return len(invalidator.invalidated()) == 3
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []int64{4, 9, 12}, invalidator.invalidated())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ExpiredSweepsTotal))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.SubscribersSuspended))
}

func TestSweeperNothingToDo(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	sweeper := NewSweeper(&sweepStubService{}, nil, metrics, quietLogrus())

	count, err := sweeper.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ExpiredSweepsTotal))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.SubscribersSuspended))
}

func TestSweeperServiceError(t *testing.T) {
	sweeper := NewSweeper(&sweepStubService{err: errors.New("db down")}, nil, nil, quietLogrus())

	_, err := sweeper.Run(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiry sweep failed")
}

func TestSweeperInvalidationFailureIsNotFatal(t *testing.T) {
	service := &sweepStubService{ids: []int64{4}}
	invalidator := &recordingInvalidator{err: errors.New("redis down")}

	sweeper := NewSweeper(service, invalidator, nil, quietLogrus())

	count, err := sweeper.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSweeperNilInvalidator(t *testing.T) {
	sweeper := NewSweeper(&sweepStubService{ids: []int64{1, 2}}, nil, nil, quietLogrus())

	count, err := sweeper.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
