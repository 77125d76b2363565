package connectivity

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

// scriptedSource replays a fixed sequence of observations and then repeats
// the last one. It records call counts and flags overlapping refreshes.
type scriptedSource struct {
	mu      sync.Mutex
	script  []observation
	calls   int
	blockCh chan struct{}

	inFlight int32
	overlap  atomic.Bool
}

type observation struct {
	online bool
	err    error
}

func (s *scriptedSource) SubscriberStatus(ctx context.Context, subscriberID int64) (*TechnicalStatus, error) {
	if atomic.AddInt32(&s.inFlight, 1) > 1 {
		s.overlap.Store(true)
	}
	defer atomic.AddInt32(&s.inFlight, -1)

	if s.blockCh != nil {
		select {
		case <-s.blockCh:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	obs := s.script[idx]
	s.calls++
	s.mu.Unlock()

	if obs.err != nil {
		return nil, obs.err
	}
	return &TechnicalStatus{IsOnline: obs.online}, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fastBackoff() *Backoff {
	return NewBackoff(time.Millisecond, 8*time.Millisecond, 2.0)
}

func TestPollerBacksOffWhileOffline(t *testing.T) {
	source := &scriptedSource{script: []observation{{online: false}}}

	p := NewPoller(1, source, fastBackoff(), nil, testLogger())
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return source.callCount() >= 6 },
		time.Second, time.Millisecond)

	// After enough consecutive offline observations the delay sits at the cap.
	require.Eventually(t, func() bool { return p.LastDelay() == 8*time.Millisecond },
		time.Second, time.Millisecond)
	assert.False(t, source.overlap.Load(), "refreshes for one subscriber must never overlap")
}

func TestPollerResetsOnOnline(t *testing.T) {
	// Offline long enough to grow the delay, then online.
	source := &scriptedSource{script: []observation{
		{online: false}, {online: false}, {online: false}, {online: false}, {online: true},
	}}

	var sawOnline atomic.Bool
	p := NewPoller(1, source, fastBackoff(), func(st *TechnicalStatus) {
		if st.IsOnline {
			sawOnline.Store(true)
		}
	}, testLogger())
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, sawOnline.Load, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return p.LastDelay() == time.Millisecond },
		time.Second, time.Millisecond,
		"first online observation must snap the delay back to base")
}

func TestPollerAbsorbsErrors(t *testing.T) {
	source := &scriptedSource{script: []observation{
		{err: errors.New("feed unreachable")},
		{err: errors.New("feed unreachable")},
		{online: true},
	}}

	var delivered atomic.Int32
	p := NewPoller(1, source, fastBackoff(), func(st *TechnicalStatus) {
		delivered.Add(1)
	}, testLogger())
	p.Start(context.Background())
	defer p.Stop()

	// Errors keep the loop alive, nothing is delivered for them.
	require.Eventually(t, func() bool { return delivered.Load() >= 1 },
		time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, source.callCount(), 3)
}

func TestPollerStopDiscardsInFlightResult(t *testing.T) {
	blockCh := make(chan struct{})
	source := &scriptedSource{
		script:  []observation{{online: true}},
		blockCh: blockCh,
	}

	var delivered atomic.Int32
	p := NewPoller(1, source, fastBackoff(), func(st *TechnicalStatus) {
		delivered.Add(1)
	}, testLogger())
	p.Start(context.Background())

	// Wait for the refresh to be in flight, then end the session.
	require.Eventually(t, func() bool { return p.Phase() == "in_flight" },
		time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	close(blockCh)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	assert.Equal(t, int32(0), delivered.Load(), "in-flight result must be discarded after stop")
	assert.Equal(t, "idle", p.Phase())
}

func TestManagerWatchAndRelease(t *testing.T) {
	source := &scriptedSource{script: []observation{{online: true}}}
	m := NewManager(source, testLogger(), nil)
	m.SetDelays(time.Millisecond, 8*time.Millisecond)

	ctx := context.Background()
	first := m.Watch(ctx, 42, nil)
	second := m.Watch(ctx, 42, nil)
	assert.Same(t, first, second, "watching twice must reuse the poller")
	assert.True(t, m.Watching(42))

	m.Release(42)
	assert.False(t, m.Watching(42))

	// Releasing an unknown subscriber is a no-op.
	m.Release(7)
}

func TestManagerStopAll(t *testing.T) {
	source := &scriptedSource{script: []observation{{online: false}}}
	m := NewManager(source, testLogger(), nil)
	m.SetDelays(time.Millisecond, 8*time.Millisecond)

	ctx := context.Background()
	m.Watch(ctx, 1, nil)
	m.Watch(ctx, 2, nil)
	m.Watch(ctx, 3, nil)

	m.StopAll()
	for _, id := range []int64{1, 2, 3} {
		assert.False(t, m.Watching(id))
	}
}
