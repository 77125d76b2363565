package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
)

// Manager owns one poller per watched subscriber session. Watching an
// already-watched subscriber is a no-op; releasing stops the poller.
type Manager struct {
	source  StatusSource
	logger  *observability.Logger
	metrics *observability.Metrics

	baseDelay time.Duration
	maxDelay  time.Duration

	mu      sync.Mutex
	pollers map[int64]*Poller
}

// NewManager creates a poller manager. metrics may be nil.
func NewManager(source StatusSource, logger *observability.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		source:    source,
		logger:    logger,
		metrics:   metrics,
		baseDelay: DefaultBaseDelay,
		maxDelay:  DefaultMaxDelay,
		pollers:   make(map[int64]*Poller),
	}
}

// SetDelays overrides the backoff window for pollers started afterwards.
func (m *Manager) SetDelays(base, max time.Duration) {
	m.baseDelay = base
	m.maxDelay = max
}

// Watch starts polling a subscriber session. onStatus receives every fetched
// status. Returns the poller (existing one if already watched).
func (m *Manager) Watch(ctx context.Context, subscriberID int64, onStatus func(*TechnicalStatus)) *Poller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pollers[subscriberID]; ok {
		return p
	}

	wrapped := func(status *TechnicalStatus) {
		if m.metrics != nil {
			result := "offline"
			if status.IsOnline {
				result = "online"
			}
			m.metrics.PollerRefreshesTotal.WithLabelValues(result).Inc()
		}
		if onStatus != nil {
			onStatus(status)
		}
	}

	backoff := NewBackoff(m.baseDelay, m.maxDelay, DefaultMultiplier)
	p := NewPoller(subscriberID, m.source, backoff, wrapped, m.logger)
	m.pollers[subscriberID] = p
	p.Start(ctx)

	if m.metrics != nil {
		m.metrics.ActivePollers.Inc()
	}
	return p
}

// Release stops the poller for a subscriber session, if any.
func (m *Manager) Release(subscriberID int64) {
	m.mu.Lock()
	p, ok := m.pollers[subscriberID]
	delete(m.pollers, subscriberID)
	m.mu.Unlock()

	if !ok {
		return
	}
	p.Stop()
	if m.metrics != nil {
		m.metrics.ActivePollers.Dec()
	}
}

// StopAll stops every poller. Called on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	pollers := make([]*Poller, 0, len(m.pollers))
	ids := make([]int64, 0, len(m.pollers))
	for id, p := range m.pollers {
		pollers = append(pollers, p)
		ids = append(ids, id)
	}
	for _, id := range ids {
		delete(m.pollers, id)
	}
	m.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
		if m.metrics != nil {
			m.metrics.ActivePollers.Dec()
		}
	}
}

// Watching reports whether a subscriber session is currently polled.
func (m *Manager) Watching(subscriberID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pollers[subscriberID]
	return ok
}
