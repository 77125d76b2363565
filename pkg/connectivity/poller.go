package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/derrickgolden/easyisp-engine/pkg/observability"
)

// phase is the poller's scheduler state. The loop moves
// idle -> waiting -> inFlight -> waiting -> ... until stopped.
type phase int

const (
	phaseIdle phase = iota
	phaseWaiting
	phaseInFlight
)

// Poller repeatedly refreshes one subscriber's technical status. The loop is
// a single goroutine, so at most one refresh is in flight and the next timer
// is armed only after the previous refresh settles.
type Poller struct {
	subscriberID int64
	source       StatusSource
	backoff      *Backoff
	onStatus     func(*TechnicalStatus)
	logger       *observability.Logger

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	phase     phase
	lastDelay time.Duration
}

// NewPoller creates a poller for one subscriber session. onStatus receives
// every successfully fetched status; it runs on the poller goroutine and
// must not block.
func NewPoller(subscriberID int64, source StatusSource, backoff *Backoff,
	onStatus func(*TechnicalStatus), logger *observability.Logger) *Poller {
	if backoff == nil {
		backoff = NewBackoff(DefaultBaseDelay, DefaultMaxDelay, DefaultMultiplier)
	}
	return &Poller{
		subscriberID: subscriberID,
		source:       source,
		backoff:      backoff,
		onStatus:     onStatus,
		logger:       logger.WithField("subscriber_id", subscriberID),
		done:         make(chan struct{}),
	}
}

// Start launches the polling loop. The first refresh fires immediately.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

// Stop cancels the pending timer and waits for the loop to exit. An
// in-flight refresh is allowed to complete but its result is discarded.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

// Phase reports the current scheduler state.
func (p *Poller) Phase() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.phase {
	case phaseWaiting:
		return "waiting"
	case phaseInFlight:
		return "in_flight"
	default:
		return "idle"
	}
}

// LastDelay reports the most recently scheduled delay.
func (p *Poller) LastDelay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastDelay
}

func (p *Poller) setPhase(ph phase) {
	p.mu.Lock()
	p.phase = ph
	p.mu.Unlock()
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	defer p.setPhase(phaseIdle)
	defer observability.RecoverPanic(p.logger, "connectivity poller")

	// First refresh fires immediately; subsequent ones follow the backoff.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		p.setPhase(phaseWaiting)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.setPhase(phaseInFlight)
		status, err := p.source.SubscriberStatus(ctx, p.subscriberID)

		if ctx.Err() != nil {
			// Session ended while the refresh was in flight: discard.
			return
		}

		var delay time.Duration
		switch {
		case err != nil:
			// Transient feed errors are absorbed into the backoff, never
			// surfaced per tick.
			delay = p.backoff.Next()
			p.logger.WithError(err).Debug("status refresh failed, backing off")
		case status.IsOnline:
			p.backoff.Reset()
			delay = p.backoff.Base()
			p.deliver(status)
		default:
			delay = p.backoff.Next()
			p.deliver(status)
		}

		p.mu.Lock()
		p.lastDelay = delay
		p.mu.Unlock()

		timer.Reset(delay)
	}
}

func (p *Poller) deliver(status *TechnicalStatus) {
	if p.onStatus != nil {
		p.onStatus(status)
	}
}
