package connectivity

import "time"

// Default backoff parameters for offline polling.
const (
	DefaultBaseDelay  = 2 * time.Second
	DefaultMaxDelay   = 60 * time.Second
	DefaultMultiplier = 2.0
)

// Backoff produces the delay sequence for consecutive offline observations:
// base, base*m, base*m^2, ... capped at max. Not safe for concurrent use;
// each poller owns its own instance.
type Backoff struct {
	base       time.Duration
	max        time.Duration
	multiplier float64
	current    time.Duration
}

// NewBackoff creates a backoff starting at base. Non-positive or nonsensical
// parameters fall back to the defaults.
func NewBackoff(base, max time.Duration, multiplier float64) *Backoff {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max < base {
		max = DefaultMaxDelay
	}
	if multiplier <= 1.0 {
		multiplier = DefaultMultiplier
	}
	return &Backoff{base: base, max: max, multiplier: multiplier, current: base}
}

// Base returns the starting delay.
func (b *Backoff) Base() time.Duration {
	return b.base
}

// Next returns the delay to schedule for the current observation and
// advances the sequence.
func (b *Backoff) Next() time.Duration {
	delay := b.current

	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Reset snaps the sequence back to the base delay. Called on the first
// online observation.
func (b *Backoff) Reset() {
	b.current = b.base
}
