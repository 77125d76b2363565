package subscribers

import (
	"fmt"
	"math"
	"time"
)

// EffectiveState derives a subscriber's service state from its own status and
// the parent cascade.
//
// A subscriber is effectively active iff its own status is active AND one of:
// it has no parent, it is billing-independent, or its parent is active.
//
// If a parent is declared but not supplied the resolver fails closed: the
// result is StateInactive and ErrParentNotResolved, never an assumed-active
// parent.
func EffectiveState(sub *Subscriber, parent *Subscriber) (ServiceState, error) {
	if sub == nil {
		return StateInactive, fmt.Errorf("nil subscriber")
	}
	if sub.Status != StatusActive {
		return StateInactive, nil
	}
	if sub.ParentID == nil || sub.IsIndependent {
		return StateActive, nil
	}
	if parent == nil {
		return StateInactive, fmt.Errorf("subscriber %d: %w", sub.ID, ErrParentNotResolved)
	}
	if parent.Status != StatusActive {
		return StateInactive, nil
	}
	return StateActive, nil
}

// DaysRemaining returns the number of whole-or-partial days until expiry,
// never negative. Partial days count as one.
func DaysRemaining(expiry, now time.Time) (int, error) {
	if expiry.IsZero() || now.IsZero() {
		return 0, ErrInvalidDate
	}
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0, nil
	}
	return int(math.Ceil(remaining.Hours() / 24)), nil
}

// Role classifies a subscriber given its number of sub-accounts. childCount
// must be the current count from storage; a subscriber cannot be both.
func Role(sub *Subscriber, childCount int) AccountRole {
	if sub.ParentID != nil {
		return RoleChild
	}
	if childCount > 0 {
		return RoleParent
	}
	return RoleStandalone
}
