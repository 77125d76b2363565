// Package subscribers holds the subscriber account model and the rules that
// derive a subscriber's effective service state.
//
// # Overview
//
// A subscriber's stored status (active/suspended/expired) is what billing
// operations set; the *effective* state additionally applies the parent
// cascade: a non-independent child account follows its parent down. The
// account tree is at most one level deep; a child can never itself be a
// parent, enforced in the service layer rather than by UI filtering.
//
// # Usage Example
//
//	state, err := subscribers.EffectiveState(sub, parent)
//	if state == subscribers.StateActive {
//		days, _ := subscribers.DaysRemaining(sub.EffectiveExpiry(), time.Now())
//		// ...
//	}
//
// PostgresService persists accounts and packages; CachedService layers a
// Redis read cache and an in-process LRU of encoded rate-limit attributes
// on top of it.
package subscribers
