// Package connectivity polls the external NAS accounting feed for a
// subscriber's live session status.
//
// # Overview
//
// While a subscriber is observed offline the poller backs off exponentially
// (2s, 4s, 8s, ... capped at 60s) instead of hammering the feed; the first
// online observation snaps the interval back to the base. Each poller is a
// single self-rescheduling loop: the next timer is armed only after the
// previous refresh settles, so refreshes for one subscriber never overlap.
//
// # Usage Example
//
//	manager := connectivity.NewManager(source, logger, metrics)
//	manager.Watch(ctx, subscriberID, func(st *connectivity.TechnicalStatus) {
//		// push to the session view
//	})
//	defer manager.Release(subscriberID)
package connectivity
