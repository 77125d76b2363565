// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery,
// timeout enforcement and bounded-concurrency batch processing.
//
// # Key Functions
//
// SafeGo: execute a function in a goroutine with recovery and timeout
//
//	async.SafeGo(ctx, 30*time.Second, logger, "cache invalidation", func(ctx context.Context) error {
//		return cache.InvalidateSubscriber(ctx, id)
//	})
//
// Batch: process items concurrently with a worker limit
//
//	err := async.Batch(ctx, ids, 8, func(ctx context.Context, id int64) error {
//		return cache.InvalidateSubscriber(ctx, id)
//	})
//
// # Use Cases
//
// Expiry sweeps invalidating many cached subscribers, fire-and-forget audit
// writes, and the billing worker fanning out over routers.
//
// # Related Packages
//
//   - pkg/jobs: fires SafeGo with a Batch inside after each sweep
//   - pkg/connectivity: manages its own pollers, one goroutine each
package async
