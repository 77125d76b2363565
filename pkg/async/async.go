package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SafeGo executes a function in a goroutine with context cancellation,
// panic recovery and timeout enforcement. Use this instead of a bare
// `go func()` for fire-and-forget work so one bad task cannot crash the
// process or leak forever.
func SafeGo(parentCtx context.Context, timeout time.Duration, log *logrus.Logger, taskName string, fn func(context.Context) error) {
	if log == nil {
		log = logrus.New()
	}

	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			log.WithError(err).WithField("task", taskName).Error("background task failed")
		}
	}()
}

// Batch runs fn over every item with at most limit goroutines in flight.
// The first error cancels the remaining work and is returned.
func Batch[T any](ctx context.Context, items []T, limit int, fn func(context.Context, T) error) error {
	if limit <= 0 {
		limit = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, item := range items {
		item := item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, item)
		})
	}

	return g.Wait()
}
