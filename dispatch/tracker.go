package dispatch

import (
	"context"
	"fmt"
	"sync"

	"inviqa/push-relay/prometheus"

	"github.com/sirupsen/logrus"
)

// Tracker runs detached background work that must outlive the request that
// started it, and lets shutdown wait for that work to drain.
type Tracker struct {
	wg  sync.WaitGroup
	log logrus.FieldLogger
}

func NewTracker(l logrus.FieldLogger) *Tracker {
	return &Tracker{log: l}
}

// Go runs fn on a context that keeps the values of ctx but is never
// cancelled with it. Panics are recovered and logged against traceId.
func (t *Tracker) Go(ctx context.Context, traceId string, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)

	t.wg.Add(1)
	prometheus.BackgroundTaskStarted()
	go func() {
		defer t.wg.Done()
		defer prometheus.BackgroundTaskFinished()
		defer func() {
			if r := recover(); r != nil {
				t.log.WithField("trace_id", traceId).WithError(fmt.Errorf("%v", r)).Error("background task error")
			}
		}()

		fn(detached)
	}()
}

// Wait blocks until all tracked work has finished or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
