// Package callback posts push results back to callers that asked for
// asynchronous processing.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"inviqa/push-relay/log"
	"inviqa/push-relay/prometheus"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const TraceIdHeader = "X-Trace-Id"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Notifier struct {
	Client httpDoer
	log    logrus.FieldLogger
	wg     sync.WaitGroup
}

func NewNotifier(cl httpDoer, l logrus.FieldLogger) *Notifier {
	return &Notifier{Client: cl, log: l}
}

// Deliver POSTs result as JSON to url and reports whether a 2xx came back.
// A deadline is only applied when timeout is positive. An empty url is a
// no-op and returns false.
func (n *Notifier) Deliver(ctx context.Context, url string, result interface{}, traceId string, timeout time.Duration) bool {
	if url == "" {
		return false
	}

	l := log.WithTrace(n.log, traceId, "Callback").WithField("url", url)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
		l.WithField("timeout_ms", timeout.Milliseconds()).Debug("sending callback")
	} else {
		l.WithField("timeout_ms", "no limit").Debug("sending callback")
	}

	delivered := n.post(ctx, url, result, traceId, l)
	prometheus.RecordCallback(delivered)

	return delivered
}

func (n *Notifier) post(ctx context.Context, url string, result interface{}, traceId string, l logrus.FieldLogger) bool {
	b, err := json.Marshal(result)
	if err != nil {
		l.WithError(err).Error("unable to encode callback payload")
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		l.WithError(err).Error("callback request failed")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TraceIdHeader, traceId)

	resp, err := n.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.WithError(err).Error("callback timeout")
		} else {
			l.WithError(err).Error("callback request failed")
		}
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		l.WithField("status_code", resp.StatusCode).Warn("callback response error")
		return false
	}

	l.WithField("status_code", resp.StatusCode).Info("callback sent successfully")

	return true
}

// DeliverDetached runs Deliver in the background and returns at once. A
// failed delivery is logged once as a warning and otherwise ignored.
func (n *Notifier) DeliverDetached(ctx context.Context, url string, result interface{}, traceId string, timeout time.Duration) {
	if url == "" {
		return
	}

	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithTrace(n.log, traceId, "Callback").WithField("panic", r).Warn("background callback failed (ignored)")
			}
		}()

		if !n.Deliver(ctx, url, result, traceId, timeout) {
			log.WithTrace(n.log, traceId, "Callback").
				WithError(errors.New("callback did not complete successfully")).
				Warn("background callback failed (ignored)")
		}
	}()
}

// Wait blocks until detached deliveries have finished or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
