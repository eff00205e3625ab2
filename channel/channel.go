// Package channel delivers rendered push payloads to notification transports.
package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"inviqa/push-relay/endpoint"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Delivery is one rendered payload bound for a channel.
type Delivery struct {
	Channel    *endpoint.Channel
	EndpointId string
	TraceId    string
	Payload    []byte
}

type Sender interface {
	Send(ctx context.Context, d Delivery) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when the remote side answered but refused the
// message, either through an HTTP status or an application error code.
type StatusError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("channel rejected message (code %d): %s", e.Code, e.Message)
	}

	return fmt.Sprintf("channel responded with status %d: %s", e.StatusCode, e.Message)
}

var ErrUnsupportedType = errors.New("unsupported channel type")

// Registry routes deliveries to the sender registered for the channel type.
// When a rate is set every channel gets its own token bucket.
type Registry struct {
	senders map[endpoint.ChannelType]Sender

	ratePerSec int
	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
}

func NewRegistry(ratePerSec int) *Registry {
	return &Registry{
		senders:    map[endpoint.ChannelType]Sender{},
		ratePerSec: ratePerSec,
		limiters:   map[string]*rate.Limiter{},
	}
}

func (r *Registry) Register(t endpoint.ChannelType, s Sender) {
	r.senders[t] = s
}

func (r *Registry) Send(ctx context.Context, d Delivery) error {
	if d.Channel == nil {
		return errors.New("endpoint has no channel")
	}

	s, ok := r.senders[d.Channel.Type]
	if !ok {
		return errors.Wrap(ErrUnsupportedType, string(d.Channel.Type))
	}

	if l := r.limiter(d.Channel); l != nil {
		if err := l.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// the limiter refuses up front when the wait would outlast the deadline
			if _, ok := ctx.Deadline(); ok {
				return errors.Wrap(context.DeadlineExceeded, "channel rate limit")
			}
			return errors.Wrap(err, "channel rate limit")
		}
	}

	return s.Send(ctx, d)
}

func (r *Registry) limiter(c *endpoint.Channel) *rate.Limiter {
	if r.ratePerSec <= 0 {
		return nil
	}

	key := c.Id
	if key == "" {
		key = string(c.Type) + ":" + c.Webhook
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.ratePerSec), r.ratePerSec)
		r.limiters[key] = l
	}

	return l
}

// runWithContext runs fn in the background for clients that cannot be
// cancelled. The caller returns on ctx expiry; fn is left to finish on its own.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}
