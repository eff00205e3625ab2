package dispatch

import (
	"context"
	"time"

	"inviqa/push-relay/channel"
	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/prometheus"
	"inviqa/push-relay/template"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrEndpointDisabled = errors.New("endpoint is disabled")
	ErrGroupDisabled    = errors.New("endpoint group is disabled")
	ErrEmptyGroup       = errors.New("endpoint group has no endpoints")
)

type Store interface {
	GetEndpoint(ctx context.Context, id string) (*endpoint.Endpoint, error)
	GetGroup(ctx context.Context, id string) (*endpoint.Group, error)
	GetGroupEndpoints(ctx context.Context, groupId string) ([]*endpoint.Endpoint, error)
}

type Sender interface {
	Send(ctx context.Context, d channel.Delivery) error
}

type Dispatcher struct {
	store       Store
	sender      Sender
	concurrency int
}

func NewDispatcher(store Store, sender Sender, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Dispatcher{
		store:       store,
		sender:      sender,
		concurrency: concurrency,
	}
}

// LoadEndpoint fetches an endpoint that may be pushed to, returning
// endpoint.ErrNotFound or ErrEndpointDisabled otherwise.
func (d *Dispatcher) LoadEndpoint(ctx context.Context, id string) (*endpoint.Endpoint, error) {
	ep, err := d.store.GetEndpoint(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ep.Status.Active() {
		return nil, ErrEndpointDisabled
	}

	return ep, nil
}

// PushEndpoint renders the endpoint rule against body and makes exactly one
// delivery attempt. The timeout only covers the delivery.
func (d *Dispatcher) PushEndpoint(ctx context.Context, ep *endpoint.Endpoint, body interface{}, timeout time.Duration, traceId string, l logrus.FieldLogger) Outcome {
	o := Outcome{EndpointId: ep.Id, Endpoint: ep.Name}
	l = l.WithField("endpoint_id", ep.Id)

	if ep.Channel == nil {
		l.Error("endpoint has no channel")
		o.Status, o.Message = StatusFailed, MessageEndpointNotFound
		d.record(ep, o, 0)
		return o
	}

	payload, err := template.Render(ep.Rule, body)
	if err != nil {
		l.WithError(err).Error("template parsing failed")
		o.Status, o.Message = StatusFailed, MessageRenderFailed
		d.record(ep, o, 0)
		return o
	}

	l = l.WithField("channel_type", ep.Channel.Type)
	l.WithField("timeout_ms", timeout.Milliseconds()).Debug("executing push")

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err = d.sender.Send(dctx, channel.Delivery{
		Channel:    ep.Channel,
		EndpointId: ep.Id,
		TraceId:    traceId,
		Payload:    payload,
	})
	took := time.Since(start)

	switch {
	case err == nil:
		l.Info("push executed successfully")
		o.Status, o.Message = StatusSuccess, MessageSuccess
	case errors.Is(err, context.DeadlineExceeded) || dctx.Err() == context.DeadlineExceeded:
		l.WithError(err).Error("push timed out")
		o.Status, o.Message, o.TimedOut = StatusFailed, MessageTimeout, true
	default:
		var se *channel.StatusError
		if errors.As(err, &se) {
			l.WithError(err).WithField("status_code", se.StatusCode).Warn("channel rejected push")
		} else {
			l.WithError(err).Error("push execution failed")
		}
		o.Status, o.Message = StatusFailed, err.Error()
	}

	d.record(ep, o, took)

	return o
}

func (d *Dispatcher) record(ep *endpoint.Endpoint, o Outcome, took time.Duration) {
	prometheus.RecordDelivery(channelType(ep), string(o.Status), took)
}
