package dispatch

import (
	"context"
	"sync"
	"time"

	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/limiter"
	"inviqa/push-relay/prometheus"

	"github.com/sirupsen/logrus"
)

// GroupPlan is a group that passed its pre-checks, with members split by
// whether they are dispatched or skipped.
type GroupPlan struct {
	Group    *endpoint.Group
	Eligible []*endpoint.Endpoint
	Skipped  []*endpoint.Endpoint
}

func (p *GroupPlan) Total() int {
	return len(p.Eligible) + len(p.Skipped)
}

// LoadGroup runs the group pre-checks in order: existence, status, then
// membership. Member status is read once here and not re-checked later.
func (d *Dispatcher) LoadGroup(ctx context.Context, id string) (*GroupPlan, error) {
	g, err := d.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if !g.Status.Active() {
		return nil, ErrGroupDisabled
	}

	members, err := d.store.GetGroupEndpoints(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return nil, ErrEmptyGroup
	}

	plan := &GroupPlan{Group: g}
	for _, ep := range members {
		if ep.Status.Active() {
			plan.Eligible = append(plan.Eligible, ep)
		} else {
			plan.Skipped = append(plan.Skipped, ep)
		}
	}

	return plan, nil
}

// RunGroup dispatches every eligible member with bounded concurrency and
// waits for all of them. Details hold dispatched outcomes in completion
// order followed by skipped members in membership order.
func (d *Dispatcher) RunGroup(ctx context.Context, plan *GroupPlan, body interface{}, timeout time.Duration, traceId string, l logrus.FieldLogger) GroupResult {
	l.WithFields(logrus.Fields{
		"total":       plan.Total(),
		"active":      len(plan.Eligible),
		"skipped":     len(plan.Skipped),
		"concurrency": d.concurrency,
	}).Info("endpoints filtered")

	var mu sync.Mutex
	details := make([]Outcome, 0, plan.Total())

	units := make([]limiter.Unit[Outcome], len(plan.Eligible))
	for i, ep := range plan.Eligible {
		ep := ep
		units[i] = func() (Outcome, error) {
			o := d.PushEndpoint(ctx, ep, body, timeout, traceId, l)
			mu.Lock()
			details = append(details, o)
			mu.Unlock()
			return o, nil
		}
	}

	settled := limiter.RunAll(limiter.New(d.concurrency), units)
	for i, s := range settled {
		if s.Fulfilled() {
			continue
		}
		ep := plan.Eligible[i]
		l.WithError(s.Err).WithField("endpoint_id", ep.Id).Error("group push unit rejected")
		o := Outcome{EndpointId: ep.Id, Endpoint: ep.Name, Status: StatusFailed, Message: s.Err.Error()}
		prometheus.RecordDelivery(channelType(ep), string(o.Status), 0)
		details = append(details, o)
	}

	for _, ep := range plan.Skipped {
		o := Outcome{EndpointId: ep.Id, Endpoint: ep.Name, Status: StatusSkipped, Message: MessageEndpointDisabled}
		prometheus.RecordDelivery(channelType(ep), string(o.Status), 0)
		details = append(details, o)
	}

	return GroupResultFromDetails(details, traceId)
}

func channelType(ep *endpoint.Endpoint) string {
	if ep.Channel == nil {
		return "none"
	}

	return string(ep.Channel.Type)
}
