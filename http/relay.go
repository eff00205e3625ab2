package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"inviqa/push-relay/config"
	"inviqa/push-relay/dispatch"
	"inviqa/push-relay/endpoint"

	"github.com/google/uuid"
	nr "github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

type Dispatcher interface {
	LoadEndpoint(ctx context.Context, id string) (*endpoint.Endpoint, error)
	PushEndpoint(ctx context.Context, ep *endpoint.Endpoint, body interface{}, timeout time.Duration, traceId string, l logrus.FieldLogger) dispatch.Outcome
	LoadGroup(ctx context.Context, id string) (*dispatch.GroupPlan, error)
	RunGroup(ctx context.Context, plan *dispatch.GroupPlan, body interface{}, timeout time.Duration, traceId string, l logrus.FieldLogger) dispatch.GroupResult
}

type Tracker interface {
	Go(ctx context.Context, traceId string, fn func(ctx context.Context))
}

type Notifier interface {
	DeliverDetached(ctx context.Context, url string, result interface{}, traceId string, timeout time.Duration)
}

// Relay holds what both push handlers need.
type Relay struct {
	cfg        *config.Config
	dispatcher Dispatcher
	tracker    Tracker
	notifier   Notifier
	app        *nr.Application
	log        logrus.FieldLogger
	newId      func() string
}

func NewRelay(cfg *config.Config, d Dispatcher, t Tracker, n Notifier, app *nr.Application, l logrus.FieldLogger) *Relay {
	return &Relay{
		cfg:        cfg,
		dispatcher: d,
		tracker:    t,
		notifier:   n,
		app:        app,
		log:        l,
		newId:      uuid.NewString,
	}
}

// decodeBody reads the request JSON keeping numbers as json.Number so they
// render unchanged. An empty body is an empty object.
func decodeBody(r io.Reader) (interface{}, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body interface{}
	if err := dec.Decode(&body); err != nil {
		if err == io.EOF {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}

	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func panicMessage(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
