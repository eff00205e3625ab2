package http

import (
	"context"
	"net/http"

	"inviqa/push-relay/dispatch"
	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/log"
	"inviqa/push-relay/newrelic"
	"inviqa/push-relay/prometheus"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type pushHandler struct {
	*Relay
}

func NewPushHandler(r *Relay) http.Handler {
	return &pushHandler{Relay: r}
}

func (h *pushHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w, r, txn := newrelic.WebTransaction(w, r, "Push", h.app)
	defer txn.End()

	rc := resolveRequestContext(r.Header, h.cfg, h.newId)
	id := r.PathValue("id")
	l := log.WithTrace(h.log, rc.TraceId, "PushRequest").WithField("endpoint_id", id)

	l.WithFields(logrus.Fields{
		"async":        rc.Async(),
		"timeout_ms":   rc.Timeout.Milliseconds(),
		"has_callback": rc.Async(),
	}).Info("received push request")

	respond := func(code int, res dispatch.PushResult) {
		prometheus.RecordPushRequest(dispatch.TypePush, rc.Mode(), string(res.Status))
		writeJSON(w, code, res)
	}

	defer func() {
		if rec := recover(); rec != nil {
			l.WithField("panic", rec).Error("request handling error")
			respond(http.StatusInternalServerError, dispatch.NewPushResult(dispatch.StatusFailed, panicMessage(rec), rc.TraceId))
		}
	}()

	seg := newrelic.StartSegment(r.Context(), "LoadEndpoint")
	ep, err := h.dispatcher.LoadEndpoint(r.Context(), id)
	seg.End()

	switch {
	case errors.Is(err, endpoint.ErrNotFound):
		l.Warn("endpoint not found")
		respond(http.StatusNotFound, dispatch.NewPushResult(dispatch.StatusFailed, dispatch.MessageEndpointNotFound, rc.TraceId))
		return
	case errors.Is(err, dispatch.ErrEndpointDisabled):
		l.Warn("endpoint is disabled")
		respond(http.StatusForbidden, dispatch.NewPushResult(dispatch.StatusFailed, dispatch.MessageEndpointDisabled, rc.TraceId))
		return
	case err != nil:
		l.WithError(err).Error("request handling error")
		respond(http.StatusInternalServerError, dispatch.NewPushResult(dispatch.StatusFailed, err.Error(), rc.TraceId))
		return
	}

	body, err := decodeBody(r.Body)
	if err != nil {
		l.WithError(err).Error("request handling error")
		respond(http.StatusInternalServerError, dispatch.NewPushResult(dispatch.StatusFailed, err.Error(), rc.TraceId))
		return
	}

	if rc.Async() {
		l.Info("async mode: returning 202 immediately")
		respond(http.StatusAccepted, dispatch.NewPushResult(dispatch.StatusSuccess, dispatch.MessageAccepted, rc.TraceId))

		h.tracker.Go(r.Context(), rc.TraceId, func(ctx context.Context) {
			o := h.dispatcher.PushEndpoint(ctx, ep, body, rc.Timeout, rc.TraceId, l)
			res := dispatch.PushResultFromOutcome(o, rc.TraceId)

			l.WithFields(logrus.Fields{
				"callback_url":        rc.CallbackUrl,
				"callback_timeout_ms": rc.CallbackTimeout.Milliseconds(),
				"status":              res.Status,
			}).Info("scheduling callback dispatch")
			h.notifier.DeliverDetached(ctx, rc.CallbackUrl, res, rc.TraceId, rc.CallbackTimeout)
		})

		return
	}

	seg = newrelic.StartSegment(r.Context(), "PushEndpoint")
	o := h.dispatcher.PushEndpoint(r.Context(), ep, body, rc.Timeout, rc.TraceId, l)
	seg.End()

	res := dispatch.PushResultFromOutcome(o, rc.TraceId)
	switch {
	case o.Status == dispatch.StatusSuccess:
		l.Info("sync push completed successfully")
		respond(http.StatusOK, res)
	case o.TimedOut:
		l.Warn("sync push timeout")
		respond(http.StatusGatewayTimeout, res)
	default:
		l.Error("sync push failed")
		respond(http.StatusInternalServerError, res)
	}
}
