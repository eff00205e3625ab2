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

type pushGroupHandler struct {
	*Relay
}

func NewPushGroupHandler(r *Relay) http.Handler {
	return &pushGroupHandler{Relay: r}
}

func (h *pushGroupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w, r, txn := newrelic.WebTransaction(w, r, "PushGroup", h.app)
	defer txn.End()

	rc := resolveRequestContext(r.Header, h.cfg, h.newId)
	id := r.PathValue("id")
	l := log.WithTrace(h.log, rc.TraceId, "PushGroup").WithField("group_id", id)

	l.WithFields(logrus.Fields{
		"async":        rc.Async(),
		"timeout_ms":   rc.Timeout.Milliseconds(),
		"has_callback": rc.Async(),
	}).Info("received group push request")

	respond := func(code int, res dispatch.GroupResult) {
		prometheus.RecordPushRequest(dispatch.TypeGroup, rc.Mode(), string(res.Status))
		writeJSON(w, code, res)
	}
	fail := func(code int, msg string) {
		respond(code, dispatch.NewGroupResult(dispatch.StatusFailed, msg, rc.TraceId))
	}

	defer func() {
		if rec := recover(); rec != nil {
			l.WithField("panic", rec).Error("group push request error")
			fail(http.StatusInternalServerError, panicMessage(rec))
		}
	}()

	seg := newrelic.StartSegment(r.Context(), "LoadGroup")
	plan, err := h.dispatcher.LoadGroup(r.Context(), id)
	seg.End()

	switch {
	case errors.Is(err, endpoint.ErrNotFound):
		l.Warn("endpoint group not found")
		fail(http.StatusNotFound, dispatch.MessageGroupNotFound)
		return
	case errors.Is(err, dispatch.ErrGroupDisabled):
		l.Warn("endpoint group is disabled")
		fail(http.StatusForbidden, dispatch.MessageGroupDisabled)
		return
	case errors.Is(err, dispatch.ErrEmptyGroup):
		l.Warn("endpoint group has no endpoints")
		fail(http.StatusBadRequest, dispatch.MessageGroupEmpty)
		return
	case err != nil:
		l.WithError(err).Error("group push request error")
		fail(http.StatusInternalServerError, err.Error())
		return
	}

	body, err := decodeBody(r.Body)
	if err != nil {
		l.WithError(err).Error("group push request error")
		fail(http.StatusInternalServerError, err.Error())
		return
	}

	if rc.Async() {
		l.Info("async mode: returning 202 immediately")
		respond(http.StatusAccepted, dispatch.NewGroupResult(dispatch.StatusSuccess, dispatch.MessageAccepted, rc.TraceId))

		h.tracker.Go(r.Context(), rc.TraceId, func(ctx context.Context) {
			res := h.dispatcher.RunGroup(ctx, plan, body, rc.Timeout, rc.TraceId, l)

			l.WithFields(logrus.Fields{
				"callback_url":        rc.CallbackUrl,
				"callback_timeout_ms": rc.CallbackTimeout.Milliseconds(),
				"status":              res.Status,
			}).Info("scheduling group callback dispatch")
			h.notifier.DeliverDetached(ctx, rc.CallbackUrl, res, rc.TraceId, rc.CallbackTimeout)
		})

		return
	}

	seg = newrelic.StartSegment(r.Context(), "RunGroup")
	res := h.dispatcher.RunGroup(r.Context(), plan, body, rc.Timeout, rc.TraceId, l)
	seg.End()

	l.WithFields(logrus.Fields{
		"status":  res.Status,
		"success": res.Data.SuccessCount,
		"failed":  res.Data.FailedCount,
		"skipped": res.Data.SkippedCount,
	}).Info("group push completed")

	if res.Status == dispatch.StatusFailed {
		respond(http.StatusInternalServerError, res)
		return
	}

	respond(http.StatusOK, res)
}
