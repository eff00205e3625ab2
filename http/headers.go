package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inviqa/push-relay/config"
)

const (
	HeaderTimeout         = "X-Timeout"
	HeaderTraceId         = "X-Trace-Id"
	HeaderCallbackUrl     = "X-Callback-Url"
	HeaderCallbackTimeout = "X-Callback-Timeout"
)

// requestContext is resolved once per inbound push and is not changed after.
type requestContext struct {
	TraceId         string
	Timeout         time.Duration
	CallbackUrl     string
	CallbackTimeout time.Duration
}

// Async reports whether the caller asked for a callback instead of waiting.
func (rc requestContext) Async() bool {
	return rc.CallbackUrl != ""
}

func (rc requestContext) Mode() string {
	if rc.Async() {
		return "async"
	}
	return "sync"
}

func resolveRequestContext(h http.Header, cfg *config.Config, newId func() string) requestContext {
	traceId := headerValue(h, HeaderTraceId)
	if traceId == "" {
		traceId = newId()
	}

	return requestContext{
		TraceId:         traceId,
		Timeout:         millis(positiveIntHeader(h, HeaderTimeout, int(cfg.PushTimeoutMs))),
		CallbackUrl:     headerValue(h, HeaderCallbackUrl),
		CallbackTimeout: millis(positiveIntHeader(h, HeaderCallbackTimeout, int(cfg.CallbackTimeoutMs))),
	}
}

// headerValue returns the trimmed header, with blank treated as absent.
func headerValue(h http.Header, name string) string {
	return strings.TrimSpace(h.Get(name))
}

func positiveIntHeader(h http.Header, name string, fallback int) int {
	return parsePositiveInt(headerValue(h, name), fallback)
}

// parsePositiveInt accepts any finite number and floors it. Values below 1
// after flooring fall back.
func parsePositiveInt(v string, fallback int) int {
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}

	n := math.Floor(f)
	if n < 1 || n > math.MaxInt32 {
		return fallback
	}

	return int(n)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
