package http

import (
	"net/http"
	"time"

	"inviqa/push-relay/prometheus"
)

// NewServer routes the push API, health and metrics on one listener.
func NewServer(addr string, relay *Relay, healthz http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewMux(relay, healthz),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewMux(relay *Relay, healthz http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /push/{id}", NewPushHandler(relay))
	mux.Handle("POST /push-group/{id}", NewPushGroupHandler(relay))
	mux.Handle("GET /healthz", healthz)
	mux.Handle("GET /metrics", prometheus.Handler())

	return mux
}
