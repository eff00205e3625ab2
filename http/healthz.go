package http

import (
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	checkOk          = "ok"
	checkUnavailable = "unavailable"
	storeCheck       = "store"
)

type Pinger interface {
	Ping() error
}

type healthzHandler struct {
	checkAddr   []string
	store       Pinger
	log         logrus.FieldLogger
	dialTimeout time.Duration
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewHealthzHandler answers liveness from the endpoint store alone; with
// ?readiness=1 every dependency host must also accept a TCP connection.
func NewHealthzHandler(checkAddr []string, store Pinger, l logrus.FieldLogger) http.Handler {
	return &healthzHandler{
		checkAddr:   checkAddr,
		store:       store,
		log:         l,
		dialTimeout: time.Second,
	}
}

func (h *healthzHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	report := healthReport{Status: checkOk, Checks: map[string]string{}}

	report.record(storeCheck, h.checkStore())
	if req.URL.Query().Get("readiness") == "1" {
		for _, host := range h.checkAddr {
			report.record(host, h.checkHost(host))
		}
	}

	code := http.StatusOK
	if report.Status != checkOk {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, report)
}

func (r *healthReport) record(name string, healthy bool) {
	if healthy {
		r.Checks[name] = checkOk
		return
	}

	r.Checks[name] = checkUnavailable
	r.Status = checkUnavailable
}

func (h *healthzHandler) checkStore() bool {
	if err := h.store.Ping(); err != nil {
		h.log.WithError(err).Debug("endpoint store is not available or there is a problem with connectivity")
		return false
	}
	return true
}

func (h *healthzHandler) checkHost(host string) bool {
	conn, err := net.DialTimeout("tcp", host, h.dialTimeout)
	if err != nil {
		h.log.WithError(err).Debugf("unable to connect to %s", host)
		return false
	}
	_ = conn.Close()

	return true
}
