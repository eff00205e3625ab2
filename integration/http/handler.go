//go:build integration
// +build integration

package http

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Request is one call made by the relay to the test receiver.
type Request struct {
	Header http.Header
	Body   []byte
}

var (
	mu    sync.Mutex
	recvd = map[string][]Request{}
)

// GetHttpTestHandlerFunc stands in for channel webhooks, callback receivers
// and the sidecar proxy. Paths under /fail answer 500 and paths under /slow
// take half a second.
func GetHttpTestHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		record(r.URL.Path, Request{Header: r.Header.Clone(), Body: b})

		switch {
		case strings.HasPrefix(r.URL.Path, "/fail"):
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("receiver failure"))
		case strings.HasPrefix(r.URL.Path, "/slow"):
			time.Sleep(500 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}

func record(path string, req Request) {
	mu.Lock()
	defer mu.Unlock()
	recvd[path] = append(recvd[path], req)
}

func Reset() {
	mu.Lock()
	defer mu.Unlock()
	recvd = map[string][]Request{}
}

func Received(path string) []Request {
	mu.Lock()
	defer mu.Unlock()

	return append([]Request{}, recvd[path]...)
}

// WaitFor polls until n requests reached path or the timeout passes.
func WaitFor(path string, n int, timeout time.Duration) []Request {
	deadline := time.Now().Add(timeout)
	for {
		got := Received(path)
		if len(got) >= n || time.Now().After(deadline) {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
}
