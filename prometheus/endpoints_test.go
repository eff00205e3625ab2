package prometheus

import (
	"context"
	"testing"
	"time"

	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/endpoint/test"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestObserveEndpoints(t *testing.T) {
	repo := test.NewMockRepository()
	ch := &endpoint.Channel{Type: endpoint.ChannelWebhook}
	repo.AddEndpoint(&endpoint.Endpoint{Id: "a", Status: endpoint.StatusActive, Channel: ch})
	repo.AddEndpoint(&endpoint.Endpoint{Id: "b", Status: endpoint.StatusActive, Channel: ch})
	repo.AddEndpoint(&endpoint.Endpoint{Id: "c", Status: endpoint.StatusInactive, Channel: ch})

	l, hook := logtest.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ObserveEndpoints(ctx, repo, l)
		close(done)
	}()
	time.Sleep(time.Millisecond * 100)
	cancel()
	<-done

	if actual := testutil.ToFloat64(activeEndpoints); actual != 2.00 {
		t.Errorf("expected activeEndpoints to be 2.000000, but got %f", actual)
	}

	if actual := testutil.ToFloat64(totalEndpoints); actual != 3.00 {
		t.Errorf("expected totalEndpoints to be 3.000000, but got %f", actual)
	}

	if n := len(hook.AllEntries()); n != 0 {
		t.Errorf("expected no log entries, got %d", n)
	}
}

func TestObserveTotalEndpoints_WithRepositoryError(t *testing.T) {
	totalEndpoints.Set(0.0)
	repo := &failingSizer{}

	l, hook := logtest.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ObserveTotalEndpoints(ctx, repo, l)
		close(done)
	}()
	time.Sleep(time.Millisecond * 100)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("observer did not stop after cancellation")
	}

	if actual := testutil.ToFloat64(totalEndpoints); actual != 0.00 {
		t.Errorf("expected totalEndpoints to be 0.000000, but got %f", actual)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected the repository error to be logged")
	}
	if entry.Level != logrus.ErrorLevel || entry.Message != "an error occurred determining the number of total endpoints" {
		t.Errorf("unexpected log entry: %s %q", entry.Level, entry.Message)
	}
	if entry.Data[logrus.ErrorKey] != errFailing {
		t.Errorf("expected the entry to carry the repository error, got %v", entry.Data[logrus.ErrorKey])
	}
}

type failingSizer struct{}

func (f *failingSizer) CountEndpoints() (uint, error) {
	return 0, errFailing
}

func (f *failingSizer) CountActiveEndpoints() (uint, error) {
	return 0, errFailing
}
