package prometheus

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushRequests = promauto.NewCounterVec(prom.CounterOpts{
		Name: "push_relay_requests_total",
		Help: "Push requests answered, by request type, mode and result status",
	}, []string{"type", "mode", "status"})

	deliveries = promauto.NewCounterVec(prom.CounterOpts{
		Name: "push_relay_deliveries_total",
		Help: "Per-endpoint dispatch outcomes, by channel type and outcome status",
	}, []string{"channel", "status"})

	deliveryDuration = promauto.NewHistogramVec(prom.HistogramOpts{
		Name:    "push_relay_delivery_duration_seconds",
		Help:    "Time spent delivering a rendered payload to a channel",
		Buckets: prom.DefBuckets,
	}, []string{"channel"})

	backgroundTasks = promauto.NewGauge(prom.GaugeOpts{
		Name: "push_relay_background_tasks",
		Help: "Detached dispatch tasks that have not finished yet",
	})

	callbacks = promauto.NewCounterVec(prom.CounterOpts{
		Name: "push_relay_callbacks_total",
		Help: "Callback deliveries, by result",
	}, []string{"result"})
)

func RecordPushRequest(kind, mode, status string) {
	pushRequests.WithLabelValues(kind, mode, status).Inc()
}

func RecordDelivery(channel, status string, took time.Duration) {
	deliveries.WithLabelValues(channel, status).Inc()
	if took > 0 {
		deliveryDuration.WithLabelValues(channel).Observe(took.Seconds())
	}
}

func BackgroundTaskStarted() {
	backgroundTasks.Inc()
}

func BackgroundTaskFinished() {
	backgroundTasks.Dec()
}

func RecordCallback(delivered bool) {
	result := "failed"
	if delivered {
		result = "delivered"
	}
	callbacks.WithLabelValues(result).Inc()
}
