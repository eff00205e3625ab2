package prometheus

import (
	"context"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

const observeInterval = time.Second * 1

var (
	activeEndpoints prom.Gauge
	totalEndpoints  prom.Gauge
)

func init() {
	activeEndpoints = promauto.NewGauge(prom.GaugeOpts{
		Name: "push_relay_active_endpoints",
		Help: "The number of endpoints that currently accept pushes",
	})
	totalEndpoints = promauto.NewGauge(prom.GaugeOpts{
		Name: "push_relay_total_endpoints",
		Help: "The number of registered endpoints, active or not",
	})
}

// ObserveEndpoints refreshes the registry gauges every second until ctx is done.
func ObserveEndpoints(ctx context.Context, sizer Sizer, l logrus.FieldLogger) {
	go ObserveActiveEndpoints(ctx, sizer, l)
	ObserveTotalEndpoints(ctx, sizer, l)
}

func ObserveActiveEndpoints(ctx context.Context, sizer Sizer, l logrus.FieldLogger) {
	observe(ctx, activeEndpoints, sizer.CountActiveEndpoints, "active endpoints", l)
}

func ObserveTotalEndpoints(ctx context.Context, sizer Sizer, l logrus.FieldLogger) {
	observe(ctx, totalEndpoints, sizer.CountEndpoints, "total endpoints", l)
}

func observe(ctx context.Context, g prom.Gauge, count func() (uint, error), what string, l logrus.FieldLogger) {
	for {
		size, err := count()
		if err != nil {
			l.WithError(err).Errorf("an error occurred determining the number of %s", what)
		} else {
			g.Set(float64(size))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(observeInterval):
		}
	}
}
