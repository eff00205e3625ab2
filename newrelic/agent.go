package newrelic

import (
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = time.Second * 10
	appName           = "push-relay"
	envKeyNewRelicEnv = "NEW_RELIC_ENV"
	envKeyLogLevel    = "NEW_RELIC_LOG_LEVEL"
	envKeyLicense     = "NEW_RELIC_LICENSE_KEY"
)

// StartAgent starts the APM agent from the NEW_RELIC_* environment. Without a
// license key the agent is created disabled so transactions become no-ops.
func StartAgent(l *logrus.Logger) (*newrelic.Application, func()) {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigFromEnvironment(),
		agentLoggingConfig(l),
		func(cfg *newrelic.Config) {
			cfg.Labels = map[string]string{
				"env": os.Getenv(envKeyNewRelicEnv),
			}
			if os.Getenv(envKeyLicense) == "" {
				cfg.Enabled = false
			}
		},
	)
	if err != nil {
		l.WithError(err).Fatal("error starting New Relic agent")
	}

	return app, func() {
		l.Info("shutting down newrelic agent")
		app.Shutdown(shutdownTimeout)
	}
}

func agentLoggingConfig(l *logrus.Logger) newrelic.ConfigOption {
	if os.Getenv(envKeyLogLevel) == "debug" {
		return newrelic.ConfigDebugLogger(l.Writer())
	}
	return newrelic.ConfigInfoLogger(l.Writer())
}
