package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	nr "github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"inviqa/push-relay/callback"
	"inviqa/push-relay/channel"
	"inviqa/push-relay/config"
	"inviqa/push-relay/dispatch"
	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/endpoint/data"
	h "inviqa/push-relay/http"
	"inviqa/push-relay/job"
	"inviqa/push-relay/kafka"
	"inviqa/push-relay/log"
	"inviqa/push-relay/newrelic"
	"inviqa/push-relay/prometheus"
)

type store interface {
	dispatch.Store
	prometheus.Sizer
	h.Pinger
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Logger.Fatalf("unable to create configuration: %s", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.WithField("config", cfg).Debug("configuration resolved")

	nrApp, stopAgent := newrelic.StartAgent(logger)
	defer stopAgent()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutdown signal received")
		cancel()
	}()

	if cfg.RunOptimize {
		exitCode := runOptimize(ctx, nrApp, cfg, logger)
		stopAgent() // os.Exit() does not respect defer
		os.Exit(exitCode)
	}

	st, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	runMainApp(ctx, nrApp, st, cfg, logger)
}

func runOptimize(ctx context.Context, nrApp *nr.Application, cfg *config.Config, l logrus.FieldLogger) int {
	if cfg.UseFileStore() {
		l.Error("the optimize job needs a database endpoint store")
		return 1
	}

	db, dbClose := data.NewDB(cfg)
	defer dbClose()

	return job.RunOptimize(ctx, nrApp, db, cfg, l)
}

func openStore(ctx context.Context, cfg *config.Config, l logrus.FieldLogger) (store, func()) {
	if cfg.UseFileStore() {
		repo, err := endpoint.NewFileRepository(cfg.StoreFile)
		if err != nil {
			l.WithError(err).Fatal("unable to load the endpoint store file")
		}

		go func() {
			if err := repo.Watch(ctx); err != nil {
				l.WithError(err).Error("endpoint store file is no longer watched")
			}
		}()

		return repo, func() {}
	}

	db, dbClose := data.NewDB(cfg)

	return endpoint.NewRepository(db, cfg), dbClose
}

func newPublisher(cfg *config.Config, l logrus.FieldLogger) (kafka.Publisher, func()) {
	if len(cfg.KafkaHost) == 0 {
		return nil, func() {}
	}

	pub, err := kafka.NewPublisher(cfg.KafkaHost, kafka.NewSaramaConfig(cfg.TLSEnable, cfg.TLSSkipVerifyPeer))
	if err != nil {
		l.WithError(err).Fatal("unable to create the Kafka publisher")
	}

	return pub, func() {
		if err := pub.Close(); err != nil {
			l.WithError(err).Error("error closing the Kafka publisher during shutdown process")
		}
	}
}

func runMainApp(ctx context.Context, nrApp *nr.Application, st store, cfg *config.Config, l *logrus.Logger) {
	pub, closePublisher := newPublisher(cfg, l)
	defer closePublisher()

	registry := channel.NewDefaultRegistry(cfg, pub)
	dispatcher := dispatch.NewDispatcher(st, registry, int(cfg.PushGroupConcurrency))
	tracker := dispatch.NewTracker(l)
	notifier := callback.NewNotifier(&http.Client{}, l)

	go prometheus.ObserveEndpoints(ctx, st, l)

	relay := h.NewRelay(cfg, dispatcher, tracker, notifier, nrApp, l)
	srv := h.NewServer(cfg.ListenAddr, relay, h.NewHealthzHandler(cfg.GetDependencySystemAddresses(), st, l))

	go func() {
		l.WithField("addr", cfg.ListenAddr).Info("push relay listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalf("failed to start HTTP server: %s", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.WithError(err).Error("error shutting down the HTTP server")
	}
	if err := tracker.Wait(shutdownCtx); err != nil {
		l.WithError(err).Warn("background pushes were still running at shutdown")
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		l.WithError(err).Warn("callbacks were still running at shutdown")
	}

	l.Info("push relay stopped")
}
