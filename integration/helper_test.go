//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"inviqa/push-relay/callback"
	"inviqa/push-relay/channel"
	"inviqa/push-relay/config"
	"inviqa/push-relay/dispatch"
	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/endpoint/data"
	h "inviqa/push-relay/http"
	testhttp "inviqa/push-relay/integration/http"
	testkafka "inviqa/push-relay/integration/kafka"
	"inviqa/push-relay/kafka"
	"inviqa/push-relay/log"

	"github.com/Shopify/sarama"
	"github.com/sirupsen/logrus"
)

const (
	testModeDocker = "docker"
)

var (
	cfg          *config.Config
	db           *sql.DB
	syncProducer *testkafka.SyncProducer
	receiver     *httptest.Server
	relay        *httptest.Server
	tracker      *dispatch.Tracker
	notifier     *callback.Notifier
)

func init() {
	receiver = httptest.NewServer(testhttp.GetHttpTestHandlerFunc())
	setupConfig()

	syncProducer = testkafka.NewSyncProducer(cfg.KafkaHost)
	pub := kafka.NewPublisherWithProducer(syncProducer)

	db, _ = data.NewDB(cfg)
	purgeStoreTables()

	l := log.New(cfg.LogLevel)
	repo := endpoint.NewRepository(db, cfg)
	tracker = dispatch.NewTracker(l)
	notifier = callback.NewNotifier(&http.Client{}, l)

	d := dispatch.NewDispatcher(repo, channel.NewDefaultRegistry(cfg, pub), int(cfg.PushGroupConcurrency))
	r := h.NewRelay(cfg, d, tracker, notifier, nil, l)
	relay = httptest.NewServer(h.NewMux(r, h.NewHealthzHandler(cfg.GetDependencySystemAddresses(), repo, l)))
}

func setupConfig() *config.Config {
	var runInDocker bool
	if os.Getenv("GO_TEST_MODE") == testModeDocker {
		runInDocker = true
	}

	cfg = &config.Config{
		PushTimeoutMs:        2000,
		PushGroupConcurrency: 2,
		CallbackTimeoutMs:    2000,
		LogLevel:             logrus.WarnLevel.String(),
		SidecarProxyUrl:      receiver.URL,
		KafkaHost:            []string{"localhost:9092"},
		DBUser:               "push-relay",
		DBPass:               "push-relay",
		DBSchema:             "push-relay",
	}

	envs := map[string]string{}
	for _, env := range os.Environ() {
		pts := strings.SplitN(env, "=", 2)
		envs[pts[0]] = pts[1]
	}

	switch config.DbDriver(envs["DB_DRIVER"]) {
	case config.MySQL:
		cfg.DBDriver = config.MySQL
		cfg.DBPort = 13306
	case config.SQLite:
		cfg.DBDriver = config.SQLite
		cfg.DBPath = filepath.Join(os.TempDir(), "push-relay-integration.db")
	default:
		cfg.DBDriver = config.Postgres
		cfg.DBPort = 15432
	}

	if runInDocker {
		cfg.DBHost = cfg.DBDriver.String()
		cfg.DBPort = cfg.DBPort - 10000
		cfg.KafkaHost = []string{"kafka:29092"}
	} else {
		cfg.DBHost = "localhost"
	}

	return cfg
}

func post(path string, body string, headers map[string]string) (*http.Response, []byte) {
	req, err := http.NewRequest(http.MethodPost, relay.URL+path, strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var b bytes.Buffer
	_, _ = b.ReadFrom(resp.Body)

	return resp, b.Bytes()
}

func waitForBackgroundWork() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = tracker.Wait(ctx)
	_ = notifier.Wait(ctx)
}

//gocyclo:ignore
func consumeFromKafkaUntilMessagesReceived(exp []testkafka.MessageExpectation) *testkafka.ConsumerHandler {
	doneCh := make(chan bool)
	ctx, cancel := context.WithCancel(context.Background())

	toFind := make([]testkafka.MessageExpectation, len(exp))
	copy(toFind, exp)
	cons := &testkafka.ConsumerHandler{
		Consume: func(consumed *sarama.ConsumerMessage, c *testkafka.ConsumerHandler) {
			j := 0
			for _, m := range toFind {
				headersAreSame := reflect.DeepEqual(consumed.Headers, m.Headers)
				keysAreSame := bytes.Equal(consumed.Key, m.Key)
				if !headersAreSame || !keysAreSame || !bytes.Equal(m.Value, consumed.Value) {
					toFind[j] = m
					j++
				}
			}
			toFind = toFind[:j]
			if len(toFind) == 0 {
				c.MessagesFound = true
			}
		},
	}

	saramaCfg := kafka.NewSaramaConfig(false, false)
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cl, err := sarama.NewConsumerGroup(cfg.KafkaHost, "push-relay-test", saramaCfg)
	if err != nil {
		log.Logger.WithError(err).Panic("error occurred creating Kafka consumer group client")
	}

	topics := testkafka.GetTopicsFromMessageExpectations(exp)
	go func() {
		for {
			log.Logger.Debugf("about to consume topics %s", topics)
			if err := cl.Consume(ctx, topics, cons); err != nil {
				log.Logger.WithError(err).Panic("error when consuming from Kafka")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		for {
			if cons.Found() {
				doneCh <- true
				return
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	select {
	case <-time.After(10 * time.Second):
		break
	case <-doneCh:
		break
	}

	cancel()

	if err := cl.Close(); err != nil {
		log.Logger.WithError(err).Panic("error occurred closing Kafka client")
	}

	return cons
}
