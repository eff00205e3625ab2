package kafka

import (
	"crypto/tls"
	"os"
	"time"

	"github.com/Shopify/sarama"
)

const clientIdPrefix = "push-relay-"

// NewSaramaConfig builds the producer config for the kafka channel. The
// producer does not retry on its own: a push gets one delivery attempt and
// the relay reports the outcome.
func NewSaramaConfig(kafkaTlsEnabled bool, tlsSkipVerify bool) *sarama.Config {
	cfg := sarama.NewConfig()

	host, _ := os.Hostname()

	cfg.ClientID = clientIdPrefix + host
	cfg.Version = sarama.V2_4_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionGZIP
	cfg.Producer.Partitioner = NewEndpointPartitioner
	cfg.Metadata.Retry.Max = 10
	cfg.Metadata.Retry.Backoff = 2 * time.Second
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Producer.Retry.Max = 0

	if kafkaTlsEnabled {
		cfg.Net.TLS.Enable = true
		// #nosec G402
		// we suppress this in gosec because it believes that InsecureSkipVerify is true, but it depends on the parameter
		// value passed into this func, which is dependent on environment configuration
		cfg.Net.TLS.Config = &tls.Config{InsecureSkipVerify: tlsSkipVerify}
	}

	return cfg
}
