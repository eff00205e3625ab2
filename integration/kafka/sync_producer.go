//go:build integration || benchmarks
// +build integration benchmarks

package kafka

import (
	"sync"

	"inviqa/push-relay/kafka"

	"github.com/Shopify/sarama"
)

// SyncProducer forwards to a real broker and counts what was sent. A
// payload registered with AddError is rejected instead of being sent.
type SyncProducer struct {
	sync.Mutex
	real      sarama.SyncProducer
	failures  map[string]error
	published int
}

func NewSyncProducer(kafkaHost []string) *SyncProducer {
	rp, err := sarama.NewSyncProducer(kafkaHost, kafka.NewSaramaConfig(false, false))
	if err != nil {
		panic(err)
	}

	return &SyncProducer{
		real:     rp,
		failures: map[string]error{},
	}
}

func (sp *SyncProducer) AddError(payload string, err error) {
	sp.Lock()
	defer sp.Unlock()
	sp.failures[payload] = err
}

func (sp *SyncProducer) PublishedCount() int {
	sp.Lock()
	defer sp.Unlock()
	return sp.published
}

func (sp *SyncProducer) ResetPublishedCount() {
	sp.Lock()
	defer sp.Unlock()
	sp.published = 0
}

func (sp *SyncProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	b, err := msg.Value.Encode()
	if err != nil {
		return 0, 0, err
	}

	sp.Lock()
	failure, ok := sp.failures[string(b)]
	sp.Unlock()
	if ok {
		return 0, 0, failure
	}

	partition, offset, err = sp.real.SendMessage(msg)
	if err == nil {
		sp.Lock()
		sp.published++
		sp.Unlock()
	}

	return partition, offset, err
}

func (sp *SyncProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	for _, m := range msgs {
		if _, _, err := sp.SendMessage(m); err != nil {
			return err
		}
	}
	return nil
}

func (sp *SyncProducer) Close() error {
	return sp.real.Close()
}
