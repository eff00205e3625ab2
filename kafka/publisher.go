package kafka

import (
	"fmt"
	"io"
	"sort"

	"inviqa/push-relay/log"

	"github.com/Shopify/sarama"
)

const TraceIdHeader = "X-Trace-Id"

// Message is one rendered push destined for a Kafka topic.
type Message struct {
	Topic        string
	Key          string
	PartitionKey string
	Headers      map[string]string
	Payload      []byte
}

type Publisher interface {
	io.Closer
	PublishMessage(m *Message) error
}

type publisher struct {
	producer sarama.SyncProducer
}

func (p publisher) PublishMessage(m *Message) error {
	msg := &sarama.ProducerMessage{
		Topic:   m.Topic,
		Headers: p.createRecordHeaders(m.Headers),
		Value:   sarama.ByteEncoder(m.Payload),
	}
	if m.Key != "" || m.PartitionKey != "" {
		msg.Key = newMessageKey(m.Key, m.PartitionKey)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("error producing message in Kafka: %w", err)
	}

	log.Logger.Debugf("produced message in Kafka (topic: %s, partition: %d, offset: %d)", m.Topic, partition, offset)

	return nil
}

func NewPublisher(kafkaHost []string, cfg *sarama.Config) (Publisher, error) {
	producer, err := sarama.NewSyncProducer(kafkaHost, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not start kafka producer: %w", err)
	}

	return NewPublisherWithProducer(producer), nil
}

func NewPublisherWithProducer(prod sarama.SyncProducer) Publisher {
	return &publisher{
		producer: prod,
	}
}

func (p publisher) Close() error {
	return p.producer.Close()
}

func (p publisher) createRecordHeaders(headers map[string]string) []sarama.RecordHeader {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recs := []sarama.RecordHeader{}
	for _, k := range keys {
		recs = append(recs, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(headers[k]),
		})
	}

	return recs
}
