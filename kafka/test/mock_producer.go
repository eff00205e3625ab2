package test

import (
	"fmt"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/go-test/deep"
)

type mockSyncProducer struct {
	sync.Mutex
	producedMessages map[string][]*sarama.ProducerMessage
	sendError        error
}

func NewMockSyncProducer() *mockSyncProducer {
	return &mockSyncProducer{
		producedMessages: map[string][]*sarama.ProducerMessage{},
	}
}

func (m *mockSyncProducer) FailWith(err error) {
	m.Lock()
	defer m.Unlock()
	m.sendError = err
}

func (m *mockSyncProducer) Produced(topic string) []*sarama.ProducerMessage {
	m.Lock()
	defer m.Unlock()

	return m.producedMessages[topic]
}

func (m *mockSyncProducer) MessageWasProduced(topic string, exp *sarama.ProducerMessage) error {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.producedMessages[topic]; !ok {
		return fmt.Errorf("0 messages produced for the %s topic", topic)
	}

	for _, msg := range m.producedMessages[topic] {
		if diff := deep.Equal(exp, msg); diff == nil {
			return nil
		}
	}
	return fmt.Errorf("no message published in topic %s that matches provided message %#v", topic, exp)
}

func (m *mockSyncProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	m.Lock()
	defer m.Unlock()

	if m.sendError != nil {
		return 0, 0, m.sendError
	}
	m.producedMessages[msg.Topic] = append(m.producedMessages[msg.Topic], msg)

	return 0, int64(len(m.producedMessages[msg.Topic]) - 1), nil
}

func (m *mockSyncProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	for _, msg := range msgs {
		if _, _, err := m.SendMessage(msg); err != nil {
			return err
		}
	}

	return nil
}

func (m *mockSyncProducer) Close() error {
	return nil
}
