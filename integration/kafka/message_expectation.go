//go:build integration
// +build integration

package kafka

import (
	"github.com/Shopify/sarama"
)

type MessageExpectation struct {
	Topic   string
	Value   []byte
	Headers []*sarama.RecordHeader
	Key     []byte
}
