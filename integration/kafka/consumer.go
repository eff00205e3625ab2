//go:build integration
// +build integration

package kafka

import (
	"sync"

	"github.com/Shopify/sarama"
)

type ConsumerHandler struct {
	sync.Mutex
	MessagesFound bool
	Consume       func(message *sarama.ConsumerMessage, c *ConsumerHandler)
}

func (c *ConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.Lock()
		c.Consume(message, c)
		c.Unlock()
		session.MarkMessage(message, "")
	}

	return nil
}

func (c *ConsumerHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *ConsumerHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (c *ConsumerHandler) Found() bool {
	c.Lock()
	defer c.Unlock()
	return c.MessagesFound
}
