package kafka

import (
	"github.com/Shopify/sarama"
)

// EndpointPartitioner hashes on the partition key of a MessageKey so that all
// pushes for one endpoint land on the same partition, while the record key
// stays the trace id.
type EndpointPartitioner struct {
	topic           string
	hashPartitioner sarama.Partitioner
}

func NewEndpointPartitioner(topic string) sarama.Partitioner {
	return NewEndpointPartitionerWithCustomPartitioner(topic, sarama.NewHashPartitioner(topic))
}

func NewEndpointPartitionerWithCustomPartitioner(topic string, p sarama.Partitioner) sarama.Partitioner {
	return EndpointPartitioner{
		topic:           topic,
		hashPartitioner: p,
	}
}

func (o EndpointPartitioner) Partition(message *sarama.ProducerMessage, numPartitions int32) (int32, error) {
	mk, ok := message.Key.(MessageKey)
	if !ok {
		return o.hashPartitioner.Partition(message, numPartitions)
	}

	// the hash partitioner only understands encoders, so the key is swapped
	// for the duration of the call and restored afterwards
	message.Key = sarama.StringEncoder(mk.KeyForPartitioning())
	ptn, err := o.hashPartitioner.Partition(message, numPartitions)
	message.Key = mk

	return ptn, err
}

func (o EndpointPartitioner) RequiresConsistency() bool {
	return true
}
