package channel

import (
	"context"

	"inviqa/push-relay/kafka"

	"github.com/pkg/errors"
)

// KafkaSender produces the payload to the channel's topic, keyed by trace id
// and partitioned by endpoint id.
type KafkaSender struct {
	Publisher kafka.Publisher
}

func NewKafkaSender(p kafka.Publisher) *KafkaSender {
	return &KafkaSender{Publisher: p}
}

func (s *KafkaSender) Send(ctx context.Context, d Delivery) error {
	if s.Publisher == nil {
		return errors.New("kafka is not configured")
	}
	if d.Channel.Topic == "" {
		return errors.New("kafka channel has no topic")
	}

	msg := &kafka.Message{
		Topic:        d.Channel.Topic,
		Key:          d.TraceId,
		PartitionKey: d.EndpointId,
		Headers:      map[string]string{kafka.TraceIdHeader: d.TraceId},
		Payload:      d.Payload,
	}

	return runWithContext(ctx, func() error {
		return s.Publisher.PublishMessage(msg)
	})
}
