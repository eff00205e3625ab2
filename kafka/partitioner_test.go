package kafka

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/go-test/deep"
)

func TestNewEndpointPartitioner(t *testing.T) {
	deep.CompareUnexportedFields = true
	defer func() {
		deep.CompareUnexportedFields = false
	}()

	if op := NewEndpointPartitioner("alerts").(EndpointPartitioner); op.topic != "alerts" {
		t.Errorf("expected 'alerts' as topic but got '%s'", op.topic)
	}

	fp := &fakeHashPartitioner{}
	exp := EndpointPartitioner{topic: "pager", hashPartitioner: fp}
	if diff := deep.Equal(exp, NewEndpointPartitionerWithCustomPartitioner("pager", fp)); diff != nil {
		t.Error(diff)
	}
}

func TestEndpointPartitioner_Partition(t *testing.T) {
	tests := []struct {
		name         string
		key          sarama.Encoder
		fail         bool
		expHashedKey string
		expErr       bool
	}{
		{"endpoint id is hashed instead of the trace id", newMessageKey("trace-1", "ep-1"), false, "ep-1", false},
		{"trace id is hashed without an endpoint id", newMessageKey("trace-2", ""), false, "trace-2", false},
		{"plain keys are passed through", sarama.StringEncoder("raw"), false, "raw", false},
		{"nil keys are passed through", nil, false, "", false},
		{"hash partitioner errors are returned", newMessageKey("trace-3", "ep-3"), true, "ep-3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeHashPartitioner{returnError: tt.fail, partitionToReturn: 7}
			msg := &sarama.ProducerMessage{Key: tt.key}

			got, err := NewEndpointPartitionerWithCustomPartitioner("alerts", fp).Partition(msg, 10)
			if (err != nil) != tt.expErr {
				t.Fatalf("expected error %v, got %v", tt.expErr, err)
			}
			if !tt.expErr && got != 7 {
				t.Errorf("expected partition 7 but got %d", got)
			}
			if fp.recvdMessageKey != tt.expHashedKey {
				t.Errorf("expected '%s' to be hashed, but was '%s'", tt.expHashedKey, fp.recvdMessageKey)
			}
			if fp.recvdNumPartitions != 10 {
				t.Errorf("expected 10 partitions to be passed on, got %d", fp.recvdNumPartitions)
			}
			if !reflect.DeepEqual(msg.Key, tt.key) {
				t.Error("expected the message key to be restored on the message")
			}
		})
	}
}

func TestEndpointPartitioner_SameEndpointSamePartition(t *testing.T) {
	p := NewEndpointPartitioner("alerts")

	first, err := p.Partition(&sarama.ProducerMessage{Key: newMessageKey("trace-a", "ep-42")}, 12)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	for _, trace := range []string{"trace-b", "trace-c", "trace-d"} {
		got, err := p.Partition(&sarama.ProducerMessage{Key: newMessageKey(trace, "ep-42")}, 12)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got != first {
			t.Errorf("expected pushes for one endpoint on partition %d, %s went to %d", first, trace, got)
		}
	}
}

func TestEndpointPartitioner_RequiresConsistency(t *testing.T) {
	if !(EndpointPartitioner{}).RequiresConsistency() {
		t.Error("expected EndpointPartitioner to require consistency, but it does not")
	}
}

type fakeHashPartitioner struct {
	recvdMessageKey    string
	recvdNumPartitions int32
	returnError        bool
	partitionToReturn  int32
}

func (fp *fakeHashPartitioner) Partition(message *sarama.ProducerMessage, numPartitions int32) (int32, error) {
	if message.Key != nil {
		key, err := message.Key.Encode()
		if err != nil {
			return 0, err
		}
		fp.recvdMessageKey = string(key)
	}

	fp.recvdNumPartitions = numPartitions

	if fp.returnError {
		return 0, errors.New("oops")
	}
	return fp.partitionToReturn, nil
}

func (fp *fakeHashPartitioner) RequiresConsistency() bool {
	return false
}
