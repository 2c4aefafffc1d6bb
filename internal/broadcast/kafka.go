package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Kafka header keys.
const (
	HeaderSourceOfUpdate = "source-of-update"
	HeaderUpdateKind     = "update-kind"
	HeaderObservedAt     = "observed-at"
)

// KafkaPublisher writes one message per changed record, keyed by address.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// NewSyncProducer connects a synchronous producer to brokers.
func NewSyncProducer(brokers []string, clientID string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// Name implements Publisher.
func (p *KafkaPublisher) Name() string {
	return "kafka"
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(_ context.Context, u Update) error {
	if len(u.Records) == 0 {
		return nil
	}

	headers := updateHeaders(u)

	msgs := make([]*sarama.ProducerMessage, 0, len(u.Records))
	for _, t := range u.Records {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic:   p.topic,
			Key:     sarama.StringEncoder(t.Address),
			Value:   sarama.ByteEncoder(payload),
			Headers: headers,
		})
	}

	return p.producer.SendMessages(msgs)
}

func updateHeaders(u Update) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte(HeaderSourceOfUpdate), Value: []byte(u.SourceOfUpdate.String())},
		{Key: []byte(HeaderUpdateKind), Value: []byte(u.UpdateKind)},
		{Key: []byte(HeaderObservedAt), Value: []byte(u.ObservedAt.Format(time.RFC3339Nano))},
	}
}

// Close closes the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
