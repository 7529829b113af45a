package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-relay/internal/models"

	"github.com/IBM/sarama"
)

// KafkaPublisher pushes persisted chat messages onto an audit topic for
// downstream consumers (notification fan-out, search indexing). The relay
// treats publishes as best effort; delivery to connected clients never waits
// on Kafka.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy  // Enable compression
	config.Producer.Partitioner = sarama.NewHashPartitioner // Consistent hashing
	config.Version = sarama.V2_0_0_0
	config.ClientID = "chat-relay"

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

// PublishMessageCreated keys by chat so one chat's feed stays ordered within
// its partition.
func (p *KafkaPublisher) PublishMessageCreated(ctx context.Context, message *models.Message) error {
	payload, err := json.Marshal(message.ToResponse())
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("chat-%d", message.ChatID)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish message event: %w", err)
	}

	slog.Debug("message event published", "messageID", message.ID, "partition", partition, "offset", offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
