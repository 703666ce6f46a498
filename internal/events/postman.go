package events

import (
	"context"
	"encoding/json"
	"fmt"

	"messagebox/internal/domain/conversation"

	"github.com/Shopify/sarama"
)

// KafkaPostMan publishes addressed envelopes to the outbound topics.
// One publish per call, no batching, no retry: a failed publish is the
// caller's problem.
type KafkaPostMan struct {
	producer sarama.SyncProducer
}

func NewKafkaPostMan(producer sarama.SyncProducer) *KafkaPostMan {
	return &KafkaPostMan{producer: producer}
}

// Deliver publishes an accepted message envelope, keyed by conversation id.
func (p *KafkaPostMan) Deliver(ctx context.Context, envelope conversation.Envelope[conversation.Message]) error {
	return p.publish(ctx, TopicMessageAccepted, envelope.Payload.ConversationID.String(), envelope)
}

// NotifyStatusUpdated publishes a status-update envelope, keyed by conversation id.
func (p *KafkaPostMan) NotifyStatusUpdated(ctx context.Context, envelope conversation.Envelope[conversation.StatusUpdate]) error {
	return p.publish(ctx, TopicMessageStatusUpdated, envelope.Payload.ConversationID.String(), envelope)
}

func (p *KafkaPostMan) publish(ctx context.Context, topic, key string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal envelope for %s: %w", topic, err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
