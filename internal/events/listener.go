package events

import (
	"context"
	"encoding/json"
	"fmt"

	"messagebox/internal/domain/conversation"
	messagebox_errors "messagebox/pkg/errors"
	"messagebox/pkg/logger"

	"github.com/Shopify/sarama"
)

// ConversationEvents is the slice of the application service the listener
// drives.
type ConversationEvents interface {
	AcceptMessage(ctx context.Context, msg conversation.Message) error
	UpdateMessageStatus(ctx context.Context, update conversation.StatusUpdate) error
	CreateFaceToFaceConversation(ctx context.Context, connection conversation.UserConnection) error
}

type topicHandler func(ctx context.Context, value []byte) error

// Listener consumes the inbound topics with one consumer group and
// dispatches each record to the application service. Every record is marked
// consumed whether or not its handler succeeded: membership failures are
// poison events that would fail forever, and storage/publish failures are
// left to bus redelivery semantics upstream of this service.
type Listener struct {
	group    sarama.ConsumerGroup
	service  ConversationEvents
	logger   *logger.Logger
	handlers map[string]topicHandler
}

func NewListener(group sarama.ConsumerGroup, service ConversationEvents, l *logger.Logger) *Listener {
	listener := &Listener{
		group:   group,
		service: service,
		logger:  l,
	}
	listener.handlers = map[string]topicHandler{
		TopicMessageReceived:      listener.handleMessageReceived,
		TopicMessageStatusChanged: listener.handleMessageStatusChanged,
		TopicConnectionCreated:    listener.handleConnectionCreated,
	}
	return listener
}

// Start blocks consuming until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	topics := []string{TopicMessageReceived, TopicMessageStatusChanged, TopicConnectionCreated}

	go func() {
		for err := range l.group.Errors() {
			l.logger.Errorf("consumer group error: %v", err)
		}
	}()

	for {
		if err := l.group.Consume(ctx, topics, l); err != nil {
			l.logger.Errorf("consume error: %v", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (l *Listener) Close() error {
	return l.group.Close()
}

func (l *Listener) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (l *Listener) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (l *Listener) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for record := range claim.Messages() {
		handler, ok := l.handlers[record.Topic]
		if !ok {
			l.logger.Warnf("no handler for topic %s", record.Topic)
			session.MarkMessage(record, "")
			continue
		}

		if err := handler(session.Context(), record.Value); err != nil {
			if messagebox_errors.IsMembership(err) {
				// Poison relative to conversation state. Dropped, not dead-lettered.
				l.logger.Warnf("dropping event from topic %s: %v", record.Topic, err)
			} else {
				l.logger.Errorf("processing event from topic %s: %v", record.Topic, err)
			}
		}
		session.MarkMessage(record, "")
	}
	return nil
}

func (l *Listener) handleMessageReceived(ctx context.Context, value []byte) error {
	var msg conversation.Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("decode message-received event: %w", err)
	}
	return l.service.AcceptMessage(ctx, msg)
}

func (l *Listener) handleMessageStatusChanged(ctx context.Context, value []byte) error {
	var update conversation.StatusUpdate
	if err := json.Unmarshal(value, &update); err != nil {
		return fmt.Errorf("decode message-status-changed event: %w", err)
	}
	return l.service.UpdateMessageStatus(ctx, update)
}

func (l *Listener) handleConnectionCreated(ctx context.Context, value []byte) error {
	// Connection events arrive pre-wrapped by the producing service.
	var envelope conversation.Envelope[conversation.UserConnection]
	if err := json.Unmarshal(value, &envelope); err != nil {
		return fmt.Errorf("decode connection-created event: %w", err)
	}
	return l.service.CreateFaceToFaceConversation(ctx, envelope.Payload)
}
