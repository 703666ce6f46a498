package events

import (
	"time"

	"github.com/Shopify/sarama"
)

// Inbound topics, consumed by the listener group.
const (
	TopicMessageReceived      = "message-received"
	TopicMessageStatusChanged = "message-status-changed"
	TopicConnectionCreated    = "connection-created"
)

// Outbound topics, published by the postman.
const (
	TopicMessageAccepted      = "message-accepted"
	TopicMessageStatusUpdated = "message-status-updated"
)

// NewKafkaConfig returns the sarama configuration shared by the producer and
// the consumer group. Hash partitioning on the record key keeps all traffic
// of one conversation on one partition.
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0

	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 1
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true

	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}
