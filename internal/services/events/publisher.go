// Package events publishes state-transition events for downstream systems
// (notifications, reputation scoring, inventory) to consume. The core never
// calls those systems directly.
package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Event names follow entity.transition.
const (
	TransactionProcessing = "transaction.processing"
	TransactionCompleted  = "transaction.completed"
	TransactionDisputed   = "transaction.disputed"
	TransactionCancelled  = "transaction.cancelled"
	TransactionRefunded   = "transaction.refunded"
	EscrowOpened          = "escrow.opened"
	EscrowReleased        = "escrow.released"
	EscrowRefunded        = "escrow.refunded"
	DisputeOpened         = "dispute.opened"
	DisputeAssigned       = "dispute.assigned"
	DisputeResolved       = "dispute.resolved"
	PayoutQueued          = "payout.queued"
	PayoutSettled         = "payout.settled"
	PayoutFailed          = "payout.failed"
	ChargeFailed          = "charge.failed"
)

// Event is the wire payload for one state transition.
type Event struct {
	Type       string                 `json:"type"`
	EntityID   string                 `json:"entity_id"`
	OccurredAt string                 `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// Publisher emits transition events. Emission is best-effort; a broker
// outage must never fail the triggering request.
type Publisher interface {
	Publish(eventType, entityID string, payload map[string]interface{})
}

// KafkaPublisher emits events to a Kafka topic through a SyncProducer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer builds the SyncProducer the publisher wraps.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	return sarama.NewSyncProducer(brokers, cfg)
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(eventType, entityID string, payload map[string]interface{}) {
	ev := Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Payload:    payload,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal %s failed: %v", eventType, err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(entityID),
		Value: sarama.ByteEncoder(b),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log.Printf("events: publish %s for %s failed: %v", eventType, entityID, err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops events. Used in tests and when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, string, map[string]interface{}) {}
