package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/couponhub/coupon-service/internal/core/domain"
)

// Config captures the producer settings.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// message is the JSON payload written to the topic.
type message struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	ActorID      int64             `json:"actor_id"`
	CouponID     int64             `json:"coupon_id,omitempty"`
	UserID       int64             `json:"user_id,omitempty"`
	AssignmentID int64             `json:"assignment_id,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Details      map[string]string `json:"details,omitempty"`
}

// Producer publishes coupon events to a Kafka topic. It is an event sink of
// the dispatcher.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// NewProducer connects a synchronous producer to the brokers.
func NewProducer(cfg Config, log zerolog.Logger) (*Producer, error) {
	sc := sarama.NewConfig()
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = true

	sp, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return newProducer(sp, cfg.Topic, log), nil
}

func newProducer(sp sarama.SyncProducer, topic string, log zerolog.Logger) *Producer {
	return &Producer{producer: sp, topic: topic, log: log}
}

func (p *Producer) Name() string { return "kafka" }

// Deliver writes the event keyed by coupon ID so a coupon's events share a
// partition.
func (p *Producer) Deliver(ctx context.Context, event domain.CouponEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(message{
		ID:           event.ID,
		Type:         string(event.Type),
		ActorID:      event.ActorID,
		CouponID:     event.CouponID,
		UserID:       event.UserID,
		AssignmentID: event.AssignmentID,
		OccurredAt:   event.OccurredAt.UTC(),
		Details:      event.Details,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.CouponID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send event %s: %w", event.ID, err)
	}

	p.log.Debug().
		Str("event_id", event.ID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("event published")
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
