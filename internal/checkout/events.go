package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-pos-checkout/internal/config"
)

// EventTypeSettled marks a transaction accepted by the remote API.
const EventTypeSettled = "transaction.settled"

var _ SettlementPublisher = (*KafkaPublisher)(nil)

// SettlementEvent is the message written to the settlement topic.
type SettlementEvent struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	DeviceID  string            `json:"device_id"`
	Data      SettlementSummary `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes settlement events to Kafka.
type KafkaPublisher struct {
	writer   messageWriter
	deviceID string
	logger   *zap.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, deviceID string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.SettlementTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafkaPublisher(writer, deviceID, logger)
}

func newKafkaPublisher(w messageWriter, deviceID string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, deviceID: deviceID, logger: logger.Named("events")}
}

func (p *KafkaPublisher) PublishSettlement(ctx context.Context, s SettlementSummary) error {
	event := SettlementEvent{
		ID:        ulid.Make().String(),
		Type:      EventTypeSettled,
		DeviceID:  p.deviceID,
		Data:      s,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(s.TransactionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("transaction_id", s.TransactionID),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("event published",
		zap.String("event_id", event.ID),
		zap.String("transaction_id", s.TransactionID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
