package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishEventChange streams a calendar mutation keyed by event id, so all
// changes to one event land on the same partition in order.
func (p *Producer) PublishEventChange(ctx context.Context, change models.EventChange) error {
	msgBytes, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", change.Type, err)
	}

	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("%s id=%d", change.Type, change.Event.ID))
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(strconv.FormatInt(change.Event.ID, 10)),
			Value: msgBytes,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(change.Type)},
			},
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
