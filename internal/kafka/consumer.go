package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewConsumer creates a reader on the change-feed topic. An empty groupID
// reads the partition from the latest offset without committing.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		// lag is never read; skip the background broker lookups
		ReadLagInterval: -1,
	}
	reader := kafka.NewReader(cfg)
	// StartOffset only applies to group readers
	if groupID == "" {
		if err := reader.SetOffset(kafka.LastOffset); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to seek %s to the latest offset: %v", topic, err))
		}
	}
	return &Consumer{reader: reader, logger: log}
}

// Start delivers decoded changes to handler until ctx is cancelled.
// Messages that do not decode are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.EventChange)) error {
	c.logger.LogKafka("CONSUME", c.reader.Config().Topic, "consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		change, err := DecodeChange(msg)
		if err != nil {
			c.logger.Warn("KAFKA", err.Error())
			continue
		}
		handler(change)
	}
}

// DecodeChange parses one change-feed message.
func DecodeChange(msg kafka.Message) (models.EventChange, error) {
	var change models.EventChange
	if err := json.Unmarshal(msg.Value, &change); err != nil {
		return change, fmt.Errorf("failed to unmarshal change at offset %d: %w", msg.Offset, err)
	}
	if change.Type == "" {
		return change, fmt.Errorf("change at offset %d has no type", msg.Offset)
	}
	return change, nil
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
