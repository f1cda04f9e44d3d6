package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// ChangeHandler receives decoded catalog-change events.
type ChangeHandler func(ctx context.Context, change CatalogChanged) error

// Consumer reads catalog-change events for background workers such as
// the sitemap revalidator. Messages that fail to decode or handle are
// logged and skipped; the loop never stops on a bad message.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

func (c *Consumer) Consume(ctx context.Context, handler ChangeHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Events] Error reading message: %v", err)
				continue
			}

			var change CatalogChanged
			if err := json.Unmarshal(msg.Value, &change); err != nil {
				log.Printf("[Events] Skipping undecodable message %s: %v", string(msg.Key), err)
				continue
			}

			if err := handler(ctx, change); err != nil {
				log.Printf("[Events] Error handling %s/%s: %v", change.Kind, change.ID, err)
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
