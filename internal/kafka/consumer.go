package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
	logger logger.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log logger.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: log.WithFields(map[string]interface{}{"component": "kafka_consumer", "topic": topic}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// ConsumeBookingEvents decodes every message as a BookingEvent and passes it
// to handler until ctx is done. Messages that do not decode are logged and
// skipped; a handler error stops consumption.
func (c *Consumer) ConsumeBookingEvents(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		event, err := DecodeBookingEvent(msg.Value)
		if err != nil {
			c.logger.Warn("skipping undecodable booking event", map[string]interface{}{"offset": msg.Offset, "error": err})
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func DecodeBookingEvent(data []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookingEvent{}, err
	}
	if event.Type == "" || event.BookingID <= 0 {
		return BookingEvent{}, errors.New("booking event is missing type or booking id")
	}
	return event, nil
}
