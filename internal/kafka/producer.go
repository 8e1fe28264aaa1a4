package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/skyclient/internal/domain"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/segmentio/kafka-go"
)

type BookingEventType string

const (
	BookingCreated   BookingEventType = "booking.created"
	BookingCancelled BookingEventType = "booking.cancelled"
	BookingDeleted   BookingEventType = "booking.deleted"
)

type BookingEvent struct {
	Type          BookingEventType `json:"type"`
	BookingID     int64            `json:"booking_id"`
	BookingNr     string           `json:"booking_nr"`
	FlightID      int64            `json:"flight_id"`
	FlightNr      string           `json:"flight_nr"`
	SeatClass     string           `json:"seat_class"`
	PassengerName string           `json:"passenger_name"`
	Email         string           `json:"email"`
	Status        string           `json:"status"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// NewBookingEvent describes what happened to b on behalf of the account email.
func NewBookingEvent(typ BookingEventType, b domain.Booking, email string, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          typ,
		BookingID:     b.ID,
		BookingNr:     b.BookingNr,
		FlightID:      b.Flight.ID(),
		FlightNr:      b.Flight.FlightNr(),
		SeatClass:     string(b.SeatClass),
		PassengerName: b.PassengerName,
		Email:         email,
		Status:        string(b.Status),
		OccurredAt:    at.UTC(),
	}
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	logger  logger.Logger
}

func NewProducer(brokers []string, log logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		logger:  log.WithFields(map[string]interface{}{"component": "kafka_producer"}),
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.Debug("published message", map[string]interface{}{"topic": topic, "key": key, "bytes": len(data)})
	return nil
}

func (p *Producer) PublishWithRetry(ctx context.Context, topic, key string, payload interface{}, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := p.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}

		lastErr = err
		p.logger.Warn("publish attempt failed", map[string]interface{}{"topic": topic, "attempt": i + 1, "error": err})

		if i < maxRetries-1 {
			select {
			case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.logger.Info("connected to Kafka", map[string]interface{}{"brokers": p.brokers, "partitions": len(partitions)})
	return nil
}
