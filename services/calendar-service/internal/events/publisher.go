package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/apptcalendar/libs/kafkax"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	TypeCreated = "appointment.created.v1"
	TypeUpdated = "appointment.updated.v1"
	TypeDeleted = "appointment.deleted.v1"
)

// Publisher announces appointment changes after they are stored. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, eventType string, appt model.Appointment)
}

// Nop discards events; it is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, model.Appointment) {}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const flushInterval = 5 * time.Millisecond

type KafkaPublisher struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

type Config struct {
	Brokers string
	Topic   string
}

// NewPublisher returns a Kafka publisher, or Nop when cfg has no brokers.
func NewPublisher(cfg Config, logger *slog.Logger) Publisher {
	brokers := kafkax.SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		logger.Warn("appointment events disabled (no kafka brokers configured)")
		return Nop{}
	}
	if cfg.Topic == "" {
		cfg.Topic = "calendar.appointments.v1"
	}
	return newKafkaPublisher(newWriter(brokers, cfg.Topic), logger)
}

// newWriter builds a synchronous writer whose partial batches flush after flushInterval rather
// than kafka-go's one second default.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           flushInterval,
		AllowAutoTopicCreation: true,
	}
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger, timeout: 3 * time.Second, now: time.Now}
}

type envelope struct {
	EventID     string            `json:"event_id"`
	EventType   string            `json:"event_type"`
	OccurredAt  string            `json:"occurred_at"`
	Appointment model.Appointment `json:"appointment"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, appt model.Appointment) {
	eventID := uuid.NewString()
	payload, err := json.Marshal(envelope{
		EventID:     eventID,
		EventType:   eventType,
		OccurredAt:  p.now().UTC().Format(time.RFC3339),
		Appointment: appt,
	})
	if err != nil {
		p.logger.Error("failed to build event payload", "err", err, "event_type", eventType)
		return
	}

	headers := kafkax.InjectTraceHeaders(ctx, []kafka.Header{
		{Key: kafkax.HeaderEventID, Value: []byte(eventID)},
		{Key: kafkax.HeaderEventType, Value: []byte(eventType)},
	})

	// Detached from the request so a client disconnect does not drop the event.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:     []byte(appt.ID),
		Value:   payload,
		Headers: headers,
	}); err != nil {
		p.logger.Error("event publish failed", "err", err, "event_type", eventType, "appointment_id", appt.ID)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
