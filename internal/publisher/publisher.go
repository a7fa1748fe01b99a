package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	d "github.com/fjod/go_cart/checkout/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

type Config struct {
	Brokers           []string
	OutcomeTopic      string
	CompensationTopic string
	WriteTimeout      time.Duration
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes checkout events to Kafka. Compensation events go to their
// own topic so an operator consumer can pick up orders that need cleanup.
type Publisher struct {
	writer            messageWriter
	outcomeTopic      string
	compensationTopic string
	logger            *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	// Topic is set per message, so the writer itself has none.
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
	}

	return newWithWriter(w, cfg, logger), nil
}

func newWithWriter(w messageWriter, cfg Config, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer:            w,
		outcomeTopic:      cfg.OutcomeTopic,
		compensationTopic: cfg.CompensationTopic,
		logger:            logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event d.CheckoutEvent) error {
	msg, err := p.buildMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish checkout event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", string(event.Type)),
			zap.String("topic", msg.Topic),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("published checkout event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", string(event.Type)),
		zap.String("order_id", event.OrderID))
	return nil
}

func (p *Publisher) buildMessage(event d.CheckoutEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}

	topic := p.outcomeTopic
	if event.Type == d.EventCompensationRequired {
		topic = p.compensationTopic
	}

	key := event.OrderID
	if key == "" {
		key = event.UserID
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
		Time: event.OccurredAt,
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
