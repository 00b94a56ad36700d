package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"salescrm/internal/logger"
	"salescrm/internal/services"
)

const DefaultExchange = "ex.pipeline"

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

// Dial connects and declares the durable topic exchange stage events are published to.
func Dial(url, exchange string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func (r *RabbitMQ) Close() error {
	_ = r.Ch.Close()
	return r.Conn.Close()
}

// Channel is the part of *amqp.Channel the relay uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// StageEvent is the message body; the routing key is the event kind, e.g. "lead.confirmed".
type StageEvent struct {
	Event      services.EventKind `json:"event"`
	LeadID     int                `json:"lead_id"`
	MutationID string             `json:"mutation_id"`
	Error      string             `json:"error,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// Relay forwards settled stage changes (confirmed or rolled back) to RabbitMQ so other systems
// can follow the pipeline. Optimistic moves and syncs stay local.
type Relay struct {
	ch       Channel
	exchange string
	log      logger.Logger
	now      func() time.Time
	queue    chan StageEvent
}

func NewRelay(ch Channel, exchange string, log logger.Logger) *Relay {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if log == nil {
		log = logger.Default()
	}
	return &Relay{
		ch:       ch,
		exchange: exchange,
		log:      log.With("component", "event_relay"),
		now:      time.Now,
		queue:    make(chan StageEvent, 512),
	}
}

// Publish never blocks.
func (r *Relay) Publish(ev services.Event) {
	if ev.Kind != services.EventConfirmed && ev.Kind != services.EventRolledBack {
		return
	}
	msg := StageEvent{
		Event:      ev.Kind,
		LeadID:     ev.LeadID,
		MutationID: ev.MutationID,
		Error:      ev.Error,
		OccurredAt: r.now().UTC(),
	}
	select {
	case r.queue <- msg:
	default:
		r.log.Warn("stage event dropped, relay queue full", "lead_id", ev.LeadID, "mutation_id", ev.MutationID)
	}
}

// Run publishes queued events until ctx ends.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			if err := r.send(ctx, msg); err != nil {
				r.log.Error("failed to publish stage event", "lead_id", msg.LeadID, "mutation_id", msg.MutationID, "error", err)
			}
		}
	}
}

func (r *Relay) send(ctx context.Context, msg StageEvent) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.ch.PublishWithContext(pctx, r.exchange, string(msg.Event), false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.MutationID,
		Timestamp:    msg.OccurredAt,
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
