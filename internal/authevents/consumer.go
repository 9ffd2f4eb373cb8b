package authevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dmitrymomot/seokit/pkg/logger"
	"github.com/dmitrymomot/seokit/pkg/subscription"
)

// Routing keys published by the auth provider.
const (
	RoutingSignedIn  = "auth.signed_in"
	RoutingSignedOut = "auth.signed_out"
)

var (
	ErrInvalidURL     = errors.New("authevents: invalid AMQP URL")
	ErrInvalidMessage = errors.New("authevents: invalid message")
	ErrChannelClosed  = errors.New("authevents: delivery channel closed")
)

// Config configures the auth event consumer.
type Config struct {
	URL               string        `env:"AMQP_URL,required"`
	Exchange          string        `env:"AUTH_EVENTS_EXCHANGE" envDefault:"auth.events"`
	Queue             string        `env:"AUTH_EVENTS_QUEUE" envDefault:"seokit.sessions"`
	Prefetch          int           `env:"AUTH_EVENTS_PREFETCH" envDefault:"10"`
	ReconnectInterval time.Duration `env:"AUTH_EVENTS_RECONNECT_INTERVAL" envDefault:"5s"`
}

// Handler applies session events. *subscription.Manager implements it.
type Handler interface {
	HandleEvent(ctx context.Context, ev subscription.SessionEvent) error
}

// Consumer reads sign-in and sign-out events from a topic exchange.
type Consumer struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
}

// New creates a consumer. Run starts consuming.
func New(cfg Config, handler Handler, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		cfg:     cfg,
		handler: handler,
		logger:  log.With(logger.Component("authevents")),
	}
}

// Run consumes until ctx is cancelled, reconnecting after broker failures.
func (c *Consumer) Run(ctx context.Context) error {
	amqpURL, err := normalizeURL(c.cfg.URL)
	if err != nil {
		return err
	}

	for {
		err := c.consume(ctx, amqpURL)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.WarnContext(ctx, "auth event consumer disconnected", logger.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, amqpURL string) error {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(c.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	for _, key := range []string{RoutingSignedIn, RoutingSignedOut} {
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	if c.cfg.Prefetch > 0 {
		if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set qos: %w", err)
		}
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	c.logger.InfoContext(ctx, "consuming auth events", slog.String("queue", q.Name))

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return ErrChannelClosed
		case d, ok := <-msgs:
			if !ok {
				return ErrChannelClosed
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle processes one delivery and settles it.
//
// Malformed messages are rejected without requeue. Handler failures are
// requeued once and rejected on redelivery.
func (c *Consumer) Handle(ctx context.Context, d amqp.Delivery) {
	ev, err := Decode(d.RoutingKey, d.Body)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping malformed auth event",
			logger.MessageID(d.MessageId),
			logger.Error(err),
		)
		_ = d.Reject(false)
		return
	}

	if err := c.handler.HandleEvent(ctx, ev); err != nil {
		c.logger.ErrorContext(ctx, "failed to apply auth event",
			logger.EventType(string(ev.Type)),
			logger.UserID(ev.UserID),
			logger.Error(err),
		)
		if errors.Is(err, subscription.ErrUnsupportedEvent) || d.Redelivered {
			_ = d.Reject(false)
			return
		}
		_ = d.Nack(false, true)
		return
	}

	c.logger.DebugContext(ctx, "auth event applied",
		logger.EventType(string(ev.Type)),
		logger.UserID(ev.UserID),
	)
	_ = d.Ack(false)
}

// Decode parses a message body. When the body carries no type, it is taken
// from the routing key suffix.
func Decode(routingKey string, body []byte) (subscription.SessionEvent, error) {
	var ev subscription.SessionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, errors.Join(ErrInvalidMessage, err)
	}
	if ev.Type == "" {
		if i := strings.LastIndexByte(routingKey, '.'); i >= 0 {
			ev.Type = subscription.SessionEventType(routingKey[i+1:])
		}
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("%w: missing event type", ErrInvalidMessage)
	}
	if ev.UserID == uuid.Nil {
		return ev, fmt.Errorf("%w: missing user id", ErrInvalidMessage)
	}
	return ev, nil
}

func normalizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	return clean, nil
}
