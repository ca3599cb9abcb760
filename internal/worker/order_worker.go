package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

const (
	orderQueueName = "orders"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// errPoison marks messages that can never be handled.
var errPoison = errors.New("unprocessable order message")

type StorefrontSource interface {
	Get(ctx context.Context, userKey string) (*service.Storefront, error)
}

// FulfillmentWorker ships orders placed in processing state.
type FulfillmentWorker struct {
	channel     *amqp.Channel
	storefronts StorefrontSource
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewFulfillmentWorker(
	ch *amqp.Channel,
	storefronts StorefrontSource,
	redisClient *redis.Client,
	log *slog.Logger,
) *FulfillmentWorker {
	return &FulfillmentWorker{
		channel:     ch,
		storefronts: storefronts,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// Run consumes until ctx is cancelled or Stop is called.
func (w *FulfillmentWorker) Run(ctx context.Context) error {
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	w.log.Info("fulfillment worker started")
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			w.processMessage(ctx, msg)
		case <-w.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *FulfillmentWorker) Stop() { close(w.done) }

// processMessage acks handled messages. Poison messages go straight to the
// DLQ; other failures are retried once and dead-lettered on redelivery.
func (w *FulfillmentWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	err := w.handle(ctx, msg.Body)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, errPoison):
		w.log.Error("dead-lettering order message", "error", err)
		_ = msg.Nack(false, false)
	case msg.Redelivered:
		w.log.Error("fulfil order failed again, dead-lettering", "error", err)
		_ = msg.Nack(false, false)
	default:
		w.log.Warn("fulfil order failed, requeueing once", "error", err)
		_ = msg.Nack(false, true)
	}
}

// handle moves a freshly placed processing order to shipped. Orders that are
// gone, cancelled or already past processing are skipped.
func (w *FulfillmentWorker) handle(ctx context.Context, body []byte) error {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(body, &orderMsg); err != nil {
		return fmt.Errorf("%w: %v", errPoison, err)
	}
	if orderMsg.Event != model.OrderEventPlaced || orderMsg.Status != model.OrderStatusProcessing {
		return nil
	}
	if orderMsg.OrderID == "" || orderMsg.UserKey == "" || orderMsg.UserKey == model.GuestKey {
		return fmt.Errorf("%w: missing order or user", errPoison)
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_key", orderMsg.UserKey)

	idempotencyKey := "order_fulfilled:" + orderMsg.OrderID
	if w.redisClient != nil {
		exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
		if err != nil {
			return fmt.Errorf("check idempotency key: %w", err)
		}
		if exists > 0 {
			log.Info("order already fulfilled, skipping")
			return nil
		}
	}

	sf, err := w.storefronts.Get(ctx, orderMsg.UserKey)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			log.Info("user signed out, skipping")
			return nil
		}
		return fmt.Errorf("load storefront: %w", err)
	}

	err = sf.Orders.UpdateStatus(ctx, orderMsg.OrderID, model.OrderStatusShipped)
	switch {
	case err == nil:
		log.Info("order shipped")
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrInvalidTransition):
		log.Info("order no longer shippable, skipping", "reason", err)
	default:
		return fmt.Errorf("ship order: %w", err)
	}

	if w.redisClient != nil {
		if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
			log.Error("set idempotency key", "error", err)
		}
	}
	return nil
}
