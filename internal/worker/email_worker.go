package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/storefront/internal/mailer"
	"github.com/flicky/storefront/internal/model"
)

const (
	idempotencyTTL = 24 * time.Hour
	sendTimeout    = 30 * time.Second
)

// Topology names the email queue and its dead-letter pair.
type Topology struct {
	Queue string
	DLX   string
	DLQ   string
}

func NewTopology(queue string) Topology {
	return Topology{Queue: queue, DLX: queue + ".dlx", DLQ: queue + ".dlq"}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.DLX, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(t.DLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(t.DLQ, t.Queue, t.DLX, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    t.DLX,
		"x-dead-letter-routing-key": t.Queue,
	}); err != nil {
		return fmt.Errorf("declare email queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// EmailWorker delivers queued emails at most once per message id.
type EmailWorker struct {
	channel     *amqp.Channel
	queue       string
	sender      mailer.Sender
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewEmailWorker(ch *amqp.Channel, queue string, sender mailer.Sender, redisClient *redis.Client, log *slog.Logger) *EmailWorker {
	return &EmailWorker{
		channel:     ch,
		queue:       queue,
		sender:      sender,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

func (w *EmailWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(w.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("email worker started", "queue", w.queue)
	return nil
}

func (w *EmailWorker) Stop() { close(w.done) }

func idempotencyKey(msg model.EmailMessage) string {
	return "email_sent:" + msg.ID.String()
}

func (w *EmailWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var email model.EmailMessage
	if err := json.Unmarshal(msg.Body, &email); err != nil {
		w.log.Error("unmarshal email message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("email_id", email.ID, "to", email.To)

	key := idempotencyKey(email)
	exists, err := w.redisClient.Exists(ctx, key).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("email already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	err = w.sender.Send(sendCtx, email)
	cancel()
	if err != nil {
		log.Error("send email failed", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.redisClient.Set(ctx, key, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("email sent")
}
