package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier delivers the team notification for a new inquiry.
type Notifier interface {
	NotifyInquiry(ctx context.Context, payload InquiryCreatedPayload) error
}

// Acknowledger is the subset of amqp.Delivery the worker settles messages with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier Notifier
	Logger   *zap.Logger
}

func NewWorker(ch *amqp.Channel, notifier Notifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		Logger:   logger,
	}
}

// Start consumes until ctx is cancelled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info("notification worker listening", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				w.Logger.Warn("delivery channel closed", zap.String("queue", queueName))
				return nil
			}
			w.Handle(ctx, d.Body, d)
		}
	}
}

// Handle processes one message body. Malformed and failed messages are
// rejected without requeue so they land in the dead-letter queue.
func (w *Worker) Handle(ctx context.Context, body []byte, ack Acknowledger) {
	var payload InquiryCreatedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		w.Logger.Error("malformed inquiry message", zap.Error(err))
		ack.Nack(false, false)
		return
	}

	if err := w.Notifier.NotifyInquiry(ctx, payload); err != nil {
		w.Logger.Error("inquiry notification failed",
			zap.String("inquiry_id", payload.InquiryID),
			zap.Error(err),
		)
		ack.Nack(false, false)
		return
	}

	w.Logger.Info("inquiry notification sent", zap.String("inquiry_id", payload.InquiryID))
	ack.Ack(false)
}
