package outbox

import (
	"context"
	"strconv"

	"github.com/safar/go-shop-checkout/internal/tracing"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *zap.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *zap.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	ctx = tracing.ContextFromCarrier(ctx, event.TraceContext)

	msg := kafka.Message{
		Topic: d.topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(event.Type)},
			{Key: HeaderEventID, Value: []byte(strconv.FormatInt(event.ID, 10))},
			{Key: HeaderAggregate, Value: []byte(event.AggregateType)},
		},
	}
	msg.Headers = tracing.InjectKafkaHeaders(ctx, msg.Headers)

	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", zap.Int64("event_id", event.ID), zap.Error(err))
		return err
	}

	d.log.Debug("outbox dispatched", zap.Int64("event_id", event.ID), zap.String("type", event.Type))
	return nil
}
