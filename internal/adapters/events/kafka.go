package events

import (
	"context"
	"delivery-dispatch-service/internal/ports"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes route status events to a Kafka topic, keyed by
// route id so every event of one route lands on the same partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}, nil
}

func (p *KafkaPublisher) PublishRouteStatus(ctx context.Context, evt ports.RouteStatusChanged) error {
	payload, err := Encode(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.RouteID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(RoutingKey(evt))},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish route %s: %w", evt.RouteID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
