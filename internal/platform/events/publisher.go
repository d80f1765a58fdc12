package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/muebleria/api/internal/services"
)

// PubSubOrderPublisher publishes order lifecycle events to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

type orderEventMessage struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	State      string    `json:"state"`
	Total      int64     `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publish enqueues the order event on the configured topic.
func (p *PubSubOrderPublisher) Publish(ctx context.Context, event services.OrderEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order publisher: not initialised")
	}

	data, err := p.marshal(orderEventMessage{
		Type:       event.Type,
		OrderID:    event.OrderID,
		UserID:     event.UserID,
		State:      string(event.State),
		Total:      event.Total,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "userId", event.UserID)
	setAttr(attrs, "state", string(event.State))

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

var _ services.OrderEventPublisher = (*PubSubOrderPublisher)(nil)
