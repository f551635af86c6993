package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/indicrafts/api/internal/services"
)

// PubSubApprovalPublisher publishes product approval events to a Pub/Sub topic.
type PubSubApprovalPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubApprovalPublisher constructs a Pub/Sub backed approval event publisher.
func NewPubSubApprovalPublisher(topic *pubsub.Topic) (*PubSubApprovalPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub approval publisher: topic is required")
	}
	return &PubSubApprovalPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishProductApproved enqueues an approval event message on the configured topic.
func (p *PubSubApprovalPublisher) PublishProductApproved(ctx context.Context, message services.ProductApprovedMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub approval publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal approval event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "eventId", message.EventID)
	setAttr(attrs, "productId", message.ProductID)
	setAttr(attrs, "producerId", message.ProducerID)
	setAttr(attrs, "approvedBy", message.ApprovedBy)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish approval event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
