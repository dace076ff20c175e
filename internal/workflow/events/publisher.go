package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"fuelserve/internal/shared/mq"
	"fuelserve/internal/workflow/domain"
)

const Exchange = "workflow_topic"

// AMQPPublisher pushes workflow events to the workflow topic exchange,
// where the notification and analytics services pick them up. Routing keys
// look like workflow.item.claimed / workflow.worker.availability_changed.
type AMQPPublisher struct {
	pub *mq.Publisher
}

func NewAMQPPublisher(pub *mq.Publisher) (*AMQPPublisher, error) {
	if err := pub.DeclareTopicExchange(Exchange); err != nil {
		return nil, fmt.Errorf("failed to declare %s exchange: %w", Exchange, err)
	}
	return &AMQPPublisher{pub: pub}, nil
}

func (p *AMQPPublisher) PublishItemEvent(ctx context.Context, event domain.WorkItemEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.pub.Publish(ctx, Exchange, routingKey(event), body)
}

func routingKey(event domain.WorkItemEvent) string {
	if event.ItemID == "" {
		return "workflow.worker." + strings.ToLower(event.EventType)
	}
	return "workflow.item." + strings.ToLower(strings.TrimPrefix(event.EventType, "ITEM_"))
}

// Fanout delivers each event to every wrapped publisher. Used to feed the
// AMQP exchange and the in-process websocket hub from one call site.
type Fanout []domain.EventPublisher

func (f Fanout) PublishItemEvent(ctx context.Context, event domain.WorkItemEvent) error {
	var firstErr error
	for _, p := range f {
		if err := p.PublishItemEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
