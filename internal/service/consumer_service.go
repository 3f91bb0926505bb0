// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"collab-notes-be/internal/dto"
	"collab-notes-be/internal/notification"
	"collab-notes-be/pkg/events"
	pkgNats "collab-notes-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process note-event pipeline and fans each
// event out to the external bus (NATS) and the notification hub.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher *pkgNats.Publisher
	hub            *notification.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher *pkgNats.Publisher,
	hub *notification.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
		hub:            hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.NoteEventMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// Local/cross-instance watchers first, the hub never blocks.
	if cs.hub != nil {
		cs.hub.Publish(ctx, payload)
	}

	if cs.eventPublisher != nil {
		evt := events.NewNoteEvent(payload.Type, payload.NoteId.String(), map[string]interface{}{
			"username":    payload.Username,
			"occurred_at": payload.OccurredAt,
		})
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[ERROR] Failed to publish %s to NATS: %v", payload.Type, err)
			msg.Nack() // Retry
			return
		}
	}

	msg.Ack()
}
