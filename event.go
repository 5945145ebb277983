package marketplace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"goflare.io/marketplace/models"
)

const discountSubjectPrefix = "marketplace.discount."

func discountSubject(event *models.DiscountEvent) string {
	return discountSubjectPrefix + string(event.Type)
}

// EventManager publishes discount change events and feeds received ones to the dispatcher.
type EventManager struct {
	natsConn     *nats.Conn
	dispatcher   *Dispatcher
	subscription *nats.Subscription
	logger       *zap.Logger
}

func NewEventManager(natsConn *nats.Conn, dispatcher *Dispatcher, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn:   natsConn,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ProvideEventManager starts the dispatcher and subscribes to discount events.
func ProvideEventManager(natsConn *nats.Conn, dispatcher *Dispatcher, logger *zap.Logger) (*EventManager, error) {
	em := NewEventManager(natsConn, dispatcher, logger)
	dispatcher.Run()

	if err := em.SubscribeToEvents(); err != nil {
		dispatcher.Stop()
		return nil, err
	}

	return em, nil
}

func (em *EventManager) PublishDiscountEvent(_ context.Context, event *models.DiscountEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return em.natsConn.Publish(discountSubject(event), data)
}

func (em *EventManager) SubscribeToEvents() error {
	sub, err := em.natsConn.Subscribe(discountSubjectPrefix+">", em.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to discount events: %w", err)
	}

	em.subscription = sub
	return nil
}

func (em *EventManager) handleMessage(msg *nats.Msg) {
	var event models.DiscountEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		em.logger.Error("Failed to unmarshal event", zap.Error(err), zap.String("subject", msg.Subject))
		return
	}

	if err := em.dispatcher.Submit(context.Background(), &event); err != nil {
		em.logger.Warn("Failed to submit discount event",
			zap.Error(err),
			zap.String("subject", msg.Subject),
			zap.Uint64("discount_id", event.DiscountID))
	}
}

func (em *EventManager) Close() {
	if em.subscription != nil {
		if err := em.subscription.Unsubscribe(); err != nil {
			em.logger.Warn("Failed to unsubscribe from discount events", zap.Error(err))
		}
	}
	em.dispatcher.Stop()
	if em.natsConn != nil {
		em.natsConn.Close()
	}
}
