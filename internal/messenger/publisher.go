package messenger

import (
	"encoding/json"

	"github.com/ellifont/NFT-platform/internal/event"
	"go.uber.org/zap"
)

// Envelope wraps an engine event for transport so consumers can dispatch
// on the type without decoding the payload first.
type Envelope struct {
	Type    event.Type      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher forwards engine events onto the market events queue.
type Publisher struct {
	messageService MessageService
}

func NewPublisher(messageService MessageService) *Publisher {
	return &Publisher{messageService: messageService}
}

// Subscribe attaches the publisher to every settlement event type.
func (p *Publisher) Subscribe() {
	for _, eventType := range []event.Type{
		event.TokenMintedEvent,
		event.EditionCreatedEvent,
		event.EditionMintedEvent,
		event.TokenTransferredEvent,
		event.TokenBurnedEvent,
		event.RoyaltyUpdatedEvent,
		event.ListedEvent,
		event.SaleEvent,
		event.ListingCancelledEvent,
		event.PlatformFeeUpdatedEvent,
		event.FeeRecipientUpdatedEvent,
	} {
		eventType := eventType
		event.AddEventListener(eventType, func(msg interface{}) {
			p.publish(eventType, msg)
		})
	}
}

func (p *Publisher) publish(eventType event.Type, msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("event", string(eventType))).Error("Publisher: Failed to encode event")
		return
	}

	body, err := json.Marshal(Envelope{Type: eventType, Payload: payload})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("event", string(eventType))).Error("Publisher: Failed to encode envelope")
		return
	}

	if err := p.messageService.SendMessage(MarketEvents, body); err != nil {
		zap.L().With(zap.Error(err), zap.String("event", string(eventType))).Error("Publisher: Failed to publish event")
	}
}
