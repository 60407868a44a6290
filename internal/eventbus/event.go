package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
)

// OrderLine is one purchased line as announced to downstream consumers.
type OrderLine struct {
	Kind      domain.ProductKind `json:"kind"`
	ProductID string             `json:"productId"`
	Name      string             `json:"name"`
	Quantity  int                `json:"quantity"`
	UnitPrice int64              `json:"unitPrice"`
}

// OrderConfirmedEvent is published once payment succeeded and the order was
// recorded.
type OrderConfirmedEvent struct {
	EventID        string      `json:"eventId"`
	OrderID        string      `json:"orderId"`
	PaymentID      string      `json:"paymentId"`
	Total          int64       `json:"total"`
	Items          []OrderLine `json:"items"`
	UnitNumber     string      `json:"unitNumber"`
	DeliveryWindow string      `json:"deliveryWindow"`
	Timestamp      time.Time   `json:"timestamp"`
}

// NewOrderConfirmedEvent builds the event for o with a fresh event id.
func NewOrderConfirmedEvent(o domain.Order) OrderConfirmedEvent {
	items := make([]OrderLine, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, OrderLine{
			Kind:      l.Kind,
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Product.Price,
		})
	}
	return OrderConfirmedEvent{
		EventID:        uuid.New().String(),
		OrderID:        o.ID,
		PaymentID:      o.PaymentID,
		Total:          o.Total,
		Items:          items,
		UnitNumber:     o.Customer.UnitNumber,
		DeliveryWindow: o.DeliveryWindow.Label,
		Timestamp:      o.CreatedAt,
	}
}

type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, ev OrderConfirmedEvent) error
	Close()
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderConfirmed(_ context.Context, ev OrderConfirmedEvent) error {
	p.logger.Info().
		Str("eventId", ev.EventID).
		Str("orderId", ev.OrderID).
		Int64("total", ev.Total).
		Int("items", len(ev.Items)).
		Msg("order confirmed")
	return nil
}

func (p *LogPublisher) Close() {}
