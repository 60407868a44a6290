package eventbus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"porch-petals/internal/domain"
)

type fakeChannel struct {
	confirms   chan amqp.Confirmation
	ack        bool
	silent     bool
	publishErr error
	published  []amqp.Publishing
	keys       []string
	closed     bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	f.keys = append(f.keys, exchange+"/"+key)
	if !f.silent {
		f.confirms <- amqp.Confirmation{DeliveryTag: uint64(len(f.published)), Ack: f.ack}
	}
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID: "PP-1700000000000",
		Items: []domain.CartLine{
			{Kind: domain.KindBouquet, ProductID: "mock-1", Quantity: 2, Product: domain.Product{Name: "Minnie Zinnie", Price: 12}},
			{Kind: domain.KindHouseplant, ProductID: "pothos-1", Quantity: 1, Product: domain.Product{Name: "Pothos", Price: 2}},
		},
		Customer:       domain.CustomerInfo{Name: "Ada", UnitNumber: "3B"},
		DeliveryWindow: domain.DeliveryWindow{ID: "2", Label: "Before 5:00 PM"},
		PaymentID:      "pi_demo_1",
		Total:          26,
		Status:         domain.OrderConfirmed,
		CreatedAt:      time.UnixMilli(1700000000000).UTC(),
	}
}

func TestNewOrderConfirmedEvent(t *testing.T) {
	ev := NewOrderConfirmedEvent(sampleOrder())
	if ev.EventID == "" || ev.OrderID != "PP-1700000000000" || ev.Total != 26 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(ev.Items) != 2 || ev.Items[0].Name != "Minnie Zinnie" || ev.Items[0].UnitPrice != 12 {
		t.Fatalf("unexpected items %+v", ev.Items)
	}
	if ev.UnitNumber != "3B" || ev.DeliveryWindow != "Before 5:00 PM" {
		t.Fatalf("unexpected delivery details %+v", ev)
	}
	if other := NewOrderConfirmedEvent(sampleOrder()); other.EventID == ev.EventID {
		t.Fatalf("event ids must be unique")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))
	if err := p.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder())); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(buf.String(), `"orderId":"PP-1700000000000"`) {
		t.Fatalf("expected order id in log, got %s", buf.String())
	}
}

func newTestRabbit(ch *fakeChannel) *RabbitMQ {
	cfg := RabbitMQConfig{Exchange: "orders", RoutingKey: "order.confirmed"}
	return newRabbitMQ(cfg, ch, ch.confirms, zerolog.Nop())
}

func TestRabbitMQPublishConfirmed(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: true}
	r := newTestRabbit(ch)

	ev := NewOrderConfirmedEvent(sampleOrder())
	if err := r.PublishOrderConfirmed(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "orders/order.confirmed" {
		t.Fatalf("unexpected publishes %v", ch.keys)
	}
	msg := ch.published[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent || msg.MessageId != ev.EventID {
		t.Fatalf("unexpected publishing %+v", msg)
	}
	var decoded OrderConfirmedEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil || decoded.OrderID != ev.OrderID {
		t.Fatalf("unexpected body %s (%v)", msg.Body, err)
	}
}

func TestRabbitMQPublishNacked(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: false}
	r := newTestRabbit(ch)
	if err := r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder())); err == nil {
		t.Fatalf("expected nack error")
	}
}

func TestRabbitMQPublishTimeout(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), silent: true}
	r := newTestRabbit(ch)
	r.timeout = 10 * time.Millisecond
	err := r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder()))
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRabbitMQLateConfirmIsNotReused(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, confirmBuffer), silent: true}
	r := newTestRabbit(ch)
	r.timeout = 10 * time.Millisecond

	err := r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder()))
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout, got %v", err)
	}

	// The broker acks the first message after its publish gave up, then
	// rejects the second.
	ch.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	ch.silent = false
	ch.ack = false
	r.timeout = time.Second

	err = r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder()))
	if err == nil || !strings.Contains(err.Error(), "nacked") {
		t.Fatalf("second publish must report its own nack, got %v", err)
	}
	if len(ch.confirms) != 0 {
		t.Fatalf("expected stale confirms to be drained, %d left", len(ch.confirms))
	}

	ch.ack = true
	if err := r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder())); err != nil {
		t.Fatalf("third publish: %v", err)
	}
}

func TestRabbitMQPublishError(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), publishErr: amqp.ErrClosed}
	r := newTestRabbit(ch)
	err := r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder()))
	if !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("expected wrapped ErrClosed, got %v", err)
	}
}

func TestRabbitMQClose(t *testing.T) {
	ch := &fakeChannel{confirms: make(chan amqp.Confirmation, 1), ack: true}
	r := newTestRabbit(ch)
	r.Close()
	if !ch.closed {
		t.Fatalf("channel not closed")
	}
	if err := r.PublishOrderConfirmed(context.Background(), NewOrderConfirmedEvent(sampleOrder())); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}
