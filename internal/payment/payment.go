// Package payment charges customers through a card processor.
package payment

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Charge is a request to take money for an order. Amount is whole dollars.
type Charge struct {
	Amount          int64
	Currency        string
	PaymentMethodID string
	Description     string
	ReceiptEmail    string
}

// Confirmation is the processor's receipt for a successful charge.
type Confirmation struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	AmountCents   int64  `json:"amount"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

type Processor interface {
	Charge(ctx context.Context, c Charge) (*Confirmation, error)
}

// Error carries the processor's message unchanged so it can be shown to the
// customer.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// DemoKey is the placeholder secret that selects the demo processor.
const DemoKey = "sk_test_demo"

// New picks the Stripe processor, or the demo processor when no usable
// secret key is configured.
func New(secretKey string, logger zerolog.Logger) Processor {
	key := strings.TrimSpace(secretKey)
	if key == "" || key == DemoKey {
		logger.Warn().Msg("no payment secret key configured, using demo processor")
		return NewDemo()
	}
	return NewStripe(key, nil, logger)
}

// Demo approves every charge that names a payment method.
type Demo struct {
	now func() time.Time
}

func NewDemo() *Demo {
	return &Demo{now: time.Now}
}

func (d *Demo) Charge(_ context.Context, c Charge) (*Confirmation, error) {
	if strings.TrimSpace(c.PaymentMethodID) == "" {
		return nil, &Error{Message: "A payment method is required."}
	}
	if c.Amount <= 0 {
		return nil, &Error{Message: "Amount must be positive."}
	}
	return &Confirmation{
		ID:            "pi_demo_" + formatMillis(d.now()),
		Status:        "succeeded",
		AmountCents:   c.Amount * 100,
		PaymentMethod: c.PaymentMethodID,
	}, nil
}
