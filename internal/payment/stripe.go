package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Stripe creates and confirms a PaymentIntent server side for each charge.
type Stripe struct {
	api    *client.API
	logger zerolog.Logger
}

// NewStripe builds a Stripe processor. backends may be nil to use Stripe's
// default endpoints.
func NewStripe(secretKey string, backends *stripe.Backends, logger zerolog.Logger) *Stripe {
	return &Stripe{api: client.New(secretKey, backends), logger: logger}
}

func (s *Stripe) Charge(ctx context.Context, c Charge) (*Confirmation, error) {
	currency := c.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(c.Amount * 100),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(c.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if c.Description != "" {
		params.Description = stripe.String(c.Description)
	}
	if c.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(c.ReceiptEmail)
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Msg != "" {
			s.logger.Warn().Str("code", string(serr.Code)).Str("type", string(serr.Type)).Msg("payment declined")
			return nil, &Error{Message: serr.Msg, Err: err}
		}
		s.logger.Error().Err(err).Msg("payment request failed")
		return nil, &Error{Message: err.Error(), Err: err}
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, &Error{Message: fmt.Sprintf("Payment was not completed (status %s).", pi.Status)}
	}

	pm := c.PaymentMethodID
	if pi.PaymentMethod != nil && pi.PaymentMethod.ID != "" {
		pm = pi.PaymentMethod.ID
	}
	return &Confirmation{
		ID:            pi.ID,
		Status:        string(pi.Status),
		AmountCents:   pi.Amount,
		PaymentMethod: pm,
	}, nil
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
