package payment

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
)

func TestNewSelectsDemo(t *testing.T) {
	for _, key := range []string{"", "  ", DemoKey} {
		if _, ok := New(key, zerolog.Nop()).(*Demo); !ok {
			t.Fatalf("key %q should select the demo processor", key)
		}
	}
	if _, ok := New("sk_test_real", zerolog.Nop()).(*Stripe); !ok {
		t.Fatalf("real key should select Stripe")
	}
}

func TestDemoCharge(t *testing.T) {
	d := NewDemo()
	d.now = func() time.Time { return time.UnixMilli(1700000000123) }

	conf, err := d.Charge(context.Background(), Charge{Amount: 30, PaymentMethodID: "pm_card_visa"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if conf.ID != "pi_demo_1700000000123" || conf.AmountCents != 3000 || conf.Status != "succeeded" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}

	_, err = d.Charge(context.Background(), Charge{Amount: 30})
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func newStripeBackend(t *testing.T, handler http.HandlerFunc) *stripe.Backends {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
}

func TestStripeChargeSucceeds(t *testing.T) {
	var form url.Values
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_123","object":"payment_intent","status":"succeeded","amount":3000,"currency":"usd"}`)
	})

	s := NewStripe("sk_test_real", backends, zerolog.Nop())
	conf, err := s.Charge(context.Background(), Charge{Amount: 30, PaymentMethodID: "pm_card_visa", ReceiptEmail: "a@b.co"})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if conf.ID != "pi_123" || conf.AmountCents != 3000 || conf.PaymentMethod != "pm_card_visa" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if form.Get("amount") != "3000" || form.Get("currency") != "usd" || form.Get("confirm") != "true" {
		t.Fatalf("unexpected form %v", form)
	}
	if form.Get("payment_method") != "pm_card_visa" || form.Get("receipt_email") != "a@b.co" {
		t.Fatalf("unexpected form %v", form)
	}
}

func TestStripeChargeDeclined(t *testing.T) {
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	})

	s := NewStripe("sk_test_real", backends, zerolog.Nop())
	_, err := s.Charge(context.Background(), Charge{Amount: 30, PaymentMethodID: "pm_card_chargeDeclined"})

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if perr.Message != "Your card was declined." {
		t.Fatalf("expected raw processor message, got %q", perr.Message)
	}
}

func TestStripeChargeIncomplete(t *testing.T) {
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_456","object":"payment_intent","status":"requires_action","amount":3000}`)
	})

	s := NewStripe("sk_test_real", backends, zerolog.Nop())
	if _, err := s.Charge(context.Background(), Charge{Amount: 30, PaymentMethodID: "pm_3ds"}); err == nil {
		t.Fatalf("expected error for incomplete payment")
	}
}
