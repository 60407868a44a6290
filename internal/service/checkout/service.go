// Package checkout turns a session's cart into a paid, recorded order.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
	"porch-petals/internal/eventbus"
	"porch-petals/internal/payment"
	"porch-petals/internal/service/cart"
	"porch-petals/internal/validate"
)

// OrderSlotKey holds the most recent confirmed order.
const OrderSlotKey = "porch-petals-order"

// postPaymentTimeout bounds the bookkeeping that runs after a confirmed
// charge, detached from the request's cancellation.
const postPaymentTimeout = 15 * time.Second

var deliveryWindows = []domain.DeliveryWindow{
	{ID: "1", Label: "Before 2:00 PM", Time: "2:00 PM", Available: true},
	{ID: "2", Label: "Before 5:00 PM", Time: "5:00 PM", Available: true},
	{ID: "3", Label: "Before 7:00 PM", Time: "7:00 PM", Available: true},
}

// DeliveryWindows returns the fixed same-day delivery windows.
func DeliveryWindows() []domain.DeliveryWindow {
	out := make([]domain.DeliveryWindow, len(deliveryWindows))
	copy(out, deliveryWindows)
	return out
}

func findWindow(id string) (domain.DeliveryWindow, bool) {
	for _, w := range deliveryWindows {
		if w.ID == id && w.Available {
			return w, true
		}
	}
	return domain.DeliveryWindow{}, false
}

type Carts interface {
	With(ctx context.Context, session string, fn func(*cart.Store) error) error
}

type OrderSlots interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Inventory decrements stock for a paid order.
type Inventory interface {
	ProcessOrder(ctx context.Context, lines []domain.CartLine) error
}

type Request struct {
	Customer         domain.CustomerInfo `json:"customer"`
	DeliveryWindowID string              `json:"deliveryWindowId"`
	PaymentMethodID  string              `json:"paymentMethodId"`
}

type Config struct {
	MaxAttempts int
	Window      time.Duration
}

type Service struct {
	carts     Carts
	orders    OrderSlots
	inventory Inventory
	payments  payment.Processor
	events    eventbus.Publisher
	limiter   *validate.RateLimiter
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time
}

func New(carts Carts, orders OrderSlots, inventory Inventory, payments payment.Processor, events eventbus.Publisher, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		carts:     carts,
		orders:    orders,
		inventory: inventory,
		payments:  payments,
		events:    events,
		limiter:   validate.NewRateLimiter(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Checkout charges the session's cart total and records the order. The cart
// session stays locked for the whole attempt so a cart is charged at most
// once. Once the charge is confirmed the remaining steps ignore request
// cancellation. Inventory and event failures after payment are logged; the
// order stands.
func (s *Service) Checkout(ctx context.Context, session string, req Request) (domain.Order, error) {
	if !s.limiter.Allow("checkout:"+session, s.cfg.MaxAttempts, s.cfg.Window) {
		return domain.Order{}, domain.ErrRateLimited
	}

	customer := sanitizeCustomer(req.Customer)
	window, err := validateRequest(customer, req)
	if err != nil {
		return domain.Order{}, err
	}

	var (
		order   domain.Order
		paidCtx context.Context
		cancel  context.CancelFunc = func() {}
	)
	defer func() { cancel() }()

	err = s.carts.With(ctx, session, func(st *cart.Store) error {
		lines := st.Lines()
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}
		total := st.TotalPrice()

		conf, err := s.payments.Charge(ctx, payment.Charge{
			Amount:          total,
			Currency:        "usd",
			PaymentMethodID: req.PaymentMethodID,
			Description:     fmt.Sprintf("Porch Petals order for unit %s", customer.UnitNumber),
			ReceiptEmail:    customer.Email,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("session", session).Int64("total", total).Msg("payment failed")
			return err
		}

		paidCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), postPaymentTimeout)

		now := s.now()
		order = domain.Order{
			ID:             newOrderID(now),
			Items:          lines,
			Customer:       customer,
			DeliveryWindow: window,
			PaymentID:      conf.ID,
			Total:          total,
			Status:         domain.OrderConfirmed,
			CreatedAt:      now,
		}

		if err := s.saveOrder(paidCtx, session, order); err != nil {
			s.logger.Error().Err(err).Str("orderId", order.ID).Msg("error saving order")
		}
		if err := s.inventory.ProcessOrder(paidCtx, lines); err != nil {
			s.logger.Error().Err(err).Str("orderId", order.ID).Msg("error updating inventory for order")
		}
		if err := st.Clear(paidCtx); err != nil {
			s.logger.Error().Err(err).Str("orderId", order.ID).Msg("error clearing cart")
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info().Str("orderId", order.ID).Str("paymentId", order.PaymentID).Int64("total", order.Total).Msg("order confirmed")

	if err := s.events.PublishOrderConfirmed(paidCtx, eventbus.NewOrderConfirmedEvent(order)); err != nil {
		s.logger.Error().Err(err).Str("orderId", order.ID).Msg("error publishing order event")
	}
	return order, nil
}

// Ready reports whether the form has everything needed to attempt payment.
func Ready(req Request) bool {
	return strings.TrimSpace(req.Customer.Name) != "" &&
		strings.TrimSpace(req.Customer.UnitNumber) != "" &&
		req.DeliveryWindowID != ""
}

// Validate runs the same sanitize and field checks Checkout applies, without
// touching the cart or the payment processor.
func Validate(req Request) error {
	_, err := validateRequest(sanitizeCustomer(req.Customer), req)
	return err
}

// newOrderID is PP-<unix millis>-<8 hex chars>; the suffix keeps ids unique
// across sessions confirming in the same millisecond.
func newOrderID(now time.Time) string {
	return "PP-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// LastOrder returns the session's most recent confirmed order, or
// domain.ErrNotFound.
func (s *Service) LastOrder(ctx context.Context, session string) (domain.Order, error) {
	raw, err := s.orders.Get(ctx, cart.Key(OrderSlotKey, session))
	if err != nil {
		return domain.Order{}, err
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		s.logger.Error().Err(err).Str("session", session).Msg("error parsing saved order")
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) saveOrder(ctx context.Context, session string, order domain.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.orders.Put(ctx, cart.Key(OrderSlotKey, session), raw)
}

func sanitizeCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:                validate.SanitizeInput(c.Name),
		UnitNumber:          validate.SanitizeInput(c.UnitNumber),
		Email:               validate.SanitizeInput(c.Email),
		Phone:               validate.SanitizeInput(c.Phone),
		SpecialInstructions: validate.SanitizeInput(c.SpecialInstructions),
	}
}

func validateRequest(c domain.CustomerInfo, req Request) (domain.DeliveryWindow, error) {
	var fields []string
	if !validate.IsValidName(c.Name) {
		fields = append(fields, "name")
	}
	if !validate.IsValidUnitNumber(c.UnitNumber) {
		fields = append(fields, "unitNumber")
	}
	if !validate.IsValidEmail(c.Email) {
		fields = append(fields, "email")
	}
	if !validate.IsValidPhone(c.Phone) {
		fields = append(fields, "phone")
	}
	window, ok := findWindow(req.DeliveryWindowID)
	if !ok {
		fields = append(fields, "deliveryWindow")
	}
	if strings.TrimSpace(req.PaymentMethodID) == "" {
		fields = append(fields, "paymentMethodId")
	}
	if len(fields) > 0 {
		return domain.DeliveryWindow{}, &domain.ValidationError{Fields: fields}
	}
	return window, nil
}
