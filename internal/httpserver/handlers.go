package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
	"porch-petals/internal/payment"
	"porch-petals/internal/service/checkout"
)

const cartIDKey = "cartId"

type handlers struct {
	deps   Deps
	logger zerolog.Logger
}

type addItemRequest struct {
	Kind     domain.ProductKind `json:"kind" binding:"required"`
	ID       string             `json:"id" binding:"required"`
	Quantity int                `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func cartIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("cartId")
		if _, err := uuid.Parse(id); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid cart id"})
			return
		}
		c.Set(cartIDKey, id)
		c.Next()
	}
}

func (h *handlers) config(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stripePublishableKey":   h.deps.PublishableKey,
		"refreshIntervalSeconds": int(h.deps.Catalog.Interval().Seconds()),
	})
}

func (h *handlers) bouquets(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Catalog.Snapshot())
}

func (h *handlers) refreshInventory(c *gin.Context) {
	snap, err := h.deps.Catalog.Refresh(c.Request.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("manual inventory refresh failed")
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) houseplants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.deps.Houseplants.Houseplants()})
}

func (h *handlers) deliveryWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": checkout.DeliveryWindows()})
}

func (h *handlers) createCart(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"cartId": uuid.New().String()})
}

func (h *handlers) getCart(c *gin.Context) {
	snap, err := h.deps.Carts.Get(c.Request.Context(), c.GetString(cartIDKey))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) clearCart(c *gin.Context) {
	snap, err := h.deps.Carts.Clear(c.Request.Context(), c.GetString(cartIDKey))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, ok := h.resolveProduct(c, req.Kind, req.ID)
	if !ok {
		return
	}

	snap, err := h.deps.Carts.Add(c.Request.Context(), c.GetString(cartIDKey), product, req.Quantity)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) updateItem(c *gin.Context) {
	ref, ok := itemRef(c)
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.deps.Carts.UpdateQuantity(c.Request.Context(), c.GetString(cartIDKey), ref, *req.Quantity)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) removeItem(c *gin.Context) {
	ref, ok := itemRef(c)
	if !ok {
		return
	}
	snap, err := h.deps.Carts.Remove(c.Request.Context(), c.GetString(cartIDKey), ref)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) checkout(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.deps.Checkout.Checkout(c.Request.Context(), c.GetString(cartIDKey), req)
	if err != nil {
		h.checkoutError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// checkoutReady lets the form enable its pay button. fields lists what
// Checkout would reject.
func (h *handlers) checkoutReady(c *gin.Context) {
	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := []string{}
	var verr *domain.ValidationError
	if err := checkout.Validate(req); errors.As(err, &verr) {
		fields = verr.Fields
	}
	c.JSON(http.StatusOK, gin.H{"ready": checkout.Ready(req), "fields": fields})
}

func (h *handlers) lastOrder(c *gin.Context) {
	order, err := h.deps.Checkout.LastOrder(c.Request.Context(), c.GetString(cartIDKey))
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no order found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) resolveProduct(c *gin.Context, kind domain.ProductKind, id string) (domain.Product, bool) {
	switch kind {
	case domain.KindBouquet:
		if p, ok := h.deps.Catalog.Lookup(id); ok {
			return p, true
		}
	case domain.KindHouseplant:
		p, err := h.deps.Houseplants.Houseplant(id)
		if err == nil {
			return p, true
		}
		if !errors.Is(err, domain.ErrNotFound) {
			h.internalError(c, err)
			return domain.Product{}, false
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product kind"})
		return domain.Product{}, false
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	return domain.Product{}, false
}

func itemRef(c *gin.Context) (domain.ProductRef, bool) {
	ref := domain.ProductRef{Kind: domain.ProductKind(c.Param("kind")), ID: c.Param("id")}
	if !ref.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product kind"})
		return domain.ProductRef{}, false
	}
	return ref, true
}

func (h *handlers) checkoutError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	var perr *payment.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please check your information and try again.", "fields": verr.Fields})
	case errors.As(err, &perr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": perr.Message})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "Your cart is empty."})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many checkout attempts. Please wait a minute and try again."})
	default:
		h.internalError(c, err)
	}
}

func (h *handlers) internalError(c *gin.Context, err error) {
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
