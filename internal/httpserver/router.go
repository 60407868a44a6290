package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"porch-petals/internal/domain"
	"porch-petals/internal/poller"
	"porch-petals/internal/service/cart"
	"porch-petals/internal/service/checkout"
)

// Catalog serves the polled bouquet snapshot.
type Catalog interface {
	Snapshot() poller.Snapshot
	Refresh(ctx context.Context) (poller.Snapshot, error)
	Lookup(id string) (domain.Product, bool)
	Interval() time.Duration
}

type Houseplants interface {
	Houseplants() []domain.Product
	Houseplant(id string) (domain.Product, error)
}

type CartService interface {
	Get(ctx context.Context, session string) (cart.Snapshot, error)
	Add(ctx context.Context, session string, p domain.Product, quantity int) (cart.Snapshot, error)
	UpdateQuantity(ctx context.Context, session string, ref domain.ProductRef, quantity int) (cart.Snapshot, error)
	Remove(ctx context.Context, session string, ref domain.ProductRef) (cart.Snapshot, error)
	Clear(ctx context.Context, session string) (cart.Snapshot, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, session string, req checkout.Request) (domain.Order, error)
	LastOrder(ctx context.Context, session string) (domain.Order, error)
}

// Deps carries the services the handlers call.
type Deps struct {
	Catalog        Catalog
	Houseplants    Houseplants
	Carts          CartService
	Checkout       CheckoutService
	PublishableKey string
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("catalog is required")
	case d.Houseplants == nil:
		return errors.New("houseplant catalog is required")
	case d.Carts == nil:
		return errors.New("cart service is required")
	case d.Checkout == nil:
		return errors.New("checkout service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db Pinger, deps Deps, allowedOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger), gin.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/api")
	api.GET("/config", h.config)
	api.GET("/bouquets", h.bouquets)
	api.POST("/inventory/refresh", h.refreshInventory)
	api.GET("/houseplants", h.houseplants)
	api.GET("/delivery-windows", h.deliveryWindows)

	api.POST("/carts", h.createCart)
	carts := api.Group("/carts/:cartId", cartIDMiddleware())
	carts.GET("", h.getCart)
	carts.DELETE("", h.clearCart)
	carts.POST("/items", h.addItem)
	carts.PUT("/items/:kind/:id", h.updateItem)
	carts.DELETE("/items/:kind/:id", h.removeItem)
	carts.POST("/checkout", h.checkout)
	carts.POST("/checkout/ready", h.checkoutReady)
	carts.GET("/order", h.lastOrder)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
