package httpserver

import (
	"context"
	"time"

	"cartify/internal/domain"
	"cartify/internal/logging"
	"cartify/internal/service/fulfillment"
	"cartify/internal/service/payment"
	"cartify/internal/service/posadmin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionService interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Logout(ctx context.Context)
	Current() (domain.User, bool)
}

type ProductResolver interface {
	Resolve(ctx context.Context, code string) (domain.Product, error)
}

type CartService interface {
	Add(product domain.Product, qty int) (domain.Cart, error)
	Increment(productID string) (domain.Cart, error)
	Decrement(productID string) (domain.Cart, error)
	Remove(productID string) (domain.Cart, error)
	Snapshot() domain.Cart
}

type CheckoutService interface {
	Submit(ctx context.Context) (fulfillment.Status, error)
	SendToPOS(ctx context.Context, billID string) (fulfillment.Status, error)
	PayOnline(ctx context.Context, billID string, payer domain.Payer, card payment.CardInput) (fulfillment.Status, error)
	Reset() error
	State() fulfillment.Status
}

type POSAdminService interface {
	Pending(ctx context.Context, query string) ([]domain.Bill, error)
	MarkPaid(ctx context.Context, id string) error
	Print(ctx context.Context, billID string) ([]byte, error)
	History(ctx context.Context, f posadmin.HistoryFilter) ([]domain.Bill, error)
}

// Deps holds the services behind the routes. A nil service leaves its
// routes unregistered.
type Deps struct {
	Session  SessionService
	Resolver ProductResolver
	Cart     CartService
	Checkout CheckoutService
	POSAdmin POSAdminService
	Store    Pinger
}

// buildRouter wires routes for the terminal API.
func buildRouter(logger *zap.Logger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logging.RequestID(), logging.RequestLogger(logger), gin.Recovery())

	if len(corsOrigins) > 0 {
		corsCfg := cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logging.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}
		if err := corsCfg.Validate(); err != nil {
			return nil, err
		}
		router.Use(cors.New(corsCfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	if deps.Session == nil {
		return router, nil
	}
	h := &handlers{deps: deps, logger: logger}

	router.POST("/session/login", h.login)
	authed := router.Group("/", requireSession(deps.Session))
	authed.GET("/session", h.currentUser)
	authed.DELETE("/session", h.logout)

	if deps.Resolver != nil {
		authed.POST("/scan", h.scan)
	}
	if deps.Cart != nil {
		authed.GET("/cart", h.getCart)
		authed.POST("/cart/items/:productId/increment", h.incrementItem)
		authed.POST("/cart/items/:productId/decrement", h.decrementItem)
		authed.DELETE("/cart/items/:productId", h.removeItem)
		if deps.Resolver != nil {
			authed.POST("/cart/items", h.addItem)
		}
	}
	if deps.Checkout != nil {
		authed.GET("/checkout", h.checkoutState)
		authed.POST("/checkout/bill", h.submitBill)
		authed.POST("/checkout/pos", h.sendToPOS)
		authed.POST("/checkout/pay", h.payOnline)
		authed.DELETE("/checkout", h.resetCheckout)
	}
	if deps.POSAdmin != nil {
		admin := authed.Group("/admin", requireAdmin(deps.Session))
		admin.GET("/pos-bills", h.pendingBills)
		admin.POST("/pos-bills/:id/paid", h.markPaid)
		admin.GET("/bills/history", h.billHistory)
		admin.GET("/bills/:billId/print", h.printBill)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
