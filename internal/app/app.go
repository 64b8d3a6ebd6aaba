// Package app assembles the terminal services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"cartify/internal/config"
	"cartify/internal/db"
	"cartify/internal/httpserver"
	"cartify/internal/migrate"
	"cartify/internal/remote"
	"cartify/internal/repository/blob"
	"cartify/internal/service/billing"
	"cartify/internal/service/cart"
	"cartify/internal/service/fulfillment"
	"cartify/internal/service/payment"
	"cartify/internal/service/posadmin"
	"cartify/internal/service/scan"
	"cartify/internal/service/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App owns the long lived services of one terminal.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    blob.Repository
	Remote   *remote.Client
	Session  *session.Service
	Resolver *scan.Resolver
	Cart     *cart.Store
	Billing  *billing.Initiator
	Checkout *fulfillment.Dispatcher
	POSAdmin *posadmin.Service

	closeStore func()
}

// New opens the configured store, restores the persisted session and cart
// and wires the checkout services.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Store: store, closeStore: closeStore}

	var sess *session.Service
	a.Remote = remote.New(remote.Options{
		BaseURL: cfg.RemoteBaseURL,
		Timeout: cfg.RemoteTimeout,
		RPS:     cfg.RemoteRPS,
		Tokens:  remote.TokenFunc(func() string { return sess.Token() }),
		Logger:  logger.Named("remote"),
	})
	sess = session.New(store, a.Remote, logger.Named("session"))
	a.Session = sess
	sess.Load(ctx)

	a.Cart = cart.New(store, logger.Named("cart"), cfg.CartFlushTimeout)
	a.Cart.Load(ctx)

	gateway := payment.DisabledGateway()
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeAPIURL, nil)
	} else {
		logger.Warn("online payment disabled: STRIPE_SECRET_KEY not set")
	}

	a.Resolver = scan.NewResolver(a.Remote)
	a.Billing = billing.New(a.Remote, logger.Named("billing"))
	processor := payment.New(a.Remote, gateway, logger.Named("payment"))
	a.Checkout = fulfillment.New(a.Cart, a.Billing, a.Remote, processor, logger.Named("checkout"))
	a.POSAdmin = posadmin.New(a.Remote, logger.Named("posadmin"))

	logger.Info("terminal ready",
		zap.String("store", cfg.StoreDriver),
		zap.String("namespace", cfg.StoreNamespace),
		zap.Bool("logged_in", sess.Token() != ""),
	)
	return a, nil
}

// HTTPDeps exposes the services to the HTTP router.
func (a *App) HTTPDeps() httpserver.Deps {
	return httpserver.Deps{
		Session:  a.Session,
		Resolver: a.Resolver,
		Cart:     a.Cart,
		Checkout: a.Checkout,
		POSAdmin: a.POSAdmin,
		Store:    a.Store,
	}
}

// Close flushes the cart and releases the store.
func (a *App) Close(ctx context.Context) error {
	err := a.Cart.Close(ctx)
	if err != nil {
		a.Logger.Warn("cart flush on shutdown failed", zap.Error(err))
	}
	a.closeStore()
	return err
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (blob.Repository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return blob.NewMemory(), func() {}, nil
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DBConnString, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to db: %w", err)
		}
		if err := migrate.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		return blob.NewPostgres(pool, cfg.StoreNamespace, logger.Named("blob")), pool.Close, nil
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return blob.NewRedis(client, cfg.StoreNamespace), func() { _ = client.Close() }, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
	}
}
