// Package app wires the companion together: platform clients, session
// persistence, the session manager, the billing tracker, the notification
// dispatcher and the local UI bridge.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linguaflow/linguaflow/client/go-companion/handlers"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/auth"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/authclient"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/billing"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/config"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/database"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/events"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/notify"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/oidc"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/platform"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/sessions"
	"github.com/linguaflow/linguaflow/client/go-companion/internal/ui"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/logger"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/metrics"
	"github.com/linguaflow/linguaflow/client/go-companion/pkg/middleware"
)

type App struct {
	Config     *config.Config
	API        *platform.Client
	Auth       *authclient.Client
	Manager    *auth.Manager
	Tracker    *billing.Tracker
	Dispatcher *notify.Dispatcher
	Outbox     *ui.Outbox
	Registry   *prometheus.Registry

	redis *redis.Client
	mongo *mongo.Client
	watch *events.Subscription
}

// New builds every component from cfg. Nothing talks to the platform until Start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		API:      platform.NewClient(cfg.Platform.URL, cfg.Platform.AnonKey, cfg.Platform.Timeout),
		Outbox:   ui.NewOutbox(),
		Registry: prometheus.NewRegistry(),
	}
	metrics.RegisterCollectors(a.Registry)

	if addr := cfg.RedisAddr(); addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			if cfg.Session.Backend == "redis" {
				a.Close()
				return nil, fmt.Errorf("redis session store: %w", err)
			}
		} else {
			logger.Infof("connected to Redis: %s", addr)
		}
	}

	store, err := a.sessionStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = authclient.New(a.API, authclient.Options{
		Store:    store,
		StoreKey: cfg.Session.Key,
		Verifier: oidc.NewVerifier(ctx, cfg.Platform.JWKSURL, cfg.Platform.JWTSecret),
	})
	a.Manager = auth.NewManager(a.Auth, auth.Options{
		Notifier:    a.Outbox,
		RedirectURL: cfg.Platform.RedirectURL,
	})
	a.Tracker = billing.NewTracker(a.API, a.Manager, billing.Options{
		Notifier:        a.Outbox,
		Navigator:       a.Outbox,
		ReturnParam:     cfg.Billing.ReturnParam,
		ReturnValue:     cfg.Billing.ReturnValue,
		NoiseRetryDelay: cfg.Billing.NoiseRetryDelay,
	})
	a.Manager.SetPostSignIn(a.Tracker.Refresh)
	a.Dispatcher = notify.NewDispatcher(a.API, a.API, a.Manager)
	return a, nil
}

func (a *App) sessionStore(ctx context.Context) (sessions.Store, error) {
	cfg := a.Config
	switch cfg.Session.Backend {
	case "redis":
		logger.Infof("using Redis for session storage")
		return sessions.NewRedisStore(a.redis, cfg.Redis.Prefix, cfg.Session.TTL), nil
	case "mongo":
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		logger.Infof("using MongoDB for session storage")
		return sessions.NewMongoStore(client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)), nil
	case "keyring":
		ring, err := sessions.OpenKeyring(cfg.Session.KeyringService, cfg.Session.KeyringDir, cfg.Session.KeyringPassword)
		if err != nil {
			return nil, err
		}
		logger.Infof("using the system keyring for session storage")
		return sessions.NewKeyringStore(ring), nil
	default:
		return sessions.NewMemoryStore(), nil
	}
}

// Start restores the session and begins following auth events.
func (a *App) Start(ctx context.Context) error {
	a.watch = a.Tracker.Watch(a.Manager, a.Outbox.CurrentURL)
	if err := a.Manager.Start(ctx); err != nil {
		return err
	}
	st := a.Manager.Snapshot()
	logger.Infof("session restored: status=%s", st.Status)
	return nil
}

// Router builds the bridge engine.
func (a *App) Router() *gin.Engine {
	if a.Config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.CORS(a.Config.Server.AllowOrigin))

	rl := a.Config.RateLimit
	if rl.Enabled {
		if rl.UseRedis && a.redis != nil {
			r.Use(middleware.RedisRateLimitMiddleware(a.redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second))
		} else {
			r.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
		}
	}

	handlers.NewBridge(handlers.Options{
		Sessions:      a.Manager,
		Billing:       a.Tracker,
		Notifications: a.Dispatcher,
		Effects:       a.Outbox,
		Ready:         a.ready,
		Gatherer:      a.Registry,
	}).Register(r)
	return r
}

func (a *App) ready() map[string]bool {
	deps := map[string]bool{"session": a.Manager.Snapshot().Status != auth.StatusLoading}
	if a.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		deps["redis"] = a.redis.Ping(ctx).Err() == nil
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		deps["mongo"] = a.mongo.Ping(ctx, nil) == nil
	}
	return deps
}

// Serve runs the bridge until ctx is cancelled, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.Config.Addr(),
		Handler:      a.Router(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Infof("companion bridge listening on %s", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Infof("shutting down bridge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases subscriptions and connections. Safe to call more than once.
func (a *App) Close() {
	a.watch.Unsubscribe()
	if a.Manager != nil {
		a.Manager.Close()
		a.Manager.Wait()
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.mongo != nil {
		_ = a.mongo.Disconnect(context.Background())
		a.mongo = nil
	}
}
