package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"staylock/pkg/clock"
	"staylock/pkg/config"
	"staylock/pkg/contracts"
	"staylock/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type webhookRoute struct {
	path    string
	handler http.Handler
}

type Application struct {
	cfg              *config.Config
	clk              clock.Clock
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	webhooks         []webhookRoute
	shutdownHooks    []func()
}

func NewApplication(cfg *config.Config) *Application {
	a := &Application{
		cfg: cfg,
		clk: clock.NewRealClock(),
	}
	a.setHealthHandler()
	return a
}

// OnShutdown registers fn to run after the HTTP server stops accepting
// requests. Hooks run in reverse registration order.
func (a *Application) OnShutdown(fn func()) {
	a.shutdownHooks = append(a.shutdownHooks, fn)
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	var db Pinger
	if a.cfg.Client != nil && a.cfg.Client.Mongo != nil {
		db = a.cfg.Client.Mongo
	}
	NewHealthHandler(db, a.cfg.Log).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
}

// SetApp mounts the API key protected routes.
func (a *Application) SetApp(handlers ...contracts.Handler) {
	cfg := a.cfg
	appRouter := httprouter.New()
	contracts.Handlers(handlers).RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL, a.clk)
	a.rateLimiter = middleware.NewClientRateLimiter(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		middleware.ClientIP,
		a.clk,
		cfg.Log,
	)

	if cfg.InternalAPIKey == "" {
		cfg.Log.Warn("INTERNAL_API_KEY is empty, API key check disabled")
	}

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.DefaultIdempotencyHeader, cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.APIKeyAuth(cfg.InternalAPIKey, cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	cfg.Log.Info("Application endpoints configured", "handlers", len(handlers))
}

// SetWebhook mounts a provider callback at path. It is authenticated by the
// payment signature instead of the API key and keeps the raw body intact.
func (a *Application) SetWebhook(path string, handler contracts.Handler) {
	cfg := a.cfg
	router := httprouter.New()
	handler.RegisterRoutes(router)

	if cfg.PaymentWebhookSecret == "" {
		cfg.Log.Warn("PAYMENT_WEBHOOK_SECRET is empty, every webhook delivery will be rejected", "path", path)
	}

	var webhookHandler http.Handler = router
	webhookHandler = middleware.PaymentSignatureVerification(
		cfg.PaymentWebhookSecret,
		cfg.PaymentWebhookTolerance,
		cfg.Log,
	)(webhookHandler)
	webhookHandler = middleware.RequestTimeout(cfg.RequestTimeout)(webhookHandler)
	webhookHandler = middleware.MaxRequestSize(int64(cfg.MaxRequestSize))(webhookHandler)
	webhookHandler = middleware.RequestLogging(cfg.Log)(webhookHandler)
	webhookHandler = middleware.Recovery(cfg.Log)(webhookHandler)

	a.webhooks = append(a.webhooks, webhookRoute{path: path, handler: webhookHandler})
	cfg.Log.Info("Webhook endpoint configured", "path", path)
}

// Handler returns the full routing tree.
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	for _, wh := range a.webhooks {
		mux.Handle(wh.path, wh.handler)
	}
	if a.appHttpHandler != nil {
		mux.Handle("/", a.appHttpHandler)
	}
	return mux
}

func (a *Application) setAppServer() {
	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.Handler(),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	a.setAppServer()
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Error("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	if a.idempotencyStore != nil {
		a.idempotencyStore.Stop()
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	for i := len(a.shutdownHooks) - 1; i >= 0; i-- {
		a.shutdownHooks[i]()
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
