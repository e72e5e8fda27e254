// Package apiserver assembles the HTTP API: routing, middleware, and the
// lifecycle of the background components.
package apiserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/neocertify/neocertify/internal/api_server/middleware"
	"github.com/neocertify/neocertify/internal/config"
	"github.com/neocertify/neocertify/internal/notification"
	"github.com/neocertify/neocertify/internal/ratelimit"
	"github.com/neocertify/neocertify/internal/service"
	"github.com/neocertify/neocertify/internal/signing"
	"github.com/neocertify/neocertify/internal/store"
	"github.com/neocertify/neocertify/internal/transport"
	"github.com/neocertify/neocertify/pkg/retry"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	dispatcherStopTimeout   = 10 * time.Second
)

type Server struct {
	log      logrus.FieldLogger
	cfg      *config.Config
	store    store.Store
	listener net.Listener

	dispatcher    *notification.Dispatcher
	publicLimiter ratelimit.Limiter
	authLimiter   ratelimit.Limiter
	handler       *transport.TransportHandler
	stopLimiters  func()
}

// New assembles the server: signing, notification delivery, rate limiting,
// the service layer and its HTTP bindings.
func New(log logrus.FieldLogger, cfg *config.Config, st store.Store, listener net.Listener) *Server {
	signer := signing.NewService(cfg.Signing.Secret, cfg.Signing.PreviousSecret)

	var provider notification.Provider
	if cfg.Notification.TestMode {
		provider = notification.NewFakeProvider()
	} else {
		provider = notification.NewAligoProvider(
			cfg.Notification.APIURL,
			cfg.Notification.APIKey,
			cfg.Notification.SenderKey,
			cfg.Notification.SenderPhone,
		)
	}
	dispatcher := notification.NewDispatcher(st, provider, log, retry.Config{
		MaxRetries: cfg.Notification.MaxRetries,
		BaseDelay:  time.Duration(cfg.Notification.BaseDelaySeconds) * time.Second,
		MaxDelay:   time.Duration(cfg.Notification.MaxDelaySeconds) * time.Second,
	})

	publicLimiter, authLimiter, stopLimiters := buildLimiters(cfg, log)

	svc := service.NewServiceHandler(st, signer, dispatcher, log)
	handler := transport.NewTransportHandler(svc, cfg.Notification.WebhookToken, log)

	return &Server{
		log:           log,
		cfg:           cfg,
		store:         st,
		listener:      listener,
		dispatcher:    dispatcher,
		publicLimiter: publicLimiter,
		authLimiter:   authLimiter,
		handler:       handler,
		stopLimiters:  stopLimiters,
	}
}

// buildLimiters wires the public-endpoint limiters: Redis-backed when
// configured so replicas share one window, in-process otherwise.
func buildLimiters(cfg *config.Config, log logrus.FieldLogger) (ratelimit.Limiter, ratelimit.Limiter, func()) {
	publicCfg := cfg.RateLimit.Public
	authCfg := cfg.RateLimit.Auth

	if cfg.Redis != nil && cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Hostname, cfg.Redis.Port),
			Password: cfg.Redis.Password,
		})
		log.Info("using redis-backed rate limiting")
		return ratelimit.NewRedisLimiter(client, "ratelimit", publicCfg.Requests, publicCfg.Window()),
			ratelimit.NewRedisLimiter(client, "ratelimit", authCfg.Requests, authCfg.Window()),
			func() { _ = client.Close() }
	}

	public := ratelimit.NewMemoryLimiter(publicCfg.Requests, publicCfg.Window())
	auth := ratelimit.NewMemoryLimiter(authCfg.Requests, authCfg.Window())
	public.Start()
	auth.Start()
	return public, auth, func() {
		public.Stop()
		auth.Stop()
	}
}

func (s *Server) Run(ctx context.Context) error {
	s.log.Infof("Initializing API server: %s", s.listener.Addr())

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		chimiddleware.Recoverer,
		middleware.RequestLogger(s.log),
	)

	apiWindow := s.cfg.RateLimit.API

	router.Route("/api/v1", func(r chi.Router) {
		// Public endpoints, limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.publicLimiter, "public", s.log))
			r.Get("/verify", s.handler.Verify)
			r.Get("/inquiry", s.handler.Inquiry)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.authLimiter, "auth", s.log))
			r.Post("/organizations", s.handler.RegisterOrganization)
		})
		r.Post("/webhooks/alimtalk", s.handler.AlimtalkWebhook)

		// Authenticated operations.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(
				apiWindow.Requests,
				apiWindow.Window(),
				httprate.WithKeyFuncs(keyByOrg),
			))

			r.Get("/organizations/{id}", s.handler.GetOrganization)
			r.Get("/shipment-targets", s.handler.ListShipmentTargets)

			r.Post("/products", s.handler.CreateProduct)
			r.Get("/products", s.handler.ListProducts)
			r.Get("/products/{id}", s.handler.GetProduct)
			r.Post("/products/{id}/deactivate", s.handler.DeactivateProduct)
			r.Put("/settings/code-prefix", s.handler.UpdateCodePrefix)

			r.Post("/lots", s.handler.CreateLot)
			r.Post("/lots/{id}/quantity", s.handler.AddLotQuantity)

			r.Post("/shipments", s.handler.CreateShipment)
			r.Post("/shipments/{id}/recall", s.handler.RecallShipment)
			r.Post("/shipments/{id}/return", s.handler.ReturnShipment)

			r.Post("/treatments", s.handler.CreateTreatment)
			r.Post("/treatments/{id}/recall", s.handler.RecallTreatment)

			r.Post("/disposals", s.handler.CreateDisposal)

			r.Get("/inventory", s.handler.GetInventory)
			r.Get("/inventory/{productId}", s.handler.GetProductInventory)
			r.Get("/history", s.handler.ListHistory)
			r.Get("/patients/search", s.handler.SearchPatients)
		})
	})

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.dispatcher.Stop(dispatcherStopTimeout)
		s.stopLimiters()
	}()

	if err := srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving API: %w", err)
	}
	return nil
}

// keyByOrg buckets authenticated traffic per organization, falling back to
// the client IP for requests that have not identified themselves yet.
func keyByOrg(r *http.Request) (string, error) {
	if org := r.Header.Get(transport.OrgIDHeader); org != "" {
		return org, nil
	}
	return middleware.ClientIP(r), nil
}
