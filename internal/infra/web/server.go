package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	red "telegram-merchant-commerce/internal/infra/redis"
	"telegram-merchant-commerce/internal/usecase"
)

// Server hosts the payment webhook and the staff read API.
type Server struct {
	reconcileUC usecase.ReconcileUseCase
	ledgerUC    usecase.LedgerUseCase
	subsUC      usecase.SubscriptionQueryUseCase
	auth        *AuthManager
	limiter     *red.RateLimiter
	hmacSecret  string
	rateLimit   int
	log         *zerolog.Logger
}

func NewServer(
	reconcileUC usecase.ReconcileUseCase,
	ledgerUC usecase.LedgerUseCase,
	subsUC usecase.SubscriptionQueryUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	hmacSecret string,
	rateLimit int,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		reconcileUC: reconcileUC,
		ledgerUC:    ledgerUC,
		subsUC:      subsUC,
		auth:        auth,
		limiter:     limiter,
		hmacSecret:  hmacSecret,
		rateLimit:   rateLimit,
		log:         logger,
	}
}

// Router assembles all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.rateLimitMiddleware)
		}
		r.Post("/payment", s.paymentWebhookHandler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/merchants/{merchantID}/balance", s.merchantBalanceHandler())
		r.Get("/merchants/{merchantID}/ledger", s.merchantLedgerHandler())
		r.Get("/subscriptions", s.subscriptionHandler())
		r.Post("/payments/{paymentID}/refund", s.refundHandler())
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// authMiddleware guards the staff API with the JWT session.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			s.log.Error().Msg("staff API auth is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.limiter.Allow(r.Context(), red.WebhookSourceKey(r.RemoteAddr), s.rateLimit, time.Minute)
		if err != nil {
			// Limiter outage never blocks deliveries.
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
