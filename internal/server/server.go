package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scoutpoint/scoutpoint/internal/handler"
	"github.com/scoutpoint/scoutpoint/internal/ledger"
	"github.com/scoutpoint/scoutpoint/internal/metrics"
	"github.com/scoutpoint/scoutpoint/internal/middleware"
	"github.com/scoutpoint/scoutpoint/internal/plan"
	"github.com/scoutpoint/scoutpoint/internal/points"
	"github.com/scoutpoint/scoutpoint/internal/store"
	ws "github.com/scoutpoint/scoutpoint/internal/websocket"
)

type Config struct {
	Catalog             *plan.Catalog
	Costs               *plan.Costs
	StripeWebhookSecret string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	registry    *prometheus.Registry
	accountH    *handler.AccountHandler
	candidateH  *handler.CandidateHandler
	disclosureH *handler.DisclosureHandler
	pointsH     *handler.PointsHandler
	webhookH    *handler.WebhookHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	accountStore := store.NewAccountStore(db)
	candidateStore := store.NewCandidateStore(db)
	disclosureStore := store.NewDisclosureStore(db)

	ledgerStore := ledger.NewStore(db)
	engine := ledger.NewEngine(ledgerStore, cfg.Costs, logger.With("component", "ledger"))
	pointsSvc := points.NewService(ledgerStore, cfg.Catalog, logger.With("component", "points"))

	var webhookH *handler.WebhookHandler
	if cfg.StripeWebhookSecret != "" {
		webhookH = handler.NewWebhookHandler(cfg.StripeWebhookSecret, pointsSvc, hub, m, logger.With("component", "webhook"))
	}

	return &Server{
		db:          db,
		hub:         hub,
		registry:    registry,
		accountH:    handler.NewAccountHandler(accountStore, logger.With("component", "account")),
		candidateH:  handler.NewCandidateHandler(candidateStore, disclosureStore, logger.With("component", "candidate")),
		disclosureH: handler.NewDisclosureHandler(engine, candidateStore, disclosureStore, hub, m, logger.With("component", "disclosure")),
		pointsH:     handler.NewPointsHandler(pointsSvc, ledgerStore, engine, cfg.Catalog, hub, m, logger.With("component", "points_handler")),
		webhookH:    webhookH,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	mux.HandleFunc("GET /plans", s.pointsH.ListPlans)

	mux.HandleFunc("POST /accounts", s.rateLimited(s.accountH.Create))
	mux.HandleFunc("GET /accounts", s.accountH.List)
	mux.HandleFunc("GET /accounts/{id}", s.accountH.Get)

	mux.HandleFunc("POST /accounts/{id}/subscription", s.pointsH.CreateSubscription)
	mux.HandleFunc("GET /accounts/{id}/subscription", s.pointsH.GetSubscription)
	mux.HandleFunc("PUT /accounts/{id}/subscription/plan", s.pointsH.ChangePlan)

	mux.HandleFunc("GET /accounts/{id}/points", s.pointsH.GetBalance)
	mux.HandleFunc("GET /accounts/{id}/points/check", s.pointsH.CheckBalance)
	mux.HandleFunc("POST /accounts/{id}/points/purchase", s.pointsH.Purchase)
	mux.HandleFunc("GET /accounts/{id}/points/transactions", s.pointsH.ListTransactions)
	mux.HandleFunc("GET /accounts/{id}/disclosures", s.disclosureH.List)

	mux.HandleFunc("POST /candidates", s.candidateH.Create)
	mux.HandleFunc("GET /candidates", s.candidateH.List)
	mux.HandleFunc("GET /candidates/{id}", s.candidateH.Get)
	mux.HandleFunc("POST /candidates/{id}/disclose", s.disclosureH.Disclose)

	if s.webhookH != nil {
		mux.HandleFunc("POST /webhooks/stripe", s.webhookH.HandleStripeWebhook)
	}

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(middleware.RealIP(r), 10, time.Minute) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		h(w, r)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
