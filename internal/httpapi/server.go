// Package httpapi exposes the signal engine over HTTP: feed
// generation, the insight rule engine, prompt assembly, owner answers,
// a live feed stream, and Prometheus metrics.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/advisor"
	"github.com/finpulse/finpulse/internal/insight"
	"github.com/finpulse/finpulse/internal/signal"
)

// FeedGenerator produces the signal feed for a business.
type FeedGenerator interface {
	Generate(ctx context.Context, businessID string) ([]signal.Signal, error)
}

// ReportAdvisor turns a narrative prompt into a structured CFO report.
type ReportAdvisor interface {
	Run(ctx context.Context, prompt string) (*advisor.Report, error)
}

// AnswerStore records owner answers against open insights.
type AnswerStore interface {
	AttachAnswer(ctx context.Context, businessID, period, insightID, answer string) error
}

// FeedStore persists generated feeds.
type FeedStore interface {
	SaveFeed(ctx context.Context, businessID string, signals []signal.Signal) (string, error)
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the HTTP front of the engine. Answers and feeds stores and
// the advisor are optional; their endpoints answer 503 when absent.
type Server struct {
	router     *mux.Router
	server     *http.Server
	engine     FeedGenerator
	thresholds insight.Thresholds
	answers    AnswerStore
	feeds      FeedStore
	advisor    ReportAdvisor
	hub        *Hub
	metrics    *Metrics
	registry   *prometheus.Registry
	log        zerolog.Logger
}

// NewServer wires routes, metrics, and the stream hub.
func NewServer(cfg ServerConfig, engine FeedGenerator, thresholds insight.Thresholds, answers AnswerStore, feeds FeedStore, adv ReportAdvisor, log zerolog.Logger) *Server {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	s := &Server{
		router:     mux.NewRouter(),
		engine:     engine,
		thresholds: thresholds,
		answers:    answers,
		feeds:      feeds,
		advisor:    adv,
		metrics:    metrics,
		registry:   registry,
		log:        log,
	}
	s.hub = NewHub(log, func(d float64) { metrics.StreamClients.Add(d) })

	s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/signals/{businessID}", s.handleSignals).Methods(http.MethodGet)
	v1.HandleFunc("/insights", s.handleInsights).Methods(http.MethodPost)
	v1.HandleFunc("/prompt", s.handlePrompt).Methods(http.MethodPost)
	v1.HandleFunc("/answers", s.handleAnswers).Methods(http.MethodPost)
	v1.HandleFunc("/report/{businessID}", s.handleReport).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.hub.ServeWS).Methods(http.MethodGet)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the stream hub so other components can broadcast.
func (s *Server) Hub() *Hub { return s.hub }

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains connections until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
