package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/janda5134-web/solana-signer/internal/models"
)

const defaultMaxBodyBytes = 1 << 20

// Trader executes an authenticated trade request.
type Trader interface {
	Execute(ctx context.Context, req *models.TradeRequest) (*models.TradeResult, error)
}

type Options struct {
	Port            int
	CORSAllowOrigin string
	MaxBodyBytes    int64
	// Registry receives the server's metrics; a private registry is used
	// when nil.
	Registry *prometheus.Registry
}

type Server struct {
	trader       Trader
	metrics      *metrics
	maxBodyBytes int64
	handler      http.Handler
	httpServer   *http.Server
}

func NewServer(trader Trader, opts Options) *Server {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	s := &Server{
		trader:       trader,
		metrics:      newMetrics(reg),
		maxBodyBytes: maxBody,
	}

	mux := http.NewServeMux()

	// Trade routes
	mux.HandleFunc("POST /trade", s.handleTrade)

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.handler = corsMiddleware(mux, opts.CORSAllowOrigin)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
	}

	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Start() error {
	log.WithField("component", "api").Infof("signer listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Timestamp, X-Sign")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- response helpers ---

type failureResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, failureResponse{OK: false, Error: msg})
}
