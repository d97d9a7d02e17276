// Package server exposes the evaluation engine over HTTP. Datasets live in
// directories under a data root, each described by a manifest, and are
// evaluated on demand.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/swdee/go-evalbox/internal/config"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server serves evaluation requests over HTTP.
type Server struct {
	cfg    *config.Config
	logger *zerolog.Logger

	// slots caps the number of evaluations running at once, evaluation is
	// CPU bound and unbounded concurrency just trades latency for memory
	slots chan struct{}
}

// New creates a Server with cfg.EvalSlots evaluation slots.
func New(cfg *config.Config, logger *zerolog.Logger) *Server {

	s := &Server{
		cfg:    cfg,
		logger: logger,
		slots:  make(chan struct{}, cfg.EvalSlots),
	}

	for i := 0; i < cfg.EvalSlots; i++ {
		s.slots <- struct{}{}
	}

	return s
}

// acquire takes an evaluation slot, blocking until one frees up or the
// request is abandoned.
func (s *Server) acquire(ctx context.Context) error {

	select {
	case <-s.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release returns an evaluation slot.
func (s *Server) release() {

	select {
	case s.slots <- struct{}{}:
	default:
		// slot already returned
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {

	mux := http.NewServeMux()

	mux.HandleFunc("/api/evaluate", s.handleEvaluate)
	mux.HandleFunc("/api/datasets", s.handleDatasets)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/readyz", s.handleReady)

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.cfg.ListenAddr).Str("data_dir", s.cfg.DataDir).
		Msg("Evaluation server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
