package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"tariff-compare/internal/config"
	"tariff-compare/internal/engine"
	"tariff-compare/internal/logging"
	"tariff-compare/internal/storage"
)

// Comparer runs one comparison; satisfied by *engine.Engine.
type Comparer interface {
	CompareOffers(ctx context.Context, uploadID uuid.UUID) (*engine.Result, error)
}

// Pinger checks store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the comparison engine over HTTP.
type Server struct {
	comparer Comparer
	results  storage.ResultStore
	pinger   Pinger
	surfaced int
	logger   zerolog.Logger
}

// New constructs the HTTP surface. pinger may be nil; health then reports
// only process liveness.
func New(comparer Comparer, results storage.ResultStore, pinger Pinger, surfaced int, logger zerolog.Logger) *Server {
	if surfaced <= 0 {
		surfaced = 3
	}
	return &Server{
		comparer: comparer,
		results:  results,
		pinger:   pinger,
		surfaced: surfaced,
		logger:   logging.Component(logger, "server"),
	}
}

// Router builds the mux router with recovery middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/compare", s.handleCompare).Methods(http.MethodPost)
	r.HandleFunc("/api/results/{uploadId}", s.handleResult).Methods(http.MethodGet)

	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(s.accessLog(r))
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", cfg.Listen).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(started)).
			Msg("request served")
	})
}
