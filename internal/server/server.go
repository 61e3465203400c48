package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mnemosyne/internal/config"
	"mnemosyne/internal/logging"
	"mnemosyne/internal/store"
	"mnemosyne/internal/vision"
)

// Answerer answers a question over a set of timestamped entries.
type Answerer interface {
	Answer(ctx context.Context, question string, entries []store.Entry) (string, error)
}

// Server handles content uploads, management pages, and queries.
type Server struct {
	bind     string
	logger   *slog.Logger
	store    *store.Store
	provider vision.Provider
	answerer Answerer

	listener net.Listener
	server   *http.Server
}

// New constructs a server. The provider fills in descriptions for uploads
// that arrive without one; the answerer may be nil, which disables /query.
func New(cfg *config.Config, st *store.Store, provider vision.Provider, answerer Answerer, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config required")
	}
	if st == nil {
		return nil, errors.New("server: store required")
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, errors.New("server: bind address required")
	}
	if provider == nil {
		provider = vision.NewNone()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{
		bind:     bind,
		logger:   logging.NewComponentLogger(logger, "server"),
		store:    st,
		provider: provider,
		answerer: answerer,
	}

	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/add_content", s.handleAddContent)
	mux.HandleFunc("/get_contents", s.handleGetContents)
	mux.HandleFunc("/contents", s.handleContents)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.withRequestLog(mux)
}

// withRequestLog tags every request with an id and logs it on completion.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(recorder, r)

		s.logger.Debug("request handled",
			logging.String(logging.FieldRequestID, requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", recorder.status),
			logging.String("duration", time.Since(started).Round(time.Millisecond).String()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Start begins serving and shuts down when the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listener address, or the configured bind address
// before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}
