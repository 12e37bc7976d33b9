package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Option func(*Options)

type Options struct {
	port             int
	logger           *zap.Logger
	handler          http.Handler
	readTimeout      time.Duration
	writeTimeout     time.Duration
	enableRequestLog bool
}

func WithPort(port int) Option {
	return func(o *Options) {
		o.port = port
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithHandler mounts the application handler under the server root. The
// builder owns only the /health liveness endpoint.
func WithHandler(h http.Handler) Option {
	return func(o *Options) {
		o.handler = h
	}
}

func WithRequestLogging(enabled bool) Option {
	return func(o *Options) {
		o.enableRequestLog = enabled
	}
}

func WithTimeouts(read, write time.Duration) Option {
	return func(o *Options) {
		o.readTimeout = read
		o.writeTimeout = write
	}
}

type Server struct {
	httpServer *http.Server
	lis        net.Listener
	logger     *zap.Logger
}

// New creates a new HTTP server using the builder options.
func New(opts ...Option) (*Server, error) {
	options := &Options{
		port:         8080,
		logger:       zap.NewNop(),
		readTimeout:  15 * time.Second,
		writeTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.port < 1 || options.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", options.port)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", options.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", options.port, err)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root := mux.NewRouter()
	root.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	if options.handler != nil {
		root.PathPrefix("/").Handler(options.handler)
	}

	var handler http.Handler = root
	if options.enableRequestLog {
		handler = RequestLogger(logger)(handler)
	}
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(&recoveryLogger{logger: logger}))(handler)

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  options.readTimeout,
		WriteTimeout: options.writeTimeout,
	}

	return &Server{
		httpServer: httpServer,
		lis:        lis,
		logger:     logger.Named("http-server"),
	}, nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start runs the server in a goroutine and returns immediately.
func (s *Server) Start() {
	s.logger.Info("HTTP server starting", zap.String("addr", s.lis.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(s.lis); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
}

// Shutdown gracefully drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("forced shutdown due to timeout", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// recoveryLogger adapts zap to gorilla's recovery handler.
type recoveryLogger struct {
	logger *zap.Logger
}

func (r *recoveryLogger) Println(v ...interface{}) {
	r.logger.Error("handler panic recovered", zap.Any("panic", v))
}
