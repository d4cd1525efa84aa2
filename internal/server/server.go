// internal/server/server.go
package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yasupon0729/log-analysis-sub002/pkg/fetch"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

const (
	// maxFormMemory is the in-memory cap for multipart form parsing (32 MB)
	maxFormMemory = 32 << 20

	// maxUploadSize caps an uploaded log file (256 MB)
	maxUploadSize = 256 << 20

	// maxRangeDays caps a date-range fetch to keep one request bounded
	maxRangeDays = 31
)

// Config wires the server's collaborators
type Config struct {
	// Key is the default decryption key; nil means encrypted input fails
	// with a configuration error
	Key *logdecode.Key

	// Fetcher serves the S3-backed endpoints; nil disables them
	Fetcher *fetch.Fetcher

	// Logger defaults to a nop logger
	Logger *zap.Logger
}

// Server exposes the decode pipeline over HTTP
type Server struct {
	key     *logdecode.Key
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// New builds a Server from config
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		key:     cfg.Key,
		fetcher: cfg.Fetcher,
		logger:  logger,
	}
}

// Handler returns the routed HTTP handler with request logging attached
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/decode", s.handleDecode)
	mux.HandleFunc("GET /api/logs/{date}", s.handleLogsDate)
	mux.HandleFunc("GET /api/logs", s.handleLogsRange)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withLogging(mux)
}

// statusWriter captures the response code for the request log
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)))
	})
}
