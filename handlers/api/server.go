package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-transcribe/config"
	"github.com/nijaru/yt-transcribe/middleware"
	"github.com/nijaru/yt-transcribe/models"
	"github.com/nijaru/yt-transcribe/pipeline"
	"github.com/nijaru/yt-transcribe/validation"
)

const welcomeMessage = "Welcome to YouTube Transcriber API"

type Server struct {
	transcribe *TranscribeHandler
	runs       *RunsHandler
	config     *config.Config
	logger     *logrus.Logger
	server     *http.Server
	startTime  time.Time
}

type ServerOption func(*Server)

// NewServer creates a new API server with the provided services and options
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	s := &Server{
		config:    cfg,
		logger:    logrus.StandardLogger(),
		startTime: time.Now(),
		runs:      NewRunsHandler(nil, nil, 0),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// WithPipeline sets up the transcription handlers
func WithPipeline(svc pipeline.Service) ServerOption {
	return func(s *Server) {
		s.transcribe = NewTranscribeHandler(svc, validation.NewValidator(validation.DefaultMaxBodyBytes))
	}
}

// WithHistory exposes run history and archived transcripts. Either may be nil.
func WithHistory(runs RunReader, transcripts TranscriptReader) ServerOption {
	return func(s *Server) {
		s.runs = NewRunsHandler(runs, transcripts, s.config.RequestTimeout)
	}
}

// WithLogger sets a custom logger for the server
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func (s *Server) Start() error {
	s.logger.WithField("port", s.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.transcribe != nil {
		mux.HandleFunc("POST /process", s.transcribe.HandleProcess)
		mux.HandleFunc("POST /upload", s.transcribe.HandleUpload)
		mux.HandleFunc("POST /detection", s.transcribe.HandleDetection)
		mux.HandleFunc("POST /utterances", s.transcribe.HandleUtterances)
		mux.HandleFunc("POST /info", s.transcribe.HandleInfo)
	}

	mux.HandleFunc("GET /runs/{id}", s.runs.HandleGetRun)
	mux.HandleFunc("GET /runs/{id}/transcript", s.runs.HandleGetTranscript)

	return s.middleware(mux)
}

func (s *Server) middleware(handler http.Handler) http.Handler {
	var rateLimiter middleware.RateLimiter
	if s.config.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(
			s.config.RateLimit.RequestsPerMinute,
			s.config.RateLimit.BurstSize,
		)
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID(s.logger),
		middleware.Recovery(),
		middleware.Logging(),
		middleware.CORS(s.config.CORS),
		middleware.Timeout(s.config.RequestTimeout),
	}

	if rateLimiter != nil {
		middlewares = append(middlewares, rateLimiter.Middleware)
	}

	return middleware.Chain(handler, middlewares...)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, models.MessageResponse{Message: welcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.startTime).String(),
	}

	if s.config.Debug {
		status["debug"] = true
		status["goroutines"] = runtime.NumGoroutine()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["memory"] = map[string]any{
			"allocated": m.Alloc,
			"total":     m.TotalAlloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	respondJSON(w, r, http.StatusOK, status)
}
