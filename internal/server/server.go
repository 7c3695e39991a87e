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

	"github.com/gin-gonic/gin"

	"peaceproc/internal/logging"
	"peaceproc/internal/pipeline"
	"peaceproc/internal/runstore"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Peace Processor Pipeline"

// Pipeline is the set of workflows the server drives.
type Pipeline interface {
	RunPipeline(ctx context.Context, req pipeline.RunRequest) (pipeline.VideoOutcome, error)
	GenerateTextOnly(ctx context.Context, userPrompt, emotionalState string) (string, error)
	GenerateTextStream(ctx context.Context, userPrompt, emotionalState string) (<-chan string, <-chan error)
	GenerateImageOnly(ctx context.Context, text, outputPath string) (string, error)
	GenerateVideoOnly(ctx context.Context, req pipeline.VideoRequest) (pipeline.VideoOutcome, error)
}

// RunLister reads the run journal.
type RunLister interface {
	List(ctx context.Context, limit int, statuses ...runstore.Status) ([]runstore.Run, error)
}

// Options configures a Server.
type Options struct {
	Bind string
	// OutputRoot is used when a request omits output_path.
	OutputRoot string
	Pipeline   Pipeline
	// Runs and Logs are optional; their endpoints answer with empty lists when nil.
	Runs   RunLister
	Logs   *logging.StreamHub
	Logger *slog.Logger
	Clock  pipeline.Clock
}

// Server owns the gin engine and the listener.
type Server struct {
	opts   Options
	logger *slog.Logger
	engine *gin.Engine

	listener net.Listener
	http     *http.Server
}

// New builds the routes. It does not listen.
func New(opts Options) (*Server, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("server: pipeline is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "http")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	s := &Server{opts: opts, logger: logger, engine: engine}

	engine.Use(gin.Recovery(), requestID(), accessLog(logger))
	engine.POST("/process", s.handleProcess)
	engine.POST("/generate-text", s.handleGenerateText)
	engine.POST("/generate-image", s.handleGenerateImage)
	engine.POST("/generate-video", s.handleGenerateVideo)
	engine.POST("/generate-text-stream", s.handleGenerateTextStream)
	engine.GET("/health", s.handleHealth)
	engine.GET("/runs", s.handleRuns)
	engine.GET("/logs", s.handleLogs)

	s.http = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves until ctx ends or Stop
// is called.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("server: bind address is required")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Args(logging.Error(err))...)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr is the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests for a few seconds, then closes.
func (s *Server) Stop() {
	if s == nil || s.http == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Args(logging.Error(err))...)
	}
}
