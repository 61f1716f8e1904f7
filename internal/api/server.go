// Package api exposes the scan/analyze/reframe/upload operations over a
// local HTTP interface.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shortsup/shortsup/internal/config"
	"github.com/shortsup/shortsup/internal/history"
	"github.com/shortsup/shortsup/internal/queue"
	"github.com/shortsup/shortsup/internal/reframe"
	"github.com/shortsup/shortsup/internal/scanner"
	"github.com/shortsup/shortsup/pkg/pipeline"
)

const Version = "0.1.0"

// ScanService lists and classifies the videos in a folder.
type ScanService interface {
	Scan(ctx context.Context, folder string) ([]*scanner.VideoFile, error)
}

// QueueService is the upload queue surface the API drives.
type QueueService interface {
	Enqueue(job *queue.Job) bool
	Snapshot() []queue.Job
	Pause()
	Resume()
	IsPaused() bool
}

// AuthService reports the YouTube authentication state.
type AuthService interface {
	IsAuthenticated() bool
}

// ServerConfig wires the API's collaborators.
type ServerConfig struct {
	Port     int
	Scanner  ScanService
	Queue    QueueService
	History  history.Repository
	Settings *config.Config
	Auth     AuthService
	Logger   *slog.Logger

	// Analyze/Reframe default to the pipeline package entry points;
	// tests substitute them.
	Analyze func(ctx context.Context, opts pipeline.Options) (*reframe.Analysis, error)
	Reframe func(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)

	StartTime time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
