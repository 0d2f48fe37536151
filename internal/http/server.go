// Package http serves the tasklist HTTP interface.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/auth"
	"github.com/fyrsmithlabs/tasklist/internal/backup"
	"github.com/fyrsmithlabs/tasklist/internal/logging"
	"github.com/fyrsmithlabs/tasklist/internal/session"
	"github.com/fyrsmithlabs/tasklist/internal/tasks"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	CookieName   string
	SecureCookie bool

	// DoneMode decides what /completar does.
	DoneMode tasks.DoneMode

	ServiceName string
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers call.
type Deps struct {
	Auth     auth.Service
	Tasks    tasks.Service
	Sessions *session.Store
	Codec    *session.Codec

	// Backup runs /backup-manual. Nil disables the endpoint.
	Backup backup.Runner

	// Store is pinged by /health. Optional.
	Store Pinger

	// Gatherer backs /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer
}

// Server provides the HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	logger  *logging.Logger
	config  *Config
	deps    Deps
	metrics *HTTPMetrics
}

// NewServer creates a new HTTP server.
func NewServer(cfg *Config, deps Deps, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if deps.Auth == nil || deps.Tasks == nil {
		return nil, fmt.Errorf("auth and tasks services are required")
	}
	if deps.Sessions == nil || deps.Codec == nil {
		return nil, fmt.Errorf("session store and codec are required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	applyDefaults(cfg)
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		logger:  logger,
		config:  cfg,
		deps:    deps,
		metrics: NewHTTPMetrics(logger.Underlying()),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.requestLogger())

	s.registerRoutes()

	return s, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "tasklist_session"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tasklist"
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	e := s.echo

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	// No session check: anyone who can reach the server can trigger a backup.
	e.GET("/backup-manual", s.handleBackup)

	e.GET("/login", s.handleLoginScreen)
	e.POST("/login", s.handleLogin)
	e.GET("/cadastro", s.handleRegisterScreen)
	e.POST("/cadastro", s.handleRegister)

	authed := s.requireSession
	e.GET("/", s.handleIndex, authed)
	e.GET("/editar/:id", s.handleIndex, authed)
	e.GET("/logout", s.handleLogout, authed)
	e.POST("/adicionar", s.handleAdd, authed)
	e.GET("/completar/:id", s.handleComplete, authed)
	e.GET("/excluir/:id", s.handleDelete, authed)
	e.GET("/deletar/:id", s.handleDelete, authed)
	e.POST("/atualizar/:id", s.handleUpdate, authed)
	e.POST("/editar/:id", s.handleUpdate, authed)
	e.GET("/perfil", s.handleProfile, authed)
	e.POST("/perfil", s.handleChangePassword, authed)
	e.GET("/admin-dashboard", s.handleAdmin, authed)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(ctx, "starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
