package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/backup"
)

// handleHealth reports the service and, when configured, storage health.
func (s *Server) handleHealth(c echo.Context) error {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(c.Request().Context()); err != nil {
			s.logger.Warn(c.Request().Context(), "health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Service: s.config.ServiceName})
		}
	}
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: s.config.ServiceName})
}

// handleBackup runs the backup job synchronously and reports its outcome.
func (s *Server) handleBackup(c echo.Context) error {
	if s.deps.Backup == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "backup is not configured")
	}

	// remote_ip honours X-Forwarded-For; remote_addr is the TCP peer.
	s.logger.Warn(c.Request().Context(), "manual backup triggered",
		zap.String("remote_ip", c.RealIP()),
		zap.String("remote_addr", c.Request().RemoteAddr))

	// A client that hangs up does not abort a send that is under way.
	ctx := context.WithoutCancel(c.Request().Context())
	out := s.deps.Backup.Run(ctx, backup.TriggerManual)
	return c.JSON(http.StatusOK, BackupResponse{
		Status:  out.Status,
		Reason:  out.Reason,
		Message: out.String(),
	})
}
