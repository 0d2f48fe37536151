package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/auth"
)

const (
	noticeInvalidCredentials = "Access denied: invalid credentials."
	noticeUserExists         = "Username already registered."
	noticeMissingFields      = "Username and password are required."
	noticePasswordChanged    = "Password updated."
	noticeWrongPassword      = "Current password is incorrect."
	noticeNewPasswordMissing = "New password is required."
)

func (s *Server) handleLoginScreen(c echo.Context) error {
	return c.JSON(http.StatusOK, ScreenResponse{Screen: "login", Fields: []string{"usuario", "senha"}})
}

func (s *Server) handleRegisterScreen(c echo.Context) error {
	return c.JSON(http.StatusOK, ScreenResponse{Screen: "cadastro", Fields: []string{"usuario", "senha"}})
}

func (s *Server) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()
	username := c.FormValue("usuario")

	user, err := s.deps.Auth.Login(ctx, username, c.FormValue("senha"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Info(ctx, "login rejected", zap.String("user.name", username))
		return c.JSON(http.StatusUnauthorized, Notice{Message: noticeInvalidCredentials})
	}
	if err != nil {
		s.logger.Error(ctx, "login failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	// Drop any session the browser already had.
	if old, err := s.sessionFromCookie(c); err == nil {
		s.deps.Sessions.Delete(old.ID)
	}

	sess := s.deps.Sessions.Create(user.ID, user.Username)
	if err := s.setCookie(c, sess); err != nil {
		s.deps.Sessions.Delete(sess.ID)
		s.logger.Error(ctx, "issuing session cookie", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	s.logger.Info(ctx, "user logged in", zap.Uint("user.id", user.ID), zap.String("user.name", user.Username))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	_, err := s.deps.Auth.Register(ctx, c.FormValue("usuario"), c.FormValue("senha"))
	switch {
	case errors.Is(err, auth.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, Notice{Message: noticeUserExists})
	case errors.Is(err, auth.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, Notice{Message: noticeMissingFields})
	case err != nil:
		s.logger.Error(ctx, "registration failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handleLogout(c echo.Context) error {
	if sess := currentSession(c); sess != nil {
		s.deps.Sessions.Delete(sess.ID)
	}
	s.clearCookie(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handleProfile(c echo.Context) error {
	return s.renderProfile(c, http.StatusOK, "")
}

func (s *Server) handleChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	err := s.deps.Auth.ChangePassword(ctx, sess.UserID, c.FormValue("senha_atual"), c.FormValue("nova_senha"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.logger.Info(ctx, "password change rejected")
		return s.renderProfile(c, http.StatusUnauthorized, noticeWrongPassword)
	case errors.Is(err, auth.ErrInvalidInput):
		return s.renderProfile(c, http.StatusBadRequest, noticeNewPasswordMissing)
	case err != nil:
		s.logger.Error(ctx, "password change failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "password change failed")
	}

	return s.renderProfile(c, http.StatusOK, noticePasswordChanged)
}

func (s *Server) renderProfile(c echo.Context, status int, notice string) error {
	ctx := c.Request().Context()
	sess := currentSession(c)

	stats, err := s.deps.Tasks.Stats(ctx, sess.UserID)
	if err != nil {
		s.logger.Error(ctx, "loading stats", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load profile")
	}

	return c.JSON(status, ProfileResponse{
		User:   UserInfo{ID: sess.UserID, Username: sess.Username},
		Stats:  stats,
		Notice: notice,
	})
}
