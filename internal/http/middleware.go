package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/logging"
	"github.com/fyrsmithlabs/tasklist/internal/session"
)

const sessionKey = "session"

// requestLogger logs each request and puts the request id into the request
// context so downstream logs carry it.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if id := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidID(id) {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			s.logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)

			// The error was already handled above.
			return nil
		}
	}
}

// requireSession resolves the session cookie to a live session, or
// redirects to /login.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := s.sessionFromCookie(c)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				s.logger.Warn(c.Request().Context(), "rejected session cookie", zap.Error(err))
				s.clearCookie(c)
			}
			return c.Redirect(http.StatusSeeOther, "/login")
		}

		c.Set(sessionKey, sess)
		req := c.Request()
		ctx := logging.WithSessionID(req.Context(), sess.ID)
		ctx = logging.WithUser(ctx, &logging.User{ID: sess.UserID, Name: sess.Username})
		c.SetRequest(req.WithContext(ctx))

		return next(c)
	}
}

// sessionFromCookie returns the session the request's cookie refers to.
func (s *Server) sessionFromCookie(c echo.Context) (*session.Session, error) {
	cookie, err := c.Cookie(s.config.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, session.ErrNotFound
	}
	id, err := s.deps.Codec.Decode(cookie.Value)
	if err != nil {
		return nil, err
	}
	return s.deps.Sessions.Get(id)
}

func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionKey).(*session.Session)
	return sess
}

func (s *Server) setCookie(c echo.Context, sess *session.Session) error {
	token, err := s.deps.Codec.Encode(sess)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     s.config.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
