package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/tasklist/internal/tasks"
)

func (s *Server) handleIndex(c echo.Context) error {
	ctx := c.Request().Context()
	sess := currentSession(c)
	search := c.QueryParam("q")

	var editID *uint
	if c.Param("id") != "" {
		id, err := taskID(c)
		if err != nil {
			return err
		}
		editID = &id
	}

	list, err := s.deps.Tasks.List(ctx, sess.UserID, search)
	if err != nil {
		s.logger.Error(ctx, "listing tasks", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load tasks")
	}
	stats, err := s.deps.Tasks.Stats(ctx, sess.UserID)
	if err != nil {
		s.logger.Error(ctx, "loading stats", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load tasks")
	}

	return c.JSON(http.StatusOK, IndexResponse{
		User:            UserInfo{ID: sess.UserID, Username: sess.Username},
		Tasks:           list,
		PercentComplete: stats.PercentComplete,
		Search:          search,
		EditID:          editID,
	})
}

func (s *Server) handleAdd(c echo.Context) error {
	sess := currentSession(c)

	_, err := s.deps.Tasks.Add(c.Request().Context(), tasks.AddRequest{
		OwnerID:  sess.UserID,
		Text:     c.FormValue("texto_tarefa"),
		DueDate:  c.FormValue("data_vencimento"),
		Priority: tasks.ParsePriority(c.FormValue("prioridade")),
	})
	return s.afterMutation(c, "add", err)
}

func (s *Server) handleComplete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	err = s.deps.Tasks.SetDone(c.Request().Context(), id, currentSession(c).UserID, s.config.DoneMode)
	return s.afterMutation(c, "set_done", err)
}

func (s *Server) handleDelete(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	err = s.deps.Tasks.Delete(c.Request().Context(), id, currentSession(c).UserID)
	return s.afterMutation(c, "delete", err)
}

func (s *Server) handleUpdate(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	err = s.deps.Tasks.Update(c.Request().Context(), id, currentSession(c).UserID, tasks.UpdateRequest{
		Text:     c.FormValue("novo_texto"),
		DueDate:  c.FormValue("nova_data"),
		Priority: tasks.ParsePriority(c.FormValue("nova_prio")),
	})
	return s.afterMutation(c, "update", err)
}

func (s *Server) handleAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	ov, err := s.deps.Tasks.Overview(ctx)
	if err != nil {
		s.logger.Error(ctx, "loading overview", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load overview")
	}
	return c.JSON(http.StatusOK, ov)
}

// afterMutation redirects to the task list whatever the outcome. Missing,
// foreign and blank tasks look the same as success to the client.
func (s *Server) afterMutation(c echo.Context, op string, err error) error {
	ctx := c.Request().Context()
	switch {
	case err == nil:
	case errors.Is(err, tasks.ErrNotFoundOrForbidden), errors.Is(err, tasks.ErrEmptyText):
		s.logger.Debug(ctx, "task mutation ignored", zap.String("op", op), zap.Error(err))
	default:
		s.logger.Error(ctx, "task mutation failed", zap.String("op", op), zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func taskID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}
