package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/streamline/internal/project"
	"github.com/fyrsmithlabs/streamline/internal/store"
)

// handleHealth reports liveness and store size.
func (s *Server) handleHealth(c echo.Context) error {
	projects, tasks := s.store.Counts()
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Counts: StatusCounts{Projects: projects, Tasks: tasks},
	})
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.store.ListProjects(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, ProjectListResponse{Projects: projects})
}

func (s *Server) handleGetProject(c echo.Context) error {
	p, err := s.store.GetProject(c.Request().Context(), project.ID(c.Param("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid create project request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := s.store.CreateProject(c.Request().Context(), store.NewProject{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Tasks:       req.Tasks,
	})
	if err != nil {
		return toHTTPError(err)
	}

	s.logger.Debug(c.Request().Context(), "project created",
		zap.String("project.id", string(p.ID)),
		zap.Int("tasks", len(p.Tasks)),
	)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleGetTask(c echo.Context) error {
	t, err := s.store.GetTask(c.Request().Context(), project.ID(c.Param("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handlePatchTask(c echo.Context) error {
	var req PatchTaskRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid patch task request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	t, err := s.store.UpdateTask(c.Request().Context(), project.ID(c.Param("id")), store.TaskPatch{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req project.NewTask
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid create task request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	t, err := s.store.CreateTask(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}

	s.logger.Debug(c.Request().Context(), "task created",
		zap.String("project.id", string(t.ProjectID)),
		zap.String("task.id", string(t.ID)),
	)
	return c.JSON(http.StatusCreated, t)
}
