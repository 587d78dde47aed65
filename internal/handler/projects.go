// Package handler exposes the HTTP handlers of the projects API.  Every
// error response has the shape {"error": "<message>"}.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-ranking/internal/model"
	"github.com/iliyamo/project-ranking/internal/repository"
)

const (
	// weeklyTopSize is how many projects the weekly ranking returns.
	weeklyTopSize = 10
	searchSize    = 10
	// minQueryLen is the shortest name fragment /search accepts.
	minQueryLen = 2
)

// ProjectStore is the subset of repository.ProjectRepo used by the handlers.
type ProjectStore interface {
	ListByScore(ctx context.Context) ([]model.Project, error)
	GetByID(ctx context.Context, id int64) (model.Project, error)
	SearchByName(ctx context.Context, q string, limit int) ([]model.Project, error)
}

// HistoryStore is the subset of repository.RatingHistoryRepo used by the handlers.
type HistoryStore interface {
	ListByProject(ctx context.Context, projectID int64) ([]*model.RatingChange, error)
	TotalsSince(ctx context.Context, since time.Time, limit int) ([]repository.ProjectTotal, error)
}

// ProjectHandler serves the read-only project endpoints.  It keeps no state
// between requests; the stores share the process-wide connection pool.
type ProjectHandler struct {
	Projects ProjectStore
	History  HistoryStore
	Now      func() time.Time // clock for the weekly window, time.Now when nil
}

// NewProjectHandler constructs a ProjectHandler and panics if a store is nil.
func NewProjectHandler(projects ProjectStore, history HistoryStore) *ProjectHandler {
	if projects == nil || history == nil {
		panic("nil store passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: projects, History: history}
}

// ListProjects returns the whole projects table ordered by score, highest
// first.  Any failure of the data layer is answered with 500 and the raw
// error message; nothing is retried.
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	projects, err := h.Projects.ListByScore(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// Search finds projects by a case-insensitive name fragment given in ?q=,
// best scored first, at most ten of them.
func (h *ProjectHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if utf8.RuneCountInString(q) < minQueryLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query too short"})
	}
	projects, err := h.Projects.SearchByName(c.Request().Context(), q, searchSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// ListHistory returns the rating history of one project, newest first.
func (h *ProjectHandler) ListHistory(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	// ensure project exists
	if _, err := h.Projects.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	changes, err := h.History.ListByProject(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if changes == nil {
		changes = []*model.RatingChange{}
	}
	return c.JSON(http.StatusOK, changes)
}

// WeeklyTop ranks projects by how much their score moved during the last
// seven days.  Each element is the project row with an extra weekly_change
// key.  Projects deleted since the change was recorded are skipped.
func (h *ProjectHandler) WeeklyTop(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	totals, err := h.History.TotalsSince(ctx, now().Add(-7*24*time.Hour), weeklyTopSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	out := make([]model.Project, 0, len(totals))
	for _, t := range totals {
		p, err := h.Projects.GetByID(ctx, t.ProjectID)
		if err != nil {
			if errors.Is(err, repository.ErrProjectNotFound) {
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		p["weekly_change"] = t.Total
		out = append(out, p)
	}
	return c.JSON(http.StatusOK, out)
}
