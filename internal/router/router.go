// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/project-ranking/internal/handler"
	"github.com/iliyamo/project-ranking/internal/middleware"
)

// New builds an Echo instance with the shared middleware stack: panic
// recovery, request logging and CORS for the configured origins.
func New(corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// "/api/projects/" must reach the same handler as "/api/projects"
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORS(corsOrigins))
	return e
}

// RegisterRoutes registers the health endpoints.  They can be used by load
// balancers or monitoring systems to verify that the service is up and that
// the database answers.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready.Ready)
}

// RegisterProjects registers the unauthenticated project endpoints.
func RegisterProjects(e *echo.Echo, p *handler.ProjectHandler) {
	g := e.Group("/api/projects")
	// full table, highest score first
	g.GET("", p.ListProjects)
	g.GET("/search", p.Search)
	g.GET("/top/weekly", p.WeeklyTop)
	g.GET("/:id/history", p.ListHistory)
}
