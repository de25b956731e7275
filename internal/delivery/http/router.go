package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, gatherer prometheus.Gatherer) {
	// Health check
	app.Get("/health", handler.HealthCheck)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Core triage components
		api.Post("/triage", handler.Triage)
		api.Post("/score", handler.Score)
		api.Post("/route", handler.Route)

		// Full pipeline
		api.Post("/requests", handler.SubmitRequest)

		// Read side
		api.Get("/departments/load", handler.GetDepartmentLoad)
		api.Get("/decisions", handler.GetDecisions)
		api.Get("/overview", handler.GetOverview)
		api.Get("/summary", handler.GetSummary)
	}
}
