package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/security"
	"github.com/smartcity/governance/internal/service"
	"github.com/smartcity/governance/internal/triage"
)

// Handler contains all HTTP handlers
type Handler struct {
	routing  *service.RoutingService
	overview *service.OverviewService
	summary  *service.SummaryService
	backlog  service.BacklogProvider
	router   *triage.Router
	repo     service.RequestRepository
	auditor  *security.Auditor
	log      *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(
	routing *service.RoutingService,
	overview *service.OverviewService,
	summary *service.SummaryService,
	backlog service.BacklogProvider,
	router *triage.Router,
	repo service.RequestRepository,
	auditor *security.Auditor,
	log *zap.Logger,
) *Handler {
	return &Handler{
		routing:  routing,
		overview: overview,
		summary:  summary,
		backlog:  backlog,
		router:   router,
		repo:     repo,
		auditor:  auditor,
		log:      log,
	}
}

type triageRequest struct {
	Description string `json:"description"`
	District    string `json:"district"`
}

type scoreRequest struct {
	Urgency       string `json:"urgency"`
	FeedbackScore int    `json:"feedback_score"`
	EstimatedDays int    `json:"estimated_days"`
}

type routeRequest struct {
	Category            string                `json:"category"`
	SuggestedDepartment string                `json:"suggested_department"`
	Load                domain.DepartmentLoad `json:"load"`
}

// HealthCheck returns service and database health
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status, database := "ok", "up"
	code := fiber.StatusOK
	if err := h.repo.Health(c.Context()); err != nil {
		h.log.Warn("Database health check failed", zap.Error(err))
		status, database = "degraded", "down"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"database": database,
		"service":  "governance-triage",
		"version":  "1.0.0",
	})
}

// Triage classifies a description without routing it
func (h *Handler) Triage(c *fiber.Ctx) error {
	var req triageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.routing.Triage(c.Context(), req.Description, req.District)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// Score computes a priority score
func (h *Handler) Score(c *fiber.Ctx) error {
	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	urgency, ok := domain.ParseUrgency(req.Urgency)
	if !ok {
		return domain.NewValidationError("urgency", req.Urgency, "must be one of low, medium, high, critical")
	}
	score, err := triage.Score(urgency, req.FeedbackScore, req.EstimatedDays)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"priority_score": score},
	})
}

// Route picks a department for a category against a caller-supplied load
func (h *Handler) Route(c *fiber.Ctx) error {
	var req routeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		return domain.NewValidationError("category", req.Category, "not a known category")
	}
	if strings.TrimSpace(req.SuggestedDepartment) == "" {
		return domain.NewValidationError("suggested_department", req.SuggestedDepartment, "must not be blank")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"department": h.router.Route(category, req.SuggestedDepartment, req.Load),
			"candidates": h.router.Departments(category),
		},
	})
}

// SubmitRequest runs the full triage and routing pipeline
func (h *Handler) SubmitRequest(c *fiber.Ctx) error {
	var req domain.ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	decision, err := h.routing.RouteRequest(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    decision,
	})
}

// GetDepartmentLoad returns the current backlog snapshot
func (h *Handler) GetDepartmentLoad(c *fiber.Ctx) error {
	load, err := h.backlog.Snapshot(c.Context())
	if err != nil {
		h.log.Error("Failed to fetch department load", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch department load")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    load,
	})
}

// GetDecisions returns recent decisions reduced to the fields the caller's
// role may read. An explicit ?fields= list must be fully readable by the role.
func (h *Handler) GetDecisions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 200 {
		limit = 20
	}
	role := c.Query("role", security.RoleCitizenService)

	if _, err := security.AllowedFields(role); err != nil {
		return fiber.NewError(fiber.StatusForbidden, "Unknown role")
	}

	var fields []string
	if raw := c.Query("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		if !security.ValidateDataAccess(role, fields) {
			return fiber.NewError(fiber.StatusForbidden, "Role may not read the requested fields")
		}
	}

	decisions, err := h.repo.RecentDecisions(c.Context(), limit)
	if err != nil {
		h.log.Error("Failed to fetch decisions", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch decisions")
	}

	data := make([]map[string]any, 0, len(decisions))
	for _, d := range decisions {
		record, err := security.FilterFields(role, decisionRecord(d))
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Unknown role")
		}
		if fields != nil {
			record = pick(record, fields)
		}
		data = append(data, record)
	}

	h.auditor.Record(c.Get("X-User-ID", "anonymous"), "read:"+role, "routing_decisions", time.Now())

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetOverview returns the executive overview
func (h *Handler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.overview.GetOverview(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch overview")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    overview,
	})
}

// GetSummary returns the executive summary
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.summary.Generate(c.Context())
	if err != nil {
		h.log.Error("Failed to generate summary", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to generate summary")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary,
	})
}

// decisionRecord flattens a decision into the field names of the access matrix
func decisionRecord(d domain.RoutingDecision) map[string]any {
	return map[string]any{
		"request_id":          d.RequestID,
		"assigned_department": d.AssignedDepartment,
		"priority_score":      d.PriorityScore,
		"service_category":    d.Category,
		"urgency_level":       d.Urgency,
		"district":            d.District,
		"resolution_time":     d.EstimatedResolutionDays,
		"routing_timestamp":   d.RoutedAt,
	}
}

func pick(record map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := record[f]; ok {
			out[f] = v
		}
	}
	return out
}

// ErrorHandler renders errors as {"error": true, "message": ...}.
// Validation errors become 400 and name the offending field.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": verr.Error(),
			"field":   verr.Field,
		})
	}

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
