package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/loyalty-service/internal/observability"
	"github.com/spec-kit/loyalty-service/internal/service"
)

// ReportsHandler exposes the read-only validation reporting surface.
type ReportsHandler struct {
	reports *service.ReportService
	metrics *observability.Metrics
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService, metrics *observability.Metrics) *ReportsHandler {
	return &ReportsHandler{reports: reportService, metrics: metrics}
}

// RecentEvents handles GET /reports/validations.
func (h *ReportsHandler) RecentEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	events, err := h.reports.RecentEvents(c.Context(), limit)
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(events))
	for _, event := range events {
		items = append(items, fiber.Map{
			"id":             event.ID,
			"purpose":        event.Purpose,
			"label":          event.Label,
			"member_id":      event.SubjectID,
			"validator_id":   event.ValidatorID,
			"validator_role": event.ValidatorRole,
			"outcome":        event.Outcome,
			"created_at":     event.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats handles GET /reports/validations/stats.
func (h *ReportsHandler) Stats(c *fiber.Ctx) error {
	window := c.QueryInt("window_hours", 24)
	stats, err := h.reports.Stats(c.Context(), window)
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(stats))
	for _, stat := range stats {
		items = append(items, fiber.Map{
			"purpose": stat.Purpose,
			"outcome": stat.Outcome,
			"count":   stat.Count,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Metrics handles GET /reports/metrics: in-process verdict counters
// since startup, keyed purpose|verdict.
func (h *ReportsHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"verdicts": h.metrics.Snapshot(),
	}})
}
