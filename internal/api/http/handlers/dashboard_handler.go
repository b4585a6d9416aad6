package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ispdesk/ticket-system/internal/service"
	apperrors "github.com/ispdesk/ticket-system/pkg/util"
)

// DashboardHandler serves the operational dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboardService}
}

// Summary GET /dashboard.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	if days < 0 || days > 365 {
		return apperrors.NewValidationError("days must be between 1 and 365", nil)
	}
	summary, err := h.dashboard.Summary(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}
