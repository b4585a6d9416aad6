package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ispdesk/ticket-system/internal/geoip"
	apperrors "github.com/ispdesk/ticket-system/pkg/util"
)

// ExternalHandler exposes the IP and geolocation lookups directly.
type ExternalHandler struct {
	geo *geoip.Client
}

// NewExternalHandler constructs handler.
func NewExternalHandler(geo *geoip.Client) *ExternalHandler {
	return &ExternalHandler{geo: geo}
}

// Test GET /external/ipify/test.
func (h *ExternalHandler) Test(c *fiber.Ctx) error {
	if !h.geo.TestConnection(c.UserContext()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"data": fiber.Map{
			"reachable": false,
		}})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reachable": true}})
}

// ClientIP GET /external/ipify/client-ip.
func (h *ExternalHandler) ClientIP(c *fiber.Ctx) error {
	ip := h.geo.ClientIP(c.UserContext())
	if ip == "" {
		return apperrors.NewDependencyUnavailable("ip lookup service unavailable")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ip": ip}})
}

// IPInfo GET /external/ipify/ip-info/:ip?. Without an ip parameter the
// server's own public IP is looked up first.
func (h *ExternalHandler) IPInfo(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if ip == "" {
		ip = h.geo.ClientIP(c.UserContext())
		if ip == "" {
			return apperrors.NewDependencyUnavailable("ip lookup service unavailable")
		}
	}
	info := h.geo.IPInfo(c.UserContext(), ip)
	if info == nil {
		return apperrors.NewDependencyUnavailable("geolocation service unavailable")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"ip":  ip,
		"geo": info,
	}})
}
