package api

import (
	"github.com/gofiber/fiber/v2"
)

// handleHealth reports liveness together with the node's network info.
func (s *APIServer) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "Web3 gateway is running",
		"network": s.gateway.NetworkInfo(c.UserContext()),
	})
}
