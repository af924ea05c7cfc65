package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rxtech-lab/web3-gateway/internal/utils"
)

// handleGetBalance returns an account's balance in ether as an exact JSON number.
func (s *APIServer) handleGetBalance(c *fiber.Ctx) error {
	address := c.Params("address")
	balance, err := s.gateway.GetBalance(c.UserContext(), address)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"address": address,
		"balance": utils.EtherNumber(balance),
		"unit":    "ETH",
	})
}
