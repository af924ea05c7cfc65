package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

func (s *APIServer) handleGetTransaction(c *fiber.Ctx) error {
	details, err := s.gateway.GetTransaction(c.UserContext(), c.Params("tx_hash"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": details,
	})
}

// handleWaitForReceipt blocks until the transaction is mined or ?timeout= seconds pass.
func (s *APIServer) handleWaitForReceipt(c *fiber.Ctx) error {
	timeout := c.QueryInt("timeout", services.DefaultReceiptTimeoutSeconds)
	receipt, err := s.gateway.WaitForReceipt(c.UserContext(), c.Params("tx_hash"), timeout)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"receipt": receipt,
	})
}

// handleListTransactions lists journaled transactions, newest first.
func (s *APIServer) handleListTransactions(c *fiber.Ctx) error {
	txs, err := s.gateway.ListTransactions(c.QueryInt("limit", 0))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"transactions": txs,
		"count":        len(txs),
	})
}
