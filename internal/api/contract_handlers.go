package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rxtech-lab/web3-gateway/internal/services"
)

func (s *APIServer) handleCallFunction(c *fiber.Ctx) error {
	var args services.CallFunctionArgs
	if err := parseBody(c, &args); err != nil {
		return err
	}

	result, err := s.gateway.CallFunction(c.UserContext(), args)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"result":           result,
		"contract_address": args.ContractAddress,
		"function_name":    args.FunctionName,
	})
}

func (s *APIServer) handleSendTransaction(c *fiber.Ctx) error {
	var args services.SendTransactionArgs
	if err := parseBody(c, &args); err != nil {
		return err
	}

	hash, err := s.gateway.SendTransaction(c.UserContext(), args)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"transaction_hash": hash,
		"contract_address": args.ContractAddress,
		"function_name":    args.FunctionName,
	})
}

func (s *APIServer) handleEstimateGas(c *fiber.Ctx) error {
	var args services.SendTransactionArgs
	if err := parseBody(c, &args); err != nil {
		return err
	}

	gas, err := s.gateway.EstimateGas(c.UserContext(), args)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"gas_estimate":     gas,
		"contract_address": args.ContractAddress,
		"function_name":    args.FunctionName,
	})
}

// handleGetEvents returns decoded logs for one event over a block range.
func (s *APIServer) handleGetEvents(c *fiber.Ctx) error {
	var args services.GetEventsArgs
	if err := parseBody(c, &args); err != nil {
		return err
	}

	events, err := s.gateway.GetEvents(c.UserContext(), args)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"events":  events,
		"count":   len(events),
	})
}
