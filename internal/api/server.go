package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/metrics"
	"github.com/rxtech-lab/web3-gateway/internal/services"
)

type APIServer struct {
	app      *fiber.App
	settings *config.Settings
	gateway  services.GatewayService
	metrics  *metrics.Metrics
	logger   logging.Logger
	port     int
}

func NewAPIServer(settings *config.Settings, gateway services.GatewayService, m *metrics.Metrics, log logging.Logger) *APIServer {
	if log == nil {
		log = logging.Discard()
	}
	if m == nil {
		m = metrics.New()
	}
	server := &APIServer{
		settings: settings,
		gateway:  gateway,
		metrics:  m,
		logger:   log,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONDecoder:           decodeJSON,
		ErrorHandler:          server.handleError,
	})

	// Add middleware
	app.Use(server.observeRequest)
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Output:     logging.Writer(),
	}))

	server.app = app
	return server
}

func (s *APIServer) SetupRoutes() {
	s.app.Get("/", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	api := s.app.Group("/api")
	api.Get("/balance/:address", s.handleGetBalance)

	api.Post("/contract/call", s.handleCallFunction)
	api.Post("/contract/transaction", s.handleSendTransaction)
	api.Post("/contract/estimate-gas", s.handleEstimateGas)
	api.Post("/contract/events", s.handleGetEvents)

	api.Get("/transaction/:tx_hash", s.handleGetTransaction)
	api.Post("/transaction/:tx_hash/wait", s.handleWaitForReceipt)
	api.Get("/transactions", s.handleListTransactions)
}

// Start listens on the configured host. A nil port picks a free one.
func (s *APIServer) Start(port *int) (int, error) {
	host := ""
	if s.settings != nil {
		host = s.settings.Host
	}
	listenPort := 0
	if port != nil {
		listenPort = *port
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(listenPort)))
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s:%d: %w", host, listenPort, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := s.app.Listener(listener); err != nil {
			s.logger.WithError(err).Error("API server stopped")
		}
	}()

	s.logger.WithField("port", s.port).Info("API server listening")
	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// GetFiberApp exposes the app for in-process requests in tests.
func (s *APIServer) GetFiberApp() *fiber.App {
	return s.app
}

// observeRequest counts every request by route pattern and final status.
func (s *APIServer) observeRequest(c *fiber.Ctx) error {
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		status, _ = statusFor(err)
	}
	route := c.Route().Path
	if status == fiber.StatusNotFound && route == "/" && c.Path() != "/" {
		route = "unmatched"
	}
	s.metrics.ObserveRequest(c.Method(), route, status)
	return err
}

// handleError renders every failure as {success: false, error}.
func (s *APIServer) handleError(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.WithError(err).WithFields(logging.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("request failed")
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func statusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case apperr.IsDomain(err):
		return fiber.StatusBadRequest, err.Error()
	case errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusNotFound:
		return fiber.StatusNotFound, "Endpoint not found"
	case errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError:
		return fiberErr.Code, fiberErr.Message
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// decodeJSON keeps numbers as json.Number so large integers survive intact.
func decodeJSON(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}

// parseBody decodes a JSON request body regardless of the Content-Type header.
func parseBody(c *fiber.Ctx, v any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		body = []byte("{}")
	}
	if err := decodeJSON(body, v); err != nil {
		return apperr.Wrap(apperr.ErrInvalidArgument, err, "Invalid JSON body: %v", err)
	}
	return nil
}
