package handler

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rxtech-lab/web3-gateway/internal/api"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/server"
)

var (
	initOnce sync.Once
	initErr  error
	app      http.HandlerFunc
)

// Handler is the Vercel function entry point. The gateway is built on the
// first request and reused for the lifetime of the function instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(func() {
		app, initErr = initializeAPIServer(r.Context())
	})
	if initErr != nil {
		logging.WithComponent("vercel").WithError(initErr).Error("failed to initialize API server")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	app(w, r)
}

func initializeAPIServer(ctx context.Context) (http.HandlerFunc, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Init(settings.LogLevel, settings.LogFile, os.Stderr); err != nil {
		return nil, err
	}

	// The chain connection outlives the first request.
	svcs, err := server.InitializeServices(context.WithoutCancel(ctx), settings)
	if err != nil {
		return nil, err
	}

	apiServer := api.NewAPIServer(settings, svcs.Gateway, svcs.Metrics, logging.WithComponent("api"))
	apiServer.SetupRoutes()
	return adaptor.FiberApp(apiServer.GetFiberApp()), nil
}
