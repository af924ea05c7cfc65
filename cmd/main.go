package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rxtech-lab/web3-gateway/internal/api"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/mcp"
	"github.com/rxtech-lab/web3-gateway/internal/server"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "web3-gateway",
		Short: "HTTP and MCP gateway to an Ethereum node",
		Long: `web3-gateway exposes balance lookups, contract calls, transaction submission,
transaction and receipt lookups, event logs and gas estimation over REST and MCP.

Configuration is read from the environment, optionally seeded from a .env file.
WEB3_PROVIDER_URL is required. Set PRIVATE_KEY and WALLET_ADDRESS to send transactions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file to seed the environment from; missing files are ignored")

	root.AddCommand(newServeCommand(), newMCPCommand(), newVersionCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(os.Stdout)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				settings.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, settings)
		},
	}
	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "address to listen on (overrides HOST)")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "port to listen on (overrides PORT)")
	return cmd
}

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the gateway tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol, so logs go to stderr unless LOG_FILE is set.
			settings, err := loadSettings(os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveMCP(ctx, settings, os.Stdin, os.Stdout)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Web3 Gateway\n")
			fmt.Fprintf(out, "Version: %s\n", Version)
			fmt.Fprintf(out, "Commit: %s\n", CommitHash)
			fmt.Fprintf(out, "Built: %s\n", BuildTime)
		},
	}
}

// loadSettings reads the configuration and sets up the process logger.
func loadSettings(logOutput io.Writer) (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return nil, err
	}
	if settings.Debug && settings.LogLevel == config.DefaultLogLevel {
		settings.LogLevel = "debug"
	}
	if err := logging.Init(settings.LogLevel, settings.LogFile, logOutput); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return settings, nil
}

func serve(ctx context.Context, settings *config.Settings) error {
	log := logging.WithComponent("cmd")

	svcs, err := server.InitializeServices(ctx, settings)
	if err != nil {
		return err
	}
	defer svcs.Close()

	apiServer := api.NewAPIServer(settings, svcs.Gateway, svcs.Metrics, logging.WithComponent("api"))
	apiServer.SetupRoutes()

	port := settings.Port
	startedPort, err := apiServer.Start(&port)
	if err != nil {
		return err
	}
	log.WithFields(logging.Fields{
		"host":       settings.Host,
		"port":       startedPort,
		"network":    settings.NetworkName,
		"signer":     settings.HasCredential(),
		"abi_dir":    settings.ABIPath,
		"journal":    settings.JournalPath,
		"postgres":   settings.PostgresURL != "",
		"debug":      settings.Debug,
		"rate_limit": settings.RateLimit,
	}).Info("web3 gateway started")

	<-ctx.Done()
	log.Info("shutting down")
	return apiServer.Shutdown()
}

func serveMCP(ctx context.Context, settings *config.Settings, stdin io.Reader, stdout io.Writer) error {
	svcs, err := server.InitializeServices(ctx, settings)
	if err != nil {
		return err
	}
	defer svcs.Close()

	logging.WithComponent("cmd").WithField("network", settings.NetworkName).Info("MCP server started on stdio")
	return mcp.NewMCPServer(svcs.Gateway, Version).StartStdioServer(ctx, stdin, stdout)
}
