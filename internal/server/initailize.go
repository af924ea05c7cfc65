package server

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/metrics"
	"github.com/rxtech-lab/web3-gateway/internal/services"
)

// Services holds the long-lived components shared by the HTTP and MCP surfaces.
type Services struct {
	Settings  *config.Settings
	Chain     services.ChainService
	DB        services.DBService
	Journal   services.TransactionService
	Contracts services.ContractService
	Gateway   services.GatewayService
	Metrics   *metrics.Metrics
}

// InitializeServices connects to the node, opens the journal and wires the dispatcher.
func InitializeServices(ctx context.Context, settings *config.Settings) (*Services, error) {
	chain, err := services.NewChainService(ctx, settings.ProviderURL, logging.WithComponent("chain"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", settings.ProviderURL, err)
	}
	if !chain.IsConnected(ctx) {
		logging.WithComponent("chain").WithField("provider", settings.ProviderURL).Warn("node is not reachable yet")
	}

	db, err := InitializeDatabase(settings)
	if err != nil {
		chain.Close()
		return nil, err
	}

	return InitializeWithChain(settings, chain, db), nil
}

// InitializeDatabase opens Postgres when POSTGRES_URL is set, otherwise SQLite at JOURNAL_DB_PATH.
func InitializeDatabase(settings *config.Settings) (services.DBService, error) {
	if settings.PostgresURL != "" {
		db, err := services.NewPostgresDBService(settings.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres journal: %w", err)
		}
		return db, nil
	}
	db, err := services.NewSqliteDBService(settings.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite journal at %s: %w", settings.JournalPath, err)
	}
	return db, nil
}

// InitializeWithChain wires the remaining components around an existing
// adapter. db may be nil, in which case nothing is journaled.
func InitializeWithChain(settings *config.Settings, chain services.ChainService, db services.DBService) *Services {
	m := metrics.New()

	var journal services.TransactionService
	if db != nil {
		journal = services.NewTransactionService(db.GetDB())
	}

	contracts := services.NewContractService(chain, settings.ABIPath,
		services.WithDefaultABI(settings.DefaultABI),
		services.WithContractMetrics(m),
		services.WithContractLogger(logging.WithComponent("contracts")),
	)
	gateway := services.NewGatewayService(settings, chain, contracts, journal, m, logging.WithComponent("gateway"))

	return &Services{
		Settings:  settings,
		Chain:     chain,
		DB:        db,
		Journal:   journal,
		Contracts: contracts,
		Gateway:   gateway,
		Metrics:   m,
	}
}

// Close releases the node connection and the journal database.
func (s *Services) Close() {
	s.Chain.Close()
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			logging.WithComponent("journal").WithError(err).Warn("failed to close journal database")
		}
	}
}
