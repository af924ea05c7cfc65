package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
	"github.com/rxtech-lab/web3-gateway/internal/config"
	"github.com/rxtech-lab/web3-gateway/internal/services"
	"github.com/rxtech-lab/web3-gateway/internal/services/servicetest"
)

func TestInitializeDatabase(t *testing.T) {
	t.Run("sqlite_by_default", func(t *testing.T) {
		db, err := InitializeDatabase(&config.Settings{JournalPath: ":memory:"})
		require.NoError(t, err)
		defer db.Close()
		assert.NotNil(t, db.GetDB())
	})

	t.Run("sqlite_file", func(t *testing.T) {
		db, err := InitializeDatabase(&config.Settings{JournalPath: t.TempDir() + "/journal/gateway.db"})
		require.NoError(t, err)
		assert.NoError(t, db.Close())
	})
}

func TestInitializeWithChain(t *testing.T) {
	chain := servicetest.NewFakeChain()
	db, err := InitializeDatabase(&config.Settings{JournalPath: ":memory:"})
	require.NoError(t, err)

	settings := &config.Settings{
		NetworkID:  5,
		ABIPath:    t.TempDir(),
		DefaultABI: "",
		GasLimit:   3_000_000,
	}
	svcs := InitializeWithChain(settings, chain, db)
	defer svcs.Close()

	require.NotNil(t, svcs.Gateway)
	require.NotNil(t, svcs.Journal)
	require.NotNil(t, svcs.Metrics)

	info := svcs.Gateway.NetworkInfo(context.Background())
	assert.True(t, info.IsTestnet)

	_, err = svcs.Gateway.CallFunction(context.Background(), services.CallFunctionArgs{
		ContractAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		FunctionName:    "balanceOf",
	})
	assert.ErrorIs(t, err, apperr.ErrMissingField)
}

func TestInitializeWithChainWithoutJournal(t *testing.T) {
	svcs := InitializeWithChain(&config.Settings{GasLimit: 3_000_000}, servicetest.NewFakeChain(), nil)
	defer svcs.Close()

	assert.Nil(t, svcs.Journal)
	txs, err := svcs.Gateway.ListTransactions(10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestInitializeServicesRejectsBadURL(t *testing.T) {
	_, err := InitializeServices(context.Background(), &config.Settings{ProviderURL: "ftp://nowhere"})
	assert.Error(t, err)
}
