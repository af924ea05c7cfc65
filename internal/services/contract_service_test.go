package services_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
	"github.com/rxtech-lab/web3-gateway/internal/metrics"
	"github.com/rxtech-lab/web3-gateway/internal/services"
	"github.com/rxtech-lab/web3-gateway/internal/services/servicetest"
)

const (
	tokenAddress      = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	tokenAddressLower = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
)

type ContractServiceTestSuite struct {
	suite.Suite
	chain   *servicetest.FakeChain
	abiDir  string
	metrics *metrics.Metrics

	mu    sync.Mutex
	reads map[string]int
}

func (suite *ContractServiceTestSuite) SetupTest() {
	suite.chain = servicetest.NewFakeChain()
	suite.abiDir = suite.T().TempDir()
	suite.metrics = metrics.New()
	suite.reads = make(map[string]int)

	suite.writeABI("Token.json", servicetest.TokenABI)
	suite.writeABI("Ownable.json", servicetest.OwnableABI)
	suite.writeABI("Artifact.json", `{"contractName":"Token","abi":`+servicetest.TokenABI+`}`)
	suite.writeABI("Broken.json", `[{"type":"function","name":`)
}

func (suite *ContractServiceTestSuite) writeABI(name, content string) {
	path := filepath.Join(suite.abiDir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
}

func (suite *ContractServiceTestSuite) readFile(path string) ([]byte, error) {
	suite.mu.Lock()
	suite.reads[path]++
	suite.mu.Unlock()
	return os.ReadFile(path)
}

func (suite *ContractServiceTestSuite) totalReads() int {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	total := 0
	for _, n := range suite.reads {
		total += n
	}
	return total
}

func (suite *ContractServiceTestSuite) newService(opts ...services.ContractServiceOption) services.ContractService {
	opts = append([]services.ContractServiceOption{
		services.WithReadFile(suite.readFile),
		services.WithContractMetrics(suite.metrics),
	}, opts...)
	return services.NewContractService(suite.chain, suite.abiDir, opts...)
}

func (suite *ContractServiceTestSuite) TestLoadABIIsIdempotent() {
	service := suite.newService()
	path := filepath.Join(suite.abiDir, "Token.json")

	first, err := service.LoadABI(path)
	suite.Require().NoError(err)
	second, err := service.LoadABI(path)
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.Same(first, second)
	suite.Equal(1, suite.reads[path], "second load must come from the cache")
	suite.Contains(first.Methods, "transfer")
}

func (suite *ContractServiceTestSuite) TestLoadABIFallsBackToDefaultDirectory() {
	service := suite.newService()

	parsed, err := service.LoadABI("Token.json")
	suite.Require().NoError(err)
	suite.Contains(parsed.Methods, "balanceOf")

	// Cached under the requested name and under the path that succeeded.
	readsBefore := suite.totalReads()
	again, err := service.LoadABI(filepath.Join(suite.abiDir, "Token.json"))
	suite.Require().NoError(err)
	suite.Same(parsed, again)
	suite.Equal(readsBefore, suite.totalReads())
}

func (suite *ContractServiceTestSuite) TestLoadABIArtifact() {
	service := suite.newService()

	parsed, err := service.LoadABI("Artifact.json")
	suite.Require().NoError(err)
	suite.Contains(parsed.Events, "Transfer")
}

func (suite *ContractServiceTestSuite) TestLoadABINotFound() {
	service := suite.newService()

	_, err := service.LoadABI("Missing.json")
	suite.ErrorIs(err, apperr.ErrAbiNotFound)
	suite.EqualError(err, "ABI file not found: Missing.json")
}

func (suite *ContractServiceTestSuite) TestLoadABIParseError() {
	service := suite.newService()

	_, err := service.LoadABI("Broken.json")
	suite.ErrorIs(err, apperr.ErrAbiParse)
	suite.Contains(err.Error(), "Invalid ABI in")
}

func (suite *ContractServiceTestSuite) TestParseABIInline() {
	service := suite.newService()

	parsed, err := service.ParseABI([]byte(servicetest.OwnableABI))
	suite.Require().NoError(err)
	suite.Contains(parsed.Methods, "owner")

	quoted, err := service.ParseABI([]byte(`"[]"`))
	suite.Require().NoError(err)
	suite.Empty(quoted.Methods)

	_, err = service.ParseABI([]byte(`{"bytecode":"0x"}`))
	suite.ErrorIs(err, apperr.ErrAbiParse)
	suite.Equal(0, suite.totalReads())
}

func (suite *ContractServiceTestSuite) TestResolveContractInvalidAddress() {
	service := suite.newService()

	for _, address := range []string{"", "0xInvalidAddr", "0x123", "not-an-address", "0x5fbDB2315678afecb367f032d93F642f64180aa3"} {
		_, err := service.ResolveContract(address, services.ABISource{ABIPath: "Token.json"})
		suite.ErrorIs(err, apperr.ErrInvalidAddress, "address %q", address)
	}
	suite.Equal(0, suite.chain.TotalCalls())
	suite.Equal(0, suite.totalReads())
}

func (suite *ContractServiceTestSuite) TestResolveContractCachesByAddressAndPath() {
	service := suite.newService()

	first, err := service.ResolveContract(tokenAddress, services.ABISource{ABIPath: "Token.json"})
	suite.Require().NoError(err)
	second, err := service.ResolveContract(tokenAddressLower, services.ABISource{ABIPath: "Token.json"})
	suite.Require().NoError(err)

	suite.Same(first, second)
	suite.Equal(1, suite.chain.Calls("Bind"))
	suite.Equal(tokenAddress, first.Address.Hex())

	other, err := service.ResolveContract(tokenAddress, services.ABISource{ABIPath: "Ownable.json"})
	suite.Require().NoError(err)
	suite.NotSame(first, other)
	suite.Equal(2, suite.chain.Calls("Bind"))

	_, hasOwner := other.Function("owner")
	suite.True(hasOwner)
	_, hasTransfer := other.Function("transfer")
	suite.False(hasTransfer)
}

func (suite *ContractServiceTestSuite) TestResolveContractInlineABIsAreKeyedByContent() {
	service := suite.newService()

	token, err := service.ResolveContract(tokenAddress, services.ABISource{ABI: []byte(servicetest.TokenABI)})
	suite.Require().NoError(err)
	ownable, err := service.ResolveContract(tokenAddress, services.ABISource{ABI: []byte(servicetest.OwnableABI)})
	suite.Require().NoError(err)
	suite.NotSame(token, ownable)

	_, hasOwner := ownable.Function("owner")
	suite.True(hasOwner)

	// Formatting differences do not produce a new binding.
	compacted := strings.Join(strings.Fields(servicetest.TokenABI), "")
	again, err := service.ResolveContract(tokenAddress, services.ABISource{ABI: []byte(compacted)})
	suite.Require().NoError(err)
	suite.Same(token, again)
	suite.Equal(2, suite.chain.Calls("Bind"))
}

func (suite *ContractServiceTestSuite) TestResolveContractQuotedInlineABIsAreKeyedByContent() {
	service := suite.newService()

	quote := func(document string) []byte {
		quoted, err := json.Marshal(document)
		suite.Require().NoError(err)
		return quoted
	}

	raw, err := service.ResolveContract(tokenAddress, services.ABISource{ABI: []byte(servicetest.TokenABI)})
	suite.Require().NoError(err)
	quoted, err := service.ResolveContract(tokenAddress, services.ABISource{ABI: quote(servicetest.TokenABI)})
	suite.Require().NoError(err)
	spaced, err := service.ResolveContract(tokenAddress, services.ABISource{ABI: quote("\n  " + servicetest.TokenABI + "\n")})
	suite.Require().NoError(err)

	suite.Same(raw, quoted)
	suite.Same(raw, spaced)
	suite.Equal(1, suite.chain.Calls("Bind"))
}

func (suite *ContractServiceTestSuite) TestResolveContractInlineTakesPrecedence() {
	service := suite.newService()

	binding, err := service.ResolveContract(tokenAddress, services.ABISource{
		ABIPath: "Token.json",
		ABI:     []byte(servicetest.OwnableABI),
	})
	suite.Require().NoError(err)
	_, hasOwner := binding.Function("owner")
	suite.True(hasOwner)
	suite.Equal(0, suite.totalReads())
}

func (suite *ContractServiceTestSuite) TestResolveContractRequiresABISource() {
	service := suite.newService()

	_, err := service.ResolveContract(tokenAddress, services.ABISource{})
	suite.ErrorIs(err, apperr.ErrMissingField)
	suite.EqualError(err, "Either abi_path or abi must be provided")

	_, err = service.ResolveContract(tokenAddress, services.ABISource{ABI: []byte("null")})
	suite.ErrorIs(err, apperr.ErrMissingField)
	suite.Equal(0, suite.chain.TotalCalls())
}

func (suite *ContractServiceTestSuite) TestResolveContractUsesDefaultABI() {
	service := suite.newService(services.WithDefaultABI("Token.json"))

	binding, err := service.ResolveContract(tokenAddress, services.ABISource{})
	suite.Require().NoError(err)
	_, ok := binding.Event("Transfer")
	suite.True(ok)
}

func (suite *ContractServiceTestSuite) TestResolveContractPropagatesABIErrors() {
	service := suite.newService()

	_, err := service.ResolveContract(tokenAddress, services.ABISource{ABIPath: "Missing.json"})
	suite.ErrorIs(err, apperr.ErrAbiNotFound)

	_, err = service.ResolveContract(tokenAddress, services.ABISource{ABI: []byte(`[{"type":`)})
	suite.ErrorIs(err, apperr.ErrAbiParse)
	suite.Equal(0, suite.chain.Calls("Bind"))
}

func (suite *ContractServiceTestSuite) TestResolveContractConcurrentAccess() {
	service := suite.newService()

	var wg sync.WaitGroup
	bindings := make([]*services.ContractBinding, 16)
	for i := range bindings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			binding, err := service.ResolveContract(tokenAddress, services.ABISource{ABIPath: "Token.json"})
			suite.NoError(err)
			bindings[i] = binding
		}(i)
	}
	wg.Wait()

	for _, binding := range bindings {
		suite.Require().NotNil(binding)
		suite.Equal(tokenAddress, binding.Address.Hex())
	}

	// Once the cache is warm every caller sees the same binding.
	warm, err := service.ResolveContract(tokenAddress, services.ABISource{ABIPath: "Token.json"})
	suite.Require().NoError(err)
	again, err := service.ResolveContract(tokenAddress, services.ABISource{ABIPath: "Token.json"})
	suite.Require().NoError(err)
	suite.Same(warm, again)
}

func TestContractServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContractServiceTestSuite))
}
