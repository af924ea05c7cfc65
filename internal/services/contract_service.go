package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
	"github.com/rxtech-lab/web3-gateway/internal/logging"
	"github.com/rxtech-lab/web3-gateway/internal/metrics"
	"github.com/rxtech-lab/web3-gateway/internal/utils"
)

const inlineABIPrefix = "custom:"

// ABISource names where a contract's ABI comes from. Inline wins over Path.
type ABISource struct {
	ABIPath string          `json:"abi_path,omitempty"`
	ABI     json.RawMessage `json:"abi,omitempty"`
}

func (s ABISource) hasInline() bool {
	trimmed := bytes.TrimSpace(s.ABI)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte(`""`))
}

// ContractService resolves addresses and ABI sources into cached bindings.
type ContractService interface {
	LoadABI(path string) (*abi.ABI, error)
	ParseABI(document []byte) (*abi.ABI, error)
	ResolveContract(address string, source ABISource) (*ContractBinding, error)
}

type ContractServiceOption func(*contractService)

// WithReadFile replaces the function used to read ABI files.
func WithReadFile(readFile func(string) ([]byte, error)) ContractServiceOption {
	return func(s *contractService) {
		s.readFile = readFile
	}
}

// WithDefaultABI sets the ABI file used when a request names no ABI.
func WithDefaultABI(path string) ContractServiceOption {
	return func(s *contractService) {
		s.defaultABI = path
	}
}

func WithContractMetrics(m *metrics.Metrics) ContractServiceOption {
	return func(s *contractService) {
		s.metrics = m
	}
}

func WithContractLogger(logger logging.Logger) ContractServiceOption {
	return func(s *contractService) {
		s.logger = logger
	}
}

type contractService struct {
	chain      ChainService
	abiDir     string
	defaultABI string
	readFile   func(string) ([]byte, error)
	metrics    *metrics.Metrics
	logger     logging.Logger

	abiMu sync.RWMutex
	abis  map[string]*abi.ABI

	contractMu sync.RWMutex
	contracts  map[string]*ContractBinding
}

// NewContractService builds a resolver whose caches live as long as it does.
// Relative ABI paths that do not exist are retried under abiDir.
func NewContractService(chain ChainService, abiDir string, opts ...ContractServiceOption) ContractService {
	s := &contractService{
		chain:     chain,
		abiDir:    abiDir,
		readFile:  os.ReadFile,
		logger:    logging.Discard(),
		abis:      make(map[string]*abi.ABI),
		contracts: make(map[string]*ContractBinding),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadABI returns the parsed ABI at path, reading the file at most once per path.
func (s *contractService) LoadABI(path string) (*abi.ABI, error) {
	s.abiMu.RLock()
	cached, ok := s.abis[path]
	s.abiMu.RUnlock()
	if ok {
		s.metrics.CacheHit(metrics.CacheABI)
		return cached, nil
	}
	s.metrics.CacheMiss(metrics.CacheABI)

	for _, candidate := range s.candidatePaths(path) {
		data, err := s.readFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrAbiNotFound, err, "Failed to read ABI file %s: %v", candidate, err)
		}

		parsed, err := parseABIDocument(data)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrAbiParse, err, "Invalid ABI in %s: %v", candidate, err)
		}

		s.abiMu.Lock()
		s.abis[path] = parsed
		s.abis[candidate] = parsed
		s.abiMu.Unlock()

		s.logger.WithField("path", candidate).Debug("loaded ABI")
		return parsed, nil
	}

	return nil, apperr.New(apperr.ErrAbiNotFound, "ABI file not found: %s", path)
}

func (s *contractService) candidatePaths(path string) []string {
	candidates := []string{path}
	if s.abiDir == "" || filepath.IsAbs(path) {
		return candidates
	}
	joined := filepath.Join(s.abiDir, path)
	if joined != path {
		candidates = append(candidates, joined)
	}
	return candidates
}

// ParseABI parses an inline ABI document. Inline documents are never cached by path.
func (s *contractService) ParseABI(document []byte) (*abi.ABI, error) {
	parsed, err := parseABIDocument(document)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrAbiParse, err, "Invalid ABI: %v", err)
	}
	return parsed, nil
}

// parseABIDocument accepts a JSON array, an artifact object with an "abi"
// field, or a JSON string holding either.
func parseABIDocument(document []byte) (*abi.ABI, error) {
	document, err := unquoteABIDocument(document)
	if err != nil {
		return nil, err
	}

	if len(document) > 0 && document[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(document, &artifact); err != nil {
			return nil, err
		}
		if len(artifact.ABI) == 0 {
			return nil, errors.New("object has no abi field")
		}
		document = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(document))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// unquoteABIDocument unwraps a document sent as a JSON string.
func unquoteABIDocument(document []byte) ([]byte, error) {
	document = bytes.TrimSpace(document)
	if len(document) == 0 || document[0] != '"' {
		return document, nil
	}
	var inner string
	if err := json.Unmarshal(document, &inner); err != nil {
		return nil, err
	}
	return bytes.TrimSpace([]byte(inner)), nil
}

// ResolveContract returns the binding for address and source, building and
// caching it on first use. Inline ABIs are keyed by a hash of their content.
func (s *contractService) ResolveContract(address string, source ABISource) (*ContractBinding, error) {
	if !utils.IsValidEthereumAddress(address) {
		return nil, apperr.New(apperr.ErrInvalidAddress, "Invalid contract address: %s", address)
	}
	checksum := common.HexToAddress(address)

	identifier, err := s.abiIdentifier(source)
	if err != nil {
		return nil, err
	}
	key := checksum.Hex() + "_" + identifier

	s.contractMu.RLock()
	cached, ok := s.contracts[key]
	s.contractMu.RUnlock()
	if ok {
		s.metrics.CacheHit(metrics.CacheContract)
		return cached, nil
	}
	s.metrics.CacheMiss(metrics.CacheContract)

	var parsed *abi.ABI
	if source.hasInline() {
		parsed, err = s.ParseABI(source.ABI)
	} else {
		parsed, err = s.LoadABI(identifier)
	}
	if err != nil {
		return nil, err
	}

	binding := s.chain.Bind(checksum, parsed)

	s.contractMu.Lock()
	s.contracts[key] = binding
	s.contractMu.Unlock()

	s.logger.WithField("key", key).Debug("bound contract")
	return binding, nil
}

// abiIdentifier returns the ABI half of a binding cache key.
func (s *contractService) abiIdentifier(source ABISource) (string, error) {
	switch {
	case source.hasInline():
		document, err := unquoteABIDocument(source.ABI)
		if err != nil {
			return "", apperr.Wrap(apperr.ErrAbiParse, err, "Invalid ABI: %v", err)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, document); err != nil {
			return "", apperr.Wrap(apperr.ErrAbiParse, err, "Invalid ABI: %v", err)
		}
		digest := crypto.Keccak256Hash(compact.Bytes()).Hex()
		return inlineABIPrefix + strings.TrimPrefix(digest, "0x"), nil
	case source.ABIPath != "":
		return source.ABIPath, nil
	case s.defaultABI != "":
		return s.defaultABI, nil
	default:
		return "", apperr.New(apperr.ErrMissingField, "Either abi_path or abi must be provided")
	}
}
