package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/rxtech-lab/web3-gateway/internal/apperr"
)

const (
	DefaultNetworkID     = 1
	DefaultNetworkName   = "mainnet"
	DefaultGasPriceGwei  = 20
	DefaultGasLimit      = 3_000_000
	DefaultABIPath       = "./contracts/abi"
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 5000
	DefaultLogLevel      = "info"
	DefaultJournalPath   = ":memory:"
	DefaultRateLimit     = "100 per hour"
	mainnetNetworkID     = 1
	gweiToWeiMultiplier  = 1_000_000_000
	providerPlaceholder  = "YOUR_"
	privateKeyHexLength  = 64
	privateKeyPrefix     = "0x"
	environmentTagName   = "env"
	requiredProviderHint = "WEB3_PROVIDER_URL"
)

// Credential is the signing account loaded from PRIVATE_KEY.
type Credential struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// PrivateKey returns the key used to sign transactions.
func (c *Credential) PrivateKey() *ecdsa.PrivateKey {
	return c.key
}

// NewCredential derives a credential from a 0x-prefixed hex private key.
func NewCredential(hexKey string) (*Credential, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, privateKeyPrefix))
	if err != nil {
		return nil, err
	}
	return &Credential{Address: crypto.PubkeyToAddress(key.PublicKey), key: key}, nil
}

// Settings is built once at startup and shared read-only.
type Settings struct {
	ProviderURL     string
	NetworkID       int64
	NetworkName     string
	Credential      *Credential
	GasPriceGwei    int64
	GasLimit        uint64
	ABIPath         string
	DefaultABI      string
	ContractAddress string

	Host  string
	Port  int
	Debug bool

	// Carried through without effect on request handling.
	RateLimit       string
	SecretKey       string
	RedisURL        string
	EtherscanAPIKey string
	InfuraProjectID string

	LogLevel    string
	LogFile     string
	JournalPath string
	PostgresURL string
}

// IsTestnet reports whether the configured network is not Ethereum mainnet.
func (s *Settings) IsTestnet() bool {
	return s.NetworkID != mainnetNetworkID
}

// GasPriceWei converts the configured gas price from gwei to wei.
func (s *Settings) GasPriceWei() *big.Int {
	return new(big.Int).Mul(big.NewInt(s.GasPriceGwei), big.NewInt(gweiToWeiMultiplier))
}

// HasCredential reports whether a signing account is loaded.
func (s *Settings) HasCredential() bool {
	return s.Credential != nil
}

// rawSettings mirrors the environment before conversion.
type rawSettings struct {
	ProviderURL     string `env:"WEB3_PROVIDER_URL" validate:"required,url"`
	NetworkID       string `env:"NETWORK_ID" validate:"omitempty,number"`
	NetworkName     string `env:"NETWORK_NAME"`
	PrivateKey      string `env:"PRIVATE_KEY" validate:"omitempty,startswith=0x,len=66,hexadecimal"`
	WalletAddress   string `env:"WALLET_ADDRESS" validate:"omitempty,eth_addr"`
	GasPriceGwei    string `env:"GAS_PRICE_GWEI" validate:"omitempty,number"`
	GasLimit        string `env:"GAS_LIMIT" validate:"omitempty,number"`
	ABIPath         string `env:"DEFAULT_CONTRACT_ABI_PATH"`
	DefaultABI      string `env:"DEFAULT_CONTRACT_ABI"`
	ContractAddress string `env:"CONTRACT_ADDRESS" validate:"omitempty,eth_addr"`
	Host            string `env:"HOST"`
	Port            string `env:"PORT" validate:"omitempty,number"`
	Debug           string `env:"DEBUG" validate:"omitempty,boolean"`
	RateLimit       string `env:"RATE_LIMIT"`
	SecretKey       string `env:"SECRET_KEY"`
	RedisURL        string `env:"REDIS_URL"`
	EtherscanAPIKey string `env:"ETHERSCAN_API_KEY"`
	InfuraProjectID string `env:"INFURA_PROJECT_ID"`
	LogLevel        string `env:"LOG_LEVEL" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	LogFile         string `env:"LOG_FILE"`
	JournalPath     string `env:"JOURNAL_DB_PATH"`
	PostgresURL     string `env:"POSTGRES_URL"`
}

// LookupFunc resolves one environment variable.
type LookupFunc func(key string) (string, bool)

// Load builds Settings from the process environment.
func Load() (*Settings, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds Settings from the given lookup function.
func LoadFrom(lookup LookupFunc) (*Settings, error) {
	raw := readRaw(lookup)

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get(environmentTagName)
	})
	if err := validate.Struct(raw); err != nil {
		return nil, describeValidationError(err)
	}

	if strings.Contains(raw.ProviderURL, providerPlaceholder) || strings.ContainsAny(raw.ProviderURL, "<>") {
		return nil, apperr.New(apperr.ErrConfiguration, "%s contains an unreplaced placeholder: %s", requiredProviderHint, raw.ProviderURL)
	}

	settings := &Settings{
		ProviderURL:     raw.ProviderURL,
		NetworkName:     withDefault(raw.NetworkName, DefaultNetworkName),
		ABIPath:         withDefault(raw.ABIPath, DefaultABIPath),
		DefaultABI:      raw.DefaultABI,
		ContractAddress: raw.ContractAddress,
		Host:            withDefault(raw.Host, DefaultHost),
		RateLimit:       withDefault(raw.RateLimit, DefaultRateLimit),
		SecretKey:       raw.SecretKey,
		RedisURL:        raw.RedisURL,
		EtherscanAPIKey: raw.EtherscanAPIKey,
		InfuraProjectID: raw.InfuraProjectID,
		LogLevel:        withDefault(raw.LogLevel, DefaultLogLevel),
		LogFile:         raw.LogFile,
		JournalPath:     withDefault(raw.JournalPath, DefaultJournalPath),
		PostgresURL:     raw.PostgresURL,
	}

	var err error
	if settings.NetworkID, err = parseInt("NETWORK_ID", raw.NetworkID, DefaultNetworkID); err != nil {
		return nil, err
	}
	if settings.GasPriceGwei, err = parseInt("GAS_PRICE_GWEI", raw.GasPriceGwei, DefaultGasPriceGwei); err != nil {
		return nil, err
	}
	gasLimit, err := parseInt("GAS_LIMIT", raw.GasLimit, DefaultGasLimit)
	if err != nil {
		return nil, err
	}
	if gasLimit <= 0 {
		return nil, apperr.New(apperr.ErrConfiguration, "GAS_LIMIT must be positive, got %d", gasLimit)
	}
	settings.GasLimit = uint64(gasLimit)
	port, err := parseInt("PORT", raw.Port, DefaultPort)
	if err != nil {
		return nil, err
	}
	settings.Port = int(port)
	if raw.Debug != "" {
		settings.Debug, _ = strconv.ParseBool(raw.Debug)
	}

	if raw.PrivateKey != "" {
		if raw.WalletAddress == "" {
			return nil, apperr.New(apperr.ErrConfiguration, "WALLET_ADDRESS is required when PRIVATE_KEY is set")
		}
		credential, err := NewCredential(raw.PrivateKey)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrConfiguration, err, "PRIVATE_KEY is not a valid private key: %v", err)
		}
		if !strings.EqualFold(credential.Address.Hex(), raw.WalletAddress) {
			return nil, apperr.New(apperr.ErrConfiguration, "Private key does not match wallet address")
		}
		settings.Credential = credential
	}

	return settings, nil
}

// LoadDotEnv seeds the environment from the given files. Missing files are
// skipped and variables that are already set are left untouched.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func readRaw(lookup LookupFunc) rawSettings {
	var raw rawSettings
	value := reflect.ValueOf(&raw).Elem()
	rawType := value.Type()
	for i := 0; i < rawType.NumField(); i++ {
		key := rawType.Field(i).Tag.Get(environmentTagName)
		if v, ok := lookup(key); ok {
			value.Field(i).SetString(strings.TrimSpace(v))
		}
	}
	return raw
}

func describeValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return apperr.Wrap(apperr.ErrConfiguration, err, "invalid configuration: %v", err)
	}

	fieldErr := validationErrors[0]
	key := fieldErr.Field()
	switch {
	case fieldErr.Tag() == "required":
		return apperr.New(apperr.ErrConfiguration, "%s is not set", key)
	case key == "PRIVATE_KEY":
		return apperr.New(apperr.ErrConfiguration, "PRIVATE_KEY must be 0x followed by %d hex characters", privateKeyHexLength)
	case fieldErr.Tag() == "eth_addr":
		return apperr.New(apperr.ErrConfiguration, "%s is not a valid address: %v", key, fieldErr.Value())
	default:
		return apperr.Wrap(apperr.ErrConfiguration, err, "%s has an invalid value: %v", key, fieldErr.Value())
	}
}

func parseInt(key, value string, fallback int64) (int64, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrConfiguration, err, "%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
