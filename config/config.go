package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// TokenConfig describes one configured token.
type TokenConfig struct {
	Address  string `mapstructure:"address"`
	Decimals int    `mapstructure:"decimals"`
}

// QuoteConfig holds the reporting collaborator's API settings.
type QuoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Config holds the application configuration. Everything here is read once
// at startup and treated as immutable afterwards.
type Config struct {
	RPCUrl          string
	ChainID         int64
	PrivateKey      string
	RouterAddress   string
	SettlementAsset string
	AutoConfirm     bool
	GasLimit        *uint64
	GasPrice        *int64
	Quote           QuoteConfig
	Tokens          map[string]TokenConfig
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".swap-exec")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Read from environment variables
	viper.SetEnvPrefix("SWAP_EXEC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCUrl:          viper.GetString("rpc_url"),
		ChainID:         viper.GetInt64("chain_id"),
		PrivateKey:      viper.GetString("private_key"),
		RouterAddress:   viper.GetString("router_address"),
		SettlementAsset: viper.GetString("settlement_asset"),
		AutoConfirm:     viper.GetBool("auto_confirm"),
		Quote: QuoteConfig{
			BaseURL: viper.GetString("quote.base_url"),
			APIKey:  viper.GetString("quote.api_key"),
		},
	}

	if viper.IsSet("gas_limit") {
		gasLimit := viper.GetUint64("gas_limit")
		cfg.GasLimit = &gasLimit
	}
	if viper.IsSet("gas_price") {
		gasPrice := viper.GetInt64("gas_price")
		cfg.GasPrice = &gasPrice
	}

	if err := viper.UnmarshalKey("tokens", &cfg.Tokens); err != nil {
		return nil, fmt.Errorf("invalid tokens configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RPCUrl == "" {
		return fmt.Errorf("RPC URL not configured. Set SWAP_EXEC_RPC_URL or rpc_url in .swap-exec.yaml")
	}
	if c.ChainID == 0 {
		return fmt.Errorf("chain ID not configured. Set SWAP_EXEC_CHAIN_ID or chain_id in .swap-exec.yaml")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key not configured. Set SWAP_EXEC_PRIVATE_KEY or private_key in .swap-exec.yaml")
	}
	if c.RouterAddress == "" {
		return fmt.Errorf("router address not configured. Set SWAP_EXEC_ROUTER_ADDRESS or router_address in .swap-exec.yaml")
	}
	return nil
}

// Token looks up a configured token by symbol (case-insensitive).
func (c *Config) Token(symbol string) (TokenConfig, bool) {
	for name, token := range c.Tokens {
		if strings.EqualFold(name, symbol) {
			return token, true
		}
	}
	return TokenConfig{}, false
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
