package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. ISOTOP_DEPLOYER_NETWORK_ACTIVE.
const EnvPrefix = "ISOTOP_DEPLOYER"

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Network  NetworkConfig  `mapstructure:"network"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	Contract ContractConfig `mapstructure:"contract"`
	Registry RegistryConfig `mapstructure:"registry"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	// FailOnError makes the process exit non-zero when the run fails.
	FailOnError bool          `mapstructure:"fail_on_error"`
	RunTimeout  time.Duration `mapstructure:"run_timeout"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
	Output   string `mapstructure:"output"`
}

// NetworkConfig selects the active network and where network tables are read from.
type NetworkConfig struct {
	Active          string `mapstructure:"active"`
	DefinitionsPath string `mapstructure:"definitions_path"`
}

// ProbeConfig holds settings for the endpoint health probe run before dialing.
type ProbeConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ContractConfig holds settings for the compiled artifact and its transactions.
type ContractConfig struct {
	ArtifactPath string        `mapstructure:"artifact_path"`
	TxTimeout    time.Duration `mapstructure:"tx_timeout"`
}

// RegistryConfig holds settings for the in-memory deployment registry.
type RegistryConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "isotop-deployer")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.fail_on_error", false)
	v.SetDefault("app.run_timeout", "15m")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("network.active", "development")
	v.SetDefault("network.definitions_path", "configs/networks.yaml")
	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.timeout", "5s")
	v.SetDefault("contract.artifact_path", "build/contracts/NFT.json")
	v.SetDefault("contract.tx_timeout", "5m")
	v.SetDefault("registry.default_expiration", "0s")
	v.SetDefault("registry.cleanup_interval", "0s")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c AppConfig) GetRunTimeout() time.Duration {
	return c.RunTimeout
}

func (c ProbeConfig) GetTimeout() time.Duration {
	return c.Timeout
}

func (c ContractConfig) GetTxTimeout() time.Duration {
	return c.TxTimeout
}

// GetDefaultExpiration maps a non-positive value to "never expire".
func (c RegistryConfig) GetDefaultExpiration() time.Duration {
	if c.DefaultExpiration <= 0 {
		return -1
	}
	return c.DefaultExpiration
}

func (c RegistryConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}
