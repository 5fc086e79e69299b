// Package config loads server settings from frostline.cfg.json with viper.
// Every key has a default, so the file is optional.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/MRamiBalles/FrostlineExpress/internal/engine"
)

// FileName is the config file looked up in the config directory.
const FileName = "frostline.cfg.json"

// SQLiteConfig holds the embedded database settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds the shared database settings.
type PostgresConfig struct {
	DSN          string `json:"dsn" mapstructure:"dsn"`
	MaxOpenConns int    `json:"maxOpenConns" mapstructure:"maxOpenConns"`
	MaxIdleConns int    `json:"maxIdleConns" mapstructure:"maxIdleConns"`
}

// StorageConfig selects where the journal and history go.
type StorageConfig struct {
	Driver   string         `json:"driver" mapstructure:"driver"` // sqlite, postgres or none
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// NetworkConfig tunes the websocket hub.
type NetworkConfig struct {
	ClientSendBuffer int           `json:"clientSendBuffer" mapstructure:"clientSendBuffer"`
	BroadcastBuffer  int           `json:"broadcastBuffer" mapstructure:"broadcastBuffer"`
	SnapshotInterval time.Duration `json:"snapshotInterval" mapstructure:"snapshotInterval"`
	PollInterval     time.Duration `json:"pollInterval" mapstructure:"pollInterval"`
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// Config is the fully resolved configuration.
type Config struct {
	LogLevel    string         `json:"logLevel" mapstructure:"logLevel"`
	LogFormat   string         `json:"logFormat" mapstructure:"logFormat"`
	TickRate    time.Duration  `json:"tickRate" mapstructure:"tickRate"`
	Seed        int64          `json:"seed" mapstructure:"seed"`
	CatalogPath string         `json:"catalogPath" mapstructure:"catalogPath"`
	HTTP        HTTPConfig     `json:"http" mapstructure:"http"`
	Storage     StorageConfig  `json:"storage" mapstructure:"storage"`
	Network     NetworkConfig  `json:"network" mapstructure:"network"`
	Balance     engine.Balance `json:"balance" mapstructure:"balance"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", "json")
	viper.SetDefault("tickRate", "50ms")
	viper.SetDefault("seed", 0)
	viper.SetDefault("catalogPath", "")

	viper.SetDefault("http.addr", ":8080")

	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.sqlite.path", "./frostline.db")
	viper.SetDefault("storage.postgres.dsn", "host=localhost user=postgres password=postgres dbname=frostline port=5432 sslmode=disable")
	viper.SetDefault("storage.postgres.maxOpenConns", 16)
	viper.SetDefault("storage.postgres.maxIdleConns", 4)

	viper.SetDefault("network.clientSendBuffer", 64)
	viper.SetDefault("network.broadcastBuffer", 256)
	viper.SetDefault("network.snapshotInterval", "1s")
	viper.SetDefault("network.pollInterval", "100ms")

	b := engine.DefaultBalance()
	viper.SetDefault("balance.mileDuration", b.MileDuration.String())
	viper.SetDefault("balance.milesPerInterval", b.MilesPerInterval)
	viper.SetDefault("balance.milesPerPassengerIncrease", b.MilesPerPassengerIncrease)
	viper.SetDefault("balance.passengerBaseProbability", b.PassengerBaseProbability)
	viper.SetDefault("balance.passengerProbabilityPerWeatherTier", b.PassengerProbabilityPerWeatherTier)
	viper.SetDefault("balance.passengerStatusChangeProbability", b.PassengerStatusChangeProbability)
	viper.SetDefault("balance.crewRecoveryProbability", b.CrewRecoveryProbability)
	viper.SetDefault("balance.rewardPerMile", b.RewardPerMile)
	viper.SetDefault("balance.rewardPerPassenger", b.RewardPerPassenger)
	viper.SetDefault("balance.upgradeBaseCost", b.UpgradeBaseCost)
	viper.SetDefault("balance.startingPayments", b.StartingPayments)
	viper.SetDefault("balance.pendingSlots", b.PendingSlots)
}

// Load reads configuration from the JSON file in configDir and applies
// defaults. A missing file is not an error; a malformed one is.
func Load(configDir string) (*Config, error) {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %s", c.TickRate)
	}
	if c.Balance.MileDuration <= 0 {
		return fmt.Errorf("balance.mileDuration must be positive, got %s", c.Balance.MileDuration)
	}
	if c.Balance.MilesPerInterval <= 0 {
		return fmt.Errorf("balance.milesPerInterval must be positive, got %d", c.Balance.MilesPerInterval)
	}
	return nil
}
