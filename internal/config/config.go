// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "surety.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// RunMode represents the operational mode of the surety service
type RunMode string

const (
	RunModeServe RunMode = "serve" // API service backed by persistent storage (default)
	RunModeDev   RunMode = "dev"   // Simulated oracles and wallet faucet
)

// Valid returns true if the RunMode is a known valid mode
func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

// IsDevMode returns true if the mode enables development behaviors
// (simulated oracles, faucet)
func (m RunMode) IsDevMode() bool {
	return m == RunModeDev
}

// RandomStatus selects a random status code for each simulated oracle report
const RandomStatus = -1

type tempConfig struct {
	Config *Config `yaml:"config,omitempty"`
}

type Config struct {
	DatabasePath    string  `yaml:"databasePath"    split_words:"true"`
	BindAddr        string  `yaml:"bindAddr"        split_words:"true"`
	ShutdownTimeout string  `yaml:"shutdownTimeout" split_words:"true"`
	Owner           string  `yaml:"owner"`
	FirstAirline    string  `yaml:"firstAirline"    split_words:"true"`
	ContractAddress string  `yaml:"contractAddress" split_words:"true"`
	RunMode         RunMode `yaml:"runMode"         split_words:"true"`
	// FaucetAmount is the decimal wei amount handed out per faucet call in dev mode
	FaucetAmount  string `yaml:"faucetAmount"  split_words:"true"`
	BlobCacheSize uint64 `yaml:"blobCacheSize" split_words:"true"`
	ApiPort       uint   `yaml:"apiPort"       split_words:"true"`
	MetricsPort   uint   `yaml:"metricsPort"   split_words:"true"`
	// Simulated oracle agent (dev mode only)
	OracleCount  int `yaml:"oracleCount"  split_words:"true"`
	OracleStatus int `yaml:"oracleStatus" split_words:"true"`
	// Tracing exports spans over OTLP/HTTP, or to stdout with TracingStdout
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:    ".surety",
		BindAddr:        "0.0.0.0",
		ShutdownTimeout: DefaultShutdownTimeout,
		RunMode:         RunModeServe,
		FaucetAmount:    "100000000000000000000",
		BlobCacheSize:   268435456,
		ApiPort:         8080,
		MetricsPort:     12799,
		OracleCount:     20,
		OracleStatus:    RandomStatus,
	}
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.surety/surety.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".surety", "surety.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/surety/surety.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/surety/surety.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		// If config section exists, use it for main config
		if tempCfg.Config != nil {
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			buf = configBytes
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config section: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("surety", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Validate and default RunMode
	if !globalConfig.RunMode.Valid() {
		return nil, fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			globalConfig.RunMode,
		)
	}
	if globalConfig.RunMode == "" {
		globalConfig.RunMode = RunModeServe
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks the values that can be verified without opening storage
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	for name, value := range map[string]string{
		"owner":           c.Owner,
		"firstAirline":    c.FirstAirline,
		"contractAddress": c.ContractAddress,
	} {
		if value == "" {
			continue
		}
		if _, err := types.ParseAddress(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.FaucetAmount != "" {
		if _, err := types.ParseAmount(c.FaucetAmount); err != nil {
			return fmt.Errorf("invalid faucetAmount: %w", err)
		}
	}
	if c.OracleStatus != RandomStatus &&
		(c.OracleStatus < 0 || c.OracleStatus > 255) {
		return fmt.Errorf("invalid oracleStatus: %d", c.OracleStatus)
	}
	return nil
}

// OwnerAddress returns the configured contract owner
func (c *Config) OwnerAddress() (types.Address, error) {
	if c.Owner == "" {
		return types.Address{}, errors.New("an owner address is required")
	}
	return types.ParseAddress(c.Owner)
}

// FirstAirlineAddress returns the genesis airline, if one is configured
func (c *Config) FirstAirlineAddress() (types.Address, bool, error) {
	if c.FirstAirline == "" {
		return types.Address{}, false, nil
	}
	address, err := types.ParseAddress(c.FirstAirline)
	return address, err == nil, err
}

// ContractAddressValue returns the configured custody address, if any
func (c *Config) ContractAddressValue() (types.Address, bool, error) {
	if c.ContractAddress == "" {
		return types.Address{}, false, nil
	}
	address, err := types.ParseAddress(c.ContractAddress)
	return address, err == nil, err
}

// ShutdownTimeoutDuration returns the parsed shutdown timeout
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	ret, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		ret, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return ret
}
