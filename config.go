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

package surety

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultContractAddress is the custody wallet used when none is configured
var DefaultContractAddress = types.BytesToAddress(
	types.Keccak256([]byte("surety-contract")).Bytes(),
)

// Wallet moves value between principals and reports balances
type Wallet interface {
	ledger.Funds
	Fund(types.Address, *uint256.Int) error
	Balance(types.Address) *uint256.Int
}

type Config struct {
	promRegistry  prometheus.Registerer
	logger        *slog.Logger
	eventBus      *event.EventBus
	wallet        Wallet
	randomness    ledger.Randomness
	clock         func() time.Time
	dataDir       string
	blobCacheSize uint64
	owner         types.Address
	firstAirline  types.Address
	contract      types.Address
}

func (c *Config) validate() error {
	if c.owner.IsZero() {
		return errors.New("an owner address is required")
	}
	if c.contract.IsZero() {
		return errors.New("a contract address is required")
	}
	if c.contract == c.owner {
		return errors.New("contract address must differ from the owner")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the surety config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new surety config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		contract: DefaultContractAddress,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobCacheSize specifies the blob store block cache size in bytes
func WithBlobCacheSize(size uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.blobCacheSize = size
	}
}

// WithEventBus specifies an existing event bus. A new one is created by default
func WithEventBus(eventBus *event.EventBus) ConfigOptionFunc {
	return func(c *Config) {
		c.eventBus = eventBus
	}
}

// WithWallet specifies the wallet that holds principal balances. An in-memory wallet is used by default
func WithWallet(wallet Wallet) ConfigOptionFunc {
	return func(c *Config) {
		c.wallet = wallet
	}
}

// WithRandomness specifies the entropy source for oracle index assignment
func WithRandomness(randomness ledger.Randomness) ConfigOptionFunc {
	return func(c *Config) {
		c.randomness = randomness
	}
}

// WithClock specifies the clock used for departure checks and event timestamps
func WithClock(clock func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithOwner specifies the contract owner. It only takes effect when the database is first initialized
func WithOwner(owner types.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithFirstAirline specifies the airline registered at initialization
func WithFirstAirline(airline types.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.firstAirline = airline
	}
}

// WithContractAddress specifies the custody wallet address
func WithContractAddress(contract types.Address) ConfigOptionFunc {
	return func(c *Config) {
		c.contract = contract
	}
}
