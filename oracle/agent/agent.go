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

// Package agent runs simulated off-chain oracles. Each oracle listens for
// status requests on its indexes and reports a status from a StatusSource
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/blinklabs-io/surety/oracle"
	"github.com/holiman/uint256"
)

// Oracles is the part of the oracle module used by the agent
type Oracles interface {
	RegisterOracle(context.Context, types.Address, *uint256.Int) ([3]uint8, error)
	GetMyIndexes(context.Context, types.Address) ([3]uint8, error)
	SubmitOracleResponse(
		ctx context.Context,
		caller types.Address,
		index uint8,
		airline types.Address,
		flightNumber string,
		departure int64,
		status uint8,
	) error
}

// Funder supplies wallets with the registration fee
type Funder interface {
	Fund(types.Address, *uint256.Int) error
}

type StatusSource interface {
	FlightStatus(context.Context, event.OracleRequestEvent) (uint8, error)
}

// StatusSourceFunc adapts a function to the StatusSource interface
type StatusSourceFunc func(context.Context, event.OracleRequestEvent) (uint8, error)

func (f StatusSourceFunc) FlightStatus(
	ctx context.Context,
	req event.OracleRequestEvent,
) (uint8, error) {
	return f(ctx, req)
}

// FixedStatus reports the same status for every flight
func FixedStatus(status uint8) StatusSource {
	return StatusSourceFunc(
		func(context.Context, event.OracleRequestEvent) (uint8, error) {
			return status, nil
		},
	)
}

// RandomStatus reports a uniformly random status code for every report, so
// simulated oracles may disagree with each other
func RandomStatus() StatusSource {
	codes := flight.StatusCodes()
	return StatusSourceFunc(
		func(context.Context, event.OracleRequestEvent) (uint8, error) {
			return codes[rand.IntN(len(codes))], nil //nolint:gosec // simulation only
		},
	)
}

type AgentConfig struct {
	Logger   *slog.Logger
	EventBus *event.EventBus
	Oracles  Oracles
	Source   StatusSource
	// Funder is optional. When set, each oracle wallet is funded with the
	// registration fee before registering
	Funder Funder
	Count  int
}

type simulatedOracle struct {
	address types.Address
	indexes [3]uint8
}

type Agent struct {
	config   AgentConfig
	ctx      context.Context
	cancel   context.CancelFunc
	oracles  []simulatedOracle
	wg       sync.WaitGroup
	subId    event.EventSubscriberId
	mu       sync.Mutex
	running  bool
	stopping bool
}

func New(cfg AgentConfig) (*Agent, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.EventBus == nil {
		return nil, errors.New("an event bus is required")
	}
	if cfg.Oracles == nil {
		return nil, errors.New("an oracle module is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("a status source is required")
	}
	if cfg.Count < oracle.MinResponses {
		return nil, fmt.Errorf(
			"at least %d oracles are needed to reach quorum",
			oracle.MinResponses,
		)
	}
	return &Agent{config: cfg}, nil
}

// OracleAddress returns the deterministic address of the i-th simulated oracle
func OracleAddress(i int) types.Address {
	hash := types.Keccak256(
		[]byte("surety-oracle"),
		types.JournalKeyUint64ToBytes(uint64(i)), //nolint:gosec // i is never negative
	)
	return types.BytesToAddress(hash.Bytes())
}

// Start registers the simulated oracles and begins answering requests
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("agent already running")
	}
	a.oracles = a.oracles[:0]
	for i := range a.config.Count {
		address := OracleAddress(i)
		indexes, err := a.register(ctx, address)
		if err != nil {
			return fmt.Errorf("register oracle %s: %w", address, err)
		}
		a.oracles = append(a.oracles, simulatedOracle{
			address: address,
			indexes: indexes,
		})
		a.config.Logger.Debug(
			"oracle ready",
			"component", "oracle-agent",
			"oracle", address.String(),
			"indexes", fmt.Sprint(indexes),
		)
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.subId = a.config.EventBus.SubscribeFunc(
		event.OracleRequestEventType,
		a.handleRequest,
	)
	a.running = true
	a.stopping = false
	a.config.Logger.Info(
		fmt.Sprintf("started %d simulated oracles", len(a.oracles)),
		"component", "oracle-agent",
	)
	return nil
}

func (a *Agent) register(
	ctx context.Context,
	address types.Address,
) ([3]uint8, error) {
	indexes, err := a.config.Oracles.GetMyIndexes(ctx, address)
	if err == nil {
		return indexes, nil
	}
	if !errors.Is(err, ledger.ErrOracleNotRegistered) {
		return indexes, err
	}
	if a.config.Funder != nil {
		if err := a.config.Funder.Fund(address, oracle.RegistrationFee); err != nil {
			return indexes, err
		}
	}
	return a.config.Oracles.RegisterOracle(ctx, address, oracle.RegistrationFee)
}

// Stop unsubscribes from requests and waits for in-flight reports
func (a *Agent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.stopping = true
	a.cancel()
	a.mu.Unlock()
	a.config.EventBus.Unsubscribe(event.OracleRequestEventType, a.subId)
	a.wg.Wait()
}

// Addresses returns the addresses of the registered simulated oracles
func (a *Agent) Addresses() []types.Address {
	a.mu.Lock()
	defer a.mu.Unlock()
	ret := make([]types.Address, 0, len(a.oracles))
	for _, o := range a.oracles {
		ret = append(ret, o.address)
	}
	return ret
}

func (a *Agent) handleRequest(evt event.Event) {
	req, ok := evt.Data.(event.OracleRequestEvent)
	if !ok {
		return
	}
	a.mu.Lock()
	if a.stopping || !a.running {
		a.mu.Unlock()
		return
	}
	a.wg.Add(1)
	ctx := a.ctx
	oracles := make([]simulatedOracle, len(a.oracles))
	copy(oracles, a.oracles)
	a.mu.Unlock()
	defer a.wg.Done()

	for _, o := range oracles {
		if !matchesIndex(o.indexes, req.Index) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		status, err := a.config.Source.FlightStatus(ctx, req)
		if err != nil {
			a.config.Logger.Warn(
				"status source failed",
				"component", "oracle-agent",
				"flight", req.FlightNumber,
				"error", err,
			)
			return
		}
		err = a.config.Oracles.SubmitOracleResponse(
			ctx,
			o.address,
			req.Index,
			req.Airline,
			req.FlightNumber,
			req.Departure,
			status,
		)
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidState) {
				// The request resolved or went stale, later reports are ignored
				a.config.Logger.Debug(
					"request no longer open",
					"component", "oracle-agent",
					"flight", req.FlightNumber,
					"index", req.Index,
				)
				return
			}
			a.config.Logger.Warn(
				"failed to submit oracle response",
				"component", "oracle-agent",
				"oracle", o.address.String(),
				"flight", req.FlightNumber,
				"error", err,
			)
		}
	}
}

func matchesIndex(indexes [3]uint8, index uint8) bool {
	for _, idx := range indexes {
		if idx == index {
			return true
		}
	}
	return false
}
