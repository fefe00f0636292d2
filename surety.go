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

// Package surety implements flight-delay insurance backed by an airline
// consortium and a quorum of independent flight status oracles
package surety

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/surety/consortium"
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
	"github.com/blinklabs-io/surety/insurance"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/blinklabs-io/surety/oracle"
	"github.com/blinklabs-io/surety/wallet"
	"github.com/holiman/uint256"
)

type Surety struct {
	config      Config
	eventBus    *event.EventBus
	ownsBus     bool
	wallet      Wallet
	ledgerState *ledger.LedgerState
	consortium  *consortium.Consortium
	flights     *flight.Registry
	insurance   *insurance.Module
	oracles     *oracle.Oracles
	closeOnce   sync.Once
	closeErr    error
}

func New(opts ...ConfigOptionFunc) (*Surety, error) {
	cfg := NewConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Surety{
		config:   cfg,
		eventBus: cfg.eventBus,
		wallet:   cfg.wallet,
	}
	if s.eventBus == nil {
		s.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
		s.ownsBus = true
	}
	if s.wallet == nil {
		s.wallet = wallet.NewMemory(cfg.logger)
	}
	ls, err := ledger.NewLedgerState(
		ledger.LedgerStateConfig{
			Logger:        cfg.logger,
			EventBus:      s.eventBus,
			PromRegistry:  cfg.promRegistry,
			Funds:         s.wallet,
			Randomness:    cfg.randomness,
			Clock:         cfg.clock,
			DataDir:       cfg.dataDir,
			BlobCacheSize: cfg.blobCacheSize,
			Owner:         cfg.owner,
			FirstAirline:  cfg.firstAirline,
			Contract:      cfg.contract,
		},
	)
	if err != nil {
		if s.ownsBus {
			s.eventBus.Shutdown()
		}
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	s.ledgerState = ls
	if err := s.restoreCustody(); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	s.consortium = consortium.New(ls)
	s.flights = flight.New(ls)
	s.insurance = insurance.New(ls)
	s.oracles = oracle.New(ls)
	return s, nil
}

// restoreCustody tops up the contract wallet to the persisted custody balance.
// Wallets that do not survive a restart start empty while the ledger still
// owes what it holds in custody
func (s *Surety) restoreCustody() error {
	state, err := s.ledgerState.ContractState(context.Background())
	if err != nil {
		return err
	}
	custody := state.Custody.Uint256()
	balance := s.wallet.Balance(s.ledgerState.Contract())
	if balance.Cmp(custody) >= 0 {
		return nil
	}
	missing := new(uint256.Int).Sub(custody, balance)
	s.config.logger.Info(
		fmt.Sprintf("restoring %s wei of custody to the contract wallet", missing.Dec()),
		"component", "surety",
	)
	return s.wallet.Fund(s.ledgerState.Contract(), missing)
}

// Close releases the database and stops the event bus if it was created by New
func (s *Surety) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ledgerState.Close()
		if s.ownsBus {
			s.eventBus.Shutdown()
		}
	})
	return s.closeErr
}

func (s *Surety) EventBus() *event.EventBus {
	return s.eventBus
}

func (s *Surety) LedgerState() *ledger.LedgerState {
	return s.ledgerState
}

func (s *Surety) Oracles() *oracle.Oracles {
	return s.oracles
}

func (s *Surety) Owner() types.Address {
	return s.ledgerState.Owner()
}

func (s *Surety) ContractAddress() types.Address {
	return s.ledgerState.Contract()
}

// Operational gate

func (s *Surety) IsOperational(ctx context.Context) (bool, error) {
	return s.ledgerState.IsOperational(ctx)
}

func (s *Surety) SetOperational(
	ctx context.Context,
	caller types.Address,
	mode bool,
) error {
	return s.ledgerState.SetOperational(ctx, caller, mode)
}

// Airline consortium

func (s *Surety) RegisterAirline(
	ctx context.Context,
	caller types.Address,
	candidate types.Address,
) (bool, error) {
	return s.consortium.RegisterAirline(ctx, caller, candidate)
}

func (s *Surety) VoteAirline(
	ctx context.Context,
	caller types.Address,
	candidate types.Address,
) (bool, error) {
	return s.consortium.VoteAirline(ctx, caller, candidate)
}

func (s *Surety) PayFunding(
	ctx context.Context,
	caller types.Address,
	amount *uint256.Int,
) error {
	return s.consortium.PayFunding(ctx, caller, amount)
}

func (s *Surety) AirlinesAwaitingVotes(
	ctx context.Context,
) ([]types.Address, error) {
	return s.consortium.AirlinesAwaitingVotes(ctx)
}

func (s *Surety) VotesOnNewRegistration(
	ctx context.Context,
	candidate types.Address,
) ([]types.Address, error) {
	return s.consortium.VotesOnNewRegistration(ctx, candidate)
}

func (s *Surety) VotesCount(
	ctx context.Context,
	candidate types.Address,
) (int, error) {
	return s.consortium.VotesCount(ctx, candidate)
}

func (s *Surety) CountAirlines(ctx context.Context) (int, error) {
	return s.consortium.CountAirlines(ctx)
}

func (s *Surety) OperationalAirlinesCount(ctx context.Context) (int, error) {
	return s.consortium.OperationalAirlinesCount(ctx)
}

func (s *Surety) IsAirline(
	ctx context.Context,
	address types.Address,
) (bool, error) {
	return s.consortium.IsAirline(ctx, address)
}

func (s *Surety) GetAirline(
	ctx context.Context,
	address types.Address,
) (*models.Airline, error) {
	return s.consortium.GetAirline(ctx, address)
}

// Flight registry

func (s *Surety) RegisterFlight(
	ctx context.Context,
	caller types.Address,
	airline types.Address,
	flightNumber string,
	departure int64,
) (types.Hash, error) {
	return s.flights.RegisterFlight(ctx, caller, airline, flightNumber, departure)
}

// FlightKey derives the registry key for a flight
func (s *Surety) FlightKey(
	airline types.Address,
	flightNumber string,
	departure int64,
) types.Hash {
	return flight.Key(airline, flightNumber, departure)
}

func (s *Surety) FlightKeysSize(ctx context.Context) (int, error) {
	return s.flights.FlightKeysSize(ctx)
}

func (s *Surety) FlightKeyAt(ctx context.Context, index int) (types.Hash, error) {
	return s.flights.FlightKeyAt(ctx, index)
}

func (s *Surety) GetFlight(
	ctx context.Context,
	key types.Hash,
) (*models.Flight, error) {
	return s.flights.GetFlight(ctx, key)
}

func (s *Surety) GetFlightTime(
	ctx context.Context,
	key types.Hash,
) (int64, error) {
	return s.flights.GetFlightTime(ctx, key)
}

// Insurance and escrow

func (s *Surety) BuyInsurance(
	ctx context.Context,
	caller types.Address,
	flightKey types.Hash,
	premium *uint256.Int,
) (string, error) {
	return s.insurance.BuyInsurance(ctx, caller, flightKey, premium)
}

func (s *Surety) Withdraw(
	ctx context.Context,
	caller types.Address,
	flightKey types.Hash,
) (*uint256.Int, error) {
	return s.insurance.Withdraw(ctx, caller, flightKey)
}

func (s *Surety) InsurancesSize(
	ctx context.Context,
	flightKey types.Hash,
) (int, error) {
	return s.insurance.InsurancesSize(ctx, flightKey)
}

func (s *Surety) GetInsuranceForIndex(
	ctx context.Context,
	flightKey types.Hash,
	index int,
) (*models.Policy, error) {
	return s.insurance.GetInsuranceForIndex(ctx, flightKey, index)
}

func (s *Surety) PoliciesFor(
	ctx context.Context,
	flightKey types.Hash,
	passenger types.Address,
) ([]models.Policy, error) {
	return s.insurance.PoliciesFor(ctx, flightKey, passenger)
}

// Oracle consensus

func (s *Surety) RegisterOracle(
	ctx context.Context,
	caller types.Address,
	fee *uint256.Int,
) ([3]uint8, error) {
	return s.oracles.RegisterOracle(ctx, caller, fee)
}

func (s *Surety) GetMyIndexes(
	ctx context.Context,
	caller types.Address,
) ([3]uint8, error) {
	return s.oracles.GetMyIndexes(ctx, caller)
}

func (s *Surety) FetchFlightStatus(
	ctx context.Context,
	caller types.Address,
	airline types.Address,
	flightNumber string,
	departure int64,
) (uint8, error) {
	return s.oracles.FetchFlightStatus(ctx, caller, airline, flightNumber, departure)
}

func (s *Surety) SubmitOracleResponse(
	ctx context.Context,
	caller types.Address,
	index uint8,
	airline types.Address,
	flightNumber string,
	departure int64,
	status uint8,
) error {
	return s.oracles.SubmitOracleResponse(
		ctx,
		caller,
		index,
		airline,
		flightNumber,
		departure,
		status,
	)
}

func (s *Surety) GetRequest(
	ctx context.Context,
	key types.Hash,
) (*models.OracleRequest, error) {
	return s.oracles.GetRequest(ctx, key)
}

// Journal and wallet

// Events returns up to limit journaled notifications starting at sequence number from
func (s *Surety) Events(from uint64, limit int) ([]event.Event, error) {
	return s.ledgerState.Events(from, limit)
}

// EventCount returns the number of journaled notifications
func (s *Surety) EventCount() (uint64, error) {
	return s.ledgerState.EventCount()
}

func (s *Surety) Balance(address types.Address) *uint256.Int {
	return s.wallet.Balance(address)
}

// Fund credits a principal's wallet
func (s *Surety) Fund(address types.Address, amount *uint256.Int) error {
	return s.wallet.Fund(address, amount)
}
