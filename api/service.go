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

package api

import (
	"context"

	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/holiman/uint256"
)

// Service is the set of surety calls exposed over HTTP. It is implemented by
// surety.Surety
type Service interface {
	Owner() types.Address
	ContractAddress() types.Address

	IsOperational(ctx context.Context) (bool, error)
	SetOperational(ctx context.Context, caller types.Address, mode bool) error

	RegisterAirline(ctx context.Context, caller, candidate types.Address) (bool, error)
	VoteAirline(ctx context.Context, caller, candidate types.Address) (bool, error)
	PayFunding(ctx context.Context, caller types.Address, amount *uint256.Int) error
	AirlinesAwaitingVotes(ctx context.Context) ([]types.Address, error)
	VotesOnNewRegistration(ctx context.Context, candidate types.Address) ([]types.Address, error)
	CountAirlines(ctx context.Context) (int, error)
	OperationalAirlinesCount(ctx context.Context) (int, error)
	GetAirline(ctx context.Context, address types.Address) (*models.Airline, error)

	RegisterFlight(
		ctx context.Context,
		caller types.Address,
		airline types.Address,
		flightNumber string,
		departure int64,
	) (types.Hash, error)
	FlightKeysSize(ctx context.Context) (int, error)
	FlightKeyAt(ctx context.Context, index int) (types.Hash, error)
	GetFlight(ctx context.Context, key types.Hash) (*models.Flight, error)

	BuyInsurance(
		ctx context.Context,
		caller types.Address,
		flightKey types.Hash,
		premium *uint256.Int,
	) (string, error)
	Withdraw(ctx context.Context, caller types.Address, flightKey types.Hash) (*uint256.Int, error)
	InsurancesSize(ctx context.Context, flightKey types.Hash) (int, error)
	GetInsuranceForIndex(ctx context.Context, flightKey types.Hash, index int) (*models.Policy, error)
	PoliciesFor(ctx context.Context, flightKey types.Hash, passenger types.Address) ([]models.Policy, error)

	RegisterOracle(ctx context.Context, caller types.Address, fee *uint256.Int) ([3]uint8, error)
	GetMyIndexes(ctx context.Context, caller types.Address) ([3]uint8, error)
	FetchFlightStatus(
		ctx context.Context,
		caller types.Address,
		airline types.Address,
		flightNumber string,
		departure int64,
	) (uint8, error)
	SubmitOracleResponse(
		ctx context.Context,
		caller types.Address,
		index uint8,
		airline types.Address,
		flightNumber string,
		departure int64,
		status uint8,
	) error
	GetRequest(ctx context.Context, key types.Hash) (*models.OracleRequest, error)

	Events(from uint64, limit int) ([]event.Event, error)
	EventCount() (uint64, error)
	Balance(address types.Address) *uint256.Int
	Fund(address types.Address, amount *uint256.Int) error
}
