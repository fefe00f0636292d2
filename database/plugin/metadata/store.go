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

package metadata

import (
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/surety/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitCheckpoint() (types.CommitCheckpoint, error)
	SetCommitCheckpoint(types.CommitCheckpoint, types.Txn) error
	Transaction() types.Txn

	// Contract state
	GetContractState(types.Txn) (*models.ContractState, error)
	SetContractState(*models.ContractState, types.Txn) error

	// Airlines
	GetAirline(types.Address, types.Txn) (*models.Airline, error)
	SetAirline(*models.Airline, types.Txn) error
	CountAirlines(bool, types.Txn) (int, error)
	GetAirlineCandidate(types.Address, types.Txn) (*models.AirlineCandidate, error)
	AddAirlineCandidate(*models.AirlineCandidate, types.Txn) error
	GetAirlineCandidates(types.Txn) ([]models.AirlineCandidate, error)
	DeleteAirlineCandidate(types.Address, types.Txn) error
	AddAirlineVote(types.Address, types.Address, types.Txn) (bool, error)
	GetAirlineVotes(types.Address, types.Txn) ([]models.AirlineVote, error)

	// Flights
	GetFlight(types.Hash, types.Txn) (*models.Flight, error)
	GetFlightByIndex(int, types.Txn) (*models.Flight, error)
	CountFlights(types.Txn) (int, error)
	AddFlight(*models.Flight, types.Txn) error
	SetFlightStatus(types.Hash, uint8, types.Txn) error

	// Policies
	AddPolicy(*models.Policy, types.Txn) error
	CountPolicies(types.Hash, types.Txn) (int, error)
	GetPolicyByIndex(types.Hash, int, types.Txn) (*models.Policy, error)
	GetPolicies(types.Hash, *types.Address, types.Txn) ([]models.Policy, error)
	SetPolicyCredit(string, types.Amount, bool, types.Txn) error

	// Oracles
	GetOracle(types.Address, types.Txn) (*models.Oracle, error)
	AddOracle(*models.Oracle, types.Txn) error
	CountOracles(types.Txn) (int, error)
	GetOracleRequest(types.Hash, types.Txn) (*models.OracleRequest, error)
	SetOracleRequest(*models.OracleRequest, types.Txn) error
	CountOpenOracleRequests(types.Txn) (int, error)
	AddOracleResponse(*models.OracleResponse, types.Txn) (bool, error)
	GetOracleResponses(types.Hash, uint8, types.Txn) ([]models.OracleResponse, error)
}

var _ MetadataStore = (*sqlite.MetadataStoreSqlite)(nil)

// New opens the sqlite metadata store with the given options
func New(opts ...sqlite.SqliteOptionFunc) (MetadataStore, error) {
	store, err := sqlite.New(opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return store, nil
}
