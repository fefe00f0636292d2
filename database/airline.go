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

package database

import (
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
)

func (d *Database) GetAirline(
	address types.Address,
	txn *Txn,
) (*models.Airline, error) {
	return d.metadata.GetAirline(address, metadataTxn(txn))
}

func (d *Database) SetAirline(airline *models.Airline, txn *Txn) error {
	return d.metadata.SetAirline(airline, metadataTxn(txn))
}

// CountAirlines returns the number of registered airlines, optionally
// restricted to funded ones
func (d *Database) CountAirlines(operationalOnly bool, txn *Txn) (int, error) {
	return d.metadata.CountAirlines(operationalOnly, metadataTxn(txn))
}

func (d *Database) GetAirlineCandidate(
	address types.Address,
	txn *Txn,
) (*models.AirlineCandidate, error) {
	return d.metadata.GetAirlineCandidate(address, metadataTxn(txn))
}

func (d *Database) AddAirlineCandidate(
	candidate *models.AirlineCandidate,
	txn *Txn,
) error {
	return d.metadata.AddAirlineCandidate(candidate, metadataTxn(txn))
}

func (d *Database) GetAirlineCandidates(
	txn *Txn,
) ([]models.AirlineCandidate, error) {
	return d.metadata.GetAirlineCandidates(metadataTxn(txn))
}

func (d *Database) DeleteAirlineCandidate(
	address types.Address,
	txn *Txn,
) error {
	return d.metadata.DeleteAirlineCandidate(address, metadataTxn(txn))
}

func (d *Database) AddAirlineVote(
	candidate types.Address,
	voter types.Address,
	txn *Txn,
) (bool, error) {
	return d.metadata.AddAirlineVote(candidate, voter, metadataTxn(txn))
}

func (d *Database) GetAirlineVotes(
	candidate types.Address,
	txn *Txn,
) ([]models.AirlineVote, error) {
	return d.metadata.GetAirlineVotes(candidate, metadataTxn(txn))
}
