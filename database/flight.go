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

func (d *Database) GetFlight(key types.Hash, txn *Txn) (*models.Flight, error) {
	return d.metadata.GetFlight(key, metadataTxn(txn))
}

func (d *Database) GetFlightByIndex(
	index int,
	txn *Txn,
) (*models.Flight, error) {
	return d.metadata.GetFlightByIndex(index, metadataTxn(txn))
}

func (d *Database) CountFlights(txn *Txn) (int, error) {
	return d.metadata.CountFlights(metadataTxn(txn))
}

func (d *Database) AddFlight(flight *models.Flight, txn *Txn) error {
	return d.metadata.AddFlight(flight, metadataTxn(txn))
}

func (d *Database) SetFlightStatus(
	key types.Hash,
	status uint8,
	txn *Txn,
) error {
	return d.metadata.SetFlightStatus(key, status, metadataTxn(txn))
}
