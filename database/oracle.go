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

func (d *Database) GetOracle(
	address types.Address,
	txn *Txn,
) (*models.Oracle, error) {
	return d.metadata.GetOracle(address, metadataTxn(txn))
}

func (d *Database) AddOracle(oracle *models.Oracle, txn *Txn) error {
	return d.metadata.AddOracle(oracle, metadataTxn(txn))
}

func (d *Database) CountOracles(txn *Txn) (int, error) {
	return d.metadata.CountOracles(metadataTxn(txn))
}

func (d *Database) GetOracleRequest(
	key types.Hash,
	txn *Txn,
) (*models.OracleRequest, error) {
	return d.metadata.GetOracleRequest(key, metadataTxn(txn))
}

func (d *Database) SetOracleRequest(
	request *models.OracleRequest,
	txn *Txn,
) error {
	return d.metadata.SetOracleRequest(request, metadataTxn(txn))
}

func (d *Database) CountOpenOracleRequests(txn *Txn) (int, error) {
	return d.metadata.CountOpenOracleRequests(metadataTxn(txn))
}

// AddOracleResponse records a response, reporting false for a repeat
func (d *Database) AddOracleResponse(
	response *models.OracleResponse,
	txn *Txn,
) (bool, error) {
	return d.metadata.AddOracleResponse(response, metadataTxn(txn))
}

func (d *Database) GetOracleResponses(
	requestKey types.Hash,
	status uint8,
	txn *Txn,
) ([]models.OracleResponse, error) {
	return d.metadata.GetOracleResponses(requestKey, status, metadataTxn(txn))
}
