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

// AddPolicy stores a policy and assigns its position within the flight
func (d *Database) AddPolicy(policy *models.Policy, txn *Txn) error {
	return d.metadata.AddPolicy(policy, metadataTxn(txn))
}

func (d *Database) CountPolicies(flightKey types.Hash, txn *Txn) (int, error) {
	return d.metadata.CountPolicies(flightKey, metadataTxn(txn))
}

func (d *Database) GetPolicyByIndex(
	flightKey types.Hash,
	index int,
	txn *Txn,
) (*models.Policy, error) {
	return d.metadata.GetPolicyByIndex(flightKey, index, metadataTxn(txn))
}

func (d *Database) GetPolicies(
	flightKey types.Hash,
	passenger *types.Address,
	txn *Txn,
) ([]models.Policy, error) {
	return d.metadata.GetPolicies(flightKey, passenger, metadataTxn(txn))
}

func (d *Database) SetPolicyCredit(
	policyID string,
	credit types.Amount,
	credited bool,
	txn *Txn,
) error {
	return d.metadata.SetPolicyCredit(
		policyID,
		credit,
		credited,
		metadataTxn(txn),
	)
}
