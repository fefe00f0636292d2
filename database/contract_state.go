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

func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetContractState returns the contract state, or nil before initialization
func (d *Database) GetContractState(txn *Txn) (*models.ContractState, error) {
	return d.metadata.GetContractState(metadataTxn(txn))
}

func (d *Database) SetContractState(
	state *models.ContractState,
	txn *Txn,
) error {
	return d.metadata.SetContractState(state, metadataTxn(txn))
}
