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

package sqlite

import (
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
)

func (d *MetadataStoreSqlite) AddPolicy(
	policy *models.Policy,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	count, err := d.CountPolicies(policy.FlightKey, txn)
	if err != nil {
		return err
	}
	policy.FlightIndex = uint(count) //nolint:gosec // count is never negative
	return db.Create(policy).Error
}

func (d *MetadataStoreSqlite) CountPolicies(
	flightKey types.Hash,
	txn types.Txn,
) (int, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&models.Policy{}).Where("flight_key = ?", flightKey).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// GetPolicyByIndex returns the policy at the given 0-based position on the flight
func (d *MetadataStoreSqlite) GetPolicyByIndex(
	flightKey types.Hash,
	index int,
	txn types.Txn,
) (*models.Policy, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, nil
	}
	var ret []models.Policy
	result := db.Where("flight_key = ? AND flight_index = ?", flightKey, index).
		Limit(1).
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(ret) == 0 {
		return nil, nil
	}
	return &ret[0], nil
}

// GetPolicies returns the flight's policies in purchase order. A non-nil
// passenger restricts the result to that passenger's policies
func (d *MetadataStoreSqlite) GetPolicies(
	flightKey types.Hash,
	passenger *types.Address,
	txn types.Txn,
) ([]models.Policy, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Where("flight_key = ?", flightKey)
	if passenger != nil {
		query = query.Where("passenger = ?", *passenger)
	}
	var ret []models.Policy
	if err := query.Order("flight_index").Find(&ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetPolicyCredit(
	policyID string,
	credit types.Amount,
	credited bool,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Policy{}).
		Where("policy_id = ?", policyID).
		Updates(map[string]any{
			"credit":   credit,
			"credited": credited,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrPolicyNotFound
	}
	return nil
}
