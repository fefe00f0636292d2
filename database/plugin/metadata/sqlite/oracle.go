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
	"errors"

	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *MetadataStoreSqlite) GetOracle(
	address types.Address,
	txn types.Txn,
) (*models.Oracle, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Oracle{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) AddOracle(
	oracle *models.Oracle,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(oracle).Error
}

func (d *MetadataStoreSqlite) CountOracles(txn types.Txn) (int, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&models.Oracle{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (d *MetadataStoreSqlite) GetOracleRequest(
	key types.Hash,
	txn types.Txn,
) (*models.OracleRequest, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.OracleRequest{}
	result := db.Where("request_key = ?", key).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetOracleRequest(
	request *models.OracleRequest,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Save(request).Error
}

func (d *MetadataStoreSqlite) CountOpenOracleRequests(
	txn types.Txn,
) (int, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&models.OracleRequest{}).Where("open = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// AddOracleResponse records a response and reports whether it was new. A
// repeated (request, status, oracle) triple is ignored
func (d *MetadataStoreSqlite) AddOracleResponse(
	response *models.OracleResponse,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(response)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (d *MetadataStoreSqlite) GetOracleResponses(
	requestKey types.Hash,
	status uint8,
	txn types.Txn,
) ([]models.OracleResponse, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.OracleResponse
	result := db.Where("request_key = ? AND status = ?", requestKey, status).
		Order("id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
