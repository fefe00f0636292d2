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
)

func (d *MetadataStoreSqlite) GetFlight(
	key types.Hash,
	txn types.Txn,
) (*models.Flight, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Flight{}
	result := db.Where("flight_key = ?", key).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetFlightByIndex returns the flight at the given 0-based registration position
func (d *MetadataStoreSqlite) GetFlightByIndex(
	index int,
	txn types.Txn,
) (*models.Flight, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, nil
	}
	var ret []models.Flight
	if err := db.Order("id").Offset(index).Limit(1).Find(&ret).Error; err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, nil
	}
	return &ret[0], nil
}

func (d *MetadataStoreSqlite) CountFlights(txn types.Txn) (int, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&models.Flight{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (d *MetadataStoreSqlite) AddFlight(
	flight *models.Flight,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(flight).Error
}

func (d *MetadataStoreSqlite) SetFlightStatus(
	key types.Hash,
	status uint8,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Flight{}).
		Where("flight_key = ?", key).
		Updates(map[string]any{
			"status":   status,
			"resolved": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFlightNotFound
	}
	return nil
}
