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

// GetAirline returns the airline record for the address, or nil if the
// address has never been admitted
func (d *MetadataStoreSqlite) GetAirline(
	address types.Address,
	txn types.Txn,
) (*models.Airline, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Airline{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) SetAirline(
	airline *models.Airline,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Save(airline).Error
}

func (d *MetadataStoreSqlite) CountAirlines(
	operationalOnly bool,
	txn types.Txn,
) (int, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	query := db.Model(&models.Airline{}).Where("registered = ?", true)
	if operationalOnly {
		query = query.Where("funded = ?", true)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (d *MetadataStoreSqlite) GetAirlineCandidate(
	address types.Address,
	txn types.Txn,
) (*models.AirlineCandidate, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.AirlineCandidate{}
	result := db.Where("address = ?", address).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

func (d *MetadataStoreSqlite) AddAirlineCandidate(
	candidate *models.AirlineCandidate,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(candidate).Error
}

// GetAirlineCandidates returns the pending candidates in proposal order
func (d *MetadataStoreSqlite) GetAirlineCandidates(
	txn types.Txn,
) ([]models.AirlineCandidate, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.AirlineCandidate
	if err := db.Order("id").Find(&ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// DeleteAirlineCandidate removes a candidate and all votes cast for it
func (d *MetadataStoreSqlite) DeleteAirlineCandidate(
	address types.Address,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if err := db.Where("candidate = ?", address).Delete(&models.AirlineVote{}).Error; err != nil {
		return err
	}
	return db.Where("address = ?", address).Delete(&models.AirlineCandidate{}).Error
}

// AddAirlineVote records a vote and reports whether it was new. Repeat votes
// from the same voter are ignored
func (d *MetadataStoreSqlite) AddAirlineVote(
	candidate types.Address,
	voter types.Address,
	txn types.Txn,
) (bool, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return false, err
	}
	vote := &models.AirlineVote{
		Candidate: candidate,
		Voter:     voter,
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (d *MetadataStoreSqlite) GetAirlineVotes(
	candidate types.Address,
	txn types.Txn,
) ([]models.AirlineVote, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.AirlineVote
	if err := db.Where("candidate = ?", candidate).Order("id").Find(&ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}
