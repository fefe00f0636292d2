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

package models

import (
	"errors"

	"github.com/blinklabs-io/surety/database/types"
)

var ErrOracleNotFound = errors.New("oracle not found")

type Oracle struct {
	Address types.Address `gorm:"uniqueIndex;size:20"`
	Fee     types.Amount
	ID      uint `gorm:"primarykey"`
	Index0  uint8
	Index1  uint8
	Index2  uint8
}

func (Oracle) TableName() string {
	return "oracle"
}

func (o *Oracle) Indexes() [3]uint8 {
	return [3]uint8{o.Index0, o.Index1, o.Index2}
}

func (o *Oracle) HasIndex(index uint8) bool {
	return o.Index0 == index || o.Index1 == index || o.Index2 == index
}

type OracleRequest struct {
	FlightNumber string
	Key          types.Hash    `gorm:"column:request_key;uniqueIndex;size:32"`
	Airline      types.Address `gorm:"size:20"`
	Requester    types.Address `gorm:"size:20"`
	ID           uint          `gorm:"primarykey"`
	Departure    int64
	Index        uint8 `gorm:"column:oracle_index"`
	Open         bool `gorm:"index"`
	// Resolved status code, only meaningful once the request is closed
	Status uint8
}

func (OracleRequest) TableName() string {
	return "oracle_request"
}

type OracleResponse struct {
	RequestKey types.Hash    `gorm:"uniqueIndex:idx_oracle_response;size:32"`
	Oracle     types.Address `gorm:"uniqueIndex:idx_oracle_response;size:20"`
	ID         uint          `gorm:"primarykey"`
	Status     uint8         `gorm:"uniqueIndex:idx_oracle_response"`
}

func (OracleResponse) TableName() string {
	return "oracle_response"
}
