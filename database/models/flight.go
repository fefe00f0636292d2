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

var ErrFlightNotFound = errors.New("flight not found")

type Flight struct {
	FlightNumber string
	Key          types.Hash    `gorm:"column:flight_key;uniqueIndex;size:32"`
	Airline      types.Address `gorm:"index;size:20"`
	// ID doubles as the 1-based enumeration ordinal
	ID        uint `gorm:"primarykey"`
	Departure int64
	Status    uint8
	// Resolved is set once oracles reach quorum. Status 0 is a valid result,
	// so Status alone cannot tell an unresolved flight apart
	Resolved bool
}

func (Flight) TableName() string {
	return "flight"
}
