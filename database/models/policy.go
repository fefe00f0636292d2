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

var ErrPolicyNotFound = errors.New("policy not found")

type Policy struct {
	PolicyID  string        `gorm:"uniqueIndex;size:36"`
	FlightKey types.Hash    `gorm:"index;size:32"`
	Passenger types.Address `gorm:"index;size:20"`
	Premium   types.Amount
	Credit    types.Amount
	ID        uint `gorm:"primarykey"`
	// Credited is set once the policy has been credited and stays set after
	// the credit is withdrawn
	Credited bool
	// Position of the policy within its flight, starting at 0
	FlightIndex uint `gorm:"index"`
}

func (Policy) TableName() string {
	return "policy"
}
