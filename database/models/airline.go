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

import "github.com/blinklabs-io/surety/database/types"

type Airline struct {
	Address      types.Address `gorm:"uniqueIndex;size:20"`
	FundedAmount types.Amount
	ID           uint `gorm:"primarykey"`
	Registered   bool `gorm:"index"`
	Funded       bool `gorm:"index"`
}

func (Airline) TableName() string {
	return "airline"
}

// Operational reports whether the airline may vote and register flights
func (a *Airline) Operational() bool {
	return a.Registered && a.Funded
}

// AirlineCandidate is an airline awaiting consortium votes. The ID orders
// candidates by proposal time
type AirlineCandidate struct {
	Address    types.Address `gorm:"uniqueIndex;size:20"`
	ProposedBy types.Address `gorm:"size:20"`
	ID         uint          `gorm:"primarykey"`
}

func (AirlineCandidate) TableName() string {
	return "airline_candidate"
}

type AirlineVote struct {
	Candidate types.Address `gorm:"uniqueIndex:idx_airline_vote;size:20"`
	Voter     types.Address `gorm:"uniqueIndex:idx_airline_vote;size:20"`
	ID        uint          `gorm:"primarykey"`
}

func (AirlineVote) TableName() string {
	return "airline_vote"
}
