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

package event

import (
	"github.com/blinklabs-io/surety/database/types"
)

const (
	ContractOperationalEventType = EventType("contract.operational")
	AirlineRegisteredEventType   = EventType("airline.registered")
	AirlineVoteEventType         = EventType("airline.vote")
	AirlineFundedEventType       = EventType("airline.funded")
	FlightRegisteredEventType    = EventType("flight.registered")
	InsurancePurchasedEventType  = EventType("insurance.purchased")
	InsuranceCreditedEventType   = EventType("insurance.credited")
	InsuranceWithdrawnEventType  = EventType("insurance.withdrawn")
	OracleRegisteredEventType    = EventType("oracle.registered")
	OracleRequestEventType       = EventType("oracle.request")
	OracleReportEventType        = EventType("oracle.report")
	OracleResolvedEventType      = EventType("oracle.resolved")
)

// ContractOperationalEvent is emitted when the owner toggles the operational gate
type ContractOperationalEvent struct {
	Caller      types.Address `json:"caller"`
	Operational bool          `json:"operational"`
}

// AirlineRegisteredEvent is emitted when a candidate is admitted to the
// consortium. Votes is zero for admissions below the voting threshold
type AirlineRegisteredEvent struct {
	Airline    types.Address `json:"airline"`
	ProposedBy types.Address `json:"proposedBy"`
	Votes      int           `json:"votes"`
}

type AirlineVoteEvent struct {
	Candidate types.Address `json:"candidate"`
	Voter     types.Address `json:"voter"`
	Votes     int           `json:"votes"`
}

type AirlineFundedEvent struct {
	Airline types.Address `json:"airline"`
	Amount  types.Amount  `json:"amount"`
	Total   types.Amount  `json:"total"`
}

type FlightRegisteredEvent struct {
	FlightNumber string        `json:"flightNumber"`
	Key          types.Hash    `json:"key"`
	Airline      types.Address `json:"airline"`
	Departure    int64         `json:"departure"`
}

type InsurancePurchasedEvent struct {
	PolicyID  string        `json:"policyId"`
	FlightKey types.Hash    `json:"flightKey"`
	Passenger types.Address `json:"passenger"`
	Premium   types.Amount  `json:"premium"`
}

type InsuranceCreditedEvent struct {
	PolicyID  string        `json:"policyId"`
	FlightKey types.Hash    `json:"flightKey"`
	Passenger types.Address `json:"passenger"`
	Credit    types.Amount  `json:"credit"`
}

type InsuranceWithdrawnEvent struct {
	PolicyIDs []string      `json:"policyIds"`
	FlightKey types.Hash    `json:"flightKey"`
	Passenger types.Address `json:"passenger"`
	Amount    types.Amount  `json:"amount"`
}

type OracleRegisteredEvent struct {
	Oracle  types.Address `json:"oracle"`
	Fee     types.Amount  `json:"fee"`
	Indexes [3]uint8      `json:"indexes"`
}

// OracleRequestEvent asks the oracles holding Index to report the status of
// the flight
type OracleRequestEvent struct {
	FlightNumber string        `json:"flightNumber"`
	Key          types.Hash    `json:"key"`
	Airline      types.Address `json:"airline"`
	Requester    types.Address `json:"requester"`
	Departure    int64         `json:"departure"`
	Index        uint8         `json:"index"`
}

type OracleReportEvent struct {
	FlightNumber string        `json:"flightNumber"`
	Key          types.Hash    `json:"key"`
	Airline      types.Address `json:"airline"`
	Oracle       types.Address `json:"oracle"`
	Departure    int64         `json:"departure"`
	Responses    int           `json:"responses"`
	Index        uint8         `json:"index"`
	Status       uint8         `json:"status"`
}

type OracleResolvedEvent struct {
	FlightNumber string        `json:"flightNumber"`
	Key          types.Hash    `json:"key"`
	FlightKey    types.Hash    `json:"flightKey"`
	Airline      types.Address `json:"airline"`
	Departure    int64         `json:"departure"`
	Index        uint8         `json:"index"`
	Status       uint8         `json:"status"`
}

// NewEventData returns a pointer to an empty payload for the event type, or
// nil for unknown types
func NewEventData(eventType EventType) any {
	switch eventType {
	case ContractOperationalEventType:
		return &ContractOperationalEvent{}
	case AirlineRegisteredEventType:
		return &AirlineRegisteredEvent{}
	case AirlineVoteEventType:
		return &AirlineVoteEvent{}
	case AirlineFundedEventType:
		return &AirlineFundedEvent{}
	case FlightRegisteredEventType:
		return &FlightRegisteredEvent{}
	case InsurancePurchasedEventType:
		return &InsurancePurchasedEvent{}
	case InsuranceCreditedEventType:
		return &InsuranceCreditedEvent{}
	case InsuranceWithdrawnEventType:
		return &InsuranceWithdrawnEvent{}
	case OracleRegisteredEventType:
		return &OracleRegisteredEvent{}
	case OracleRequestEventType:
		return &OracleRequestEvent{}
	case OracleReportEventType:
		return &OracleReportEvent{}
	case OracleResolvedEventType:
		return &OracleResolvedEvent{}
	default:
		return nil
	}
}
