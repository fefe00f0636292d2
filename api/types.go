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

package api

import (
	"time"

	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type StatusResponse struct {
	Owner               types.Address `json:"owner"`
	Contract            types.Address `json:"contract"`
	Operational         bool          `json:"operational"`
	Airlines            int           `json:"airlines"`
	OperationalAirlines int           `json:"operational_airlines"`
	Flights             int           `json:"flights"`
}

type OperationalRequest struct {
	Operational bool `json:"operational"`
}

type RegisterAirlineRequest struct {
	Airline types.Address `json:"airline"`
}

type AirlineRegistrationResponse struct {
	Airline    types.Address `json:"airline"`
	Registered bool          `json:"registered"`
}

type AmountRequest struct {
	Amount types.Amount `json:"amount"`
}

type AirlineResponse struct {
	Address      types.Address `json:"address"`
	FundedAmount types.Amount  `json:"funded_amount"`
	Registered   bool          `json:"registered"`
	Funded       bool          `json:"funded"`
}

func airlineResponse(airline *models.Airline) AirlineResponse {
	return AirlineResponse{
		Address:      airline.Address,
		FundedAmount: airline.FundedAmount,
		Registered:   airline.Registered,
		Funded:       airline.Funded,
	}
}

type PendingAirlineResponse struct {
	Candidate types.Address   `json:"candidate"`
	Voters    []types.Address `json:"voters"`
}

type RegisterFlightRequest struct {
	FlightNumber string `json:"flight_number"`
	// Departure is a unix timestamp in seconds
	Departure int64 `json:"departure"`
}

type FlightKeyResponse struct {
	Key types.Hash `json:"key"`
}

type FlightResponse struct {
	Key          types.Hash    `json:"key"`
	Airline      types.Address `json:"airline"`
	FlightNumber string        `json:"flight_number"`
	StatusName   string        `json:"status_name"`
	Departure    int64         `json:"departure"`
	Status       uint8         `json:"status"`
	Resolved     bool          `json:"resolved"`
}

func flightResponse(record *models.Flight) FlightResponse {
	return FlightResponse{
		Key:          record.Key,
		Airline:      record.Airline,
		FlightNumber: record.FlightNumber,
		Departure:    record.Departure,
		Status:       record.Status,
		Resolved:     record.Resolved,
		StatusName:   flight.StatusName(record.Status),
	}
}

type BuyInsuranceRequest struct {
	Premium types.Amount `json:"premium"`
}

type PolicyIDResponse struct {
	PolicyID string `json:"policy_id"`
}

type PolicyResponse struct {
	PolicyID  string        `json:"policy_id"`
	FlightKey types.Hash    `json:"flight_key"`
	Passenger types.Address `json:"passenger"`
	Premium   types.Amount  `json:"premium"`
	Credit    types.Amount  `json:"credit"`
	Credited  bool          `json:"credited"`
}

func policyResponse(policy *models.Policy) PolicyResponse {
	return PolicyResponse{
		PolicyID:  policy.PolicyID,
		FlightKey: policy.FlightKey,
		Passenger: policy.Passenger,
		Premium:   policy.Premium,
		Credit:    policy.Credit,
		Credited:  policy.Credited,
	}
}

type AmountResponse struct {
	Amount types.Amount `json:"amount"`
}

type IndexResponse struct {
	Index uint8 `json:"index"`
}

type RegisterOracleRequest struct {
	Fee types.Amount `json:"fee"`
}

type IndexesResponse struct {
	Indexes [3]uint8 `json:"indexes"`
}

type OracleResponseRequest struct {
	Airline      types.Address `json:"airline"`
	FlightNumber string        `json:"flight_number"`
	Departure    int64         `json:"departure"`
	Index        uint8         `json:"index"`
	Status       uint8         `json:"status"`
}

type RequestResponse struct {
	Key          types.Hash    `json:"key"`
	Airline      types.Address `json:"airline"`
	Requester    types.Address `json:"requester"`
	FlightNumber string        `json:"flight_number"`
	Departure    int64         `json:"departure"`
	Index        uint8         `json:"index"`
	Status       uint8         `json:"status"`
	Open         bool          `json:"open"`
}

func requestResponse(request *models.OracleRequest) RequestResponse {
	return RequestResponse{
		Key:          request.Key,
		Airline:      request.Airline,
		Requester:    request.Requester,
		FlightNumber: request.FlightNumber,
		Departure:    request.Departure,
		Index:        request.Index,
		Status:       request.Status,
		Open:         request.Open,
	}
}

type EventResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      any             `json:"data"`
	Type      event.EventType `json:"type"`
	Seq       uint64          `json:"seq"`
}

type BalanceResponse struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
}
