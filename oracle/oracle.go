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

// Package oracle runs the oracle network: registration with index
// assignment, flight status requests and quorum resolution of responses
package oracle

import (
	"context"
	"errors"

	"github.com/blinklabs-io/surety/database"
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
	"github.com/blinklabs-io/surety/insurance"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/holiman/uint256"
)

const (
	// MaxOracleIndex bounds the index shards, indexes are in [0, MaxOracleIndex)
	MaxOracleIndex = 10
	// MinResponses is the number of matching responses that resolves a request
	MinResponses = 3

	maxIndexAttempts = 64
)

// RegistrationFee is the minimum fee to register an oracle
var RegistrationFee = ledger.Ether(1)

var errIndexDerivation = errors.New("failed to derive distinct oracle indexes")

type Oracles struct {
	ls *ledger.LedgerState
}

func New(ls *ledger.LedgerState) *Oracles {
	return &Oracles{
		ls: ls,
	}
}

// RequestKey derives the key of a status request as
// keccak256(index || airline || flightNumber || uint256be(departure))
func RequestKey(
	index uint8,
	airline types.Address,
	flightNumber string,
	departure int64,
) types.Hash {
	return types.Keccak256(
		[]byte{index},
		airline.Bytes(),
		[]byte(flightNumber),
		flight.EncodeDeparture(departure),
	)
}

// RegisterOracle registers the caller as an oracle and assigns it three
// distinct indexes. The attached fee is kept in custody
func (o *Oracles) RegisterOracle(
	ctx context.Context,
	caller types.Address,
	fee *uint256.Int,
) ([3]uint8, error) {
	var indexes [3]uint8
	err := o.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "registerOracle",
			Caller: caller,
			Value:  fee,
		},
		func(call *ledger.Call) error {
			value := call.Value()
			if value.Lt(RegistrationFee) {
				return ledger.ErrInsufficientFee
			}
			db := call.DB()
			existing, err := db.GetOracle(caller, call.Txn())
			if err != nil {
				return err
			}
			if existing != nil {
				return ledger.ErrAlreadyRegistered
			}
			indexes, err = generateIndexes(call, caller)
			if err != nil {
				return err
			}
			if err := db.AddOracle(
				&models.Oracle{
					Address: caller,
					Fee:     types.NewAmount(value),
					Index0:  indexes[0],
					Index1:  indexes[1],
					Index2:  indexes[2],
				},
				call.Txn(),
			); err != nil {
				return err
			}
			call.Emit(
				event.OracleRegisteredEventType,
				event.OracleRegisteredEvent{
					Oracle:  caller,
					Fee:     types.NewAmount(value),
					Indexes: indexes,
				},
			)
			return nil
		},
	)
	if err != nil {
		return [3]uint8{}, err
	}
	return indexes, nil
}

// generateIndexes draws three distinct indexes for the account
func generateIndexes(call *ledger.Call, account types.Address) ([3]uint8, error) {
	var ret [3]uint8
	for i := range ret {
		found := false
		for range maxIndexAttempts {
			idx, err := randomIndex(call, account)
			if err != nil {
				return ret, err
			}
			duplicate := false
			for j := range i {
				if ret[j] == idx {
					duplicate = true
					break
				}
			}
			if !duplicate {
				ret[i] = idx
				found = true
				break
			}
		}
		if !found {
			return ret, errIndexDerivation
		}
	}
	return ret, nil
}

// randomIndex computes keccak256(entropy(nonce) || account) mod
// MaxOracleIndex, advancing the contract nonce
func randomIndex(call *ledger.Call, account types.Address) (uint8, error) {
	nonce, err := call.NextNonce()
	if err != nil {
		return 0, err
	}
	entropy, err := call.Ledger().Randomness().Entropy(call, nonce)
	if err != nil {
		return 0, err
	}
	hash := types.Keccak256(entropy, account.Bytes())
	tmp := new(uint256.Int).SetBytes(hash.Bytes())
	tmp.Mod(tmp, uint256.NewInt(MaxOracleIndex))
	return uint8(tmp.Uint64()), nil //nolint:gosec // always below MaxOracleIndex
}

// GetMyIndexes returns the indexes assigned to the caller
func (o *Oracles) GetMyIndexes(
	ctx context.Context,
	caller types.Address,
) ([3]uint8, error) {
	var ret [3]uint8
	err := o.ls.View(ctx, func(txn *database.Txn) error {
		oracle, err := o.ls.DB().GetOracle(caller, txn)
		if err != nil {
			return err
		}
		if oracle == nil {
			return ledger.ErrOracleNotRegistered
		}
		ret = oracle.Indexes()
		return nil
	})
	return ret, err
}

// FetchFlightStatus opens a status request for a registered flight against
// one pseudo-random index and returns that index. Fetching an open request
// again re-emits it
func (o *Oracles) FetchFlightStatus(
	ctx context.Context,
	caller types.Address,
	airline types.Address,
	flightNumber string,
	departure int64,
) (uint8, error) {
	var index uint8
	err := o.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "fetchFlightStatus",
			Caller: caller,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			flightKey := flight.Key(airline, flightNumber, departure)
			record, err := db.GetFlight(flightKey, call.Txn())
			if err != nil {
				return err
			}
			if record == nil {
				return ledger.ErrUnknownFlight
			}
			if record.Resolved {
				return ledger.ErrFlightResolved
			}
			index, err = randomIndex(call, caller)
			if err != nil {
				return err
			}
			key := RequestKey(index, airline, flightNumber, departure)
			request, err := db.GetOracleRequest(key, call.Txn())
			if err != nil {
				return err
			}
			if request != nil && !request.Open {
				return ledger.ErrRequestNotOpen
			}
			if request == nil {
				if err := db.SetOracleRequest(
					&models.OracleRequest{
						Key:          key,
						Index:        index,
						Airline:      airline,
						FlightNumber: flightNumber,
						Departure:    departure,
						Requester:    caller,
						Open:         true,
					},
					call.Txn(),
				); err != nil {
					return err
				}
			}
			call.Emit(
				event.OracleRequestEventType,
				event.OracleRequestEvent{
					Key:          key,
					Index:        index,
					Airline:      airline,
					FlightNumber: flightNumber,
					Departure:    departure,
					Requester:    caller,
				},
			)
			return nil
		},
	)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// SubmitOracleResponse records the caller's report for an open request. The
// first status to collect MinResponses reports resolves the request and sets
// the flight status, and an airline-caused delay credits the flight's policies
func (o *Oracles) SubmitOracleResponse(
	ctx context.Context,
	caller types.Address,
	index uint8,
	airline types.Address,
	flightNumber string,
	departure int64,
	status uint8,
) error {
	return o.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "submitOracleResponse",
			Caller: caller,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			oracle, err := db.GetOracle(caller, call.Txn())
			if err != nil {
				return err
			}
			if oracle == nil {
				return ledger.ErrOracleNotRegistered
			}
			if !oracle.HasIndex(index) {
				return ledger.ErrIndexMismatch
			}
			key := RequestKey(index, airline, flightNumber, departure)
			request, err := db.GetOracleRequest(key, call.Txn())
			if err != nil {
				return err
			}
			if request == nil || !request.Open {
				return ledger.ErrRequestNotOpen
			}
			if !flight.ValidStatus(status) {
				return ledger.ErrInvalidStatus
			}
			added, err := db.AddOracleResponse(
				&models.OracleResponse{
					RequestKey: key,
					Oracle:     caller,
					Status:     status,
				},
				call.Txn(),
			)
			if err != nil {
				return err
			}
			if !added {
				return nil
			}
			responses, err := db.GetOracleResponses(key, status, call.Txn())
			if err != nil {
				return err
			}
			call.Emit(
				event.OracleReportEventType,
				event.OracleReportEvent{
					Key:          key,
					Index:        index,
					Oracle:       caller,
					Airline:      airline,
					FlightNumber: flightNumber,
					Departure:    departure,
					Status:       status,
					Responses:    len(responses),
				},
			)
			if len(responses) < MinResponses {
				return nil
			}
			return resolve(call, request, status)
		},
	)
}

// resolve closes the request and settles the flight. A flight is settled by
// the first request to reach quorum only; its open requests on other indexes
// are closed with it
func resolve(
	call *ledger.Call,
	request *models.OracleRequest,
	status uint8,
) error {
	db := call.DB()
	request.Open = false
	request.Status = status
	if err := db.SetOracleRequest(request, call.Txn()); err != nil {
		return err
	}
	flightKey := flight.Key(
		request.Airline,
		request.FlightNumber,
		request.Departure,
	)
	record, err := db.GetFlight(flightKey, call.Txn())
	if err != nil {
		return err
	}
	if record == nil {
		return ledger.ErrUnknownFlight
	}
	if record.Resolved {
		return nil
	}
	if err := closeSiblingRequests(call, request); err != nil {
		return err
	}
	if err := flight.SetFlightStatus(call, flightKey, status); err != nil {
		return err
	}
	call.Emit(
		event.OracleResolvedEventType,
		event.OracleResolvedEvent{
			Key:          request.Key,
			FlightKey:    flightKey,
			Index:        request.Index,
			Airline:      request.Airline,
			FlightNumber: request.FlightNumber,
			Departure:    request.Departure,
			Status:       status,
		},
	)
	call.Ledger().Logger().Info(
		"flight status resolved",
		"component", "oracle",
		"flight", request.FlightNumber,
		"status", flight.StatusName(status),
	)
	if status == flight.StatusLateAirline {
		return insurance.CreditPolicies(call, flightKey)
	}
	return nil
}

// closeSiblingRequests closes the flight's open requests on every other index
// without recording a status
func closeSiblingRequests(call *ledger.Call, resolved *models.OracleRequest) error {
	db := call.DB()
	for i := range uint8(MaxOracleIndex) {
		if i == resolved.Index {
			continue
		}
		key := RequestKey(
			i,
			resolved.Airline,
			resolved.FlightNumber,
			resolved.Departure,
		)
		sibling, err := db.GetOracleRequest(key, call.Txn())
		if err != nil {
			return err
		}
		if sibling == nil || !sibling.Open {
			continue
		}
		sibling.Open = false
		if err := db.SetOracleRequest(sibling, call.Txn()); err != nil {
			return err
		}
	}
	return nil
}

// GetRequest returns the status request with the given key
func (o *Oracles) GetRequest(
	ctx context.Context,
	key types.Hash,
) (*models.OracleRequest, error) {
	var ret *models.OracleRequest
	err := o.ls.View(ctx, func(txn *database.Txn) error {
		request, err := o.ls.DB().GetOracleRequest(key, txn)
		if err != nil {
			return err
		}
		if request == nil {
			return ledger.ErrUnknownRequest
		}
		ret = request
		return nil
	})
	return ret, err
}
