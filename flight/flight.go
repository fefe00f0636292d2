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

// Package flight is the registry of insurable flights
package flight

import (
	"context"
	"errors"

	"github.com/blinklabs-io/surety/database"
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/holiman/uint256"
)

type Registry struct {
	ls *ledger.LedgerState
}

func New(ls *ledger.LedgerState) *Registry {
	return &Registry{
		ls: ls,
	}
}

// Key derives the flight key as
// keccak256(airline || flightNumber || uint256be(departure)). Negative
// departures use the 256-bit two's complement encoding
func Key(
	airline types.Address,
	flightNumber string,
	departure int64,
) types.Hash {
	return types.Keccak256(
		airline.Bytes(),
		[]byte(flightNumber),
		EncodeDeparture(departure),
	)
}

// EncodeDeparture returns the 32-byte big-endian encoding of a departure time
func EncodeDeparture(departure int64) []byte {
	var tmp *uint256.Int
	if departure < 0 {
		tmp = new(uint256.Int).Neg(uint256.NewInt(uint64(-departure)))
	} else {
		tmp = uint256.NewInt(uint64(departure))
	}
	ret := tmp.Bytes32()
	return ret[:]
}

// RegisterFlight registers a flight for the calling airline and returns its key
func (r *Registry) RegisterFlight(
	ctx context.Context,
	caller types.Address,
	airline types.Address,
	flightNumber string,
	departure int64,
) (types.Hash, error) {
	key := Key(airline, flightNumber, departure)
	err := r.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "registerFlight",
			Caller: caller,
		},
		func(call *ledger.Call) error {
			if caller != airline {
				return ledger.ErrCallerNotEligible
			}
			db := call.DB()
			record, err := db.GetAirline(airline, call.Txn())
			if err != nil {
				return err
			}
			if record == nil || !record.Operational() {
				return ledger.ErrCallerNotEligible
			}
			existing, err := db.GetFlight(key, call.Txn())
			if err != nil {
				return err
			}
			if existing != nil {
				return ledger.ErrDuplicateFlight
			}
			if err := db.AddFlight(
				&models.Flight{
					Key:          key,
					Airline:      airline,
					FlightNumber: flightNumber,
					Departure:    departure,
					Status:       StatusUnknown,
				},
				call.Txn(),
			); err != nil {
				return err
			}
			call.Emit(
				event.FlightRegisteredEventType,
				event.FlightRegisteredEvent{
					Key:          key,
					Airline:      airline,
					FlightNumber: flightNumber,
					Departure:    departure,
				},
			)
			return nil
		},
	)
	if err != nil {
		return types.Hash{}, err
	}
	return key, nil
}

// SetFlightStatus records the resolved status of a flight within a call
func SetFlightStatus(call *ledger.Call, key types.Hash, status uint8) error {
	err := call.DB().SetFlightStatus(key, status, call.Txn())
	if errors.Is(err, models.ErrFlightNotFound) {
		return ledger.ErrUnknownFlight
	}
	return err
}

// FlightKeysSize returns the number of registered flights
func (r *Registry) FlightKeysSize(ctx context.Context) (int, error) {
	var ret int
	err := r.ls.View(ctx, func(txn *database.Txn) error {
		count, err := r.ls.DB().CountFlights(txn)
		ret = count
		return err
	})
	return ret, err
}

// FlightKeyAt returns the key of the flight at the 0-based registration index
func (r *Registry) FlightKeyAt(ctx context.Context, index int) (types.Hash, error) {
	var ret types.Hash
	err := r.ls.View(ctx, func(txn *database.Txn) error {
		flight, err := r.ls.DB().GetFlightByIndex(index, txn)
		if err != nil {
			return err
		}
		if flight == nil {
			return ledger.ErrUnknownFlight
		}
		ret = flight.Key
		return nil
	})
	return ret, err
}

func (r *Registry) GetFlight(
	ctx context.Context,
	key types.Hash,
) (*models.Flight, error) {
	var ret *models.Flight
	err := r.ls.View(ctx, func(txn *database.Txn) error {
		flight, err := r.ls.DB().GetFlight(key, txn)
		if err != nil {
			return err
		}
		if flight == nil {
			return ledger.ErrUnknownFlight
		}
		ret = flight
		return nil
	})
	return ret, err
}

// GetFlightTime returns the departure time of a flight in unix seconds
func (r *Registry) GetFlightTime(
	ctx context.Context,
	key types.Hash,
) (int64, error) {
	flight, err := r.GetFlight(ctx, key)
	if err != nil {
		return 0, err
	}
	return flight.Departure, nil
}
