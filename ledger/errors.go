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

package ledger

import (
	"errors"
	"fmt"
)

// Failure categories. Every error returned by a ledger call wraps one of these
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotOperational    = errors.New("contract is not operational")
	ErrInvalidState      = errors.New("invalid state")
	ErrOutOfRange        = errors.New("value out of range")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ErrCallPanicked wraps a panic raised inside a call body
var ErrCallPanicked = errors.New("call panicked")

var (
	ErrCallerNotOwner = NewCallError(
		ErrUnauthorized,
		"caller is not the contract owner",
	)
	ErrCallerNotEligible = NewCallError(
		ErrUnauthorized,
		"caller is not a funded airline",
	)
	ErrAlreadyRegistered = NewCallError(
		ErrInvalidState,
		"already registered",
	)
	ErrUnknownCandidate = NewCallError(
		ErrInvalidState,
		"candidate was never proposed",
	)
	ErrDuplicateFlight = NewCallError(
		ErrInvalidState,
		"flight is already registered",
	)
	ErrUnknownFlight = NewCallError(
		ErrInvalidState,
		"unknown flight",
	)
	ErrFlightDeparted = NewCallError(
		ErrInvalidState,
		"flight has already departed",
	)
	ErrPremiumOutOfRange = NewCallError(
		ErrOutOfRange,
		"premium must be greater than zero and at most 1 ether",
	)
	ErrNoPolicy = NewCallError(
		ErrInvalidState,
		"caller holds no policy on the flight",
	)
	ErrNothingOwed = NewCallError(
		ErrInvalidState,
		"nothing owed on the flight",
	)
	ErrInsufficientFee = NewCallError(
		ErrOutOfRange,
		"oracle registration fee too low",
	)
	ErrOracleNotRegistered = NewCallError(
		ErrUnauthorized,
		"oracle is not registered",
	)
	ErrIndexMismatch = NewCallError(
		ErrUnauthorized,
		"index does not match oracle request",
	)
	ErrRequestNotOpen = NewCallError(
		ErrInvalidState,
		"no open oracle request for the flight",
	)
	ErrFlightResolved = NewCallError(
		ErrInvalidState,
		"flight status already resolved",
	)
	ErrInvalidStatus = NewCallError(
		ErrOutOfRange,
		"unknown flight status code",
	)
	ErrFundingBelowMinimum = NewCallError(
		ErrInsufficientFunds,
		"funding below the 10 ether minimum",
	)
	ErrUnknownAirline = NewCallError(
		ErrInvalidState,
		"unknown airline",
	)
	ErrPolicyIndexOutOfRange = NewCallError(
		ErrOutOfRange,
		"policy index out of range",
	)
	ErrUnknownRequest = NewCallError(
		ErrInvalidState,
		"unknown oracle request",
	)
	ErrCustodyUnderflow = NewCallError(
		ErrInsufficientFunds,
		"custody balance too low",
	)
)

// CallError is a rejected ledger call. It unwraps to its failure category so
// callers can match either the specific error or the category with errors.Is
type CallError struct {
	kind   error
	reason string
}

func NewCallError(kind error, reason string) *CallError {
	return &CallError{
		kind:   kind,
		reason: reason,
	}
}

func (e *CallError) Error() string {
	return e.reason
}

func (e *CallError) Unwrap() error {
	return e.kind
}

// Kind returns the failure category
func (e *CallError) Kind() error {
	return e.kind
}

// InsufficientFundsError is returned when the caller's wallet cannot cover the
// value attached to a call
type InsufficientFundsError struct {
	Err error
}

func (e InsufficientFundsError) Error() string {
	return fmt.Sprintf("wallet cannot cover attached value: %s", e.Err)
}

func (e InsufficientFundsError) Unwrap() []error {
	return []error{ErrInsufficientFunds, e.Err}
}
