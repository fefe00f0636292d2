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

// Package insurance sells flight-delay policies and holds their premiums and
// payouts in custody
package insurance

import (
	"context"

	"github.com/blinklabs-io/surety/database"
	"github.com/blinklabs-io/surety/database/models"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// MaxPremium is the largest premium accepted for a single policy
var MaxPremium = ledger.Ether(1)

// Payout returns the credit owed for a premium on an airline-caused delay,
// 1.5 times the premium rounded down
func Payout(premium *uint256.Int) *uint256.Int {
	ret := new(uint256.Int).Mul(premium, uint256.NewInt(3))
	return ret.Div(ret, uint256.NewInt(2))
}

type Module struct {
	ls *ledger.LedgerState
}

func New(ls *ledger.LedgerState) *Module {
	return &Module{
		ls: ls,
	}
}

// BuyInsurance creates a policy on a future flight. The premium is taken
// from the caller's wallet into custody
func (m *Module) BuyInsurance(
	ctx context.Context,
	caller types.Address,
	flightKey types.Hash,
	premium *uint256.Int,
) (string, error) {
	policyID := uuid.NewString()
	err := m.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "buyInsurance",
			Caller: caller,
			Value:  premium,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			flight, err := db.GetFlight(flightKey, call.Txn())
			if err != nil {
				return err
			}
			if flight == nil {
				return ledger.ErrUnknownFlight
			}
			if flight.Departure <= call.Now().Unix() {
				return ledger.ErrFlightDeparted
			}
			value := call.Value()
			if value.IsZero() || value.Gt(MaxPremium) {
				return ledger.ErrPremiumOutOfRange
			}
			if err := db.AddPolicy(
				&models.Policy{
					PolicyID:  policyID,
					FlightKey: flightKey,
					Passenger: caller,
					Premium:   types.NewAmount(value),
				},
				call.Txn(),
			); err != nil {
				return err
			}
			call.Emit(
				event.InsurancePurchasedEventType,
				event.InsurancePurchasedEvent{
					PolicyID:  policyID,
					FlightKey: flightKey,
					Passenger: caller,
					Premium:   types.NewAmount(value),
				},
			)
			return nil
		},
	)
	if err != nil {
		return "", err
	}
	return policyID, nil
}

// Withdraw pays the caller everything credited on their policies for the
// flight. Credits are zeroed before the transfer, so a re-entrant withdrawal
// finds nothing owed
func (m *Module) Withdraw(
	ctx context.Context,
	caller types.Address,
	flightKey types.Hash,
) (*uint256.Int, error) {
	total := new(uint256.Int)
	err := m.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "withdraw",
			Caller: caller,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			policies, err := db.GetPolicies(flightKey, &caller, call.Txn())
			if err != nil {
				return err
			}
			if len(policies) == 0 {
				return ledger.ErrNoPolicy
			}
			var policyIDs []string
			for _, policy := range policies {
				credit := policy.Credit.Uint256()
				if credit.IsZero() {
					continue
				}
				total.Add(total, credit)
				policyIDs = append(policyIDs, policy.PolicyID)
				if err := db.SetPolicyCredit(
					policy.PolicyID,
					types.Amount{},
					policy.Credited,
					call.Txn(),
				); err != nil {
					return err
				}
			}
			if total.IsZero() {
				return ledger.ErrNothingOwed
			}
			if err := call.Pay(caller, total); err != nil {
				return err
			}
			call.Emit(
				event.InsuranceWithdrawnEventType,
				event.InsuranceWithdrawnEvent{
					PolicyIDs: policyIDs,
					FlightKey: flightKey,
					Passenger: caller,
					Amount:    types.NewAmount(total),
				},
			)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return total, nil
}

// CreditPolicies credits every policy on the flight that has not been
// credited yet with its payout
func CreditPolicies(call *ledger.Call, flightKey types.Hash) error {
	db := call.DB()
	policies, err := db.GetPolicies(flightKey, nil, call.Txn())
	if err != nil {
		return err
	}
	for _, policy := range policies {
		if policy.Credited {
			continue
		}
		credit := types.NewAmount(Payout(policy.Premium.Uint256()))
		if err := db.SetPolicyCredit(
			policy.PolicyID,
			credit,
			true,
			call.Txn(),
		); err != nil {
			return err
		}
		call.Emit(
			event.InsuranceCreditedEventType,
			event.InsuranceCreditedEvent{
				PolicyID:  policy.PolicyID,
				FlightKey: flightKey,
				Passenger: policy.Passenger,
				Credit:    credit,
			},
		)
	}
	return nil
}

// InsurancesSize returns the number of policies sold on the flight
func (m *Module) InsurancesSize(
	ctx context.Context,
	flightKey types.Hash,
) (int, error) {
	var ret int
	err := m.ls.View(ctx, func(txn *database.Txn) error {
		count, err := m.ls.DB().CountPolicies(flightKey, txn)
		ret = count
		return err
	})
	return ret, err
}

// GetInsuranceForIndex returns the policy at the 0-based purchase index
func (m *Module) GetInsuranceForIndex(
	ctx context.Context,
	flightKey types.Hash,
	index int,
) (*models.Policy, error) {
	var ret *models.Policy
	err := m.ls.View(ctx, func(txn *database.Txn) error {
		policy, err := m.ls.DB().GetPolicyByIndex(flightKey, index, txn)
		if err != nil {
			return err
		}
		if policy == nil {
			return ledger.ErrPolicyIndexOutOfRange
		}
		ret = policy
		return nil
	})
	return ret, err
}

// PoliciesFor returns the passenger's policies on the flight
func (m *Module) PoliciesFor(
	ctx context.Context,
	flightKey types.Hash,
	passenger types.Address,
) ([]models.Policy, error) {
	var ret []models.Policy
	err := m.ls.View(ctx, func(txn *database.Txn) error {
		policies, err := m.ls.DB().GetPolicies(flightKey, &passenger, txn)
		ret = policies
		return err
	})
	return ret, err
}
