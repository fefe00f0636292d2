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

// Package consortium manages airline membership: admission by the founding
// airlines, voting on later candidates and funding
package consortium

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

// AirlineVotingThreshold is the number of registered airlines from which new
// candidates need votes from the consortium
const AirlineVotingThreshold = 4

// MinimumFunding is the smallest deposit that makes an airline operational
var MinimumFunding = ledger.Ether(10)

type Consortium struct {
	ls *ledger.LedgerState
}

func New(ls *ledger.LedgerState) *Consortium {
	return &Consortium{
		ls: ls,
	}
}

// RegisterAirline proposes a candidate. Below the voting threshold the
// candidate is admitted immediately, otherwise the call counts as the caller's
// vote. It reports whether the candidate is registered after the call
func (c *Consortium) RegisterAirline(
	ctx context.Context,
	caller types.Address,
	candidate types.Address,
) (bool, error) {
	var admitted bool
	err := c.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "registerAirline",
			Caller: caller,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			if err := requireOperational(call, caller); err != nil {
				return err
			}
			existing, err := db.GetAirline(candidate, call.Txn())
			if err != nil {
				return err
			}
			if existing != nil && existing.Registered {
				return ledger.ErrAlreadyRegistered
			}
			registered, err := db.CountAirlines(false, call.Txn())
			if err != nil {
				return err
			}
			if registered < AirlineVotingThreshold {
				admitted = true
				return admit(call, candidate, caller, 0)
			}
			pending, err := db.GetAirlineCandidate(candidate, call.Txn())
			if err != nil {
				return err
			}
			if pending == nil {
				err := db.AddAirlineCandidate(
					&models.AirlineCandidate{
						Address:    candidate,
						ProposedBy: caller,
					},
					call.Txn(),
				)
				if err != nil {
					return err
				}
			}
			admitted, err = vote(call, candidate, caller)
			return err
		},
	)
	if err != nil {
		return false, err
	}
	return admitted, nil
}

// VoteAirline adds the caller's vote for a pending candidate and reports
// whether the candidate was admitted
func (c *Consortium) VoteAirline(
	ctx context.Context,
	caller types.Address,
	candidate types.Address,
) (bool, error) {
	var admitted bool
	err := c.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "voteAirline",
			Caller: caller,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			if err := requireOperational(call, caller); err != nil {
				return err
			}
			existing, err := db.GetAirline(candidate, call.Txn())
			if err != nil {
				return err
			}
			if existing != nil && existing.Registered {
				return ledger.ErrAlreadyRegistered
			}
			pending, err := db.GetAirlineCandidate(candidate, call.Txn())
			if err != nil {
				return err
			}
			if pending == nil {
				return ledger.ErrUnknownCandidate
			}
			admitted, err = vote(call, candidate, caller)
			return err
		},
	)
	if err != nil {
		return false, err
	}
	return admitted, nil
}

// PayFunding deposits the attached amount into custody and marks the caller
// funded. Deposits accumulate
func (c *Consortium) PayFunding(
	ctx context.Context,
	caller types.Address,
	amount *uint256.Int,
) error {
	return c.ls.Execute(
		ctx,
		ledger.Request{
			Name:   "payFunding",
			Caller: caller,
			Value:  amount,
		},
		func(call *ledger.Call) error {
			db := call.DB()
			airline, err := db.GetAirline(caller, call.Txn())
			if err != nil {
				return err
			}
			if airline == nil || !airline.Registered {
				return ledger.ErrCallerNotEligible
			}
			value := call.Value()
			if value.Lt(MinimumFunding) {
				return ledger.ErrFundingBelowMinimum
			}
			total := airline.FundedAmount.Uint256()
			total.Add(total, value)
			airline.FundedAmount = types.NewAmount(total)
			airline.Funded = true
			if err := db.SetAirline(airline, call.Txn()); err != nil {
				return err
			}
			call.Emit(
				event.AirlineFundedEventType,
				event.AirlineFundedEvent{
					Airline: caller,
					Amount:  types.NewAmount(value),
					Total:   airline.FundedAmount,
				},
			)
			return nil
		},
	)
}

// requireOperational fails unless the address is a registered and funded airline
func requireOperational(call *ledger.Call, address types.Address) error {
	airline, err := call.DB().GetAirline(address, call.Txn())
	if err != nil {
		return err
	}
	if airline == nil || !airline.Operational() {
		return ledger.ErrCallerNotEligible
	}
	return nil
}

// vote records a vote and admits the candidate once more than half of the
// operational airlines have voted for it
func vote(
	call *ledger.Call,
	candidate types.Address,
	voter types.Address,
) (bool, error) {
	db := call.DB()
	added, err := db.AddAirlineVote(candidate, voter, call.Txn())
	if err != nil {
		return false, err
	}
	votes, err := db.GetAirlineVotes(candidate, call.Txn())
	if err != nil {
		return false, err
	}
	if added {
		call.Emit(
			event.AirlineVoteEventType,
			event.AirlineVoteEvent{
				Candidate: candidate,
				Voter:     voter,
				Votes:     len(votes),
			},
		)
	}
	operational, err := db.CountAirlines(true, call.Txn())
	if err != nil {
		return false, err
	}
	if len(votes)*2 <= operational {
		return false, nil
	}
	pending, err := db.GetAirlineCandidate(candidate, call.Txn())
	if err != nil {
		return false, err
	}
	proposedBy := voter
	if pending != nil {
		proposedBy = pending.ProposedBy
	}
	return true, admit(call, candidate, proposedBy, len(votes))
}

func admit(
	call *ledger.Call,
	candidate types.Address,
	proposedBy types.Address,
	votes int,
) error {
	db := call.DB()
	if err := db.SetAirline(
		&models.Airline{
			Address:    candidate,
			Registered: true,
		},
		call.Txn(),
	); err != nil {
		return err
	}
	if err := db.DeleteAirlineCandidate(candidate, call.Txn()); err != nil {
		return err
	}
	call.Emit(
		event.AirlineRegisteredEventType,
		event.AirlineRegisteredEvent{
			Airline:    candidate,
			ProposedBy: proposedBy,
			Votes:      votes,
		},
	)
	call.Ledger().Logger().Info(
		"airline admitted",
		"component", "consortium",
		"airline", candidate.String(),
		"votes", votes,
	)
	return nil
}

// AirlinesAwaitingVotes returns the pending candidates in proposal order
func (c *Consortium) AirlinesAwaitingVotes(
	ctx context.Context,
) ([]types.Address, error) {
	var ret []types.Address
	err := c.ls.View(ctx, func(txn *database.Txn) error {
		candidates, err := c.ls.DB().GetAirlineCandidates(txn)
		if err != nil {
			return err
		}
		ret = make([]types.Address, 0, len(candidates))
		for _, candidate := range candidates {
			ret = append(ret, candidate.Address)
		}
		return nil
	})
	return ret, err
}

// VotesOnNewRegistration returns the distinct voters for a pending candidate
func (c *Consortium) VotesOnNewRegistration(
	ctx context.Context,
	candidate types.Address,
) ([]types.Address, error) {
	var ret []types.Address
	err := c.ls.View(ctx, func(txn *database.Txn) error {
		votes, err := c.ls.DB().GetAirlineVotes(candidate, txn)
		if err != nil {
			return err
		}
		ret = make([]types.Address, 0, len(votes))
		for _, vote := range votes {
			ret = append(ret, vote.Voter)
		}
		return nil
	})
	return ret, err
}

func (c *Consortium) VotesCount(
	ctx context.Context,
	candidate types.Address,
) (int, error) {
	voters, err := c.VotesOnNewRegistration(ctx, candidate)
	if err != nil {
		return 0, err
	}
	return len(voters), nil
}

// CountAirlines returns the number of registered airlines, funded or not
func (c *Consortium) CountAirlines(ctx context.Context) (int, error) {
	return c.countAirlines(ctx, false)
}

// OperationalAirlinesCount returns the number of registered and funded airlines
func (c *Consortium) OperationalAirlinesCount(ctx context.Context) (int, error) {
	return c.countAirlines(ctx, true)
}

func (c *Consortium) countAirlines(
	ctx context.Context,
	operationalOnly bool,
) (int, error) {
	var ret int
	err := c.ls.View(ctx, func(txn *database.Txn) error {
		count, err := c.ls.DB().CountAirlines(operationalOnly, txn)
		ret = count
		return err
	})
	return ret, err
}

// IsAirline reports whether the address is a registered airline
func (c *Consortium) IsAirline(
	ctx context.Context,
	address types.Address,
) (bool, error) {
	airline, err := c.GetAirline(ctx, address)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownAirline) {
			return false, nil
		}
		return false, err
	}
	return airline.Registered, nil
}

func (c *Consortium) GetAirline(
	ctx context.Context,
	address types.Address,
) (*models.Airline, error) {
	var ret *models.Airline
	err := c.ls.View(ctx, func(txn *database.Txn) error {
		airline, err := c.ls.DB().GetAirline(address, txn)
		if err != nil {
			return err
		}
		if airline == nil {
			return ledger.ErrUnknownAirline
		}
		ret = airline
		return nil
	})
	return ret, err
}
