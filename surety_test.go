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

package surety_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/surety"
	"github.com/blinklabs-io/surety/consortium"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
	"github.com/blinklabs-io/surety/insurance"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/blinklabs-io/surety/oracle"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner     = types.Address{0x01}
	testAirline1  = types.Address{0x11}
	testAirline2  = types.Address{0x12}
	testAirline3  = types.Address{0x13}
	testAirline4  = types.Address{0x14}
	testAirline5  = types.Address{0x15}
	testPassenger = types.Address{0x21}
	testNow       = time.Unix(1_700_000_000, 0)
	testDeparture = testNow.Add(6 * time.Hour).Unix()
)

func newTestSurety(t *testing.T, opts ...surety.ConfigOptionFunc) *surety.Surety {
	t.Helper()
	opts = append(
		[]surety.ConfigOptionFunc{
			surety.WithOwner(testOwner),
			surety.WithFirstAirline(testAirline1),
			surety.WithClock(func() time.Time { return testNow }),
		},
		opts...,
	)
	s, err := surety.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

// fundAirline gives the airline a wallet balance and pays the minimum funding
func fundAirline(t *testing.T, s *surety.Surety, airline types.Address) {
	t.Helper()
	require.NoError(t, s.Fund(airline, consortium.MinimumFunding))
	require.NoError(
		t,
		s.PayFunding(context.Background(), airline, consortium.MinimumFunding),
	)
}

func oracleAddress(i int) types.Address {
	return types.Address{0xa0, byte(i >> 8), byte(i)}
}

func TestNewRequiresOwner(t *testing.T) {
	_, err := surety.New()
	require.Error(t, err)
}

func TestAirlineAdmissionScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestSurety(t)

	ok, err := s.IsAirline(ctx, testAirline1)
	require.NoError(t, err)
	assert.True(t, ok, "first airline is registered at initialization")

	// An unfunded airline cannot propose
	_, err = s.RegisterAirline(ctx, testAirline1, testAirline2)
	require.ErrorIs(t, err, ledger.ErrCallerNotEligible)

	fundAirline(t, s, testAirline1)
	for _, candidate := range []types.Address{testAirline2, testAirline3, testAirline4} {
		admitted, err := s.RegisterAirline(ctx, testAirline1, candidate)
		require.NoError(t, err)
		assert.True(t, admitted, "airlines below the threshold need no votes")
		fundAirline(t, s, candidate)
	}
	count, err := s.OperationalAirlinesCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, count)

	admitted, err := s.RegisterAirline(ctx, testAirline1, testAirline5)
	require.NoError(t, err)
	assert.False(t, admitted)

	admitted, err = s.VoteAirline(ctx, testAirline2, testAirline5)
	require.NoError(t, err)
	assert.False(t, admitted, "two of four votes is not a majority")

	// Voting twice does not count twice
	admitted, err = s.VoteAirline(ctx, testAirline2, testAirline5)
	require.NoError(t, err)
	assert.False(t, admitted)
	votes, err := s.VotesCount(ctx, testAirline5)
	require.NoError(t, err)
	assert.Equal(t, 2, votes)
	pending, err := s.AirlinesAwaitingVotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{testAirline5}, pending)

	admitted, err = s.VoteAirline(ctx, testAirline3, testAirline5)
	require.NoError(t, err)
	assert.True(t, admitted)

	ok, err = s.IsAirline(ctx, testAirline5)
	require.NoError(t, err)
	assert.True(t, ok)
	pending, err = s.AirlinesAwaitingVotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	total, err := s.CountAirlines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	// Admitted but unfunded airlines do not count towards the quorum
	count, err = s.OperationalAirlinesCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = s.VoteAirline(ctx, testAirline4, testAirline5)
	require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)
}

func TestPayFundingBelowMinimum(t *testing.T) {
	ctx := context.Background()
	s := newTestSurety(t)
	require.NoError(t, s.Fund(testAirline1, ledger.Ether(20)))

	err := s.PayFunding(ctx, testAirline1, ledger.Ether(9))
	require.ErrorIs(t, err, ledger.ErrFundingBelowMinimum)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	airline, err := s.GetAirline(ctx, testAirline1)
	require.NoError(t, err)
	assert.False(t, airline.Funded)
	assert.True(t, airline.FundedAmount.IsZero())
	assert.Equal(t, ledger.Ether(20), s.Balance(testAirline1))
	assert.True(t, s.Balance(s.ContractAddress()).IsZero())
}

// registerFlight funds the first airline and registers one future flight
func registerFlight(t *testing.T, s *surety.Surety) types.Hash {
	t.Helper()
	fundAirline(t, s, testAirline1)
	key, err := s.RegisterFlight(
		context.Background(),
		testAirline1,
		testAirline1,
		"ND1309",
		testDeparture,
	)
	require.NoError(t, err)
	require.Equal(t, s.FlightKey(testAirline1, "ND1309", testDeparture), key)
	return key
}

func TestBuyInsuranceScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestSurety(t)
	key := registerFlight(t, s)
	premium, err := types.ParseAmount("234500000000000000")
	require.NoError(t, err)
	require.NoError(t, s.Fund(testPassenger, ledger.Ether(1)))

	policyID, err := s.BuyInsurance(ctx, testPassenger, key, premium.Uint256())
	require.NoError(t, err)
	assert.NotEmpty(t, policyID)

	size, err := s.InsurancesSize(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
	policy, err := s.GetInsuranceForIndex(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, policyID, policy.PolicyID)
	assert.Equal(t, testPassenger, policy.Passenger)
	assert.Equal(t, premium.String(), policy.Premium.String())
	assert.True(t, policy.Credit.IsZero())

	_, err = s.GetInsuranceForIndex(ctx, key, 1)
	require.ErrorIs(t, err, ledger.ErrPolicyIndexOutOfRange)

	_, err = s.BuyInsurance(
		ctx,
		testPassenger,
		types.Keccak256([]byte("nope")),
		premium.Uint256(),
	)
	require.ErrorIs(t, err, ledger.ErrUnknownFlight)

	_, err = s.BuyInsurance(
		ctx,
		testPassenger,
		key,
		new(uint256.Int).AddUint64(insurance.MaxPremium, 1),
	)
	require.ErrorIs(t, err, ledger.ErrOutOfRange)

	remaining := new(uint256.Int).Sub(ledger.Ether(1), premium.Uint256())
	assert.Equal(t, remaining, s.Balance(testPassenger))
}

func TestBuyInsuranceDepartedFlight(t *testing.T) {
	ctx := context.Background()
	now := testNow
	s := newTestSurety(t, surety.WithClock(func() time.Time { return now }))
	key := registerFlight(t, s)
	require.NoError(t, s.Fund(testPassenger, ledger.Ether(1)))

	now = time.Unix(testDeparture, 0)
	_, err := s.BuyInsurance(ctx, testPassenger, key, ledger.Milliether(100))
	require.ErrorIs(t, err, ledger.ErrFlightDeparted)
	assert.Equal(t, ledger.Ether(1), s.Balance(testPassenger))
}

func TestOracleQuorumScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestSurety(t)
	key := registerFlight(t, s)
	premium := ledger.Milliether(500)
	require.NoError(t, s.Fund(testPassenger, ledger.Ether(1)))
	_, err := s.BuyInsurance(ctx, testPassenger, key, premium)
	require.NoError(t, err)

	indexes := make(map[types.Address][3]uint8)
	register := func(i int) {
		address := oracleAddress(i)
		require.NoError(t, s.Fund(address, oracle.RegistrationFee))
		assigned, err := s.RegisterOracle(ctx, address, oracle.RegistrationFee)
		require.NoError(t, err)
		assert.NotEqual(t, assigned[0], assigned[1])
		assert.NotEqual(t, assigned[0], assigned[2])
		assert.NotEqual(t, assigned[1], assigned[2])
		for _, idx := range assigned {
			assert.Less(t, idx, uint8(oracle.MaxOracleIndex))
		}
		mine, err := s.GetMyIndexes(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, assigned, mine)
		indexes[address] = assigned
	}
	for i := range 19 {
		register(i)
	}

	index, err := s.FetchFlightStatus(ctx, testPassenger, testAirline1, "ND1309", testDeparture)
	require.NoError(t, err)
	var matching, others []types.Address
	for i := range len(indexes) {
		address := oracleAddress(i)
		if hasIndex(indexes[address], index) {
			matching = append(matching, address)
		} else {
			others = append(others, address)
		}
	}
	// Registering more oracles does not affect the open request
	for i := len(indexes); len(matching) < oracle.MinResponses; i++ {
		register(i)
		if hasIndex(indexes[oracleAddress(i)], index) {
			matching = append(matching, oracleAddress(i))
		}
	}
	require.NotEmpty(t, others)

	err = s.SubmitOracleResponse(
		ctx, others[0], index, testAirline1, "ND1309", testDeparture, flight.StatusLateAirline,
	)
	require.ErrorIs(t, err, ledger.ErrIndexMismatch)

	for i, address := range matching[:oracle.MinResponses] {
		err := s.SubmitOracleResponse(
			ctx, address, index, testAirline1, "ND1309", testDeparture, flight.StatusLateAirline,
		)
		require.NoError(t, err)
		record, err := s.GetFlight(ctx, key)
		require.NoError(t, err)
		if i < oracle.MinResponses-1 {
			assert.Equal(t, flight.StatusUnknown, record.Status, "resolved before quorum")
		} else {
			assert.Equal(t, flight.StatusLateAirline, record.Status)
		}
	}

	request, err := s.GetRequest(
		ctx,
		oracle.RequestKey(index, testAirline1, "ND1309", testDeparture),
	)
	require.NoError(t, err)
	assert.False(t, request.Open)
	assert.Equal(t, flight.StatusLateAirline, request.Status)

	policies, err := s.PoliciesFor(ctx, key, testPassenger)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	credit := insurance.Payout(premium)
	assert.Equal(t, ledger.Milliether(750), credit)
	assert.Equal(t, credit.Dec(), policies[0].Credit.String())

	// Late reports after resolution change nothing
	if len(matching) > oracle.MinResponses {
		err = s.SubmitOracleResponse(
			ctx, matching[oracle.MinResponses], index, testAirline1, "ND1309", testDeparture, flight.StatusOnTime,
		)
		require.ErrorIs(t, err, ledger.ErrRequestNotOpen)
	}
	record, err := s.GetFlight(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusLateAirline, record.Status)

	before := s.Balance(testPassenger)
	paid, err := s.Withdraw(ctx, testPassenger, key)
	require.NoError(t, err)
	assert.Equal(t, credit, paid)
	assert.Equal(t, new(uint256.Int).Add(before, credit), s.Balance(testPassenger))

	_, err = s.Withdraw(ctx, testPassenger, key)
	require.ErrorIs(t, err, ledger.ErrNothingOwed)
	assert.Equal(t, new(uint256.Int).Add(before, credit), s.Balance(testPassenger))
}

func hasIndex(indexes [3]uint8, index uint8) bool {
	for _, idx := range indexes {
		if idx == index {
			return true
		}
	}
	return false
}

func TestOperationalGate(t *testing.T) {
	ctx := context.Background()
	s := newTestSurety(t)
	fundAirline(t, s, testAirline1)

	err := s.SetOperational(ctx, testAirline1, false)
	require.ErrorIs(t, err, ledger.ErrCallerNotOwner)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	require.NoError(t, s.SetOperational(ctx, testOwner, false))
	operational, err := s.IsOperational(ctx)
	require.NoError(t, err)
	assert.False(t, operational)

	_, err = s.RegisterFlight(ctx, testAirline1, testAirline1, "ND1309", testDeparture)
	require.ErrorIs(t, err, ledger.ErrNotOperational)
	size, err := s.FlightKeysSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	require.NoError(t, s.SetOperational(ctx, testOwner, true))
	_, err = s.RegisterFlight(ctx, testAirline1, testAirline1, "ND1309", testDeparture)
	require.NoError(t, err)
}

func TestEventsJournal(t *testing.T) {
	ctx := context.Background()
	s := newTestSurety(t)
	subId, evtCh := s.EventBus().Subscribe(event.FlightRegisteredEventType)
	defer s.EventBus().Unsubscribe(event.FlightRegisteredEventType, subId)
	key := registerFlight(t, s)

	select {
	case evt := <-evtCh:
		data, ok := evt.Data.(event.FlightRegisteredEvent)
		require.True(t, ok)
		assert.Equal(t, key, data.Key)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for flight event")
	}

	events, err := s.Events(1, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, event.AirlineRegisteredEventType, events[0].Type)
	assert.Equal(t, event.AirlineFundedEventType, events[1].Type)
	assert.Equal(t, event.FlightRegisteredEventType, events[2].Type)
	registered, ok := events[2].Data.(event.FlightRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, key, registered.Key)
	assert.Equal(t, "ND1309", registered.FlightNumber)
	for i, evt := range events {
		assert.Equal(t, uint64(i+1), evt.Seq)
	}

	// Failed calls are not journaled
	_, err = s.RegisterFlight(ctx, testAirline1, testAirline1, "ND1309", testDeparture)
	require.ErrorIs(t, err, ledger.ErrDuplicateFlight)
	events, err = s.Events(4, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReopenPersistsState(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	s, err := surety.New(
		surety.WithOwner(testOwner),
		surety.WithFirstAirline(testAirline1),
		surety.WithDatabasePath(dataDir),
		surety.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	key := registerFlight(t, s)
	require.NoError(t, s.Close())

	// The owner is fixed by the first initialization
	s, err = surety.New(
		surety.WithOwner(testPassenger),
		surety.WithDatabasePath(dataDir),
		surety.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, testOwner, s.Owner())
	// The in-memory wallet is rebuilt from the persisted custody balance
	assert.Equal(t, consortium.MinimumFunding, s.Balance(s.ContractAddress()))
	departure, err := s.GetFlightTime(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, testDeparture, departure)
	first, err := s.FlightKeyAt(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, key, first)
	events, err := s.Events(1, 0)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}
