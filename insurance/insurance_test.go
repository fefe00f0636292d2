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

package insurance_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/surety/consortium"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
	"github.com/blinklabs-io/surety/insurance"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/blinklabs-io/surety/wallet"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner     = types.Address{0x01}
	testAirline   = types.Address{0x11}
	testPassenger = types.Address{0x21}
	testContract  = types.Address{0xcc}
	testNow       = time.Unix(1_700_000_000, 0)
)

type testEnv struct {
	ls        *ledger.LedgerState
	wallet    *wallet.Memory
	m         *insurance.Module
	flightKey types.Hash
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	e := &testEnv{
		wallet: wallet.NewMemory(nil),
		now:    testNow,
	}
	eventBus := event.NewEventBus(nil, nil)
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		EventBus:     eventBus,
		Funds:        e.wallet,
		Owner:        testOwner,
		FirstAirline: testAirline,
		Contract:     testContract,
		Clock:        func() time.Time { return e.now },
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
		eventBus.Shutdown()
	})
	e.ls = ls
	e.m = insurance.New(ls)
	require.NoError(t, e.wallet.Fund(testAirline, consortium.MinimumFunding))
	require.NoError(
		t,
		consortium.New(ls).PayFunding(ctx, testAirline, consortium.MinimumFunding),
	)
	e.flightKey, err = flight.New(ls).RegisterFlight(
		ctx,
		testAirline,
		testAirline,
		"ND1309",
		testNow.Add(2*time.Hour).Unix(),
	)
	require.NoError(t, err)
	require.NoError(t, e.wallet.Fund(testPassenger, ledger.Ether(5)))
	return e
}

// credit marks the flight as delayed by the airline and credits its policies
func (e *testEnv) credit(t *testing.T) {
	t.Helper()
	err := e.ls.Execute(
		context.Background(),
		ledger.Request{Name: "credit", Caller: testOwner},
		func(call *ledger.Call) error {
			return insurance.CreditPolicies(call, e.flightKey)
		},
	)
	require.NoError(t, err)
}

func TestPayout(t *testing.T) {
	assert.Equal(t, uint64(150), insurance.Payout(uint256.NewInt(100)).Uint64())
	// Rounds down
	assert.Equal(t, uint64(1), insurance.Payout(uint256.NewInt(1)).Uint64())
	assert.Equal(t, ledger.Milliether(1_500), insurance.Payout(insurance.MaxPremium))
}

func TestBuyInsurance(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	premium := new(uint256.Int).Add(ledger.Milliether(234), uint256.NewInt(500_000_000_000_000))

	policyID, err := e.m.BuyInsurance(ctx, testPassenger, e.flightKey, premium)
	require.NoError(t, err)
	size, err := e.m.InsurancesSize(ctx, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
	policy, err := e.m.GetInsuranceForIndex(ctx, e.flightKey, 0)
	require.NoError(t, err)
	assert.Equal(t, policyID, policy.PolicyID)
	assert.Equal(t, "234500000000000000", policy.Premium.String())
	assert.True(t, policy.Credit.IsZero())
	assert.False(t, policy.Credited)

	events, err := e.ls.Events(1, 0)
	require.NoError(t, err)
	purchased, ok := events[len(events)-1].Data.(event.InsurancePurchasedEvent)
	require.True(t, ok)
	assert.Equal(t, policyID, purchased.PolicyID)
	assert.Equal(t, testPassenger, purchased.Passenger)
}

func TestBuyInsuranceRejects(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	unfunded := types.Address{0x22}
	testDefs := []struct {
		name      string
		caller    types.Address
		flightKey types.Hash
		premium   *uint256.Int
		err       error
	}{
		{"unknown flight", testPassenger, types.Hash{0x01}, ledger.Milliether(100), ledger.ErrUnknownFlight},
		{"zero premium", testPassenger, e.flightKey, new(uint256.Int), ledger.ErrPremiumOutOfRange},
		{
			"premium above cap",
			testPassenger,
			e.flightKey,
			new(uint256.Int).AddUint64(insurance.MaxPremium, 1),
			ledger.ErrPremiumOutOfRange,
		},
		{"unfunded wallet", unfunded, e.flightKey, ledger.Milliether(100), ledger.ErrInsufficientFunds},
	}
	for _, testDef := range testDefs {
		_, err := e.m.BuyInsurance(ctx, testDef.caller, testDef.flightKey, testDef.premium)
		require.ErrorIs(t, err, testDef.err, testDef.name)
	}
	assert.Equal(t, ledger.Ether(5), e.wallet.Balance(testPassenger))
	size, err := e.m.InsurancesSize(ctx, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestBuyInsuranceDeparted(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.now = testNow.Add(2 * time.Hour)
	_, err := e.m.BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(100))
	require.ErrorIs(t, err, ledger.ErrFlightDeparted)
	require.ErrorIs(t, err, ledger.ErrInvalidState)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	_, err := e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.ErrorIs(t, err, ledger.ErrNoPolicy)

	_, err = e.m.BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(200))
	require.NoError(t, err)
	_, err = e.m.BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(400))
	require.NoError(t, err)

	_, err = e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.ErrorIs(t, err, ledger.ErrNothingOwed)

	e.credit(t)
	// Crediting again does not pay twice
	e.credit(t)
	policies, err := e.m.PoliciesFor(ctx, e.flightKey, testPassenger)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	for _, policy := range policies {
		assert.True(t, policy.Credited)
		assert.Equal(
			t,
			insurance.Payout(policy.Premium.Uint256()).Dec(),
			policy.Credit.String(),
		)
	}

	before := e.wallet.Balance(testPassenger)
	paid, err := e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, ledger.Milliether(900), paid)
	assert.Equal(t, new(uint256.Int).Add(before, paid), e.wallet.Balance(testPassenger))

	_, err = e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.ErrorIs(t, err, ledger.ErrNothingOwed)
	policies, err = e.m.PoliciesFor(ctx, e.flightKey, testPassenger)
	require.NoError(t, err)
	for _, policy := range policies {
		assert.True(t, policy.Credit.IsZero())
	}
	state, err := e.ls.ContractState(ctx)
	require.NoError(t, err)
	// Airline funding and premiums stay in custody less the payout
	expected := new(uint256.Int).Sub(
		new(uint256.Int).Add(consortium.MinimumFunding, ledger.Milliether(600)),
		ledger.Milliether(900),
	)
	assert.Equal(t, expected.Dec(), state.Custody.String())
}

func TestWithdrawReentrancy(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	_, err := e.m.BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(500))
	require.NoError(t, err)
	e.credit(t)

	var reentrantErr error
	calls := 0
	e.wallet.OnReceive(testPassenger, func(ctx context.Context, _ types.Address, _ *uint256.Int) error {
		calls++
		if calls > 1 {
			return nil
		}
		_, reentrantErr = e.m.Withdraw(ctx, testPassenger, e.flightKey)
		return nil
	})
	before := e.wallet.Balance(testPassenger)
	paid, err := e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.NoError(t, err)
	require.ErrorIs(t, reentrantErr, ledger.ErrNothingOwed)
	assert.Equal(t, 1, calls)
	assert.Equal(t, ledger.Milliether(750), paid)
	assert.Equal(t, new(uint256.Int).Add(before, paid), e.wallet.Balance(testPassenger))
}

func TestWithdrawRejectedTransfer(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	_, err := e.m.BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(500))
	require.NoError(t, err)
	e.credit(t)

	e.wallet.OnReceive(testPassenger, func(context.Context, types.Address, *uint256.Int) error {
		return assert.AnError
	})
	before := e.wallet.Balance(testPassenger)
	_, err = e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, before, e.wallet.Balance(testPassenger))

	// The credit survives a failed payout
	e.wallet.OnReceive(testPassenger, nil)
	paid, err := e.m.Withdraw(ctx, testPassenger, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, ledger.Milliether(750), paid)
}
