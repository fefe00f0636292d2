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

package consortium_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/surety/consortium"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/blinklabs-io/surety/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner    = types.Address{0x01}
	testContract = types.Address{0xcc}
)

func airline(i int) types.Address {
	return types.Address{0xa1, byte(i)}
}

type testEnv struct {
	ls     *ledger.LedgerState
	wallet *wallet.Memory
	c      *consortium.Consortium
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	eventBus := event.NewEventBus(nil, nil)
	w := wallet.NewMemory(nil)
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		EventBus:     eventBus,
		Funds:        w,
		Owner:        testOwner,
		FirstAirline: airline(0),
		Contract:     testContract,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
		eventBus.Shutdown()
	})
	return &testEnv{
		ls:     ls,
		wallet: w,
		c:      consortium.New(ls),
	}
}

func (e *testEnv) fund(t *testing.T, address types.Address) {
	t.Helper()
	require.NoError(t, e.wallet.Fund(address, consortium.MinimumFunding))
	require.NoError(
		t,
		e.c.PayFunding(context.Background(), address, consortium.MinimumFunding),
	)
}

// grow admits and funds airlines until n are operational, returning the
// number of votes each admission needed
func (e *testEnv) grow(t *testing.T, n int) []int {
	t.Helper()
	ctx := context.Background()
	e.fund(t, airline(0))
	var needed []int
	for i := 1; i < n; i++ {
		candidate := airline(i)
		votes := 0
		for voter := 0; voter < i; voter++ {
			var admitted bool
			var err error
			if voter == 0 {
				admitted, err = e.c.RegisterAirline(ctx, airline(voter), candidate)
			} else {
				admitted, err = e.c.VoteAirline(ctx, airline(voter), candidate)
			}
			require.NoError(t, err)
			votes++
			if admitted {
				break
			}
		}
		needed = append(needed, votes)
		e.fund(t, candidate)
	}
	return needed
}

func TestRegisterBelowThreshold(t *testing.T) {
	e := newTestEnv(t)
	needed := e.grow(t, consortium.AirlineVotingThreshold)
	assert.Equal(t, []int{1, 1, 1}, needed)
	count, err := e.c.CountAirlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, consortium.AirlineVotingThreshold, count)
}

func TestVotingMajority(t *testing.T) {
	e := newTestEnv(t)
	needed := e.grow(t, 7)
	// Votes needed for the 5th, 6th and 7th airline with 4, 5 and 6 voters
	assert.Equal(t, []int{1, 1, 1, 3, 3, 4}, needed)
	count, err := e.c.OperationalAirlinesCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestDuplicateVote(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.grow(t, 4)
	candidate := airline(9)
	admitted, err := e.c.RegisterAirline(ctx, airline(0), candidate)
	require.NoError(t, err)
	assert.False(t, admitted)
	for range 3 {
		admitted, err = e.c.VoteAirline(ctx, airline(0), candidate)
		require.NoError(t, err)
		assert.False(t, admitted)
	}
	voters, err := e.c.VotesOnNewRegistration(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, []types.Address{airline(0)}, voters)
	// Proposing again is also just a vote
	_, err = e.c.RegisterAirline(ctx, airline(0), candidate)
	require.NoError(t, err)
	votes, err := e.c.VotesCount(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)
}

func TestVoteErrors(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.grow(t, 4)

	_, err := e.c.VoteAirline(ctx, airline(0), airline(9))
	require.ErrorIs(t, err, ledger.ErrUnknownCandidate)

	_, err = e.c.RegisterAirline(ctx, airline(1), airline(2))
	require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)

	outsider := types.Address{0xee}
	_, err = e.c.RegisterAirline(ctx, outsider, airline(9))
	require.ErrorIs(t, err, ledger.ErrCallerNotEligible)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	ok, err := e.c.IsAirline(ctx, outsider)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = e.c.GetAirline(ctx, outsider)
	require.ErrorIs(t, err, ledger.ErrUnknownAirline)
}

func TestPayFunding(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	first := airline(0)
	require.NoError(t, e.wallet.Fund(first, ledger.Ether(30)))

	err := e.c.PayFunding(ctx, first, ledger.Milliether(9_999))
	require.ErrorIs(t, err, ledger.ErrFundingBelowMinimum)
	record, err := e.c.GetAirline(ctx, first)
	require.NoError(t, err)
	assert.False(t, record.Funded)
	assert.Equal(t, ledger.Ether(30), e.wallet.Balance(first))

	require.NoError(t, e.c.PayFunding(ctx, first, ledger.Ether(10)))
	require.NoError(t, e.c.PayFunding(ctx, first, ledger.Ether(12)))
	record, err = e.c.GetAirline(ctx, first)
	require.NoError(t, err)
	assert.True(t, record.Funded)
	assert.Equal(t, ledger.Ether(22).Dec(), record.FundedAmount.String())
	assert.Equal(t, ledger.Ether(8), e.wallet.Balance(first))
	assert.Equal(t, ledger.Ether(22), e.wallet.Balance(testContract))

	// Only registered airlines may fund
	outsider := types.Address{0xee}
	require.NoError(t, e.wallet.Fund(outsider, ledger.Ether(10)))
	err = e.c.PayFunding(ctx, outsider, ledger.Ether(10))
	require.ErrorIs(t, err, ledger.ErrCallerNotEligible)
	assert.Equal(t, ledger.Ether(10), e.wallet.Balance(outsider))
}

func TestAdmissionEvents(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.grow(t, 4)
	candidate := airline(9)
	_, err := e.c.RegisterAirline(ctx, airline(0), candidate)
	require.NoError(t, err)
	_, err = e.c.VoteAirline(ctx, airline(1), candidate)
	require.NoError(t, err)
	_, err = e.c.VoteAirline(ctx, airline(2), candidate)
	require.NoError(t, err)

	events, err := e.ls.Events(1, 0)
	require.NoError(t, err)
	var votes []int
	var registered *event.AirlineRegisteredEvent
	for _, evt := range events {
		switch data := evt.Data.(type) {
		case event.AirlineVoteEvent:
			if data.Candidate == candidate {
				votes = append(votes, data.Votes)
			}
		case event.AirlineRegisteredEvent:
			if data.Airline == candidate {
				registered = &data
			}
		}
	}
	assert.Equal(t, []int{1, 2, 3}, votes)
	require.NotNil(t, registered)
	assert.Equal(t, airline(0), registered.ProposedBy)
	assert.Equal(t, 3, registered.Votes)
}
