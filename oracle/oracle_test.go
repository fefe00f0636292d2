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

package oracle_test

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
	"github.com/blinklabs-io/surety/oracle"
	"github.com/blinklabs-io/surety/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOwner     = types.Address{0x01}
	testAirline   = types.Address{0x11}
	testPassenger = types.Address{0x21}
	testContract  = types.Address{0xcc}
	testNow       = time.Unix(1_700_000_000, 0)
	testDeparture = testNow.Add(3 * time.Hour).Unix()
)

const testFlight = "ND1309"

type testEnv struct {
	ls        *ledger.LedgerState
	wallet    *wallet.Memory
	o         *oracle.Oracles
	flightKey types.Hash
	indexes   map[types.Address][3]uint8
	next      int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	e := &testEnv{
		wallet:  wallet.NewMemory(nil),
		indexes: make(map[types.Address][3]uint8),
	}
	eventBus := event.NewEventBus(nil, nil)
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		EventBus:     eventBus,
		Funds:        e.wallet,
		Owner:        testOwner,
		FirstAirline: testAirline,
		Contract:     testContract,
		Clock:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ls.Close())
		eventBus.Shutdown()
	})
	e.ls = ls
	e.o = oracle.New(ls)
	require.NoError(t, e.wallet.Fund(testAirline, consortium.MinimumFunding))
	require.NoError(
		t,
		consortium.New(ls).PayFunding(ctx, testAirline, consortium.MinimumFunding),
	)
	e.flightKey, err = flight.New(ls).RegisterFlight(
		ctx,
		testAirline,
		testAirline,
		testFlight,
		testDeparture,
	)
	require.NoError(t, err)
	return e
}

func (e *testEnv) register(t *testing.T) types.Address {
	t.Helper()
	address := types.Address{0x0a, byte(e.next >> 8), byte(e.next)}
	e.next++
	require.NoError(t, e.wallet.Fund(address, oracle.RegistrationFee))
	indexes, err := e.o.RegisterOracle(context.Background(), address, oracle.RegistrationFee)
	require.NoError(t, err)
	e.indexes[address] = indexes
	return address
}

// fetch opens a request and registers oracles until n of them serve its index
func (e *testEnv) fetch(t *testing.T, n int) (uint8, []types.Address) {
	t.Helper()
	index, err := e.o.FetchFlightStatus(
		context.Background(),
		testPassenger,
		testAirline,
		testFlight,
		testDeparture,
	)
	require.NoError(t, err)
	return index, e.servers(t, index, n)
}

// servers registers oracles until n of them serve index
func (e *testEnv) servers(t *testing.T, index uint8, n int) []types.Address {
	t.Helper()
	var ret []types.Address
	for address, indexes := range e.indexes {
		if hasIndex(indexes, index) {
			ret = append(ret, address)
		}
	}
	for len(ret) < n {
		address := e.register(t)
		if hasIndex(e.indexes[address], index) {
			ret = append(ret, address)
		}
	}
	return ret[:n]
}

// fetchDistinct opens requests for the test flight until two different
// indexes have one
func (e *testEnv) fetchDistinct(t *testing.T) (uint8, uint8) {
	t.Helper()
	first, _ := e.fetch(t, 0)
	for range 100 {
		second, _ := e.fetch(t, 0)
		if second != first {
			return first, second
		}
	}
	t.Fatal("no second index after 100 fetches")
	return 0, 0
}

func (e *testEnv) submit(t *testing.T, caller types.Address, index uint8, status uint8) error {
	t.Helper()
	return e.o.SubmitOracleResponse(
		context.Background(),
		caller,
		index,
		testAirline,
		testFlight,
		testDeparture,
		status,
	)
}

func hasIndex(indexes [3]uint8, index uint8) bool {
	for _, idx := range indexes {
		if idx == index {
			return true
		}
	}
	return false
}

func TestRequestKey(t *testing.T) {
	key := oracle.RequestKey(3, testAirline, testFlight, testDeparture)
	expected := types.Keccak256(
		[]byte{3},
		testAirline.Bytes(),
		[]byte(testFlight),
		flight.EncodeDeparture(testDeparture),
	)
	assert.Equal(t, expected, key)
	assert.NotEqual(t, key, oracle.RequestKey(4, testAirline, testFlight, testDeparture))
}

func TestRegisterOracle(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	for range 19 {
		address := e.register(t)
		indexes := e.indexes[address]
		assert.NotEqual(t, indexes[0], indexes[1])
		assert.NotEqual(t, indexes[0], indexes[2])
		assert.NotEqual(t, indexes[1], indexes[2])
		for _, idx := range indexes {
			assert.Less(t, idx, uint8(oracle.MaxOracleIndex))
		}
		mine, err := e.o.GetMyIndexes(ctx, address)
		require.NoError(t, err)
		assert.Equal(t, indexes, mine)
	}

	address := types.Address{0x0b}
	require.NoError(t, e.wallet.Fund(address, oracle.RegistrationFee))
	_, err := e.o.RegisterOracle(ctx, address, ledger.Milliether(999))
	require.ErrorIs(t, err, ledger.ErrInsufficientFee)
	assert.Equal(t, oracle.RegistrationFee, e.wallet.Balance(address))
	_, err = e.o.GetMyIndexes(ctx, address)
	require.ErrorIs(t, err, ledger.ErrOracleNotRegistered)

	registered := e.register(t)
	require.NoError(t, e.wallet.Fund(registered, oracle.RegistrationFee))
	_, err = e.o.RegisterOracle(ctx, registered, oracle.RegistrationFee)
	require.ErrorIs(t, err, ledger.ErrAlreadyRegistered)
}

func TestFetchFlightStatus(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	_, err := e.o.FetchFlightStatus(ctx, testPassenger, testAirline, "XX0000", testDeparture)
	require.ErrorIs(t, err, ledger.ErrUnknownFlight)

	subId, evtCh := e.ls.EventBus().Subscribe(event.OracleRequestEventType)
	defer e.ls.EventBus().Unsubscribe(event.OracleRequestEventType, subId)
	index, err := e.o.FetchFlightStatus(ctx, testPassenger, testAirline, testFlight, testDeparture)
	require.NoError(t, err)
	assert.Less(t, index, uint8(oracle.MaxOracleIndex))

	select {
	case evt := <-evtCh:
		req, ok := evt.Data.(event.OracleRequestEvent)
		require.True(t, ok)
		assert.Equal(t, index, req.Index)
		assert.Equal(t, testFlight, req.FlightNumber)
		assert.Equal(t, testPassenger, req.Requester)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for request event")
	}

	request, err := e.o.GetRequest(ctx, oracle.RequestKey(index, testAirline, testFlight, testDeparture))
	require.NoError(t, err)
	assert.True(t, request.Open)
	assert.Equal(t, index, request.Index)

	_, err = e.o.GetRequest(ctx, types.Hash{0x01})
	require.ErrorIs(t, err, ledger.ErrUnknownRequest)
}

func TestSubmitOracleResponseErrors(t *testing.T) {
	e := newTestEnv(t)
	index, matching := e.fetch(t, 1)

	require.ErrorIs(
		t,
		e.submit(t, types.Address{0x0b}, index, flight.StatusOnTime),
		ledger.ErrOracleNotRegistered,
	)
	require.ErrorIs(
		t,
		e.submit(t, matching[0], index, 15),
		ledger.ErrInvalidStatus,
	)
	// An oracle cannot answer for an index it does not serve
	other := (index + 1) % oracle.MaxOracleIndex
	for hasIndex(e.indexes[matching[0]], other) {
		other = (other + 1) % oracle.MaxOracleIndex
	}
	require.ErrorIs(
		t,
		e.submit(t, matching[0], other, flight.StatusOnTime),
		ledger.ErrIndexMismatch,
	)
}

func TestQuorum(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	require.NoError(t, e.wallet.Fund(testPassenger, ledger.Ether(1)))
	_, err := insurance.New(e.ls).BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(100))
	require.NoError(t, err)
	index, oracles := e.fetch(t, 5)

	// Duplicate and disagreeing reports do not reach quorum
	require.NoError(t, e.submit(t, oracles[0], index, flight.StatusLateAirline))
	require.NoError(t, e.submit(t, oracles[0], index, flight.StatusLateAirline))
	require.NoError(t, e.submit(t, oracles[1], index, flight.StatusOnTime))
	require.NoError(t, e.submit(t, oracles[2], index, flight.StatusLateAirline))
	record, err := flight.New(e.ls).GetFlight(ctx, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusUnknown, record.Status)

	require.NoError(t, e.submit(t, oracles[3], index, flight.StatusLateAirline))
	record, err = flight.New(e.ls).GetFlight(ctx, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusLateAirline, record.Status)

	policy, err := insurance.New(e.ls).GetInsuranceForIndex(ctx, e.flightKey, 0)
	require.NoError(t, err)
	assert.Equal(t, ledger.Milliether(150).Dec(), policy.Credit.String())

	// Reports after resolution have no effect
	require.ErrorIs(
		t,
		e.submit(t, oracles[4], index, flight.StatusOnTime),
		ledger.ErrRequestNotOpen,
	)
	record, err = flight.New(e.ls).GetFlight(ctx, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusLateAirline, record.Status)

	events, err := e.ls.Events(1, 0)
	require.NoError(t, err)
	var resolved []event.OracleResolvedEvent
	var reports int
	for _, evt := range events {
		switch data := evt.Data.(type) {
		case event.OracleResolvedEvent:
			resolved = append(resolved, data)
		case event.OracleReportEvent:
			reports++
		}
	}
	assert.Equal(t, 4, reports)
	require.Len(t, resolved, 1)
	assert.Equal(t, e.flightKey, resolved[0].FlightKey)
	assert.Equal(t, flight.StatusLateAirline, resolved[0].Status)
}

func TestQuorumWithoutAirlineDelay(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	require.NoError(t, e.wallet.Fund(testPassenger, ledger.Ether(1)))
	_, err := insurance.New(e.ls).BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(100))
	require.NoError(t, err)
	index, oracles := e.fetch(t, 3)
	for _, address := range oracles {
		require.NoError(t, e.submit(t, address, index, flight.StatusLateWeather))
	}
	record, err := flight.New(e.ls).GetFlight(ctx, e.flightKey)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusLateWeather, record.Status)
	policy, err := insurance.New(e.ls).GetInsuranceForIndex(ctx, e.flightKey, 0)
	require.NoError(t, err)
	assert.True(t, policy.Credit.IsZero())
	assert.False(t, policy.Credited)
	_, err = insurance.New(e.ls).Withdraw(ctx, testPassenger, e.flightKey)
	require.ErrorIs(t, err, ledger.ErrNothingOwed)
}

func TestFlightResolvesOnce(t *testing.T) {
	testDefs := []struct {
		name   string
		first  uint8
		second uint8
		credit uint64
	}{
		{"airline delay then on time", flight.StatusLateAirline, flight.StatusOnTime, 150},
		{"on time then airline delay", flight.StatusOnTime, flight.StatusLateAirline, 0},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			ctx := context.Background()
			e := newTestEnv(t)
			policies := insurance.New(e.ls)
			require.NoError(t, e.wallet.Fund(testPassenger, ledger.Ether(1)))
			_, err := policies.BuyInsurance(ctx, testPassenger, e.flightKey, ledger.Milliether(100))
			require.NoError(t, err)

			firstIndex, secondIndex := e.fetchDistinct(t)
			firstOracles := e.servers(t, firstIndex, 3)
			secondOracles := e.servers(t, secondIndex, 3)

			for _, address := range firstOracles {
				require.NoError(t, e.submit(t, address, firstIndex, testDef.first))
			}
			// The other index was closed by the first resolution
			secondKey := oracle.RequestKey(secondIndex, testAirline, testFlight, testDeparture)
			request, err := e.o.GetRequest(ctx, secondKey)
			require.NoError(t, err)
			assert.False(t, request.Open)
			for _, address := range secondOracles {
				require.ErrorIs(
					t,
					e.submit(t, address, secondIndex, testDef.second),
					ledger.ErrRequestNotOpen,
				)
			}

			record, err := flight.New(e.ls).GetFlight(ctx, e.flightKey)
			require.NoError(t, err)
			assert.True(t, record.Resolved)
			assert.Equal(t, testDef.first, record.Status)
			policy, err := policies.GetInsuranceForIndex(ctx, e.flightKey, 0)
			require.NoError(t, err)
			assert.Equal(t, ledger.Milliether(testDef.credit).Dec(), policy.Credit.String())

			_, err = e.o.FetchFlightStatus(ctx, testPassenger, testAirline, testFlight, testDeparture)
			require.ErrorIs(t, err, ledger.ErrFlightResolved)
		})
	}
}

func TestFlightResolvedAsUnknown(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	index, oracles := e.fetch(t, 3)
	for _, address := range oracles {
		require.NoError(t, e.submit(t, address, index, flight.StatusUnknown))
	}
	record, err := flight.New(e.ls).GetFlight(ctx, e.flightKey)
	require.NoError(t, err)
	assert.True(t, record.Resolved)
	assert.Equal(t, flight.StatusUnknown, record.Status)
	_, err = e.o.FetchFlightStatus(ctx, testPassenger, testAirline, testFlight, testDeparture)
	require.ErrorIs(t, err, ledger.ErrFlightResolved)
}
