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

package agent_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/surety/consortium"
	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/blinklabs-io/surety/flight"
	"github.com/blinklabs-io/surety/ledger"
	"github.com/blinklabs-io/surety/oracle"
	"github.com/blinklabs-io/surety/oracle/agent"
	"github.com/blinklabs-io/surety/wallet"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type submission struct {
	oracle types.Address
	index  uint8
	status uint8
}

type fakeOracles struct {
	mu          sync.Mutex
	indexes     map[types.Address][3]uint8
	submissions []submission
	submitErr   error
}

func newFakeOracles() *fakeOracles {
	return &fakeOracles{
		indexes: make(map[types.Address][3]uint8),
	}
}

func (f *fakeOracles) RegisterOracle(
	_ context.Context,
	caller types.Address,
	_ *uint256.Int,
) ([3]uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[caller]; ok {
		return [3]uint8{}, ledger.ErrAlreadyRegistered
	}
	// Every simulated oracle serves indexes 1, 2 and 3
	f.indexes[caller] = [3]uint8{1, 2, 3}
	return f.indexes[caller], nil
}

func (f *fakeOracles) GetMyIndexes(
	_ context.Context,
	caller types.Address,
) ([3]uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	indexes, ok := f.indexes[caller]
	if !ok {
		return indexes, ledger.ErrOracleNotRegistered
	}
	return indexes, nil
}

func (f *fakeOracles) SubmitOracleResponse(
	_ context.Context,
	caller types.Address,
	index uint8,
	_ types.Address,
	_ string,
	_ int64,
	status uint8,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submissions = append(f.submissions, submission{
		oracle: caller,
		index:  index,
		status: status,
	})
	return nil
}

func (f *fakeOracles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submissions)
}

func TestNewValidatesConfig(t *testing.T) {
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Shutdown()
	_, err := agent.New(agent.AgentConfig{
		EventBus: eventBus,
		Oracles:  newFakeOracles(),
		Source:   agent.FixedStatus(flight.StatusOnTime),
		Count:    oracle.MinResponses - 1,
	})
	require.Error(t, err)
	_, err = agent.New(agent.AgentConfig{
		EventBus: eventBus,
		Oracles:  newFakeOracles(),
		Count:    oracle.MinResponses,
	})
	require.Error(t, err)
}

func TestOracleAddressDeterministic(t *testing.T) {
	assert.Equal(t, agent.OracleAddress(3), agent.OracleAddress(3))
	assert.NotEqual(t, agent.OracleAddress(3), agent.OracleAddress(4))
}

func TestRandomStatusReportsKnownCodes(t *testing.T) {
	source := agent.RandomStatus()
	for range 50 {
		status, err := source.FlightStatus(context.Background(), event.OracleRequestEvent{})
		require.NoError(t, err)
		assert.True(t, flight.ValidStatus(status), "status %d", status)
	}
}

func TestAgentAnswersMatchingRequests(t *testing.T) {
	defer goleak.VerifyNone(t)
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Shutdown()
	oracles := newFakeOracles()
	a, err := agent.New(agent.AgentConfig{
		EventBus: eventBus,
		Oracles:  oracles,
		Source:   agent.FixedStatus(flight.StatusLateAirline),
		Count:    3,
	})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.Error(t, a.Start(context.Background()))
	assert.Len(t, a.Addresses(), 3)

	publish := func(index uint8) {
		eventBus.Publish(
			event.OracleRequestEventType,
			event.NewEvent(
				event.OracleRequestEventType,
				event.OracleRequestEvent{Index: index, FlightNumber: "ND1309"},
			),
		)
	}
	// No oracle serves index 7
	publish(7)
	publish(2)
	require.Eventually(t, func() bool { return oracles.count() == 3 }, 5*time.Second, 10*time.Millisecond)
	a.Stop()
	a.Stop()

	oracles.mu.Lock()
	for _, sub := range oracles.submissions {
		assert.Equal(t, uint8(2), sub.index)
		assert.Equal(t, flight.StatusLateAirline, sub.status)
	}
	oracles.mu.Unlock()

	// Restarting reuses the existing registrations
	require.NoError(t, a.Start(context.Background()))
	a.Stop()
}

func TestAgentStopsOnClosedRequest(t *testing.T) {
	defer goleak.VerifyNone(t)
	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Shutdown()
	oracles := newFakeOracles()
	a, err := agent.New(agent.AgentConfig{
		EventBus: eventBus,
		Oracles:  oracles,
		Source:   agent.FixedStatus(flight.StatusOnTime),
		Count:    3,
	})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()

	oracles.mu.Lock()
	oracles.submitErr = ledger.ErrRequestNotOpen
	oracles.mu.Unlock()
	handled := make(chan struct{})
	subId := eventBus.SubscribeFunc(event.OracleRequestEventType, func(event.Event) {
		close(handled)
	})
	defer eventBus.Unsubscribe(event.OracleRequestEventType, subId)
	eventBus.Publish(
		event.OracleRequestEventType,
		event.NewEvent(event.OracleRequestEventType, event.OracleRequestEvent{Index: 1}),
	)
	<-handled
	assert.Equal(t, 0, oracles.count())
}

func TestAgentResolvesFlight(t *testing.T) {
	ctx := context.Background()
	owner := types.Address{0x01}
	airline := types.Address{0x11}
	passenger := types.Address{0x21}
	now := time.Unix(1_700_000_000, 0)
	departure := now.Add(time.Hour).Unix()

	eventBus := event.NewEventBus(nil, nil)
	defer eventBus.Shutdown()
	w := wallet.NewMemory(nil)
	ls, err := ledger.NewLedgerState(ledger.LedgerStateConfig{
		EventBus:     eventBus,
		Funds:        w,
		Owner:        owner,
		FirstAirline: airline,
		Contract:     types.Address{0xcc},
		Clock:        func() time.Time { return now },
	})
	require.NoError(t, err)
	defer ls.Close()
	require.NoError(t, w.Fund(airline, consortium.MinimumFunding))
	require.NoError(t, consortium.New(ls).PayFunding(ctx, airline, consortium.MinimumFunding))
	flightKey, err := flight.New(ls).RegisterFlight(ctx, airline, airline, "ND1309", departure)
	require.NoError(t, err)

	oracles := oracle.New(ls)
	a, err := agent.New(agent.AgentConfig{
		EventBus: eventBus,
		Oracles:  oracles,
		Source:   agent.FixedStatus(flight.StatusLateAirline),
		Funder:   w,
		Count:    20,
	})
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	defer a.Stop()

	subId, resolvedCh := eventBus.Subscribe(event.OracleResolvedEventType)
	defer eventBus.Unsubscribe(event.OracleResolvedEventType, subId)

	// Keep requesting until an index is served by enough simulated oracles
	served := func(index uint8) int {
		ret := 0
		for _, address := range a.Addresses() {
			indexes, err := oracles.GetMyIndexes(ctx, address)
			require.NoError(t, err)
			for _, idx := range indexes {
				if idx == index {
					ret++
				}
			}
		}
		return ret
	}
	var index uint8
	for {
		index, err = oracles.FetchFlightStatus(ctx, passenger, airline, "ND1309", departure)
		require.NoError(t, err)
		if served(index) >= oracle.MinResponses {
			break
		}
	}

	timeout := time.After(10 * time.Second)
	for {
		select {
		case evt := <-resolvedCh:
			data, ok := evt.Data.(event.OracleResolvedEvent)
			require.True(t, ok)
			if data.Index != index {
				continue
			}
			assert.Equal(t, flightKey, data.FlightKey)
			assert.Equal(t, flight.StatusLateAirline, data.Status)
			record, err := flight.New(ls).GetFlight(ctx, flightKey)
			require.NoError(t, err)
			assert.Equal(t, flight.StatusLateAirline, record.Status)
			return
		case <-timeout:
			t.Fatal("timed out waiting for the request to resolve")
		}
	}
}
