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

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventBusSingleSubscriber(t *testing.T) {
	testEvtData := event.FlightRegisteredEvent{
		FlightNumber: "ND1309",
		Key:          types.Hash{0x01},
		Departure:    1000,
	}
	eb := event.NewEventBus(nil, nil)
	defer eb.Shutdown()
	_, subCh := eb.Subscribe(event.FlightRegisteredEventType)
	eb.Publish(
		event.FlightRegisteredEventType,
		event.NewEvent(event.FlightRegisteredEventType, testEvtData),
	)
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		data, ok := evt.Data.(event.FlightRegisteredEvent)
		require.True(t, ok, "event data was not of expected type, got %T", evt.Data)
		assert.Equal(t, testEvtData, data)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Shutdown()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	for _, ch := range []<-chan event.Event{sub1Ch, sub2Ch} {
		select {
		case evt, ok := <-ch:
			require.True(t, ok, "event channel closed unexpectedly")
			assert.Equal(t, 999, evt.Data)
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Shutdown()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	select {
	case _, ok := <-subCh:
		if !ok {
			// Unsubscribe closes the subscriber channel
			return
		}
		t.Fatalf("received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusPublishAsync(t *testing.T) {
	var testEvtType event.EventType = "test.async"
	eb := event.NewEventBus(nil, nil)
	defer eb.Shutdown()
	var received atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		received.Add(1)
	})
	for i := range 5 {
		require.True(
			t,
			eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, i)),
		)
	}
	require.Eventually(t, func() bool {
		return received.Load() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventBusStop(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Shutdown()
	_, subCh1 := eb.Subscribe(testEvtType)
	eb.Stop()
	select {
	case _, ok := <-subCh1:
		require.False(t, ok, "subscriber channel should be closed after Stop")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("subscriber channel was not closed within timeout")
	}

	// The bus remains usable after Stop
	_, subCh2 := eb.Subscribe(testEvtType)
	require.True(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, "new")))
	select {
	case _, ok := <-subCh2:
		require.True(t, ok, "new subscriber should receive event")
	case <-time.After(1 * time.Second):
		t.Fatal("new subscriber did not receive event")
	}
}

func TestEventBusShutdownRejectsAsync(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	eb.Shutdown()
	assert.False(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, 1)))
	// A second shutdown is a no-op
	eb.Shutdown()
}

func TestSubscribeFuncPanicRecovery(t *testing.T) {
	var testEvtType event.EventType = "test.panic"
	eb := event.NewEventBus(nil, nil)
	defer eb.Shutdown()
	var received atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		count := received.Add(1)
		if count == 1 {
			panic("intentional test panic")
		}
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "panic"))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after-panic"))
	require.Eventually(t, func() bool {
		return received.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond,
		"handler should continue processing events after a panic",
	)
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Shutdown()
	_, subCh := eb.Subscribe(event.OracleRequestEventType)
	eb.Publish(
		event.OracleRequestEventType,
		event.NewEvent(event.OracleRequestEventType, event.OracleRequestEvent{}),
	)
	<-subCh
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != "surety_event_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.InDelta(t, 1.0, total, 0)
}

func TestNewEventData(t *testing.T) {
	data := event.NewEventData(event.OracleResolvedEventType)
	_, ok := data.(*event.OracleResolvedEvent)
	assert.True(t, ok)
	assert.Nil(t, event.NewEventData("unknown.event"))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
