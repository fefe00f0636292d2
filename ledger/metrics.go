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
	"math/big"
	"time"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var weiPerEther = new(big.Float).SetInt(big.NewInt(1_000_000_000_000_000_000))

type stateMetrics struct {
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	custody      prometheus.Gauge
	payouts      prometheus.Counter
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.calls = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surety_ledger_calls_total",
			Help: "total ledger calls by outcome",
		},
		[]string{"call", "result"},
	)
	m.callDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surety_ledger_call_duration_seconds",
			Help:    "duration of outermost ledger calls including commit",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"call"},
	)
	m.custody = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "surety_ledger_custody_ether",
		Help: "value held in custody",
	})
	m.payouts = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "surety_ledger_payouts_ether_total",
		Help: "total value paid out of custody",
	})
}

func (m *stateMetrics) observeCall(name string, err error, duration time.Duration) {
	m.calls.WithLabelValues(name, callResult(err)).Inc()
	if duration > 0 {
		m.callDuration.WithLabelValues(name).Observe(duration.Seconds())
	}
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotOperational):
		return "not_operational"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "error"
	}
}

func weiToEther(amount *uint256.Int) float64 {
	ret, _ := new(big.Float).Quo(
		new(big.Float).SetInt(amount.ToBig()),
		weiPerEther,
	).Float64()
	return ret
}

func amountFloat(amount types.Amount) float64 {
	return weiToEther(amount.Uint256())
}
