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

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "database_blob_"

type blobMetrics struct {
	journalAppends prometheus.Counter
	journalBytes   prometheus.Counter
}

func (d *BlobStoreBadger) registerBlobMetrics() {
	factory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		journalAppends: factory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "journal_appends_total",
			Help: "Total number of notification journal records written",
		}),
		journalBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "journal_bytes_total",
			Help: "Total bytes written to the notification journal",
		}),
	}
}
