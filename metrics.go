// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.11.8
//

package gorssi

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsListener is a Listener exporting estimation statistics to Prometheus.
// Failed estimations are the difference between started and finished.
type MetricsListener struct {
	Started  prometheus.Counter
	Finished prometheus.Counter
	Duration prometheus.Histogram
	ChiSq    prometheus.Gauge
	Readings prometheus.Gauge

	mu     sync.Mutex
	starts map[*Estimator]time.Time
}

// NewMetricsListener creates the metrics and registers them with reg (if not nil)
func NewMetricsListener(reg prometheus.Registerer) (*MetricsListener, error) {
	m := &MetricsListener{
		Started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gorssi",
			Name:      "estimations_started_total",
			Help:      "Number of estimations started.",
		}),
		Finished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gorssi",
			Name:      "estimations_finished_total",
			Help:      "Number of estimations finished successfully.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gorssi",
			Name:      "estimation_duration_seconds",
			Help:      "Duration of successful estimations.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		ChiSq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gorssi",
			Name:      "estimation_chi_square",
			Help:      "Chi-square of the last successful estimation.",
		}),
		Readings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gorssi",
			Name:      "estimation_readings",
			Help:      "Number of readings of the last started estimation.",
		}),
		starts: map[*Estimator]time.Time{},
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Started, m.Finished, m.Duration, m.ChiSq, m.Readings} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("failed to register metrics: %w", err)
			}
		}
	}
	return m, nil
}

// OnEstimateStart records the start time of e. Entries left by failed runs of
// estimators that are no longer running are dropped here.
func (m *MetricsListener) OnEstimateStart(e *Estimator) {
	m.Started.Inc()
	m.Readings.Set(float64(len(e.Readings())))
	m.mu.Lock()
	for other := range m.starts {
		if other != e && !other.IsLocked() {
			delete(m.starts, other)
		}
	}
	m.starts[e] = time.Now()
	m.mu.Unlock()
}

// pending returns the number of estimations waiting for their end callback
func (m *MetricsListener) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.starts)
}

func (m *MetricsListener) OnEstimateEnd(e *Estimator) {
	m.Finished.Inc()
	m.ChiSq.Set(e.ChiSq())
	m.mu.Lock()
	t, ok := m.starts[e]
	delete(m.starts, e)
	m.mu.Unlock()
	if ok {
		m.Duration.Observe(time.Since(t).Seconds())
	}
}
