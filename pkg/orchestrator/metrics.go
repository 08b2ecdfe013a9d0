// Zaparoo Launch
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Launch.
//
// Zaparoo Launch is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Launch is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Launch.  If not, see <http://www.gnu.org/licenses/>.

package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	transitions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	active      *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the operation metrics with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launchcore",
			Name:      "operation_phase_transitions_total",
			Help:      "Operation state machine transitions by kind and phase entered",
		}, []string{"kind", "phase"}),
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "launchcore",
			Name:      "operations_total",
			Help:      "Finished operations by kind, terminal phase and failure reason",
		}, []string{"kind", "phase", "reason"}),
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "launchcore",
			Name:      "operations_active",
			Help:      "Operations currently in progress",
		}, []string{"kind"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "launchcore",
			Name:      "operation_duration_seconds",
			Help:      "Wall time from request to terminal phase",
			Buckets:   []float64{0.1, 1, 10, 60, 300, 900, 3600, 4 * 3600},
		}, []string{"kind", "phase"}),
	}
}

func (m *Metrics) started(kind Kind) {
	m.active.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) transition(kind Kind, phase Phase) {
	m.transitions.WithLabelValues(string(kind), string(phase)).Inc()
}

func (m *Metrics) finished(kind Kind, phase Phase, reason Reason, elapsed time.Duration) {
	m.active.WithLabelValues(string(kind)).Dec()
	m.outcomes.WithLabelValues(string(kind), string(phase), string(reason)).Inc()
	m.duration.WithLabelValues(string(kind), string(phase)).Observe(elapsed.Seconds())
}
