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

// Package progress estimates throughput and ETA for long running
// operations from unevenly spaced progress samples.
package progress

import (
	"math"
	"time"
)

// DecayMs is the time constant of the exponential moving average.
const DecayMs = 10000

type Sample struct {
	Timestamp      time.Time
	CompletedUnits float64
	TotalUnits     float64
	CompletedBytes float64
}

// State is the smoothed progress after applying a sample. ETASeconds is
// +Inf while the speed is unknown.
type State struct {
	Sample
	UnitsPerSecond float64
	BytesPerSecond float64
	ETASeconds     float64
}

// Percent is the completed share in the range 0-100.
func (s State) Percent() float64 {
	if s.TotalUnits <= 0 {
		return 0
	}
	return math.Min(100, 100*s.CompletedUnits/s.TotalUnits)
}

// ETA returns the estimate as a duration, and false while it's unknown.
func (s State) ETA() (time.Duration, bool) {
	if math.IsInf(s.ETASeconds, 0) || math.IsNaN(s.ETASeconds) {
		return 0, false
	}
	return time.Duration(s.ETASeconds) * time.Second, true
}

// Update folds sample into prev. It has no side effects; a nil prev starts
// a new stream. Samples with no elapsed time or no completed units carry
// prev forward unchanged.
func Update(sample Sample, prev *State) State {
	if prev == nil {
		st := State{Sample: sample, ETASeconds: math.Inf(1)}
		if sample.TotalUnits > 0 && sample.TotalUnits-sample.CompletedUnits <= 0 {
			st.ETASeconds = 0
		}
		return st
	}

	deltaMs := float64(sample.Timestamp.Sub(prev.Timestamp)) / float64(time.Millisecond)
	if deltaMs <= 0 || sample.CompletedUnits == 0 {
		return *prev
	}

	instant := 1000 * (sample.CompletedUnits - prev.CompletedUnits) / deltaMs
	weight := math.Exp(-deltaMs / DecayMs)
	speed := prev.UnitsPerSecond*weight + instant*(1-weight)

	st := State{
		Sample:         sample,
		UnitsPerSecond: speed,
		BytesPerSecond: speed * (sample.CompletedBytes / sample.CompletedUnits),
	}

	remaining := sample.TotalUnits - sample.CompletedUnits
	switch {
	case remaining <= 0:
		st.ETASeconds = 0
	case speed > 0:
		st.ETASeconds = math.Round(remaining / speed)
	default:
		st.ETASeconds = math.Inf(1)
	}
	return st
}
