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

package progress

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Feeder turns streamed output lines into samples. It's the push side
// next to Poller; the tracker drops whichever of the two arrives late.
//
// Legendary prints a progress line and then the downloaded line for the
// same batch, so a progress line is held until its downloaded line
// arrives, the next progress line replaces it, or Flush is called.
type Feeder struct {
	seen     time.Time
	clock    clockwork.Clock
	tracker  *Tracker
	onUpdate func(Progress)
	fields   Fields
	appName  string
	kind     Kind
	opID     uuid.UUID
	pending  bool
}

func NewFeeder(tracker *Tracker, opts PollerOptions) *Feeder {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Feeder{
		clock:    opts.Clock,
		tracker:  tracker,
		onUpdate: opts.OnUpdate,
		appName:  opts.AppName,
		kind:     opts.Kind,
		opID:     opts.OpID,
	}
}

// Feed parses one line and reports whether a sample was published. Not
// safe for concurrent use.
func (f *Feeder) Feed(line string) bool {
	parsed, ok := ParseLine(line)
	if !ok {
		return false
	}

	published := false
	if parsed.HasProgress {
		// previous batch never got a downloaded line
		published = f.Flush()
		f.fields.Merge(parsed)
		f.pending = true
		f.seen = f.clock.Now()
	}
	if parsed.HasDownloaded {
		f.fields.Merge(parsed)
		if f.Flush() {
			published = true
		}
	}
	return published
}

// Flush publishes a held progress line with the latest downloaded value.
func (f *Feeder) Flush() bool {
	if !f.pending {
		return false
	}
	f.pending = false

	sample, ok := f.fields.Sample(f.seen)
	if !ok {
		return false
	}
	return publish(f.tracker, f.opID, f.appName, f.kind, sample, f.onUpdate)
}
