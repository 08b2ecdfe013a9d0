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
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	DefaultPollInterval = time.Second
	// tailSize is how much of the end of the log is read on each poll.
	tailSize = 64 * 1024
)

// Poller periodically reads the end of an operation log and feeds the
// newest progress values into a Tracker.
type Poller struct {
	fs       afero.Fs
	clock    clockwork.Clock
	tracker  *Tracker
	onUpdate func(Progress)
	last     Fields
	path     string
	appName  string
	kind     Kind
	interval time.Duration
	opID     uuid.UUID
}

type PollerOptions struct {
	// OnUpdate is called after every accepted sample.
	OnUpdate func(Progress)
	Clock    clockwork.Clock
	AppName  string
	Kind     Kind
	LogFile  string
	Interval time.Duration
	OpID     uuid.UUID
}

func NewPoller(fs afero.Fs, tracker *Tracker, opts PollerOptions) *Poller {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	return &Poller{
		fs:       fs,
		clock:    opts.Clock,
		tracker:  tracker,
		onUpdate: opts.OnUpdate,
		path:     opts.LogFile,
		appName:  opts.AppName,
		kind:     opts.Kind,
		interval: opts.Interval,
		opID:     opts.OpID,
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.Poll()
		}
	}
}

// Poll reads the log once. It reports whether a new sample was applied.
func (p *Poller) Poll() bool {
	tail, err := p.readTail()
	if err != nil {
		log.Debug().Err(err).Msgf("failed to read progress log %s", p.path)
		return false
	}

	var fields Fields
	lines := strings.Split(tail, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		f, ok := ParseLine(lines[i])
		if !ok {
			continue
		}
		if f.HasProgress && !fields.HasProgress {
			fields.Merge(Fields{
				HasProgress: true, Percent: f.Percent, Done: f.Done,
				Total: f.Total, Elapsed: f.Elapsed, ETA: f.ETA,
			})
		}
		if f.HasDownloaded && !fields.HasDownloaded {
			fields.Merge(Fields{HasDownloaded: true, DownloadedMiB: f.DownloadedMiB})
		}
		if fields.HasProgress && fields.HasDownloaded {
			break
		}
	}

	if !fields.HasProgress || fields == p.last {
		return false
	}
	p.last = fields

	return p.apply(fields)
}

func (p *Poller) apply(fields Fields) bool {
	sample, ok := fields.Sample(p.clock.Now())
	if !ok {
		return false
	}
	return publish(p.tracker, p.opID, p.appName, p.kind, sample, p.onUpdate)
}

func publish(
	tracker *Tracker,
	opID uuid.UUID,
	appName string,
	kind Kind,
	sample Sample,
	onUpdate func(Progress),
) bool {
	if _, accepted := tracker.Apply(opID, appName, kind, sample); !accepted {
		return false
	}
	if onUpdate != nil {
		if prog, found := tracker.Get(appName, kind); found {
			onUpdate(prog)
		}
	}
	return true
}

func (p *Poller) readTail() (string, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		return "", err //nolint:wrapcheck // logged at debug level by caller
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", err //nolint:wrapcheck // logged at debug level by caller
	}

	offset := info.Size() - tailSize
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", err //nolint:wrapcheck // logged at debug level by caller
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err //nolint:wrapcheck // logged at debug level by caller
	}
	return string(data), nil
}
