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
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	progressRe = regexp.MustCompile(
		`Progress: ([\d.]+)%? \(?(\d+)/(\d+)\)?, Running for:? ([\d:]+), ETA:? ([\d:]+)`)
	downloadedRe = regexp.MustCompile(`Downloaded: ([\d.]+) MiB`)
)

const bytesPerMiB = 1024 * 1024

// Fields are the values read from backend output.
type Fields struct {
	Elapsed       time.Duration
	ETA           time.Duration
	Percent       float64
	Done          int64
	Total         int64
	DownloadedMiB float64
	HasProgress   bool
	HasDownloaded bool
}

// ParseLine extracts the progress or downloaded fields from a single line.
// It returns false when the line has neither.
func ParseLine(line string) (Fields, bool) {
	var f Fields

	if m := progressRe.FindStringSubmatch(line); m != nil {
		pct, err1 := strconv.ParseFloat(m[1], 64)
		done, err2 := strconv.ParseInt(m[2], 10, 64)
		total, err3 := strconv.ParseInt(m[3], 10, 64)
		if err1 == nil && err2 == nil && err3 == nil {
			f.HasProgress = true
			f.Percent = pct
			f.Done = done
			f.Total = total
			f.Elapsed = parseClock(m[4])
			f.ETA = parseClock(m[5])
		}
	}

	if m := downloadedRe.FindStringSubmatch(line); m != nil {
		if mib, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.HasDownloaded = true
			f.DownloadedMiB = mib
		}
	}

	return f, f.HasProgress || f.HasDownloaded
}

// Merge overlays the fields present in o.
func (f *Fields) Merge(o Fields) {
	if o.HasProgress {
		f.HasProgress = true
		f.Percent = o.Percent
		f.Done = o.Done
		f.Total = o.Total
		f.Elapsed = o.Elapsed
		f.ETA = o.ETA
	}
	if o.HasDownloaded {
		f.HasDownloaded = true
		f.DownloadedMiB = o.DownloadedMiB
	}
}

// Sample converts the fields into an estimator sample taken at ts.
func (f *Fields) Sample(ts time.Time) (Sample, bool) {
	if !f.HasProgress {
		return Sample{}, false
	}
	return Sample{
		Timestamp:      ts,
		CompletedUnits: float64(f.Done),
		TotalUnits:     float64(f.Total),
		CompletedBytes: f.DownloadedMiB * bytesPerMiB,
	}, true
}

// parseClock reads "HH:MM:SS", "MM:SS" or plain seconds.
func parseClock(s string) time.Duration {
	var total int64
	for part := range strings.SplitSeq(s, ":") {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
