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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want Fields
		ok   bool
	}{
		{
			name: "legendary_progress",
			line: "[DLManager] INFO: = Progress: 12.34% (123/997), Running for 00:01:02, ETA: 00:10:00",
			want: Fields{
				HasProgress: true, Percent: 12.34, Done: 123, Total: 997,
				Elapsed: 62 * time.Second, ETA: 10 * time.Minute,
			},
			ok: true,
		},
		{
			name: "gogdl_progress_without_brackets",
			line: "= Progress: 50.00 500/1000, Running for: 00:00:30, ETA: 00:00:30",
			want: Fields{
				HasProgress: true, Percent: 50, Done: 500, Total: 1000,
				Elapsed: 30 * time.Second, ETA: 30 * time.Second,
			},
			ok: true,
		},
		{
			name: "downloaded",
			line: "[DLManager] INFO:  - Downloaded: 1024.50 MiB, Written: 2000.00 MiB",
			want: Fields{HasDownloaded: true, DownloadedMiB: 1024.5},
			ok:   true,
		},
		{
			name: "unrelated",
			line: "[cli] INFO: Install size: 12.00 GiB",
		},
		{
			name: "empty",
			line: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_Sample(t *testing.T) {
	t.Parallel()

	var f Fields
	_, ok := f.Sample(t0)
	assert.False(t, ok, "downloaded alone isn't a sample")

	f.Merge(Fields{HasDownloaded: true, DownloadedMiB: 2})
	f.Merge(Fields{HasProgress: true, Done: 10, Total: 20})

	s, ok := f.Sample(t0)
	require.True(t, ok)
	assert.Equal(t, Sample{
		Timestamp:      t0,
		CompletedUnits: 10,
		TotalUnits:     20,
		CompletedBytes: 2 * 1024 * 1024,
	}, s)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, parseClock("01:02:03"))
	assert.Equal(t, 90*time.Second, parseClock("01:30"))
	assert.Equal(t, 7*time.Second, parseClock("7"))
	assert.Zero(t, parseClock("::"))
}
