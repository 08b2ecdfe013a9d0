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

package runtimes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCatalog_RefreshReplacesSnapshot(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tools := "/tools"
	touch(t, fs, filepath.Join(tools, "wine", "a", "bin", "wine"))

	clock := clockwork.NewFakeClock()
	c := NewCatalog(NewScanner(fs, noSystemWine(), ScannerOptions{ToolsDir: tools, GOOS: "linux"}), clock)

	var notified []Installation
	c.OnChange(func(list []Installation) { notified = list })

	first, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, clock.Now(), c.ScannedAt())
	assert.Equal(t, first, notified)

	require.NoError(t, fs.RemoveAll(filepath.Join(tools, "wine", "a")))
	touch(t, fs, filepath.Join(tools, "proton", "b", "proton"))

	second, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, KindProton, second[0].Kind)
	assert.Equal(t, second, c.List())

	// earlier snapshots are unaffected
	assert.Equal(t, KindWine, first[0].Kind)

	_, found := c.Find(first[0].BinaryPath)
	assert.False(t, found)
	got, found := c.Find(second[0].BinaryPath)
	assert.True(t, found)
	assert.Equal(t, second[0], got)
}

func TestCatalog_Default(t *testing.T) {
	t.Parallel()

	c := NewCatalog(nil, nil)
	_, ok := c.Default()
	assert.False(t, ok)

	c.installs = []Installation{
		{Kind: KindProton, BinaryPath: "/p/proton"},
		{Kind: KindWine, BinaryPath: "/tools/wine", Source: SourceToolCache},
	}
	inst, ok := c.Default()
	require.True(t, ok)
	assert.Equal(t, "/tools/wine", inst.BinaryPath)

	c.installs = append(c.installs, Installation{Kind: KindWine, BinaryPath: "/usr/bin/wine", Source: SourceSystem})
	inst, _ = c.Default()
	assert.Equal(t, "/usr/bin/wine", inst.BinaryPath)

	c.installs = c.installs[:1]
	inst, _ = c.Default()
	assert.Equal(t, "/p/proton", inst.BinaryPath)
}

func TestCatalog_CustomPaths(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	touch(t, fs, "/opt/wine-custom/bin/wine")

	c := NewCatalog(NewScanner(fs, noSystemWine(), ScannerOptions{GOOS: "linux"}), nil)
	list, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	c.SetCustomPaths([]string{"/opt/wine-custom/bin/wine"})
	list, err = c.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, SourceCustom, list[0].Source)
}

func TestCatalog_WatchRescansOnNewRuntime(t *testing.T) {
	t.Parallel()

	tools := t.TempDir()
	wineDir := filepath.Join(tools, "wine")
	require.NoError(t, os.MkdirAll(wineDir, 0o750))

	clock := clockwork.NewFakeClock()
	c := NewCatalog(NewScanner(afero.NewOsFs(), noSystemWine(), ScannerOptions{ToolsDir: tools, GOOS: "linux"}), clock)

	changed := make(chan []Installation, 1)
	c.OnChange(func(list []Installation) { changed <- list })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, []string{wineDir, filepath.Join(tools, "missing")}))

	build := filepath.Join(wineDir, "Wine-GE-8-26", "bin")
	require.NoError(t, os.MkdirAll(build, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(build, "wine"), []byte{}, 0o600))

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(WatchDebounce)

	select {
	case list := <-changed:
		require.Len(t, list, 1)
		assert.Equal(t, "Wine - Wine-GE-8-26", list[0].DisplayName)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for rescan")
	}
}
