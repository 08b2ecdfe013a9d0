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

package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/ZaparooProject/zaparoo-launch/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testConfig = `config_schema = 1

[paths]
legendary_config = "/legendary"
store_cache = "/heroic/store_cache"
settings = "/heroic"
tools = "/heroic/tools"
logs = "/heroic/logs"
`

func newTestConfig(t *testing.T) *config.Instance {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.CfgFile), []byte(testConfig), 0o600))
	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

func newTestExecutor() *mocks.MockCommandExecutor {
	exec := &mocks.MockCommandExecutor{}
	exec.On("LookPath", mock.Anything).Return("", errors.New("not found")).Maybe()
	exec.On("Output", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("not found")).Maybe()
	return exec
}

func testOptions() Options {
	return Options{
		Fs:       afero.NewMemMapFs(),
		Exec:     newTestExecutor(),
		Clock:    clockwork.NewFakeClock(),
		Registry: prometheus.NewRegistry(),
		Home:     "/home/user",
		Offline:  true,
		NoAPI:    true,
	}
}

func TestBuild_WiresSettingsStore(t *testing.T) {
	t.Parallel()
	cfg := newTestConfig(t)
	opts := testOptions()
	ns := make(chan models.Notification, 16)

	c, err := Build(context.Background(), cfg, opts, ns)
	require.NoError(t, err)

	assert.Equal(t, "/heroic/config.json", c.Store.Path(settings.GlobalScope))
	assert.Equal(t, "/heroic/GamesConfig/Sugar.json", c.Store.Path("Sugar"))

	eff, err := c.Orchestrator.EffectiveSettings(settings.GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, settings.CurrentVersion, eff.Version)
}

func TestBuild_WriteSettingsNotifies(t *testing.T) {
	t.Parallel()
	cfg := newTestConfig(t)
	ns := make(chan models.Notification, 16)

	c, err := Build(context.Background(), cfg, testOptions(), ns)
	require.NoError(t, err)

	require.NoError(t, c.Orchestrator.WriteSettings("Sugar", map[string]any{"language": "de"}))

	select {
	case n := <-ns:
		assert.Equal(t, models.NotificationSettingsChanged, n.Method)
	default:
		t.Fatal("expected a settings notification")
	}
}

func TestLoad_ImportsLegendarySettings(t *testing.T) {
	t.Parallel()
	cfg := newTestConfig(t)
	opts := testOptions()
	require.NoError(t, afero.WriteFile(opts.Fs, "/legendary/config.ini",
		[]byte("[Sugar]\nwine_prefix = /prefixes/sugar\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, err := Build(ctx, cfg, opts, make(chan models.Notification, 16))
	require.NoError(t, err)

	c.load(ctx, cfg)

	doc, err := c.Store.Game("Sugar")
	require.NoError(t, err)
	assert.True(t, doc.Explicit)
	prefix, ok := doc.Get("winePrefix")
	require.True(t, ok)
	assert.Equal(t, "/prefixes/sugar", prefix)
}

func TestStart_StopsCleanly(t *testing.T) {
	t.Parallel()
	cfg := newTestConfig(t)

	stop, done, err := Start(cfg, testOptions())
	require.NoError(t, err)

	require.NoError(t, stop())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}
