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

package helpers

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // replaces the global logger
func TestInitLogging(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	require.NoError(t, InitLogging(dir, []io.Writer{&buf}))

	SetDebugLogging(false)
	log.Debug().Msg("hidden")
	log.Info().Str("app", "Sugar").Msg("launching")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"app":"Sugar"`)

	data, err := os.ReadFile(filepath.Join(dir, config.LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "launching")

	SetDebugLogging(true)
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")

	_, err = LogWriter().Write([]byte("raw\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "raw")
}

//nolint:paralleltest // replaces the global logger
func TestInitLogging_DirectoryIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	err := InitLogging(file, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create log directory")
}
