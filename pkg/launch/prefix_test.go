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

package launch

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testPrefix = "/home/user/Games/Heroic/Prefixes/MyGame"

func newPrefixPreparer(t *testing.T) (*Preparer, *mocks.MockCommandExecutor, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	exec := &mocks.MockCommandExecutor{}
	runner := process.NewRunner(exec, fs, nil, clockwork.NewFakeClock())
	p := NewPreparer(fs, runner, PreparerOptions{Home: testHome, SteamDir: testSteam, GOOS: "linux"})
	return p, exec, fs
}

func isWineboot(c command.Cmd) bool {
	return c.Name == "/usr/bin/wine" &&
		slices.Equal(c.Args, []string{"wineboot", "--init"}) &&
		slices.Contains(c.Env, "WINEPREFIX="+testPrefix)
}

func TestVerifyPrefix_WineCreatesPrefix(t *testing.T) {
	t.Parallel()

	p, exec, fs := newPrefixPreparer(t)
	exec.On("Spawn", mock.Anything, mock.MatchedBy(isWineboot)).
		Return(mocks.NewFinishedProcess(10, "", "", command.ExitStatus{}), nil).Once()

	status, err := p.VerifyPrefix(context.Background(), gameSettings(), runtimes.Installation{
		Kind:       runtimes.KindWine,
		BinaryPath: "/usr/bin/wine",
	})
	require.NoError(t, err)

	assert.Equal(t, testPrefix, status.Path)
	assert.True(t, status.Created)
	assert.False(t, status.Updated)
	assert.False(t, status.Skipped)

	ok, err := afero.DirExists(fs, testPrefix)
	require.NoError(t, err)
	assert.True(t, ok)
	exec.AssertExpectations(t)
}

func TestVerifyPrefix_WineUpdatesExistingPrefix(t *testing.T) {
	t.Parallel()

	p, exec, fs := newPrefixPreparer(t)
	require.NoError(t, afero.WriteFile(fs, testPrefix+"/system.reg", []byte("WINE REGISTRY"), 0o600))

	stderr := "wine: configuration in L\"" + testPrefix + "\" has been updated.\n"
	exec.On("Spawn", mock.Anything, mock.MatchedBy(isWineboot)).
		Return(mocks.NewFinishedProcess(11, "", stderr, command.ExitStatus{}), nil).Once()

	status, err := p.VerifyPrefix(context.Background(), gameSettings(), runtimes.Installation{
		Kind:       runtimes.KindWine,
		BinaryPath: "/usr/bin/wine",
	})
	require.NoError(t, err)
	assert.False(t, status.Created)
	assert.True(t, status.Updated)
}

func TestVerifyPrefix_WinebootSpawnFailure(t *testing.T) {
	t.Parallel()

	p, exec, _ := newPrefixPreparer(t)
	exec.On("Spawn", mock.Anything, mock.Anything).Return(nil, errors.New("permission denied")).Once()

	_, err := p.VerifyPrefix(context.Background(), gameSettings(), runtimes.Installation{
		Kind:       runtimes.KindWine,
		BinaryPath: "/usr/bin/wine",
	})
	require.ErrorIs(t, err, ErrPrefixInit)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestVerifyPrefix_ProtonOnlyEnsuresDirectory(t *testing.T) {
	t.Parallel()

	p, exec, fs := newPrefixPreparer(t)

	status, err := p.VerifyPrefix(context.Background(), gameSettings(), runtimes.Installation{
		Kind:       runtimes.KindProton,
		BinaryPath: "/opt/proton/proton",
	})
	require.NoError(t, err)
	assert.True(t, status.Skipped)

	ok, err := afero.DirExists(fs, testPrefix)
	require.NoError(t, err)
	assert.True(t, ok)
	exec.AssertNotCalled(t, "Spawn", mock.Anything, mock.Anything)
}

func TestVerifyPrefix_CrossoverSkipped(t *testing.T) {
	t.Parallel()

	p, exec, fs := newPrefixPreparer(t)

	status, err := p.VerifyPrefix(context.Background(), gameSettings(), runtimes.Installation{
		Kind:       runtimes.KindCrossover,
		BinaryPath: "/opt/cxoffice/bin/wine",
	})
	require.NoError(t, err)
	assert.True(t, status.Skipped)

	ok, err := afero.DirExists(fs, testPrefix)
	require.NoError(t, err)
	assert.False(t, ok)
	exec.AssertNotCalled(t, "Spawn", mock.Anything, mock.Anything)
}
