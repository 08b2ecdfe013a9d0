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
	"errors"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/ZaparooProject/zaparoo-launch/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const home = "/home/user"

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, afero.WriteFile(fs, path, []byte{}, 0o750))
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o640))
}

func noSystemWine() *mocks.MockCommandExecutor {
	m := &mocks.MockCommandExecutor{}
	m.On("LookPath", mock.Anything).Return("", errors.New("not found"))
	return m
}

func TestScanner_ToolCacheAndLutris(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	tools := filepath.Join(home, ".config", "launchcore", "tools")
	touch(t, fs, filepath.Join(tools, "wine", "Wine-GE-8-26", "bin", "wine"))
	touch(t, fs, filepath.Join(tools, "wine", "Wine-GE-8-26", "bin", "wineserver"))
	touch(t, fs, filepath.Join(tools, "proton", "GE-Proton9-1", "proton"))
	touch(t, fs, filepath.Join(tools, "proton", "GE-Proton9-1", "files", "bin", "wineserver"))
	require.NoError(t, fs.MkdirAll(filepath.Join(tools, "wine", "broken"), 0o750))
	touch(t, fs, filepath.Join(home, ".local", "share", "lutris", "runners", "wine", "lutris-7.2", "bin", "wine64"))

	s := NewScanner(fs, noSystemWine(), ScannerOptions{Home: home, ToolsDir: tools, GOOS: "linux"})
	got, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Installation{
		{
			Kind:           KindWine,
			BinaryPath:     filepath.Join(tools, "wine", "Wine-GE-8-26", "bin", "wine"),
			DisplayName:    "Wine - Wine-GE-8-26",
			WineserverPath: filepath.Join(tools, "wine", "Wine-GE-8-26", "bin", "wineserver"),
			Source:         SourceToolCache,
		},
		{
			Kind:           KindProton,
			BinaryPath:     filepath.Join(tools, "proton", "GE-Proton9-1", "proton"),
			DisplayName:    "Proton - GE-Proton9-1",
			WineserverPath: filepath.Join(tools, "proton", "GE-Proton9-1", "files", "bin", "wineserver"),
			Source:         SourceToolCache,
		},
		{
			Kind:        KindWine,
			BinaryPath:  filepath.Join(home, ".local", "share", "lutris", "runners", "wine", "lutris-7.2", "bin", "wine64"),
			DisplayName: "Wine - lutris-7.2",
			Source:      SourceLutris,
		},
	}, got)
}

func TestScanner_Steam(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	steamDir := filepath.Join(home, ".steam", "steam")

	touch(t, fs, filepath.Join(steamDir, "compatibilitytools.d", "GE-Proton9-1", "proton"))
	write(t, fs, filepath.Join(steamDir, "compatibilitytools.d", "GE-Proton9-1", "compatibilitytool.vdf"), `
"compatibilitytools"
{
  "compat_tools"
  {
    "GE-Proton9-1"
    {
      "install_path" "."
      "Display_Name" "GE-Proton 9-1"
    }
  }
}
`)
	write(t, fs, filepath.Join(steamDir, "steamapps", "libraryfolders.vdf"), `
"libraryfolders"
{
  "0"
  {
    "path" "`+steamDir+`"
  }
  "1"
  {
    "path" "/mnt/games/SteamLibrary"
  }
}
`)
	touch(t, fs, filepath.Join(steamDir, "steamapps", "common", "Proton 8.0", "proton"))
	touch(t, fs, filepath.Join("/mnt/games/SteamLibrary", "steamapps", "common", "Proton - Experimental", "proton"))
	touch(t, fs, filepath.Join("/mnt/games/SteamLibrary", "steamapps", "common", "Portal", "proton"))

	s := NewScanner(fs, noSystemWine(), ScannerOptions{Home: home, GOOS: "linux"})
	got, err := s.Scan(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, inst := range got {
		assert.Equal(t, KindProton, inst.Kind)
		assert.Equal(t, SourceSteam, inst.Source)
		names = append(names, inst.DisplayName)
	}
	assert.ElementsMatch(t, []string{
		"Proton - GE-Proton 9-1",
		"Proton - Proton 8.0",
		"Proton - Proton - Experimental",
	}, names)
}

func TestScanner_SteamOnlyOnLinux(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	touch(t, fs, filepath.Join(home, ".steam", "steam", "compatibilitytools.d", "GE-Proton9-1", "proton"))

	s := NewScanner(fs, noSystemWine(), ScannerOptions{Home: home, GOOS: "darwin"})
	got, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanner_SystemWine(t *testing.T) {
	t.Parallel()

	m := &mocks.MockCommandExecutor{}
	m.On("LookPath", "wine").Return("/usr/bin/wine", nil)
	m.On("LookPath", "wineserver").Return("/usr/bin/wineserver", nil)
	m.On("Output", mock.Anything, "/usr/bin/wine", []string{"--version"}).Return([]byte("wine-9.0\n"), nil)

	s := NewScanner(afero.NewMemMapFs(), m, ScannerOptions{Home: home, GOOS: "linux"})
	got, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, Installation{
		Kind:           KindWine,
		BinaryPath:     "/usr/bin/wine",
		DisplayName:    "Wine - wine-9.0",
		WineserverPath: "/usr/bin/wineserver",
		Source:         SourceSystem,
	}, got[0])
	m.AssertExpectations(t)
}

func TestScanner_CrossoverAndCustomDeduplicated(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	touch(t, fs, CrossoverPaths[0])
	touch(t, fs, "/opt/proton-custom/proton")

	s := NewScanner(fs, noSystemWine(), ScannerOptions{
		Home: home,
		GOOS: "darwin",
		CustomPaths: []string{
			CrossoverPaths[0],
			"/opt/proton-custom/proton",
			"/does/not/exist/wine",
		},
	})
	got, err := s.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, KindCrossover, got[0].Kind)
	assert.Equal(t, SourceCrossover, got[0].Source)
	assert.Equal(t, KindProton, got[1].Kind)
	assert.Equal(t, "Custom - /opt/proton-custom/proton", got[1].DisplayName)
}

func TestScanner_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(afero.NewMemMapFs(), noSystemWine(), ScannerOptions{Home: home, GOOS: "linux"})
	_, err := s.Scan(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFindSteamDir(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	assert.Equal(t, "/fallback", FindSteamDir(fs, home, "/fallback"))

	flatpak := filepath.Join(home, ".var", "app", FlatpakSteamID, ".steam", "steam")
	require.NoError(t, fs.MkdirAll(flatpak, 0o750))
	assert.Equal(t, flatpak, FindSteamDir(fs, home, "/fallback"))

	native := filepath.Join(home, ".local", "share", "Steam")
	require.NoError(t, fs.MkdirAll(native, 0o750))
	assert.Equal(t, native, FindSteamDir(fs, home, "/fallback"))
}

func TestInstallation_WineVersionRoundTrip(t *testing.T) {
	t.Parallel()

	inst := Installation{
		Kind:           KindProton,
		BinaryPath:     "/opt/proton/proton",
		DisplayName:    "Proton - 9",
		WineserverPath: "/opt/proton/files/bin/wineserver",
	}
	assert.Equal(t, inst, FromWineVersion(inst.WineVersion()))
	assert.Equal(t, KindWine, FromWineVersion(settings.WineVersion{Bin: "/usr/bin/wine"}).Kind)
}
