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

package backends

import (
	"testing"

	"github.com/ZaparooProject/zaparoo-launch/pkg/launch"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wine = runtimes.Installation{Kind: runtimes.KindWine, BinaryPath: "/usr/bin/wine"}
	// Steam library paths often contain spaces
	proton = runtimes.Installation{Kind: runtimes.KindProton, BinaryPath: "/steam/common/Proton 9.0/proton"}
)

func TestSet_For(t *testing.T) {
	t.Parallel()

	s := NewSet(NewLegendary("legendary"), NewGOGDL("gogdl", "/auth.json"), NewSideload())

	b, err := s.For(library.RunnerGOG)
	require.NoError(t, err)
	assert.Equal(t, library.RunnerGOG, b.Name())

	_, err = s.For("amazon")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLegendary_LaunchWine(t *testing.T) {
	t.Parallel()

	inv, err := NewLegendary("/usr/bin/legendary").Launch(&LaunchRequest{
		Game:         library.Game{AppName: "Hades"},
		Runtime:      wine,
		Env:          launch.Environment{Env: map[string]string{"WINEPREFIX": "/p"}, Wrappers: []string{"gamemoderun"}},
		Language:     "de",
		Offline:      true,
		LauncherArgs: `-skipintro "-name=Player One"`,
		ExtraArgs:    []string{"-windowed"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/legendary", inv.Executable)
	assert.Equal(t, []string{
		"launch", "Hades", "--language", "de", "--offline",
		"--wine", "/usr/bin/wine", "--wrapper", "gamemoderun",
		"-skipintro", "-name=Player One", "-windowed",
	}, inv.Args)
	assert.Equal(t, "/p", inv.Env["WINEPREFIX"])
	assert.Empty(t, inv.Wrappers)
}

func TestLegendary_LaunchProton(t *testing.T) {
	t.Parallel()

	inv, err := NewLegendary("legendary").Launch(&LaunchRequest{
		Game:    library.Game{AppName: "Hades"},
		Runtime: proton,
		Env:     launch.Environment{Wrappers: []string{"mangohud --dlsym", "gamemoderun"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"launch", "Hades", "--no-wine", "--wrapper",
		"mangohud --dlsym gamemoderun '/steam/common/Proton 9.0/proton' waitforexitandrun",
	}, inv.Args)
}

func TestLegendary_LaunchNative(t *testing.T) {
	t.Parallel()

	inv, err := NewLegendary("legendary").Launch(&LaunchRequest{
		Game:   library.Game{AppName: "Hades"},
		Native: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"launch", "Hades", "--no-wine"}, inv.Args)
}

func TestLegendary_Operations(t *testing.T) {
	t.Parallel()

	l := NewLegendary("legendary")
	game := &library.Game{AppName: "Hades"}

	inv, err := l.Install(game, Options{Path: "/games", Platform: "Windows", MaxWorkers: 4, Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"install", "Hades", "--platform", "Windows", "--base-path", "/games",
		"--skip-dlcs", "--language", "en", "--max-workers", "4", "-y",
	}, inv.Args)

	inv, err = l.Update(game, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "Hades", "-y"}, inv.Args)

	inv, err = l.Repair(game, Options{MaxWorkers: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"repair", "Hades", "--max-workers", "2", "-y"}, inv.Args)

	inv, err = l.Import(game, Options{Path: "/games/Hades", WithDLCs: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"import", "Hades", "/games/Hades", "--with-dlcs"}, inv.Args)

	inv, err = l.Info(game)
	require.NoError(t, err)
	assert.Equal(t, []string{"info", "Hades", "--json"}, inv.Args)
}

func TestGOGDL_Launch(t *testing.T) {
	t.Parallel()

	inv, err := NewGOGDL("gogdl", "/cfg/auth.json").Launch(&LaunchRequest{
		Game:    library.Game{AppName: "1441974651", InstallPath: "/games/Stardew", Platform: "Windows"},
		Runtime: wine,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--auth-config-path", "/cfg/auth.json",
		"launch", "/games/Stardew", "1441974651", "--platform", "windows",
		"--wine", "/usr/bin/wine",
	}, inv.Args)
}

func TestGOGDL_Install(t *testing.T) {
	t.Parallel()

	inv, err := NewGOGDL("gogdl", "/auth.json").Install(
		&library.Game{AppName: "1", Platform: "linux"},
		Options{Path: "/games", WithDLCs: true, Language: "en-US", MaxWorkers: 8},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--auth-config-path", "/auth.json",
		"download", "1", "--platform", "linux", "--path", "/games",
		"--with-dlcs", "--lang", "en-US", "--max-workers", "8",
	}, inv.Args)
}

func TestSideload_Launch(t *testing.T) {
	t.Parallel()

	s := NewSideload()
	game := library.Game{AppName: "abc", Executable: "/games/itch/game.exe"}
	env := launch.Environment{Env: map[string]string{"WINEPREFIX": "/p"}, Wrappers: []string{"gamemoderun"}}

	inv, err := s.Launch(&LaunchRequest{Game: game, Runtime: wine, Env: env, ExtraArgs: []string{"-x"}})
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/wine", inv.Executable)
	assert.Equal(t, []string{"/games/itch/game.exe", "-x"}, inv.Args)
	assert.Equal(t, []string{"gamemoderun"}, inv.Wrappers)
	assert.Equal(t, "/games/itch", inv.Dir)

	inv, err = s.Launch(&LaunchRequest{Game: game, Runtime: proton})
	require.NoError(t, err)
	assert.Equal(t, proton.BinaryPath, inv.Executable)
	assert.Equal(t, []string{"waitforexitandrun", "/games/itch/game.exe"}, inv.Args)

	inv, err = s.Launch(&LaunchRequest{Game: library.Game{Executable: "/games/native.sh"}, Native: true})
	require.NoError(t, err)
	assert.Equal(t, "/games/native.sh", inv.Executable)
	assert.Empty(t, inv.Args)

	_, err = s.Launch(&LaunchRequest{Game: library.Game{AppName: "none"}, Runtime: wine})
	require.ErrorIs(t, err, ErrNoExecutable)

	_, err = s.Install(&game, Options{})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSplitArgs(t *testing.T) {
	t.Parallel()

	assert.Empty(t, splitArgs("   "))
	assert.Equal(t, []string{"a", "b c", "", "d'e"}, splitArgs(`a "b c" '' "d'e"`))
}
