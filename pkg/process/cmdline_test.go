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

package process

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBuildArgv_WrapperChain(t *testing.T) {
	t.Parallel()

	name, argv := BuildArgv(
		[]string{"mangohud --dlsym", "gamemoderun"},
		"/bin/real",
		[]string{"launch", "MyGame"},
	)

	assert.Equal(t, "mangohud", name)
	assert.Equal(t, []string{"--dlsym", "gamemoderun", "/bin/real", "launch", "MyGame"}, argv)

	cmdline := FormatCommand(append([]string{name}, argv...))
	assert.True(t, strings.HasPrefix(cmdline, "mangohud --dlsym gamemoderun /bin/real"), cmdline)
}

func TestBuildArgv_NoWrappers(t *testing.T) {
	t.Parallel()

	name, argv := BuildArgv(nil, "/usr/bin/legendary", []string{"info", "MyGame"})

	assert.Equal(t, "/usr/bin/legendary", name)
	assert.Equal(t, []string{"info", "MyGame"}, argv)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
		want []string
	}{
		{
			name: "separate_value",
			argv: []string{"gogdl", "--token", "SECRET123", "launch"},
			want: []string{"gogdl", "--token", Redacted, "launch"},
		},
		{
			name: "inline_value",
			argv: []string{"gogdl", "--token=SECRET123"},
			want: []string{"gogdl", "--token=" + Redacted},
		},
		{
			name: "sid",
			argv: []string{"legendary", "auth", "--sid", "abc"},
			want: []string{"legendary", "auth", "--sid", Redacted},
		},
		{
			name: "trailing_flag",
			argv: []string{"legendary", "--token"},
			want: []string{"legendary", "--token"},
		},
		{
			name: "similar_flag_untouched",
			argv: []string{"legendary", "--tokens", "x"},
			want: []string{"legendary", "--tokens", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orig := append([]string(nil), tt.argv...)
			assert.Equal(t, tt.want, Redact(tt.argv))
			assert.Equal(t, orig, tt.argv, "input must not be modified")
		})
	}
}

func TestFormatCommand_QuotesWhitespace(t *testing.T) {
	t.Parallel()

	got := FormatCommand([]string{"wine", "/home/user/My Games/game.exe", "-windowed"})
	assert.Equal(t, `wine "/home/user/My Games/game.exe" -windowed`, got)
}

func TestFormatCommand_NeverLeaksToken(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		secret := rapid.StringMatching(`[A-Za-z0-9]{12,24}`).Draw(t, "secret")
		before := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 4).Draw(t, "before")
		after := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 4).Draw(t, "after")
		inline := rapid.Bool().Draw(t, "inline")

		argv := append([]string{"gogdl"}, before...)
		if inline {
			argv = append(argv, "--token="+secret)
		} else {
			argv = append(argv, "--token", secret)
		}
		argv = append(argv, after...)

		if got := FormatCommand(argv); strings.Contains(got, secret) {
			t.Fatalf("secret leaked: %s", got)
		}
	})
}

func TestMergeEnv(t *testing.T) {
	t.Parallel()

	got := MergeEnv(
		[]string{"PATH=/usr/bin", "WINEPREFIX=/old", "HOME=/home/user"},
		map[string]string{"WINEPREFIX": "/new", "DXVK_HUD": "fps", "A": "1"},
	)

	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"WINEPREFIX=/new",
		"HOME=/home/user",
		"A=1",
		"DXVK_HUD=fps",
	}, got)
}
