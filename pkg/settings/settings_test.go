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

package settings

import (
	"testing"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_WeakTypes(t *testing.T) {
	t.Parallel()

	s, err := Decode(map[string]any{
		"fsrSharpness": "3",
		"showFps":      "true",
		"unknownKey":   1,
		"wineVersion":  map[string]any{"bin": "/opt/proton/proton", "type": "proton"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, s.FsrSharpness)
	assert.True(t, s.ShowFps)
	assert.Equal(t, "proton", s.WineVersion.Type)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		values  map[string]any
		name    string
		wantErr bool
	}{
		{name: "empty", values: map[string]any{}},
		{name: "factory_defaults", values: mustValues(t, FactoryDefaults())},
		{name: "unknown_key", values: map[string]any{"maxSharpness": 1}, wantErr: true},
		{name: "negative_workers", values: map[string]any{"maxWorkers": -1}, wantErr: true},
		{name: "sharpness_bound", values: map[string]any{"fsrSharpness": 5}},
		{name: "sharpness_over", values: map[string]any{"fsrSharpness": 6}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Validate(tt.values)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSettings)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_FieldMessages(t *testing.T) {
	t.Parallel()

	_, err := Validate(map[string]any{"fsrSharpness": 6})
	require.ErrorIs(t, err, ErrInvalidSettings)

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "lte", ve.Fields[0].Tag)
	assert.Equal(t, "fsrSharpness must be less than or equal to 5", ve.Fields[0].Message)
}

func TestKnownValues(t *testing.T) {
	t.Parallel()

	values := map[string]any{"maxSharpness": 3.0, "useDXVK": true, "language": "fr"}
	known := KnownValues(values)
	assert.Equal(t, map[string]any{"language": "fr"}, known)
	assert.Len(t, values, 3)

	_, err := Validate(known)
	require.NoError(t, err)
}

func TestGamePrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "~/Games/Heroic/Prefixes/MyGame", GamePrefix("", "MyGame"))
	assert.Equal(t, "/mnt/prefixes/MyGame", GamePrefix("/mnt/prefixes", "MyGame"))
}

func TestUpgradeV0_RejectsBadOtherOptions(t *testing.T) {
	t.Parallel()

	_, err := upgradeV0(&Document{Scope: "MyGame", Version: V0, Values: map[string]any{"otherOptions": 3.0}})
	require.Error(t, err)
}

func mustValues(t *testing.T, s Settings) map[string]any {
	t.Helper()
	v, err := ToValues(&s)
	require.NoError(t, err)
	return v
}
