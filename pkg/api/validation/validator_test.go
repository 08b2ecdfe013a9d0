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

package validation

import (
	"testing"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_OperationRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantMsg string
		req     models.OperationRequest
	}{
		{name: "empty", req: models.OperationRequest{}},
		{name: "full", req: models.OperationRequest{
			Path: "/games", Platform: "Windows", Language: "en", MaxWorkers: 8,
		}},
		{name: "home_path", req: models.OperationRequest{Path: "~/Games"}},
		{name: "relative_path", req: models.OperationRequest{Path: "games"}, wantMsg: "path must be an absolute path"},
		{
			name:    "bad_platform",
			req:     models.OperationRequest{Platform: "amiga"},
			wantMsg: "platform must be one of: windows, mac, linux",
		},
		{
			name:    "negative_workers",
			req:     models.OperationRequest{MaxWorkers: -2},
			wantMsg: "maxWorkers must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := DefaultValidator.Validate(&tt.req)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Error())
		})
	}
}

func TestValidateVar_AppName(t *testing.T) {
	t.Parallel()

	v := NewValidator()
	require.NoError(t, v.ValidateVar("Hades", "appname"))
	require.NoError(t, v.ValidateVar("1441974651", "appname"))
	require.Error(t, v.ValidateVar("", "appname"))
	require.Error(t, v.ValidateVar("..", "appname"))
	require.Error(t, v.ValidateVar("../etc", "appname"))
	require.Error(t, v.ValidateVar(`a\b`, "appname"))
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	var req models.OperationRequest
	require.NoError(t, DecodeAndValidate([]byte(""), &req, true))
	require.ErrorIs(t, DecodeAndValidate([]byte(" "), &req, false), ErrMissingBody)
	require.ErrorIs(t, DecodeAndValidate([]byte("{"), &req, true), ErrInvalidBody)

	require.NoError(t, DecodeAndValidate([]byte(`{"path":"/mnt/games","maxWorkers":4}`), &req, false))
	assert.Equal(t, "/mnt/games", req.Path)
	assert.Equal(t, 4, req.MaxWorkers)
}
