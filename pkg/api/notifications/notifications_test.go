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

package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/progress"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_NonBlocking(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification)

	done := make(chan struct{})
	go func() {
		SettingsChanged(ns, "default")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked on a full channel")
	}
}

func TestSend_NilChannel(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { SettingsChanged(nil, "default") })
}

func TestOperationPhase(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	id := uuid.New()
	OperationPhase(ns, models.OperationPhaseParams{
		OperationID: id,
		AppName:     "Hades",
		Kind:        "launch",
		Phase:       "failed",
		Reason:      "offline_unsupported",
	})

	n := <-ns
	assert.Equal(t, models.NotificationOperationPhase, n.Method)

	var params models.OperationPhaseParams
	require.NoError(t, json.Unmarshal(n.Params, &params))
	assert.Equal(t, id, params.OperationID)
	assert.Equal(t, "offline_unsupported", params.Reason)
}

func TestOperationProgress(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	OperationProgress(ns, progress.Progress{AppName: "Hades", Kind: progress.KindInstall, Percent: 42})

	n := <-ns
	assert.Equal(t, models.NotificationOperationProgress, n.Method)
	assert.Contains(t, string(n.Params), `"percent":42`)
	assert.NotContains(t, string(n.Params), "etaSeconds")
}

func TestRuntimesChanged(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	RuntimesChanged(ns, []runtimes.Installation{{Kind: runtimes.KindWine, BinaryPath: "/usr/bin/wine"}})

	n := <-ns
	assert.JSONEq(t, `[{"type":"wine","bin":"/usr/bin/wine","name":""}]`, string(n.Params))
}
