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

// Package notifications builds and queues API notifications.
package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/progress"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/rs/zerolog/log"
)

// send queues a notification without blocking. A full channel drops it;
// progress is resent on the next sample and phases are also returned to
// the caller.
func send(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}

	var params json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Msgf("failed to marshal %s notification", method)
			return
		}
		params = data
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Msgf("notification channel full, dropping %s", method)
	}
}

func OperationPhase(ns chan<- models.Notification, payload models.OperationPhaseParams) {
	send(ns, models.NotificationOperationPhase, payload)
}

func OperationProgress(ns chan<- models.Notification, payload progress.Progress) {
	send(ns, models.NotificationOperationProgress, payload)
}

func RuntimesChanged(ns chan<- models.Notification, payload []runtimes.Installation) {
	send(ns, models.NotificationRuntimesChanged, payload)
}

func SettingsChanged(ns chan<- models.Notification, scope string) {
	send(ns, models.NotificationSettingsChanged, models.SettingsChangedParams{Scope: scope})
}
