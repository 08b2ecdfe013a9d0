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

// Package models holds the request, response and notification types of
// the local API.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	NotificationOperationPhase    = "operations.phase"
	NotificationOperationProgress = "operations.progress"
	NotificationRuntimesChanged   = "runtimes.changed"
	NotificationSettingsChanged   = "settings.changed"
)

// Notification is pushed to every WebSocket client.
type Notification struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type OperationPhaseParams struct {
	At          time.Time `json:"at"`
	AppName     string    `json:"appName"`
	Kind        string    `json:"kind"`
	Phase       string    `json:"phase"`
	Reason      string    `json:"reason,omitempty"`
	Message     string    `json:"message,omitempty"`
	Command     string    `json:"command,omitempty"`
	// Stderr is the tail of the process error output on terminal phases.
	Stderr      string    `json:"stderr,omitempty"`
	OperationID uuid.UUID `json:"operationId"`
}

type SettingsChangedParams struct {
	Scope string `json:"scope"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type LaunchRequest struct {
	ExtraArgs []string `json:"extraArgs"`
}

type OperationRequest struct {
	Path       string `json:"path" validate:"omitempty,abspath"`
	Platform   string `json:"platform" validate:"omitempty,storeplatform"`
	Language   string `json:"language"`
	MaxWorkers int    `json:"maxWorkers" validate:"gte=0"`
	WithDLCs   bool   `json:"withDlcs"`
}

type StopResponse struct {
	Stopped int `json:"stopped"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

// AcceptedResponse is returned when an operation was queued. Its progress
// and outcome arrive as notifications.
type AcceptedResponse struct {
	AppName string `json:"appName"`
	Kind    string `json:"kind"`
}

type SettingsResponse struct {
	Values   map[string]any `json:"values"`
	Scope    string         `json:"scope"`
	Version  string         `json:"version"`
	Explicit bool           `json:"explicit"`
}
