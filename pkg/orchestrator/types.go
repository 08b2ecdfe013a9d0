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

package orchestrator

import (
	"context"

	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/progress"
	"github.com/google/uuid"
)

type Kind string

const (
	KindLaunch  Kind = "launch"
	KindInstall Kind = Kind(progress.KindInstall)
	KindUpdate  Kind = Kind(progress.KindUpdate)
	KindRepair  Kind = Kind(progress.KindRepair)
	KindImport  Kind = Kind(progress.KindImport)
)

type Phase string

const (
	PhasePending           Phase = "pending"
	PhasePreconditionCheck Phase = "precondition_check"
	PhaseEnvironmentPrep   Phase = "environment_prep"
	PhaseExecuting         Phase = "executing"
	PhaseSucceeded         Phase = "succeeded"
	PhaseFailed            Phase = "failed"
	PhaseCancelled         Phase = "cancelled"
)

// Terminal reports whether no further transitions follow p.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed || p == PhaseCancelled
}

// Reason says why an operation didn't succeed.
type Reason string

const (
	ReasonOfflineUnsupported Reason = "offline_unsupported"
	ReasonRuntimeMissing     Reason = "runtime_missing"
	ReasonSpawnFailure       Reason = "spawn_failure"
	ReasonTerminatedBySignal Reason = "terminated_by_signal"
	ReasonExternalToolError  Reason = "external_tool_error"
	ReasonDiskSpace          Reason = "disk_space"
	ReasonNotInstalled       Reason = "not_installed"
	ReasonConfigCorrupt      Reason = "config_corrupt"
	ReasonUnsupported        Reason = "unsupported"
	ReasonCancelled          Reason = "cancelled"
)

// Outcome is the final state of an operation. Stderr is always the full
// captured output so failures can be diagnosed without the log file.
type Outcome struct {
	AppName     string    `json:"appName"`
	Kind        Kind      `json:"kind"`
	Phase       Phase     `json:"phase"`
	Reason      Reason    `json:"reason,omitempty"`
	Message     string    `json:"message,omitempty"`
	Command     string    `json:"command,omitempty"`
	Stdout      string    `json:"stdout,omitempty"`
	Stderr      string    `json:"stderr,omitempty"`
	Signal      string    `json:"signal,omitempty"`
	ExitCode    int       `json:"exitCode"`
	OperationID uuid.UUID `json:"operationId"`
}

func (o *Outcome) Success() bool {
	return o.Phase == PhaseSucceeded
}

// Status is the coarse result reported for install style operations.
func (o *Outcome) Status() string {
	if o.Success() {
		return "done"
	}
	return "error"
}

// Library provides the games the orchestrator can operate on.
type Library interface {
	Game(appName string) (library.Game, error)
	Reload() error
}

type Reachability interface {
	IsOnline(ctx context.Context) bool
	IsBackendServiceDown(ctx context.Context, runner library.Runner) bool
}

// Presence publishes what's being played, e.g. to Discord.
type Presence interface {
	Start(game *library.Game)
	Stop(appName string)
}

type NopPresence struct{}

func (NopPresence) Start(*library.Game) {}

func (NopPresence) Stop(string) {}
