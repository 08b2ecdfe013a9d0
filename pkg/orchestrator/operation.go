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
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// operation is the mutable state of one request. Fields set in begin are
// read only afterwards.
type operation struct {
	started  time.Time
	handle   *process.Handle
	env      map[string]string
	log      zerolog.Logger
	runtime  runtimes.Installation
	appName  string
	kind     Kind
	phase    Phase
	title    string
	language string
	mu       syncutil.Mutex
	id       uuid.UUID
	native   bool
	stopped  bool
}

func (op *operation) info() OperationInfo {
	op.mu.Lock()
	defer op.mu.Unlock()
	return OperationInfo{
		ID:      op.id,
		AppName: op.appName,
		Kind:    op.kind,
		Phase:   op.phase,
		Started: op.started,
	}
}

func (op *operation) setPhase(p Phase) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.phase = p
}

func (op *operation) setTitle(title string) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.title = title
}

func (op *operation) setLanguage(lang string) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.language = lang
}

func (op *operation) lang() string {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.language
}

// setRuntime records what Stop needs to kill the runtime's wineserver.
func (op *operation) setRuntime(inst runtimes.Installation, env map[string]string, native bool) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.runtime = inst
	op.env = env
	op.native = native
}

// setHandle stores the running process. It reports whether the operation
// was already stopped, in which case the caller must terminate h.
func (op *operation) setHandle(h *process.Handle) bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.handle = h
	return op.stopped
}

// cancel marks the operation stopped and returns its process, if any.
func (op *operation) cancel() *process.Handle {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.stopped = true
	return op.handle
}

func (op *operation) isCancelled() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.stopped
}
