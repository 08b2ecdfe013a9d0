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

package progress

import (
	"math"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/google/uuid"
)

// Kind is the type of operation being tracked.
type Kind string

const (
	KindInstall Kind = "install"
	KindUpdate  Kind = "update"
	KindRepair  Kind = "repair"
	KindImport  Kind = "import"
)

// Progress is the externally visible view of a tracked operation.
type Progress struct {
	UpdatedAt      time.Time `json:"updatedAt"`
	ETASeconds     *float64  `json:"etaSeconds,omitempty"`
	AppName        string    `json:"appName"`
	Kind           Kind      `json:"kind"`
	OperationID    string    `json:"operationId"`
	Percent        float64   `json:"percent"`
	Bytes          float64   `json:"bytes"`
	BytesPerSecond float64   `json:"bytesPerSecond"`
	UnitsPerSecond float64   `json:"unitsPerSecond"`
}

type appKind struct {
	appName string
	kind    Kind
}

type entry struct {
	key   appKind
	state State
}

// Tracker stores the latest State per operation. Each (app, kind) pair
// points at its most recent operation; samples for other kinds on the same
// app are separate streams.
type Tracker struct {
	ops   map[uuid.UUID]*entry
	index map[appKind]uuid.UUID
	mu    syncutil.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		ops:   make(map[uuid.UUID]*entry),
		index: make(map[appKind]uuid.UUID),
	}
}

// Apply folds sample into the state of opID. Samples not newer than the
// stored one are ignored and reported with false.
func (t *Tracker) Apply(opID uuid.UUID, appName string, kind Kind, sample Sample) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := appKind{appName: appName, kind: kind}

	e, ok := t.ops[opID]
	if !ok {
		if old, exists := t.index[key]; exists && old != opID {
			delete(t.ops, old)
		}
		e = &entry{key: key, state: Update(sample, nil)}
		t.ops[opID] = e
		t.index[key] = opID
		return e.state, true
	}

	if !sample.Timestamp.After(e.state.Timestamp) {
		return e.state, false
	}

	e.state = Update(sample, &e.state)
	return e.state, true
}

// State returns the raw state of an operation.
func (t *Tracker) State(opID uuid.UUID) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.ops[opID]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Get returns the progress of the latest operation of kind for appName.
func (t *Tracker) Get(appName string, kind Kind) (Progress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.index[appKind{appName: appName, kind: kind}]
	if !ok {
		return Progress{}, false
	}
	return toProgress(id, t.ops[id]), true
}

// All returns the progress of every tracked operation.
func (t *Tracker) All() []Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Progress, 0, len(t.ops))
	for id, e := range t.ops {
		out = append(out, toProgress(id, e))
	}
	return out
}

// Remove forgets an operation.
func (t *Tracker) Remove(opID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.ops[opID]
	if !ok {
		return
	}
	delete(t.ops, opID)
	if t.index[e.key] == opID {
		delete(t.index, e.key)
	}
}

func toProgress(id uuid.UUID, e *entry) Progress {
	p := Progress{
		OperationID:    id.String(),
		AppName:        e.key.appName,
		Kind:           e.key.kind,
		UpdatedAt:      e.state.Timestamp,
		Percent:        e.state.Percent(),
		Bytes:          e.state.CompletedBytes,
		BytesPerSecond: e.state.BytesPerSecond,
		UnitsPerSecond: e.state.UnitsPerSecond,
	}
	if !math.IsInf(e.state.ETASeconds, 0) && !math.IsNaN(e.state.ETASeconds) {
		eta := e.state.ETASeconds
		p.ETASeconds = &eta
	}
	return p
}
