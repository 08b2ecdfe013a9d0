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

package runtimes

import (
	"context"
	"slices"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Catalog holds the result of the latest scan. A refresh swaps the whole
// list.
type Catalog struct {
	scanner   *Scanner
	clock     clockwork.Clock
	onChange  func([]Installation)
	scannedAt time.Time
	installs  []Installation
	mu        syncutil.RWMutex
	scanMu    syncutil.Mutex
}

func NewCatalog(scanner *Scanner, clock clockwork.Clock) *Catalog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Catalog{scanner: scanner, clock: clock}
}

// OnChange registers a callback run after every successful refresh.
func (c *Catalog) OnChange(fn func([]Installation)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Refresh rescans and replaces the catalog.
func (c *Catalog) Refresh(ctx context.Context) ([]Installation, error) {
	c.scanMu.Lock()
	defer c.scanMu.Unlock()

	found, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.installs = found
	c.scannedAt = c.clock.Now()
	onChange := c.onChange
	c.mu.Unlock()

	log.Info().Msgf("runtime catalog refreshed: %d installations", len(found))
	if onChange != nil {
		onChange(slices.Clone(found))
	}
	return slices.Clone(found), nil
}

// SetCustomPaths updates the user supplied paths for the next refresh.
func (c *Catalog) SetCustomPaths(paths []string) {
	c.scanMu.Lock()
	defer c.scanMu.Unlock()
	c.scanner.SetCustomPaths(paths)
}

func (c *Catalog) List() []Installation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.installs)
}

func (c *Catalog) ScannedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scannedAt
}

// Find looks up an installation by binary path.
func (c *Catalog) Find(bin string) (Installation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, inst := range c.installs {
		if inst.BinaryPath == bin {
			return inst, true
		}
	}
	return Installation{}, false
}

// Default picks the runtime for new global settings: the system wine if
// present, otherwise the first wine build, otherwise anything found.
func (c *Catalog) Default() (Installation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.installs) == 0 {
		return Installation{}, false
	}
	for _, inst := range c.installs {
		if inst.Source == SourceSystem {
			return inst, true
		}
	}
	for _, inst := range c.installs {
		if inst.Kind == KindWine {
			return inst, true
		}
	}
	return c.installs[0], true
}
