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
	"encoding/json"
	"fmt"
	"maps"
)

// GlobalScope is the scope of the global defaults document.
const GlobalScope = "default"

// Document is one settings file held in memory. A Document is a snapshot:
// the store never modifies one after handing it out, flushing swaps in a new
// Document instead. Callers must not modify Values.
type Document struct {
	Values  map[string]any
	Version Version
	Scope   string
	// Explicit marks legacy per-game documents whose values are used as-is,
	// without falling back to the global defaults.
	Explicit bool
	// Degraded is set when the document is older than CurrentVersion and
	// couldn't be upgraded.
	Degraded bool
}

// IsGlobal reports whether the document holds the global defaults.
func (d *Document) IsGlobal() bool {
	return d.Scope == GlobalScope
}

// Get returns a single value.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// Settings decodes the values of this document alone.
func (d *Document) Settings() (Settings, error) {
	return Decode(d.Values)
}

func (d *Document) clone() *Document {
	c := *d
	c.Values = maps.Clone(d.Values)
	return &c
}

// marshal serializes the full document. encoding/json sorts map keys, so
// the same values always produce the same bytes.
func (d *Document) marshal() ([]byte, error) {
	body := map[string]any{keyVersion: d.Version}
	body[sectionKey(d.Scope)] = d.Values
	if !d.IsGlobal() {
		body[keyExplicit] = d.Explicit
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s settings: %w", d.Scope, err)
	}
	return append(data, '\n'), nil
}
