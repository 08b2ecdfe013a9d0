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

// Package runtimes discovers the Wine, Proton and CrossOver builds
// installed on the system.
package runtimes

import (
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
)

type Kind string

const (
	KindWine      Kind = "wine"
	KindProton    Kind = "proton"
	KindCrossover Kind = "crossover"
)

// Installation is one discovered compatibility layer build. Installations
// are never modified; a rescan replaces them.
type Installation struct {
	Kind           Kind   `json:"type"`
	BinaryPath     string `json:"bin"`
	DisplayName    string `json:"name"`
	WineserverPath string `json:"wineserver,omitempty"`
	// Source names the location it was found in, e.g. "lutris".
	Source string `json:"source,omitempty"`
}

// FromWineVersion converts the runtime selected in settings.
func FromWineVersion(v settings.WineVersion) Installation {
	kind := Kind(v.Type)
	if kind == "" {
		kind = KindWine
	}
	return Installation{
		Kind:           kind,
		BinaryPath:     v.Bin,
		DisplayName:    v.Name,
		WineserverPath: v.Wineserver,
	}
}

// WineVersion converts the installation into its settings form.
func (i Installation) WineVersion() settings.WineVersion {
	return settings.WineVersion{
		Bin:        i.BinaryPath,
		Name:       i.DisplayName,
		Type:       string(i.Kind),
		Wineserver: i.WineserverPath,
	}
}
