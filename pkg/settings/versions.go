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
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Version is the schema tag stored in the "version" field of a document.
type Version string

const (
	V0  Version = "v0"
	V01 Version = "v0.1"

	// CurrentVersion is the version every document is upgraded to.
	CurrentVersion = V01
)

var (
	// ErrConfigCorrupt is returned when a document on disk can't be parsed.
	// Reading it again will fail the same way until the caller resets it.
	ErrConfigCorrupt = errors.New("config document is corrupt")
	// ErrUpgradeUnavailable is logged when no loader can upgrade a document.
	// The document stays usable at its old version.
	ErrUpgradeUnavailable = errors.New("config upgrade unavailable")
)

const (
	keyVersion         = "version"
	keyExplicit        = "explicit"
	keyDefaultSettings = "defaultSettings"
)

// rawDocument is a document file split into its top-level keys.
type rawDocument map[string]json.RawMessage

// loader is the set of functions handling one schema version. upgrade is
// nil for the current version.
type loader struct {
	parse   func(raw rawDocument, scope string) (*Document, error)
	upgrade func(doc *Document) (*Document, error)
	next    Version
}

var loaders = map[Version]loader{
	V0: {
		parse:   parseV0,
		upgrade: upgradeV0,
		next:    V01,
	},
	V01: {
		parse: parseCurrent,
	},
}

// sectionKey is the top-level key holding the values of a scope.
func sectionKey(scope string) string {
	if scope == GlobalScope {
		return keyDefaultSettings
	}
	return scope
}

// readVersion returns the version stored in the file, treating a missing
// tag as the oldest schema.
func readVersion(raw rawDocument) (Version, error) {
	data, ok := raw[keyVersion]
	if !ok {
		return V0, nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("invalid version field: %w", err)
	}
	if v == "" {
		return V0, nil
	}
	return Version(v), nil
}

func parseSection(raw rawDocument, scope string, version Version) (*Document, error) {
	doc := &Document{
		Scope:   scope,
		Version: version,
		Values:  map[string]any{},
	}

	if data, ok := raw[sectionKey(scope)]; ok {
		if err := json.Unmarshal(data, &doc.Values); err != nil {
			return nil, fmt.Errorf("invalid %s section: %w", sectionKey(scope), err)
		}
		if doc.Values == nil {
			doc.Values = map[string]any{}
		}
	}

	if scope != GlobalScope {
		if data, ok := raw[keyExplicit]; ok {
			if err := json.Unmarshal(data, &doc.Explicit); err != nil {
				return nil, fmt.Errorf("invalid explicit field: %w", err)
			}
		}
	}

	return doc, nil
}

func parseV0(raw rawDocument, scope string) (*Document, error) {
	return parseSection(raw, scope, V0)
}

func parseCurrent(raw rawDocument, scope string) (*Document, error) {
	return parseSection(raw, scope, V01)
}

// parseUnknown reads a document whose version has no loader, keeping the
// version it declares.
func parseUnknown(raw rawDocument, scope string, version Version) (*Document, error) {
	return parseSection(raw, scope, version)
}

// upgradeV0 renames the v0 keys to their v0.1 names. Keys are never
// back-filled, so explicit documents stay self-contained.
func upgradeV0(doc *Document) (*Document, error) {
	values := maps.Clone(doc.Values)

	if v, ok := values["maxSharpness"]; ok {
		if _, exists := values["fsrSharpness"]; !exists {
			values["fsrSharpness"] = v
		}
		delete(values, "maxSharpness")
	}

	if v, ok := values["useDXVK"]; ok {
		if _, exists := values["autoInstallDxvk"]; !exists {
			values["autoInstallDxvk"] = v
		}
		delete(values, "useDXVK")
	}

	if v, ok := values["otherOptions"]; ok {
		switch opts := v.(type) {
		case string:
		case []any:
			parts := make([]string, 0, len(opts))
			for _, o := range opts {
				s, isStr := o.(string)
				if !isStr {
					return nil, fmt.Errorf("otherOptions entry is %T, not a string", o)
				}
				parts = append(parts, s)
			}
			values["otherOptions"] = strings.Join(parts, " ")
		default:
			return nil, fmt.Errorf("otherOptions is %T, not a string", v)
		}
	}

	return &Document{
		Scope:    doc.Scope,
		Version:  V01,
		Explicit: doc.Explicit,
		Values:   values,
	}, nil
}
