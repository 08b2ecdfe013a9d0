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
	"path/filepath"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// FlatpakSteamID is the Flatpak app ID for Steam.
const FlatpakSteamID = "com.valvesoftware.Steam"

// SteamDirCandidates lists the usual Steam locations under home, most
// common first.
func SteamDirCandidates(home string) []string {
	return []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".var", "app", FlatpakSteamID, ".steam", "steam"),
		filepath.Join(home, "snap", "steam", "common", ".steam", "steam"),
		filepath.Join(home, "Library", "Application Support", "Steam"),
	}
}

// FindSteamDir returns the first existing Steam installation, or fallback.
func FindSteamDir(fs afero.Fs, home, fallback string) string {
	for _, path := range SteamDirCandidates(home) {
		if ok, _ := afero.DirExists(fs, path); ok {
			log.Debug().Msgf("found Steam installation: %s", path)
			return path
		}
	}
	log.Debug().Msgf("Steam detection failed, using fallback: %s", fallback)
	return fallback
}

// normalizeVDFKeys recursively lowercases all keys. VDF keys are case
// insensitive.
func normalizeVDFKeys(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeVDFKeys(nested)
		}
		result[strings.ToLower(k)] = v
	}
	return result
}

func parseVDF(fs afero.Fs, path string) (map[string]any, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers log with the path
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msgf("error closing %s", path)
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, err //nolint:wrapcheck // callers log with the path
	}
	return normalizeVDFKeys(m), nil
}

// SteamLibraryFolders returns the library roots listed in
// steamapps/libraryfolders.vdf, always including steamDir itself.
func SteamLibraryFolders(fs afero.Fs, steamDir string) []string {
	folders := []string{steamDir}

	path := filepath.Join(steamDir, "steamapps", "libraryfolders.vdf")
	m, err := parseVDF(fs, path)
	if err != nil {
		log.Debug().Err(err).Msgf("no library folders in %s", path)
		return folders
	}

	lfs, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		log.Warn().Msgf("libraryfolders is not a map in %s", path)
		return folders
	}

	for id, v := range lfs {
		lib, ok := v.(map[string]any)
		if !ok {
			continue
		}
		libPath, ok := lib["path"].(string)
		if !ok || libPath == "" {
			log.Debug().Msgf("library %s has no path", id)
			continue
		}
		if filepath.Clean(libPath) != filepath.Clean(steamDir) {
			folders = append(folders, libPath)
		}
	}
	return folders
}

// compatToolName reads the display name from a compatibilitytool.vdf,
// falling back to the directory name.
func compatToolName(fs afero.Fs, toolDir string) string {
	fallback := filepath.Base(toolDir)

	m, err := parseVDF(fs, filepath.Join(toolDir, "compatibilitytool.vdf"))
	if err != nil {
		return fallback
	}
	root, ok := m["compatibilitytools"].(map[string]any)
	if !ok {
		return fallback
	}
	tools, ok := root["compat_tools"].(map[string]any)
	if !ok {
		return fallback
	}
	for _, v := range tools {
		tool, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := tool["display_name"].(string); ok && name != "" {
			return name
		}
	}
	return fallback
}
