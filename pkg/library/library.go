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

// Package library reads the game library cached by the store backends:
// the store_cache JSON files and Legendary's installed.json.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Runner string

const (
	RunnerLegendary Runner = "legendary"
	RunnerGOG       Runner = "gog"
	RunnerSideload  Runner = "sideload"
)

const (
	LegendaryLibraryFile = "legendary_library.json"
	GOGLibraryFile       = "gog_library.json"
	SideloadLibraryFile  = "sideload_apps.json"
	LegendaryInstalled   = "installed.json"
)

var ErrGameNotFound = errors.New("game not found")

// Game is the launch relevant part of a library entry.
type Game struct {
	AppName     string `json:"appName"`
	Title       string `json:"title"`
	Runner      Runner `json:"runner"`
	InstallPath string `json:"installPath,omitempty"`
	Executable  string `json:"executable,omitempty"`
	// Platform is the installed build's platform as the store names it,
	// e.g. "Windows", "linux" or "Mac".
	Platform      string `json:"platform,omitempty"`
	Version       string `json:"version,omitempty"`
	IsInstalled   bool   `json:"isInstalled"`
	CanRunOffline bool   `json:"canRunOffline"`
	CloudSave     bool   `json:"cloudSave"`
	LinuxNative   bool   `json:"linuxNative"`
	MacNative     bool   `json:"macNative"`
}

// IsNative reports whether the installed build runs on goos without a
// compatibility layer.
func (g *Game) IsNative(goos string) bool {
	platform := strings.ToLower(g.Platform)
	switch goos {
	case "windows":
		return true
	case "linux":
		return platform == "linux"
	case "darwin":
		return platform == "mac" || platform == "osx"
	default:
		return false
	}
}

type installInfo struct {
	InstallPath string `json:"install_path"` //nolint:tagliatelle // External JSON format from Heroic
	Executable  string `json:"executable"`
	Platform    string `json:"platform"`
	Version     string `json:"version"`
}

type storeEntry struct {
	AppName       string      `json:"app_name"` //nolint:tagliatelle // External JSON format from Heroic
	Title         string      `json:"title"`
	Runner        Runner      `json:"runner"`
	FolderName    string      `json:"folder_name"` //nolint:tagliatelle // External JSON format from Heroic
	Install       installInfo `json:"install"`
	IsInstalled   bool        `json:"is_installed"`       //nolint:tagliatelle // External JSON format from Heroic
	CanRunOffline bool        `json:"canRunOffline"`      //nolint:tagliatelle // External JSON format from Heroic
	CloudSave     bool        `json:"cloud_save_enabled"` //nolint:tagliatelle // External JSON format from Heroic
	LinuxNative   bool        `json:"is_linux_native"`    //nolint:tagliatelle // External JSON format from Heroic
	MacNative     bool        `json:"is_mac_native"`      //nolint:tagliatelle // External JSON format from Heroic
}

// legendaryInstall is one entry of Legendary's installed.json, keyed by
// app name.
type legendaryInstall struct {
	InstallPath   string `json:"install_path"` //nolint:tagliatelle // External JSON format from Legendary
	Executable    string `json:"executable"`
	Platform      string `json:"platform"`
	Version       string `json:"version"`
	CanRunOffline bool   `json:"can_run_offline"` //nolint:tagliatelle // External JSON format from Legendary
}

type Library struct {
	fs                 afero.Fs
	games              map[string]Game
	storeCacheDir      string
	legendaryConfigDir string
	mu                 syncutil.RWMutex
}

func New(fs afero.Fs, storeCacheDir, legendaryConfigDir string) *Library {
	return &Library{
		fs:                 fs,
		storeCacheDir:      storeCacheDir,
		legendaryConfigDir: legendaryConfigDir,
		games:              make(map[string]Game),
	}
}

// Reload rereads every library file. Missing files are skipped, a
// malformed file is logged and skipped so one broken store doesn't hide
// the others.
func (l *Library) Reload() error {
	games := make(map[string]Game)

	sources := []struct {
		file string
		key  string
		def  Runner
	}{
		{LegendaryLibraryFile, "library", RunnerLegendary},
		{GOGLibraryFile, "games", RunnerGOG},
		{SideloadLibraryFile, "applications", RunnerSideload},
	}
	for _, src := range sources {
		entries, err := l.readStoreFile(filepath.Join(l.storeCacheDir, src.file), src.key)
		if err != nil {
			log.Warn().Err(err).Msgf("failed to read %s", src.file)
			continue
		}
		for i := range entries {
			e := &entries[i]
			if e.AppName == "" {
				log.Debug().Msgf("library entry missing app_name: %s", e.Title)
				continue
			}
			if e.Runner == "" {
				e.Runner = src.def
			}
			games[e.AppName] = fromStoreEntry(e)
		}
	}

	installed, err := l.readLegendaryInstalled()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read legendary installed games")
	}
	for appName, inst := range installed {
		g, ok := games[appName]
		if !ok {
			g = Game{AppName: appName, Title: appName, Runner: RunnerLegendary}
		}
		g.IsInstalled = true
		g.InstallPath = inst.InstallPath
		g.Executable = inst.Executable
		g.Platform = inst.Platform
		g.Version = inst.Version
		g.CanRunOffline = g.CanRunOffline || inst.CanRunOffline
		games[appName] = g
	}

	l.mu.Lock()
	l.games = games
	l.mu.Unlock()

	log.Debug().Msgf("loaded %d library entries", len(games))
	return nil
}

func fromStoreEntry(e *storeEntry) Game {
	g := Game{
		AppName:       e.AppName,
		Title:         e.Title,
		Runner:        e.Runner,
		IsInstalled:   e.IsInstalled,
		CanRunOffline: e.CanRunOffline,
		CloudSave:     e.CloudSave,
		LinuxNative:   e.LinuxNative,
		MacNative:     e.MacNative,
		InstallPath:   e.Install.InstallPath,
		Executable:    e.Install.Executable,
		Platform:      e.Install.Platform,
		Version:       e.Install.Version,
	}
	if g.InstallPath == "" && e.FolderName != "" {
		g.InstallPath = e.FolderName
	}
	// sideloaded apps are installed by definition and need no store
	if g.Runner == RunnerSideload {
		g.IsInstalled = g.Executable != ""
		g.CanRunOffline = true
	}
	return g
}

func (l *Library) readStoreFile(path, key string) ([]storeEntry, error) {
	data, err := afero.ReadFile(l.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Msgf("library file not found: %s", path)
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read library file: %w", err)
	}

	var doc map[string][]storeEntry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse library JSON: %w", err)
	}

	entries, ok := doc[key]
	if !ok {
		log.Debug().Msgf("library file missing expected key %q: %s", key, path)
	}
	return entries, nil
}

func (l *Library) readLegendaryInstalled() (map[string]legendaryInstall, error) {
	if l.legendaryConfigDir == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(l.fs, filepath.Join(l.legendaryConfigDir, LegendaryInstalled))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read installed.json: %w", err)
	}

	var installed map[string]legendaryInstall
	if err := json.Unmarshal(data, &installed); err != nil {
		return nil, fmt.Errorf("failed to parse installed.json: %w", err)
	}
	return installed, nil
}

// Game looks up a library entry by app name.
func (l *Library) Game(appName string) (Game, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	g, ok := l.games[appName]
	if !ok {
		return Game{}, fmt.Errorf("%w: %s", ErrGameNotFound, appName)
	}
	return g, nil
}

// Games returns every entry sorted by title.
func (l *Library) Games() []Game {
	l.mu.RLock()
	out := make([]Game, 0, len(l.games))
	for _, g := range l.games {
		out = append(out, g)
	}
	l.mu.RUnlock()

	slices.SortFunc(out, func(a, b Game) int {
		if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
			return c
		}
		return strings.Compare(a.AppName, b.AppName)
	})
	return out
}

// HostPlatform is the platform name the stores use for this machine.
func HostPlatform() string {
	switch runtime.GOOS {
	case "linux":
		return "linux"
	case "darwin":
		return "Mac"
	default:
		return "Windows"
	}
}
