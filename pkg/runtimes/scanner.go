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
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const (
	SourceToolCache = "tools"
	SourceLutris    = "lutris"
	SourceSteam     = "steam"
	SourceSystem    = "system"
	SourceCrossover = "crossover"
	SourceCustom    = "custom"

	lutrisFlatpakID = "net.lutris.Lutris"
)

// CrossoverPaths are the wine binaries shipped by CrossOver on macOS and
// Linux.
var CrossoverPaths = []string{
	"/Applications/CrossOver.app/Contents/SharedSupport/CrossOver/bin/wine",
	"/opt/cxoffice/bin/wine",
}

type ScannerOptions struct {
	Home     string
	ToolsDir string
	// SteamDirs are Steam installations to search for compatibility tools.
	// Empty means the usual locations under Home.
	SteamDirs   []string
	CustomPaths []string
	// GOOS overrides runtime.GOOS.
	GOOS string
}

// Scanner finds installations in the tool cache, Lutris, Steam, the system
// PATH, CrossOver and user supplied paths.
type Scanner struct {
	fs   afero.Fs
	exec command.Executor
	opts ScannerOptions
}

func NewScanner(fs afero.Fs, exec command.Executor, opts ScannerOptions) *Scanner {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	return &Scanner{fs: fs, exec: exec, opts: opts}
}

// SetCustomPaths replaces the user supplied paths used by the next scan.
func (s *Scanner) SetCustomPaths(paths []string) {
	s.opts.CustomPaths = slices.Clone(paths)
}

type source func(ctx context.Context) []Installation

// Scan runs every source concurrently and returns the installations found,
// deduplicated by binary path. Output order is stable.
func (s *Scanner) Scan(ctx context.Context) ([]Installation, error) {
	sources := []source{
		s.scanToolCache,
		s.scanLutris,
		s.scanSteam,
		s.scanSystem,
		s.scanCrossover,
		s.scanCustom,
	}

	found := make([][]Installation, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			found[i] = src(gctx)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("runtime scan cancelled: %w", err)
	}

	seen := make(map[string]bool)
	var out []Installation
	for _, list := range found {
		for _, inst := range list {
			key := filepath.Clean(inst.BinaryPath)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, inst)
		}
	}

	log.Debug().Msgf("found %d compatibility layer installations", len(out))
	return out, nil
}

// WatchDirs are the directories whose contents change when a runtime is
// added or removed.
func (s *Scanner) WatchDirs() []string {
	dirs := []string{
		filepath.Join(s.opts.ToolsDir, "wine"),
		filepath.Join(s.opts.ToolsDir, "proton"),
	}
	dirs = append(dirs, s.lutrisDirs()...)
	for _, steamDir := range s.steamDirs() {
		dirs = append(dirs, filepath.Join(steamDir, "compatibilitytools.d"))
	}
	return dirs
}

func (s *Scanner) exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

func (s *Scanner) subdirs(dir string) []string {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

func (s *Scanner) wineBuild(dir, name, source string) (Installation, bool) {
	bin := filepath.Join(dir, "bin", "wine")
	if !s.exists(bin) {
		bin = filepath.Join(dir, "bin", "wine64")
		if !s.exists(bin) {
			return Installation{}, false
		}
	}
	inst := Installation{
		Kind:        KindWine,
		BinaryPath:  bin,
		DisplayName: name,
		Source:      source,
	}
	if server := filepath.Join(dir, "bin", "wineserver"); s.exists(server) {
		inst.WineserverPath = server
	}
	return inst, true
}

func (s *Scanner) protonBuild(dir, name, source string) (Installation, bool) {
	bin := filepath.Join(dir, "proton")
	if !s.exists(bin) {
		return Installation{}, false
	}
	inst := Installation{
		Kind:        KindProton,
		BinaryPath:  bin,
		DisplayName: name,
		Source:      source,
	}
	for _, dist := range []string{"files", "dist"} {
		if server := filepath.Join(dir, dist, "bin", "wineserver"); s.exists(server) {
			inst.WineserverPath = server
			break
		}
	}
	return inst, true
}

func (s *Scanner) scanToolCache(_ context.Context) []Installation {
	if s.opts.ToolsDir == "" {
		return nil
	}
	var out []Installation
	for _, dir := range s.subdirs(filepath.Join(s.opts.ToolsDir, "wine")) {
		if inst, ok := s.wineBuild(dir, "Wine - "+filepath.Base(dir), SourceToolCache); ok {
			out = append(out, inst)
		}
	}
	for _, dir := range s.subdirs(filepath.Join(s.opts.ToolsDir, "proton")) {
		if inst, ok := s.protonBuild(dir, "Proton - "+filepath.Base(dir), SourceToolCache); ok {
			out = append(out, inst)
		}
	}
	return out
}

func (s *Scanner) lutrisDirs() []string {
	if s.opts.Home == "" {
		return nil
	}
	return []string{
		filepath.Join(s.opts.Home, ".local", "share", "lutris", "runners", "wine"),
		filepath.Join(s.opts.Home, ".var", "app", lutrisFlatpakID, "data", "lutris", "runners", "wine"),
	}
}

func (s *Scanner) scanLutris(_ context.Context) []Installation {
	var out []Installation
	for _, root := range s.lutrisDirs() {
		for _, dir := range s.subdirs(root) {
			if inst, ok := s.wineBuild(dir, "Wine - "+filepath.Base(dir), SourceLutris); ok {
				out = append(out, inst)
			}
		}
	}
	return out
}

func (s *Scanner) steamDirs() []string {
	if len(s.opts.SteamDirs) > 0 {
		return s.opts.SteamDirs
	}
	if s.opts.Home == "" {
		return nil
	}
	var dirs []string
	for _, dir := range SteamDirCandidates(s.opts.Home) {
		if s.exists(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (s *Scanner) scanSteam(_ context.Context) []Installation {
	if s.opts.GOOS != "linux" {
		return nil
	}

	var out []Installation
	for _, steamDir := range s.steamDirs() {
		for _, dir := range s.subdirs(filepath.Join(steamDir, "compatibilitytools.d")) {
			name := "Proton - " + compatToolName(s.fs, dir)
			if inst, ok := s.protonBuild(dir, name, SourceSteam); ok {
				out = append(out, inst)
			}
		}

		for _, lib := range SteamLibraryFolders(s.fs, steamDir) {
			for _, dir := range s.subdirs(filepath.Join(lib, "steamapps", "common")) {
				base := filepath.Base(dir)
				if !strings.HasPrefix(base, "Proton") {
					continue
				}
				if inst, ok := s.protonBuild(dir, "Proton - "+base, SourceSteam); ok {
					out = append(out, inst)
				}
			}
		}
	}
	return out
}

func (s *Scanner) scanSystem(ctx context.Context) []Installation {
	if s.opts.GOOS == "windows" || s.exec == nil {
		return nil
	}

	bin, err := s.exec.LookPath("wine")
	if err != nil {
		return nil
	}

	name := "Wine Default"
	out, err := s.exec.Output(ctx, bin, "--version")
	if err != nil {
		log.Debug().Err(err).Msgf("failed to get version of %s", bin)
	} else if version := strings.TrimSpace(string(out)); version != "" {
		name = "Wine - " + version
	}

	inst := Installation{
		Kind:        KindWine,
		BinaryPath:  bin,
		DisplayName: name,
		Source:      SourceSystem,
	}
	if server, err := s.exec.LookPath("wineserver"); err == nil {
		inst.WineserverPath = server
	}
	return []Installation{inst}
}

func (s *Scanner) scanCrossover(_ context.Context) []Installation {
	if s.opts.GOOS == "windows" {
		return nil
	}
	var out []Installation
	for _, bin := range CrossoverPaths {
		if s.exists(bin) {
			out = append(out, Installation{
				Kind:        KindCrossover,
				BinaryPath:  bin,
				DisplayName: "CrossOver",
				Source:      SourceCrossover,
			})
		}
	}
	return out
}

func (s *Scanner) scanCustom(_ context.Context) []Installation {
	var out []Installation
	for _, path := range s.opts.CustomPaths {
		if !s.exists(path) {
			log.Warn().Msgf("custom wine path not found: %s", path)
			continue
		}
		kind := KindWine
		if filepath.Base(path) == "proton" {
			kind = KindProton
		}
		out = append(out, Installation{
			Kind:        kind,
			BinaryPath:  path,
			DisplayName: "Custom - " + path,
			Source:      SourceCustom,
		})
	}
	return out
}
