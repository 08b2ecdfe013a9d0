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

// Package launch builds the environment and wrapper chain a game runs
// with, and makes sure its Wine prefix is usable.
package launch

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	WrapperMangohud = "mangohud --dlsym"
	WrapperGameMode = "gamemoderun"
)

var (
	ErrNoRuntime      = errors.New("no compatibility layer selected")
	ErrUnknownRuntime = errors.New("unknown compatibility layer type")
)

// Environment is what a game needs on top of the current process
// environment. It's rebuilt for every launch.
type Environment struct {
	Env      map[string]string
	Wrappers []string
}

type PreparerOptions struct {
	Home string
	// SteamDir is the Steam installation used by Proton and the Steam
	// Runtime. Empty means detect it under Home.
	SteamDir string
	// GOOS overrides runtime.GOOS.
	GOOS string
}

type Preparer struct {
	fs     afero.Fs
	runner *process.Runner
	opts   PreparerOptions
}

func NewPreparer(fs afero.Fs, runner *process.Runner, opts PreparerOptions) *Preparer {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Home == "" {
		opts.Home = helpers.HomeDir()
	}
	return &Preparer{fs: fs, runner: runner, opts: opts}
}

// Home is the directory "~" expands to.
func (p *Preparer) Home() string {
	return p.opts.Home
}

func (p *Preparer) steamDir() string {
	if p.opts.SteamDir != "" {
		return p.opts.SteamDir
	}
	return runtimes.FindSteamDir(p.fs, p.opts.Home, filepath.Join(p.opts.Home, ".steam", "steam"))
}

// PrefixPath is the configured Wine prefix with "~" expanded.
func (p *Preparer) PrefixPath(s *settings.Settings) string {
	return helpers.ExpandHome(s.WinePrefix, p.opts.Home)
}

// PrepareEnvironment builds the environment for a Windows game run through
// the given compatibility layer.
//
//nolint:gocritic // settings are passed by value like every other reader
func (p *Preparer) PrepareEnvironment(s settings.Settings, inst runtimes.Installation) (Environment, error) {
	if inst.BinaryPath == "" {
		return Environment{}, ErrNoRuntime
	}

	env := make(map[string]string)
	prefix := p.PrefixPath(&s)

	switch inst.Kind {
	case runtimes.KindWine:
		env["WINEPREFIX"] = prefix
	case runtimes.KindProton:
		env["STEAM_COMPAT_CLIENT_INSTALL_PATH"] = p.steamDir()
		env["STEAM_COMPAT_DATA_PATH"] = prefix
	case runtimes.KindCrossover:
		env["CX_BOTTLE"] = s.WineCrossoverBottle
	default:
		return Environment{}, fmt.Errorf("%w: %q", ErrUnknownRuntime, inst.Kind)
	}

	if s.ShowFps {
		env["DXVK_HUD"] = "fps"
	}
	if s.EnableFSR {
		env["WINE_FULLSCREEN_FSR"] = "1"
		env["WINE_FULLSCREEN_FSR_STRENGTH"] = strconv.Itoa(s.FsrSharpness)
	}

	if s.EnableEsync {
		env["WINEESYNC"] = "1"
	} else if inst.Kind == runtimes.KindProton {
		env["PROTON_NO_ESYNC"] = "1"
	}
	if s.EnableFsync {
		env["WINEFSYNC"] = "1"
	} else if inst.Kind == runtimes.KindProton {
		env["PROTON_NO_FSYNC"] = "1"
	}

	if s.EnableResizableBar {
		env["VKD3D_CONFIG"] = "upload_hvv"
	}
	p.sharedEnv(&s, env)

	return Environment{
		Env:      env,
		Wrappers: p.wrappers(&s, inst.Kind),
	}, nil
}

// PrepareNative builds the environment for a game that runs natively. Only
// toggles that don't depend on a compatibility layer apply.
//
//nolint:gocritic // settings are passed by value like every other reader
func (p *Preparer) PrepareNative(s settings.Settings) Environment {
	env := make(map[string]string)
	p.sharedEnv(&s, env)
	return Environment{
		Env:      env,
		Wrappers: p.wrappers(&s, ""),
	}
}

func (p *Preparer) sharedEnv(s *settings.Settings, env map[string]string) {
	if s.NvidiaPrime {
		env["DRI_PRIME"] = "1"
		env["__NV_PRIME_RENDER_OFFLOAD"] = "1"
		env["__GLX_VENDOR_LIBRARY_NAME"] = "nvidia"
	}
	if s.AudioFix {
		env["PULSE_LATENCY_MSEC"] = "60"
	}
	maps.Copy(env, ParseOptions(s.OtherOptions))
}

// wrappers returns the wrapper chain in the order it must run: MangoHud
// has to hook the process before the Steam Runtime container starts it.
func (p *Preparer) wrappers(s *settings.Settings, kind runtimes.Kind) []string {
	if p.opts.GOOS != "linux" {
		return nil
	}

	var out []string
	if s.ShowMangohud {
		out = append(out, WrapperMangohud)
	}
	if s.UseGameMode {
		out = append(out, WrapperGameMode)
	}
	if s.UseSteamRuntime {
		if shim := p.steamRuntime(kind); shim != "" {
			out = append(out, shim)
		}
	}
	return out
}

func (p *Preparer) steamRuntime(kind runtimes.Kind) string {
	steamDir := p.steamDir()

	if kind == runtimes.KindProton {
		entry := filepath.Join(steamDir, "steamapps", "common", "SteamLinuxRuntime_soldier", "_v2-entry-point")
		if ok, _ := afero.Exists(p.fs, entry); ok {
			return entry + " --verb=waitforexitandrun --"
		}
		log.Warn().Msgf("Steam Linux Runtime not found at %s, ignoring", entry)
		return ""
	}

	script := filepath.Join(steamDir, "ubuntu12_32", "steam-runtime", "run.sh")
	if ok, _ := afero.Exists(p.fs, script); ok {
		return script
	}
	log.Warn().Msgf("Steam Runtime not found at %s, ignoring", script)
	return ""
}
