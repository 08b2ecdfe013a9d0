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

package backends

import (
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
)

// GOGDL drives the gogdl CLI for GOG games. Every call carries the path
// of the auth config the CLI refreshes tokens in.
type GOGDL struct {
	bin        string
	authConfig string
}

func NewGOGDL(bin, authConfig string) *GOGDL {
	return &GOGDL{bin: bin, authConfig: authConfig}
}

func (*GOGDL) Name() library.Runner {
	return library.RunnerGOG
}

func (g *GOGDL) invocation(args ...string) Invocation {
	return Invocation{
		Executable: g.bin,
		Args:       append([]string{"--auth-config-path", g.authConfig}, args...),
	}
}

// platform maps store platform names to the ones gogdl accepts.
func platform(p string) string {
	switch strings.ToLower(p) {
	case "linux":
		return "linux"
	case "mac", "osx":
		return "osx"
	default:
		return "windows"
	}
}

func (g *GOGDL) Launch(req *LaunchRequest) (Invocation, error) {
	args := []string{"launch", req.Game.InstallPath, req.Game.AppName, "--platform", platform(req.Game.Platform)}
	if req.TargetExe != "" {
		args = append(args, "--override-exe", req.TargetExe)
	}
	if req.Offline {
		args = append(args, "--offline")
	}
	args = append(args, runtimeFlags(req)...)
	args = append(args, splitArgs(req.LauncherArgs)...)
	args = append(args, req.ExtraArgs...)

	inv := g.invocation(args...)
	inv.Env = req.Env.Env
	return inv, nil
}

func (g *GOGDL) download(verb string, game *library.Game, opts Options) Invocation {
	p := opts.Platform
	if p == "" {
		p = game.Platform
	}
	path := opts.Path
	if path == "" {
		path = game.InstallPath
	}

	args := []string{verb, game.AppName, "--platform", platform(p), "--path", path}
	if opts.WithDLCs {
		args = append(args, "--with-dlcs")
	} else {
		args = append(args, "--skip-dlcs")
	}
	if opts.Language != "" {
		args = append(args, "--lang", opts.Language)
	}
	args = append(args, workerArgs(opts.MaxWorkers)...)
	return g.invocation(args...)
}

func (g *GOGDL) Install(game *library.Game, opts Options) (Invocation, error) {
	return g.download("download", game, opts), nil
}

func (g *GOGDL) Update(game *library.Game, opts Options) (Invocation, error) {
	return g.download("update", game, opts), nil
}

func (g *GOGDL) Repair(game *library.Game, opts Options) (Invocation, error) {
	return g.download("repair", game, opts), nil
}

func (g *GOGDL) Import(_ *library.Game, opts Options) (Invocation, error) {
	return g.invocation("import", opts.Path), nil
}

func (g *GOGDL) Info(game *library.Game) (Invocation, error) {
	return g.invocation("info", game.AppName, "--platform", platform(game.Platform)), nil
}
