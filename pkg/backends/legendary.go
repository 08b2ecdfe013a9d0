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
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
)

// Legendary drives the Legendary CLI for Epic games.
type Legendary struct {
	bin string
}

func NewLegendary(bin string) *Legendary {
	return &Legendary{bin: bin}
}

func (*Legendary) Name() library.Runner {
	return library.RunnerLegendary
}

func (l *Legendary) invocation(args ...string) Invocation {
	return Invocation{Executable: l.bin, Args: args}
}

func (l *Legendary) Launch(req *LaunchRequest) (Invocation, error) {
	args := []string{"launch", req.Game.AppName}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if req.TargetExe != "" {
		args = append(args, "--override-exe", req.TargetExe)
	}
	if req.Offline {
		args = append(args, "--offline")
	}
	args = append(args, runtimeFlags(req)...)
	args = append(args, splitArgs(req.LauncherArgs)...)
	args = append(args, req.ExtraArgs...)

	inv := l.invocation(args...)
	inv.Env = req.Env.Env
	return inv, nil
}

func (l *Legendary) Install(game *library.Game, opts Options) (Invocation, error) {
	args := []string{"install", game.AppName}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	if opts.Path != "" {
		args = append(args, "--base-path", opts.Path)
	}
	if opts.WithDLCs {
		args = append(args, "--with-dlcs")
	} else {
		args = append(args, "--skip-dlcs")
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	args = append(args, workerArgs(opts.MaxWorkers)...)
	args = append(args, "-y")
	return l.invocation(args...), nil
}

func (l *Legendary) Update(game *library.Game, opts Options) (Invocation, error) {
	args := []string{"update", game.AppName}
	args = append(args, workerArgs(opts.MaxWorkers)...)
	args = append(args, "-y")
	return l.invocation(args...), nil
}

func (l *Legendary) Repair(game *library.Game, opts Options) (Invocation, error) {
	args := []string{"repair", game.AppName}
	args = append(args, workerArgs(opts.MaxWorkers)...)
	args = append(args, "-y")
	return l.invocation(args...), nil
}

func (l *Legendary) Import(game *library.Game, opts Options) (Invocation, error) {
	args := []string{"import", game.AppName, opts.Path}
	if opts.WithDLCs {
		args = append(args, "--with-dlcs")
	} else {
		args = append(args, "--skip-dlcs")
	}
	if opts.Platform != "" {
		args = append(args, "--platform", opts.Platform)
	}
	return l.invocation(args...), nil
}

func (l *Legendary) Info(game *library.Game) (Invocation, error) {
	return l.invocation("info", game.AppName, "--json"), nil
}
