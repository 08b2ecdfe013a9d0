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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
)

var ErrNoExecutable = errors.New("no executable configured")

// Sideload runs a sideloaded executable directly, through the selected
// compatibility layer unless it's native.
type Sideload struct{}

func NewSideload() *Sideload {
	return &Sideload{}
}

func (*Sideload) Name() library.Runner {
	return library.RunnerSideload
}

func (*Sideload) Launch(req *LaunchRequest) (Invocation, error) {
	exe := req.Game.Executable
	if req.TargetExe != "" {
		exe = req.TargetExe
	}
	if exe == "" {
		return Invocation{}, fmt.Errorf("%w: %s", ErrNoExecutable, req.Game.AppName)
	}

	inv := Invocation{
		Env:      req.Env.Env,
		Wrappers: req.Env.Wrappers,
		Dir:      filepath.Dir(exe),
	}

	var args []string
	switch {
	case req.Native:
		inv.Executable = exe
	case req.Runtime.Kind == runtimes.KindProton:
		inv.Executable = req.Runtime.BinaryPath
		args = append(args, "waitforexitandrun", exe)
	default:
		inv.Executable = req.Runtime.BinaryPath
		args = append(args, exe)
	}
	args = append(args, splitArgs(req.LauncherArgs)...)
	inv.Args = append(args, req.ExtraArgs...)
	return inv, nil
}

func (*Sideload) Install(*library.Game, Options) (Invocation, error) {
	return Invocation{}, ErrUnsupported
}

func (*Sideload) Update(*library.Game, Options) (Invocation, error) {
	return Invocation{}, ErrUnsupported
}

func (*Sideload) Repair(*library.Game, Options) (Invocation, error) {
	return Invocation{}, ErrUnsupported
}

func (*Sideload) Import(*library.Game, Options) (Invocation, error) {
	return Invocation{}, ErrUnsupported
}

func (*Sideload) Info(*library.Game) (Invocation, error) {
	return Invocation{}, ErrUnsupported
}
