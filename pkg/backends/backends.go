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

// Package backends turns operations on a game into command lines for the
// store CLIs (Legendary, GOGDL) or, for sideloaded apps, the game itself.
package backends

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/launch"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
)

// ErrUnsupported is returned for verbs a backend doesn't implement.
var ErrUnsupported = errors.New("operation not supported by backend")

// Invocation is a ready to run command. Wrappers are chained in front of
// Executable by the process runner.
type Invocation struct {
	Env        map[string]string
	Executable string
	Dir        string
	Args       []string
	Wrappers   []string
}

// LaunchRequest carries everything needed to start a game.
type LaunchRequest struct {
	Env          launch.Environment
	Runtime      runtimes.Installation
	Game         library.Game
	Language     string
	TargetExe    string
	LauncherArgs string
	ExtraArgs    []string
	Native       bool
	Offline      bool
}

// Options apply to install, update, repair and import.
type Options struct {
	Path       string
	Platform   string
	Language   string
	MaxWorkers int
	WithDLCs   bool
}

type Backend interface {
	Name() library.Runner
	Launch(req *LaunchRequest) (Invocation, error)
	Install(game *library.Game, opts Options) (Invocation, error)
	Update(game *library.Game, opts Options) (Invocation, error)
	Repair(game *library.Game, opts Options) (Invocation, error)
	Import(game *library.Game, opts Options) (Invocation, error)
	Info(game *library.Game) (Invocation, error)
}

// Set picks the backend for a game's runner.
type Set struct {
	byRunner map[library.Runner]Backend
}

func NewSet(backends ...Backend) *Set {
	s := &Set{byRunner: make(map[library.Runner]Backend, len(backends))}
	for _, b := range backends {
		s.byRunner[b.Name()] = b
	}
	return s
}

func (s *Set) For(runner library.Runner) (Backend, error) {
	b, ok := s.byRunner[runner]
	if !ok {
		return nil, fmt.Errorf("%w: no backend for runner %q", ErrUnsupported, runner)
	}
	return b, nil
}

// shellQuote quotes s for the backends' shlex based --wrapper parsing.
func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"\\$") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// runtimeFlags selects the compatibility layer for the store CLIs. Proton
// can't be passed as a wine binary, so it goes at the end of the wrapper
// chain and wine is disabled.
func runtimeFlags(req *LaunchRequest) []string {
	wrappers := make([]string, 0, len(req.Env.Wrappers)+1)
	wrappers = append(wrappers, req.Env.Wrappers...)

	var flags []string
	switch {
	case req.Native:
		flags = append(flags, "--no-wine")
	case req.Runtime.Kind == runtimes.KindProton:
		wrappers = append(wrappers, shellQuote(req.Runtime.BinaryPath)+" waitforexitandrun")
		flags = append(flags, "--no-wine")
	default:
		flags = append(flags, "--wine", req.Runtime.BinaryPath)
	}

	if len(wrappers) > 0 {
		flags = append(flags, "--wrapper", strings.Join(wrappers, " "))
	}
	return flags
}

func workerArgs(n int) []string {
	if n <= 0 {
		return nil
	}
	return []string{"--max-workers", strconv.Itoa(n)}
}

// splitArgs splits the launcherArgs setting on whitespace, keeping quoted
// sections together.
func splitArgs(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n':
			if inArg {
				out = append(out, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		out = append(out, cur.String())
	}
	return out
}
