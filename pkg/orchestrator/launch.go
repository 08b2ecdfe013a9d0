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

package orchestrator

import (
	"context"
	"errors"

	"github.com/ZaparooProject/zaparoo-launch/pkg/backends"
	"github.com/ZaparooProject/zaparoo-launch/pkg/launch"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/messages"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/spf13/afero"
)

// Launch starts a game and waits until it exits.
func (o *Orchestrator) Launch(ctx context.Context, appName string, extraArgs []string) Outcome {
	op := o.begin(appName, KindLaunch)

	game, s, failed := o.preconditions(op, true)
	if failed != nil {
		return *failed
	}

	offline := s.OfflineMode
	if !offline && game.Runner != library.RunnerSideload && !o.online(ctx, game.Runner) {
		if !game.CanRunOffline {
			op.log.Warn().Msg("offline and the game can't run offline")
			return o.fail(op, ReasonOfflineUnsupported, messages.OfflineUnsupported, op.title)
		}
		op.log.Info().Msg("offline, launching in offline mode")
		offline = true
	}

	o.transition(op, PhaseEnvironmentPrep)

	req := backends.LaunchRequest{
		Game:         game,
		Native:       game.IsNative(o.deps.GOOS),
		Offline:      offline,
		Language:     s.Language,
		TargetExe:    s.TargetExe,
		LauncherArgs: s.LauncherArgs,
		ExtraArgs:    extraArgs,
	}
	if failed := o.prepare(ctx, op, &s, &req); failed != nil {
		return *failed
	}

	backend, err := o.deps.Backends.For(game.Runner)
	if err != nil {
		return o.fail(op, ReasonUnsupported, messages.Generic, op.title)
	}
	inv, err := backend.Launch(&req)
	if err != nil {
		op.log.Error().Err(err).Msg("failed to build launch command")
		return o.fail(op, ReasonUnsupported, messages.Generic, op.title)
	}

	if s.DiscordRPC {
		o.deps.Presence.Start(&game)
	}
	defer o.deps.Presence.Stop(appName)

	res, failed := o.execute(ctx, op, &inv, nil)
	if failed != nil {
		return *failed
	}
	return o.complete(ctx, op, res)
}

// prepare fills in the environment of req. Native games skip the
// compatibility layer entirely.
func (o *Orchestrator) prepare(
	ctx context.Context,
	op *operation,
	s *settings.Settings,
	req *backends.LaunchRequest,
) *Outcome {
	if req.Native {
		req.Env = o.deps.Preparer.PrepareNative(*s)
		op.setRuntime(runtimes.Installation{}, req.Env.Env, true)
		return nil
	}

	inst := runtimes.FromWineVersion(s.WineVersion)
	if inst.BinaryPath == "" {
		out := o.fail(op, ReasonRuntimeMissing, messages.RuntimeMissing, op.title)
		return &out
	}
	if o.deps.Catalog != nil {
		if found, ok := o.deps.Catalog.Find(inst.BinaryPath); ok {
			if inst.WineserverPath == "" {
				inst.WineserverPath = found.WineserverPath
			}
		}
	}
	if ok, _ := afero.Exists(o.deps.Fs, inst.BinaryPath); !ok {
		out := o.fail(op, ReasonRuntimeMissing, messages.RuntimeNotFound, inst.BinaryPath)
		return &out
	}

	env, err := o.deps.Preparer.PrepareEnvironment(*s, inst)
	if err != nil {
		op.log.Error().Err(err).Msg("failed to prepare environment")
		out := o.fail(op, ReasonRuntimeMissing, messages.RuntimeMissing, op.title)
		if errors.Is(err, launch.ErrUnknownRuntime) {
			out.Message = messages.Translate(op.lang(), messages.RuntimeNotFound, inst.BinaryPath)
		}
		return &out
	}
	req.Env = env
	req.Runtime = inst
	op.setRuntime(inst, env.Env, false)

	status, err := o.deps.Preparer.VerifyPrefix(ctx, *s, inst)
	if err != nil {
		op.log.Warn().Err(err).Msg("prefix verification failed, launching anyway")
	} else if status.Created {
		op.log.Info().Msgf("created new prefix at %s", status.Path)
	}
	return nil
}
