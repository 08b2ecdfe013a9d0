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

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-launch/pkg/backends"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/messages"
	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/progress"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"golang.org/x/time/rate"
)

// Install downloads and installs a game.
func (o *Orchestrator) Install(ctx context.Context, appName string, opts backends.Options) Outcome {
	return o.download(ctx, KindInstall, appName, opts)
}

// Update brings an installed game to the latest version.
func (o *Orchestrator) Update(ctx context.Context, appName string, opts backends.Options) Outcome {
	return o.download(ctx, KindUpdate, appName, opts)
}

// Repair verifies an installed game and redownloads broken files.
func (o *Orchestrator) Repair(ctx context.Context, appName string, opts backends.Options) Outcome {
	return o.download(ctx, KindRepair, appName, opts)
}

// Import registers a game already present at opts.Path.
func (o *Orchestrator) Import(ctx context.Context, appName string, opts backends.Options) Outcome {
	return o.download(ctx, KindImport, appName, opts)
}

func (o *Orchestrator) download(ctx context.Context, kind Kind, appName string, opts backends.Options) Outcome {
	op := o.begin(appName, kind)

	needsInstall := kind == KindUpdate || kind == KindRepair
	game, s, failed := o.preconditions(op, needsInstall)
	if failed != nil {
		return *failed
	}

	// importing reads local files only
	if kind != KindImport && !o.online(ctx, game.Runner) {
		return o.fail(op, ReasonOfflineUnsupported, messages.OfflineUnsupported, op.title)
	}

	o.transition(op, PhaseEnvironmentPrep)

	if kind == KindImport && opts.Path == "" {
		op.log.Warn().Msg("import requested without a path")
		return o.fail(op, ReasonUnsupported, messages.Generic, op.title)
	}

	inv, err := o.invocation(kind, &game, o.withDefaults(opts, &s))
	if err != nil {
		op.log.Error().Err(err).Msg("failed to build command")
		if errors.Is(err, backends.ErrUnsupported) {
			return o.fail(op, ReasonUnsupported, messages.Generic, op.title)
		}
		return o.fail(op, ReasonExternalToolError, messages.Generic, op.title)
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()

	limiter := rate.NewLimiter(rate.Every(progressNotifyInterval), 1)
	popts := progress.PollerOptions{
		Clock:    o.deps.Clock,
		AppName:  appName,
		Kind:     progress.Kind(kind),
		LogFile:  o.logFile(op),
		Interval: o.deps.PollInterval,
		OpID:     op.id,
		OnUpdate: func(p progress.Progress) {
			if limiter.AllowN(o.deps.Clock.Now(), 1) {
				notifications.OperationProgress(o.deps.Notifications, p)
			}
		},
	}
	defer o.deps.Tracker.Remove(op.id)

	pollDone := make(chan struct{})
	if popts.LogFile != "" {
		poller := progress.NewPoller(o.deps.Fs, o.deps.Tracker, popts)
		go func() {
			defer close(pollDone)
			poller.Run(pollCtx)
		}()
	} else {
		close(pollDone)
	}

	feeder := progress.NewFeeder(o.deps.Tracker, popts)
	res, failed := o.execute(ctx, op, &inv, func(line process.Line) {
		feeder.Feed(line.Text)
	})
	feeder.Flush()

	stopPolling()
	<-pollDone

	if last, ok := o.deps.Tracker.Get(appName, progress.Kind(kind)); ok {
		notifications.OperationProgress(o.deps.Notifications, last)
	}

	if failed != nil {
		return *failed
	}

	out := o.complete(ctx, op, res)
	if out.Success() && (kind == KindInstall || kind == KindImport || kind == KindUpdate) {
		if err := o.deps.Library.Reload(); err != nil {
			op.log.Warn().Err(err).Msg("failed to reload library")
		}
	}
	return out
}

func (o *Orchestrator) invocation(kind Kind, game *library.Game, opts backends.Options) (backends.Invocation, error) {
	backend, err := o.deps.Backends.For(game.Runner)
	if err != nil {
		return backends.Invocation{}, err //nolint:wrapcheck // already names the runner
	}
	switch kind {
	case KindInstall:
		return backend.Install(game, opts) //nolint:wrapcheck // logged with op context
	case KindUpdate:
		return backend.Update(game, opts) //nolint:wrapcheck // logged with op context
	case KindRepair:
		return backend.Repair(game, opts) //nolint:wrapcheck // logged with op context
	case KindImport:
		return backend.Import(game, opts) //nolint:wrapcheck // logged with op context
	default:
		return backends.Invocation{}, backends.ErrUnsupported
	}
}

// withDefaults fills unset options from the game's settings.
func (o *Orchestrator) withDefaults(opts backends.Options, s *settings.Settings) backends.Options {
	if opts.Path == "" {
		opts.Path = helpers.ExpandHome(s.DefaultInstallPath, o.deps.Preparer.Home())
	}
	if opts.MaxWorkers == 0 {
		opts.MaxWorkers = s.MaxWorkers
	}
	if opts.Language == "" {
		opts.Language = s.Language
	}
	return opts
}
