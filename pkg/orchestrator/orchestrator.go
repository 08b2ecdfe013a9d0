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

// Package orchestrator sequences launch, install, update, repair and
// import operations: preconditions, environment preparation, running the
// backend CLI and classifying how it ended.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-launch/pkg/backends"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-launch/pkg/launch"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/messages"
	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/progress"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// DefaultStopGrace is how long a stopped process gets to exit after
	// SIGTERM before it's killed.
	DefaultStopGrace = 3 * time.Second
	// progressNotifyInterval limits progress notifications per operation.
	progressNotifyInterval = 500 * time.Millisecond
)

type Deps struct {
	Settings *settings.Store
	Library  Library
	Network  Reachability
	Backends *backends.Set
	Preparer *launch.Preparer
	Runner   *process.Runner
	// Catalog is optional; it fills in the wineserver path of the selected
	// runtime when known.
	Catalog  *runtimes.Catalog
	Tracker  *progress.Tracker
	Presence Presence
	Metrics  *Metrics
	// Notifications receives phase and progress notifications. Sends never
	// block.
	Notifications chan<- models.Notification
	Fs            afero.Fs
	Clock         clockwork.Clock
	LogsDir       string
	GOOS          string
	PollInterval  time.Duration
	StopGrace     time.Duration
}

type Orchestrator struct {
	deps Deps
	ops  map[uuid.UUID]*operation
	mu   syncutil.RWMutex
}

//nolint:gocritic // deps are copied once at construction
func New(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Presence == nil {
		deps.Presence = NopPresence{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}
	if deps.Tracker == nil {
		deps.Tracker = progress.NewTracker()
	}
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}
	if deps.StopGrace <= 0 {
		deps.StopGrace = DefaultStopGrace
	}
	return &Orchestrator{
		deps: deps,
		ops:  make(map[uuid.UUID]*operation),
	}
}

// EffectiveSettings resolves the settings for appName, or the global
// settings for settings.GlobalScope.
func (o *Orchestrator) EffectiveSettings(appName string) (settings.EffectiveSettings, error) {
	eff, err := o.deps.Settings.EffectiveSettings(appName)
	if err != nil {
		return settings.EffectiveSettings{}, fmt.Errorf("failed to resolve settings for %s: %w", appName, err)
	}
	return eff, nil
}

// WriteSettings replaces the settings of scope and announces the change.
func (o *Orchestrator) WriteSettings(scope string, values map[string]any) error {
	if err := o.deps.Settings.WriteSettings(scope, values); err != nil {
		return fmt.Errorf("failed to write settings for %s: %w", scope, err)
	}
	notifications.SettingsChanged(o.deps.Notifications, scope)
	return nil
}

// GetProgress returns the latest progress of the active operation of kind
// for appName.
func (o *Orchestrator) GetProgress(appName string, kind Kind) (progress.Progress, bool) {
	return o.deps.Tracker.Get(appName, progress.Kind(kind))
}

// OperationInfo describes an operation in flight.
type OperationInfo struct {
	Started time.Time `json:"started"`
	AppName string    `json:"appName"`
	Kind    Kind      `json:"kind"`
	Phase   Phase     `json:"phase"`
	ID      uuid.UUID `json:"id"`
}

// Active lists operations in flight, oldest first.
func (o *Orchestrator) Active() []OperationInfo {
	o.mu.RLock()
	out := make([]OperationInfo, 0, len(o.ops))
	for _, op := range o.ops {
		out = append(out, op.info())
	}
	o.mu.RUnlock()

	slices.SortFunc(out, func(a, b OperationInfo) int {
		return a.Started.Compare(b.Started)
	})
	return out
}

// IsActive reports whether an operation of kind is running for appName.
// Callers use it to serialize operations on the same game.
func (o *Orchestrator) IsActive(appName string, kind Kind) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, op := range o.ops {
		if op.appName == appName && op.kind == kind {
			return true
		}
	}
	return false
}

// Shutdown cancels every operation and kills every process still running.
func (o *Orchestrator) Shutdown() error {
	o.mu.RLock()
	for _, op := range o.ops {
		op.cancel()
	}
	o.mu.RUnlock()

	if err := o.deps.Runner.Registry().KillAll(); err != nil {
		return fmt.Errorf("failed to kill running processes: %w", err)
	}
	return nil
}

func (o *Orchestrator) begin(appName string, kind Kind) *operation {
	op := &operation{
		id:      uuid.New(),
		appName: appName,
		kind:    kind,
		phase:   PhasePending,
		started: o.deps.Clock.Now(),
		title:   appName,
	}
	op.log = log.With().
		Str("app", appName).
		Str("kind", string(kind)).
		Str("op", op.id.String()).
		Logger()

	o.mu.Lock()
	o.ops[op.id] = op
	o.mu.Unlock()

	o.deps.Metrics.started(kind)
	op.log.Info().Msg("operation requested")
	o.announce(op, &Outcome{Phase: PhasePending})
	return op
}

// notifyStderrTail caps the stderr carried by phase notifications; the
// full output stays in the operation log.
const notifyStderrTail = 4096

func (o *Orchestrator) announce(op *operation, out *Outcome) {
	o.deps.Metrics.transition(op.kind, out.Phase)
	stderr := out.Stderr
	if len(stderr) > notifyStderrTail {
		stderr = stderr[len(stderr)-notifyStderrTail:]
	}
	notifications.OperationPhase(o.deps.Notifications, models.OperationPhaseParams{
		OperationID: op.id,
		AppName:     op.appName,
		Kind:        string(op.kind),
		Phase:       string(out.Phase),
		Reason:      string(out.Reason),
		Message:     out.Message,
		Command:     out.Command,
		Stderr:      stderr,
		At:          o.deps.Clock.Now(),
	})
}

func (o *Orchestrator) transition(op *operation, phase Phase) {
	op.setPhase(phase)
	op.log.Debug().Msgf("entering %s", phase)
	o.announce(op, &Outcome{Phase: phase})
}

// end moves op to its terminal phase and removes it from the active set.
func (o *Orchestrator) end(op *operation, out *Outcome) Outcome {
	out.OperationID = op.id
	out.AppName = op.appName
	out.Kind = op.kind

	op.setPhase(out.Phase)

	o.mu.Lock()
	delete(o.ops, op.id)
	o.mu.Unlock()

	elapsed := o.deps.Clock.Since(op.started)
	o.deps.Metrics.finished(op.kind, out.Phase, out.Reason, elapsed)
	o.announce(op, out)

	ev := op.log.Info()
	if out.Phase == PhaseFailed {
		ev = op.log.Warn().Str("reason", string(out.Reason))
	}
	ev.Dur("elapsed", elapsed).Msgf("operation %s", out.Phase)
	return *out
}

func (o *Orchestrator) fail(op *operation, reason Reason, key string, args ...any) Outcome {
	out := failure(op, reason, key, args...)
	return o.end(op, &out)
}

func failure(op *operation, reason Reason, key string, args ...any) Outcome {
	return Outcome{
		Phase:   PhaseFailed,
		Reason:  reason,
		Message: messages.Translate(op.lang(), key, args...),
	}
}

func (o *Orchestrator) cancelled(op *operation, res *process.Result) Outcome {
	out := Outcome{
		Phase:   PhaseCancelled,
		Reason:  ReasonCancelled,
		Message: messages.Translate(op.lang(), messages.Cancelled, op.title),
	}
	if res != nil {
		fillResult(&out, res)
	}
	return o.end(op, &out)
}

func fillResult(out *Outcome, res *process.Result) {
	out.Command = res.Command
	out.Stdout = res.Stdout
	out.Stderr = res.Stderr
	out.Signal = res.Signal
	out.ExitCode = res.ExitCode
}

// complete classifies a finished process.
func (o *Orchestrator) complete(ctx context.Context, op *operation, res *process.Result) Outcome {
	if op.isCancelled() || ctx.Err() != nil {
		return o.cancelled(op, res)
	}

	out := Outcome{Phase: PhaseFailed}
	fillResult(&out, res)
	lang := op.lang()

	switch {
	case !res.Success:
		out.Reason = ReasonExternalToolError
		out.Message = messages.Translate(lang, messages.Generic, op.title)
	case res.Signal != "":
		out.Reason = ReasonTerminatedBySignal
		out.Message = messages.Translate(lang, messages.TerminatedBySignal, op.title, res.Signal)
	default:
		if reason, key, found := classifyStderr(res.Stderr); found {
			out.Reason = reason
			out.Message = messages.Translate(lang, key, op.title)
		} else if res.ExitCode != 0 {
			out.Reason = ReasonExternalToolError
			out.Message = messages.Translate(lang, messages.Generic, op.title)
		} else {
			out.Phase = PhaseSucceeded
		}
	}
	return o.end(op, &out)
}

// preconditions loads the game and its settings. needsInstall rejects games
// that aren't installed.
func (o *Orchestrator) preconditions(
	op *operation,
	needsInstall bool,
) (library.Game, settings.Settings, *Outcome) {
	o.transition(op, PhasePreconditionCheck)

	game, err := o.deps.Library.Game(op.appName)
	if err != nil {
		op.log.Warn().Err(err).Msg("game lookup failed")
		out := o.fail(op, ReasonNotInstalled, messages.NotInstalled, op.appName)
		return library.Game{}, settings.Settings{}, &out
	}
	if game.Title != "" {
		op.setTitle(game.Title)
	}

	eff, err := o.deps.Settings.EffectiveSettings(op.appName)
	if err != nil {
		op.log.Error().Err(err).Msg("failed to load settings")
		key := messages.Generic
		reason := ReasonExternalToolError
		if errors.Is(err, settings.ErrConfigCorrupt) {
			key, reason = messages.ConfigCorrupt, ReasonConfigCorrupt
		}
		out := o.fail(op, reason, key, op.title)
		return library.Game{}, settings.Settings{}, &out
	}
	op.setLanguage(eff.Settings.Language)

	if needsInstall && !game.IsInstalled {
		out := o.fail(op, ReasonNotInstalled, messages.NotInstalled, op.title)
		return library.Game{}, settings.Settings{}, &out
	}
	return game, eff.Settings, nil
}

// online reports whether the network and the game's store are usable.
func (o *Orchestrator) online(ctx context.Context, runner library.Runner) bool {
	if o.deps.Network == nil {
		return true
	}
	return o.deps.Network.IsOnline(ctx) && !o.deps.Network.IsBackendServiceDown(ctx, runner)
}

// execute runs inv and waits for it. onLine and logFile may be empty.
func (o *Orchestrator) execute(
	ctx context.Context,
	op *operation,
	inv *backends.Invocation,
	onLine func(process.Line),
) (*process.Result, *Outcome) {
	o.transition(op, PhaseExecuting)

	if op.isCancelled() {
		out := o.cancelled(op, nil)
		return nil, &out
	}

	h, err := o.deps.Runner.Start(ctx, inv.Executable, inv.Args, process.Options{
		Env:          inv.Env,
		Dir:          inv.Dir,
		Wrappers:     inv.Wrappers,
		LogFile:      o.logFile(op),
		OnOutputLine: onLine,
	})
	if err != nil {
		out := failure(op, ReasonSpawnFailure, messages.SpawnFailure, op.title)
		out.Stderr = err.Error()
		name, argv := process.BuildArgv(inv.Wrappers, inv.Executable, inv.Args)
		out.Command = process.FormatCommand(append([]string{name}, argv...))
		out = o.end(op, &out)
		return nil, &out
	}

	if op.setHandle(h) {
		if err := h.Terminate(o.deps.StopGrace); err != nil {
			op.log.Warn().Err(err).Msg("failed to terminate cancelled operation")
		}
	}

	res := h.Wait()
	return &res, nil
}

func (o *Orchestrator) logFile(op *operation) string {
	if o.deps.LogsDir == "" {
		return ""
	}
	name := strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(op.appName)
	return filepath.Join(o.deps.LogsDir, fmt.Sprintf("%s-%s.log", name, op.kind))
}
