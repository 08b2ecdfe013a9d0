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
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Stop cancels every active operation for appName and returns how many
// were stopped. Processes get StopGrace to exit before they're killed.
func (o *Orchestrator) Stop(ctx context.Context, appName string) int {
	o.mu.RLock()
	var targets []*operation
	for _, op := range o.ops {
		if op.appName == appName {
			targets = append(targets, op)
		}
	}
	o.mu.RUnlock()

	for _, op := range targets {
		op.log.Info().Msg("stop requested")
		if h := op.cancel(); h != nil {
			if err := h.Terminate(o.deps.StopGrace); err != nil {
				op.log.Warn().Err(err).Msg("failed to terminate process")
			}
		}
		o.killWineserver(ctx, op)
	}
	return len(targets)
}

// killWineserver ends the wineserver of the operation's prefix, which
// outlives the game when it forked Windows processes.
func (o *Orchestrator) killWineserver(ctx context.Context, op *operation) {
	op.mu.Lock()
	inst := op.runtime
	env := op.env
	native := op.native
	op.mu.Unlock()

	if native || inst.BinaryPath == "" {
		return
	}

	server := wineserverPath(&inst)
	if server == "" {
		return
	}
	if ok, err := afero.Exists(o.deps.Fs, server); err != nil || !ok {
		log.Debug().Msgf("wineserver not found: %s", server)
		return
	}

	prefix := env["WINEPREFIX"]
	if inst.Kind == runtimes.KindProton && env["STEAM_COMPAT_DATA_PATH"] != "" {
		prefix = filepath.Join(env["STEAM_COMPAT_DATA_PATH"], "pfx")
	}
	if prefix == "" {
		return
	}

	res := o.deps.Runner.Run(ctx, server, []string{"-k"}, process.Options{
		Env: map[string]string{"WINEPREFIX": prefix},
	})
	if !res.Success || res.ExitCode != 0 {
		op.log.Warn().Str("error", res.Error).Int("code", res.ExitCode).Msg("wineserver -k failed")
	}
}

func wineserverPath(inst *runtimes.Installation) string {
	if inst.WineserverPath != "" {
		return inst.WineserverPath
	}
	dir := filepath.Dir(inst.BinaryPath)
	switch inst.Kind {
	case runtimes.KindWine:
		return filepath.Join(dir, "wineserver")
	case runtimes.KindProton:
		return filepath.Join(dir, "files", "bin", "wineserver")
	default:
		return ""
	}
}
