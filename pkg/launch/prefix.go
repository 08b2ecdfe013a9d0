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

package launch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var ErrPrefixInit = errors.New("failed to initialize wine prefix")

// PrefixStatus reports what VerifyPrefix did. Created and Updated drive
// one-time setup like installing DXVK into a fresh prefix.
type PrefixStatus struct {
	Path string
	// Skipped is true when the runtime manages its own prefix.
	Skipped bool
	Created bool
	Updated bool
}

// VerifyPrefix makes sure the configured prefix exists. Wine prefixes are
// also initialized with wineboot. Proton sets up its own prefix on first
// run and CrossOver uses bottles, so both are skipped.
//
//nolint:gocritic // settings are passed by value like every other reader
func (p *Preparer) VerifyPrefix(
	ctx context.Context,
	s settings.Settings,
	inst runtimes.Installation,
) (PrefixStatus, error) {
	if inst.Kind == runtimes.KindCrossover {
		return PrefixStatus{Skipped: true}, nil
	}

	path := p.PrefixPath(&s)
	if path == "" {
		return PrefixStatus{}, fmt.Errorf("%w: no prefix configured", ErrPrefixInit)
	}
	status := PrefixStatus{Path: path}

	existed, err := afero.Exists(p.fs, filepath.Join(path, "system.reg"))
	if err != nil {
		return status, fmt.Errorf("failed to check prefix %s: %w", path, err)
	}

	if err := p.fs.MkdirAll(path, 0o750); err != nil {
		return status, fmt.Errorf("failed to create prefix %s: %w", path, err)
	}

	if inst.Kind == runtimes.KindProton {
		status.Skipped = true
		return status, nil
	}
	if inst.BinaryPath == "" {
		return status, ErrNoRuntime
	}

	res := p.runner.Run(ctx, inst.BinaryPath, []string{"wineboot", "--init"}, process.Options{
		Env: map[string]string{"WINEPREFIX": path},
	})
	if !res.Success {
		return status, fmt.Errorf("%w: %s", ErrPrefixInit, res.Error)
	}

	status.Created = !existed
	status.Updated = strings.Contains(res.Stderr, "has been updated")
	log.Info().
		Bool("created", status.Created).
		Bool("updated", status.Updated).
		Msgf("verified wine prefix %s", path)
	return status, nil
}
