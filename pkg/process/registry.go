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

package process

import (
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Registry tracks every running Handle so they can be killed together on
// shutdown.
type Registry struct {
	handles map[*Handle]struct{}
	mu      syncutil.Mutex
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[*Handle]struct{})}
}

func (r *Registry) add(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h] = struct{}{}
}

func (r *Registry) remove(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, h)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Snapshot returns a copy of the tracked handles.
func (r *Registry) Snapshot() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.handles))
	for h := range r.handles {
		out = append(out, h)
	}
	return out
}

// KillAll kills every tracked process tree. Handles that exit while this
// runs are fine; killing a finished process is not an error.
func (r *Registry) KillAll() error {
	handles := r.Snapshot()
	if len(handles) == 0 {
		return nil
	}

	log.Info().Msgf("killing %d running processes", len(handles))

	var g errgroup.Group
	for _, h := range handles {
		g.Go(func() error {
			if err := h.Kill(); err != nil {
				log.Warn().Err(err).Int("pid", h.Pid()).Msg("failed to kill process")
				return err
			}
			return nil
		})
	}
	return g.Wait() //nolint:wrapcheck // already logged per process
}
