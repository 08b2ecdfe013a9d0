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

package runtimes

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// WatchDebounce is how long the watcher waits for changes to settle before
// rescanning. Extracting a runtime archive creates thousands of events.
const WatchDebounce = 2 * time.Second

// Watch rescans the catalog when the runtime directories change. Missing
// directories are skipped. It returns after setting up the watcher; the
// watcher stops when ctx is done.
func (c *Catalog) Watch(ctx context.Context, dirs []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create runtime watcher: %w", err)
	}

	added := 0
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Debug().Err(err).Msgf("not watching %s", dir)
			continue
		}
		added++
	}
	log.Info().Msgf("watching %d runtime directories", added)

	go c.watchLoop(ctx, watcher)
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close runtime watcher")
		}
	}()

	var pending clockwork.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debug().Msgf("runtime directory changed: %s", event)
			if pending != nil {
				pending.Stop()
			}
			pending = c.clock.AfterFunc(WatchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if _, err := c.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to refresh runtimes")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("error in runtime watcher")
		}
	}
}
