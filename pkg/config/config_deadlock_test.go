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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestGOGAuthConfig_NoRecursiveLock guards against path accessors calling
// other locking accessors while holding RLock. With -tags=deadlock,
// go-deadlock panics on recursive locks.
func TestGOGAuthConfig_NoRecursiveLock(t *testing.T) {
	t.Parallel()

	cfg := &Instance{cfgPath: "/tmp/launchcore/launchcore.toml"}

	done := make(chan struct{})
	go func() {
		_ = cfg.GOGAuthConfig()
		_ = cfg.SettingsDir()
		_ = cfg.StoreCacheDir()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("path accessor deadlocked")
	}
}

func TestAPIPort_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cfg := &Instance{}

	done := make(chan struct{})
	for range 10 {
		go func() {
			for range 100 {
				_ = cfg.APIPort()
				_ = cfg.LogsDir()
			}
			done <- struct{}{}
		}()
	}

	for range 10 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent access deadlocked")
		}
	}
	assert.Equal(t, DefaultAPIPort, cfg.APIPort())
}
