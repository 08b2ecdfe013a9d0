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

package helpers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
)

// ExpandHome replaces a leading "~" in path with the user's home directory.
// Paths like "~user/..." are left untouched.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// HomeDir returns the current user's home directory, or an empty string if
// it can't be determined.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("failed to get user home directory")
		return ""
	}
	return home
}

// ConfigDir is the default directory for the daemon config and game
// settings documents.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

// DataDir is the default directory for the tool cache and other data.
func DataDir() string {
	return filepath.Join(xdg.DataHome, config.AppName)
}

// StateDir is the default directory for operation and service logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, config.AppName)
}

// ExeDir returns the directory of the running executable.
func ExeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
