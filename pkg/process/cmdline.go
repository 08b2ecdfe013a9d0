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
	"strings"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers"
)

// Redacted replaces secret values in command strings.
const Redacted = "<redacted>"

var sensitiveFlags = []string{"--token", "--sid"}

// BuildArgv chains wrappers in front of the executable. Each wrapper is
// split on whitespace and the first token of the first wrapper becomes the
// spawned binary.
func BuildArgv(wrappers []string, executable string, args []string) (string, []string) {
	var chain []string
	for _, w := range wrappers {
		chain = append(chain, strings.Fields(w)...)
	}
	chain = append(chain, executable)
	chain = append(chain, args...)
	return chain[0], chain[1:]
}

// Redact returns a copy of argv with the values of sensitive flags
// replaced. Both "--token VALUE" and "--token=VALUE" are handled.
func Redact(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)

	for i := 0; i < len(out); i++ {
		arg := out[i]
		for _, flag := range sensitiveFlags {
			if arg == flag && i+1 < len(out) {
				out[i+1] = Redacted
				i++
				break
			}
			if strings.HasPrefix(arg, flag+"=") {
				out[i] = flag + "=" + Redacted
				break
			}
		}
	}
	return out
}

// FormatCommand renders argv as a single human readable line with secrets
// redacted. Arguments containing whitespace are double quoted.
func FormatCommand(argv []string) string {
	redacted := Redact(argv)
	parts := make([]string, len(redacted))
	for i, arg := range redacted {
		if helpers.HasSpace(arg) {
			parts[i] = `"` + arg + `"`
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}
