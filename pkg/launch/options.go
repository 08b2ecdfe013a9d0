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

import "strings"

// ParseOptions parses the free-form "other options" setting: whitespace
// separated KEY=VALUE pairs. Later keys replace earlier ones, a bare KEY
// gets an empty value and entries without a key are dropped. One level of
// matching quotes around a value is removed.
func ParseOptions(s string) map[string]string {
	out := make(map[string]string)
	for _, field := range strings.Fields(s) {
		key, value, _ := strings.Cut(field, "=")
		if key == "" {
			continue
		}
		out[key] = unquote(value)
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
