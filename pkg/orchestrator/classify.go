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
	"regexp"

	"github.com/ZaparooProject/zaparoo-launch/pkg/messages"
)

type stderrPattern struct {
	re      *regexp.Regexp
	reason  Reason
	message string
}

// stderrPatterns are checked in order; the first match wins. The store
// CLIs often exit 0 after logging a fatal error, so stderr is the only
// reliable signal.
var stderrPatterns = []stderrPattern{
	{
		re:      regexp.MustCompile(`(?i)no space left on device|not enough (available )?disk space`),
		reason:  ReasonDiskSpace,
		message: messages.DiskSpace,
	},
	{
		re: regexp.MustCompile(
			`(?i)login failed|no saved credentials|not logged in|failed to refresh (token|credentials)`,
		),
		reason:  ReasonExternalToolError,
		message: messages.LoginRequired,
	},
	{
		re:      regexp.MustCompile(`(?m)\bERROR:|^Traceback \(most recent call last\):`),
		reason:  ReasonExternalToolError,
		message: messages.Generic,
	},
}

// classifyStderr returns the failure reason and message key for known
// error output, or ok false when stderr looks clean.
func classifyStderr(stderr string) (reason Reason, message string, ok bool) {
	for _, p := range stderrPatterns {
		if p.re.MatchString(stderr) {
			return p.reason, p.message, true
		}
	}
	return "", "", false
}
