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
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// descendants returns every descendant of pid, children before their
// parents.
func descendants(pid int) []*process.Process {
	if pid <= 0 {
		return nil
	}
	proc, err := process.NewProcess(int32(pid)) //nolint:gosec // PID fits in int32
	if err != nil {
		return nil
	}
	return walkChildren(proc)
}

func walkChildren(proc *process.Process) []*process.Process {
	children, err := proc.Children()
	if err != nil || len(children) == 0 {
		return nil
	}
	result := make([]*process.Process, 0, len(children))
	for _, child := range children {
		result = append(result, walkChildren(child)...)
		result = append(result, child)
	}
	return result
}

// killDescendants kills the descendants of pid, including those that left
// its process group like wineserver or a game started through a launcher
// stub.
func killDescendants(pid int) {
	for _, proc := range descendants(pid) {
		if err := proc.Kill(); err != nil {
			log.Debug().Err(err).Int32("pid", proc.Pid).Msg("failed to kill process")
		} else {
			log.Debug().Int32("pid", proc.Pid).Msg("sent SIGKILL to process")
		}
	}
}
