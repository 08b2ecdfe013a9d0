//go:build !windows

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

package command

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process, os.Kill)
	}
}

// signalGroup targets the process group led by proc, falling back to the
// single process if the group can't be signalled.
func signalGroup(proc *os.Process, sig os.Signal) error {
	if proc == nil {
		return nil
	}

	usig := unix.SIGKILL
	if s, ok := sig.(syscall.Signal); ok {
		usig = s
	}

	err := unix.Kill(-proc.Pid, usig)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}

	err = proc.Signal(sig)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err //nolint:wrapcheck // caller logs with pid context
	}
	return nil
}

func exitStatus(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal().String()}
	}
	return ExitStatus{Code: state.ExitCode()}
}
