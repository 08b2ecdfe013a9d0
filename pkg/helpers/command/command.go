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

// Package command provides an abstraction over exec.Cmd for testability.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// PipeWaitDelay bounds how long Wait keeps reading output after the process
// exits. Wine leaves wineserver and friends holding the pipes open.
const PipeWaitDelay = 2 * time.Second

// Cmd describes a process to spawn.
type Cmd struct {
	Name string
	Dir  string
	Args []string
	// Env is the complete environment of the child. Nil inherits the
	// current process environment.
	Env []string
}

// ExitStatus describes how a process ended. Signal is set (and Code is -1)
// when the process was terminated by a signal.
type ExitStatus struct {
	Signal string
	Code   int
}

// Signaled reports whether the process was terminated by a signal.
func (s ExitStatus) Signaled() bool {
	return s.Signal != ""
}

// Process is a spawned command. Stdout and Stderr must be drained
// concurrently with Wait and are closed once Wait returns. Wait must be
// called exactly once.
type Process interface {
	Pid() int
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits. A non-zero exit code is not an
	// error; the error is reserved for failures to observe the exit.
	Wait() (ExitStatus, error)
	// Signal delivers sig to the process group where the platform supports
	// it. Signalling an exited process is not an error.
	Signal(sig os.Signal) error
	// Kill forcibly terminates the process group.
	Kill() error
}

// Executor provides an abstraction over exec.Cmd for testability.
// This allows commands to be mocked in tests without executing real system commands.
type Executor interface {
	// Output runs a command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath searches for an executable named file in PATH.
	LookPath(file string) (string, error)

	// Spawn starts a command with piped output and returns immediately.
	// Returns an error if the command fails to start.
	Spawn(ctx context.Context, cmd Cmd) (Process, error)
}

// RealExecutor uses actual exec.Cmd to execute system commands.
// This is the production implementation used in normal operation.
type RealExecutor struct{}

var _ Executor = (*RealExecutor)(nil)

// Output runs a command and returns its standard output.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Spawn starts the command in its own process group with stdout and stderr
// connected to in-memory pipes. Cancelling ctx kills the whole group.
func (*RealExecutor) Spawn(ctx context.Context, c Cmd) (Process, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec // caller controls the binary
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.WaitDelay = PipeWaitDelay

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		_ = outW.Close()
		_ = errW.Close()
		return nil, fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	return &realProcess{
		cmd:  cmd,
		outR: outR,
		outW: outW,
		errR: errR,
		errW: errW,
	}, nil
}

type realProcess struct {
	cmd  *exec.Cmd
	outR *io.PipeReader
	outW *io.PipeWriter
	errR *io.PipeReader
	errW *io.PipeWriter
}

func (p *realProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *realProcess) Stdout() io.Reader {
	return p.outR
}

func (p *realProcess) Stderr() io.Reader {
	return p.errR
}

func (p *realProcess) Wait() (ExitStatus, error) {
	err := p.cmd.Wait()
	_ = p.outW.Close()
	_ = p.errW.Close()

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
		return exitStatus(p.cmd.ProcessState), nil
	case errors.As(err, &exitErr):
		return exitStatus(exitErr.ProcessState), nil
	default:
		return ExitStatus{Code: -1}, fmt.Errorf("failed to wait for process: %w", err)
	}
}

func (p *realProcess) Signal(sig os.Signal) error {
	return signalGroup(p.cmd.Process, sig)
}

func (p *realProcess) Kill() error {
	return signalGroup(p.cmd.Process, os.Kill)
}
