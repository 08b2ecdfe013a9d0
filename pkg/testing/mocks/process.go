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

package mocks

import (
	"io"
	"os"
	"sync"
	"syscall"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
)

// FakeProcess is a command.Process whose output and exit are controlled by
// the test. Output written with WriteStdout/WriteStderr blocks until the
// code under test reads it.
type FakeProcess struct {
	outR    *io.PipeReader
	outW    *io.PipeWriter
	errR    *io.PipeReader
	errW    *io.PipeWriter
	exit    chan command.ExitStatus
	signals []os.Signal
	pid     int
	mu      syncutil.Mutex
	once    sync.Once
	// IgnoreTerm keeps the process running after SIGTERM.
	IgnoreTerm bool
}

var _ command.Process = (*FakeProcess)(nil)

func NewFakeProcess(pid int) *FakeProcess {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	return &FakeProcess{
		pid:  pid,
		outR: outR,
		outW: outW,
		errR: errR,
		errW: errW,
		exit: make(chan command.ExitStatus, 1),
	}
}

// NewFinishedProcess returns a process that writes stdout then stderr and
// exits with status.
func NewFinishedProcess(pid int, stdout, stderr string, status command.ExitStatus) *FakeProcess {
	p := NewFakeProcess(pid)
	go func() {
		p.WriteStdout(stdout)
		p.WriteStderr(stderr)
		p.Exit(status)
	}()
	return p
}

func (p *FakeProcess) WriteStdout(s string) {
	if s != "" {
		_, _ = io.WriteString(p.outW, s)
	}
}

func (p *FakeProcess) WriteStderr(s string) {
	if s != "" {
		_, _ = io.WriteString(p.errW, s)
	}
}

// Exit closes the output pipes and lets Wait return status. Only the first
// call has an effect.
func (p *FakeProcess) Exit(status command.ExitStatus) {
	p.once.Do(func() {
		_ = p.outW.Close()
		_ = p.errW.Close()
		p.exit <- status
	})
}

func (p *FakeProcess) Pid() int          { return p.pid }
func (p *FakeProcess) Stdout() io.Reader { return p.outR }
func (p *FakeProcess) Stderr() io.Reader { return p.errR }

func (p *FakeProcess) Wait() (command.ExitStatus, error) {
	return <-p.exit, nil
}

func (p *FakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	ignore := p.IgnoreTerm
	p.mu.Unlock()

	switch {
	case sig == os.Kill:
		p.Exit(command.ExitStatus{Code: -1, Signal: "killed"})
	case sig == syscall.SIGTERM && !ignore:
		p.Exit(command.ExitStatus{Code: -1, Signal: "terminated"})
	}
	return nil
}

func (p *FakeProcess) Kill() error {
	return p.Signal(os.Kill)
}

// Signals returns every signal delivered so far.
func (p *FakeProcess) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}
