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
	"iter"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Handle is a running process started by a Runner.
type Handle struct {
	proc     command.Process
	clock    clockwork.Clock
	killTree func(pid int)
	wake     chan struct{}
	done     chan struct{}
	waitErr  error
	cmdline  string
	lines    []Line
	stdout   strings.Builder
	stderr   strings.Builder
	result   Result
	status   command.ExitStatus
	mu       syncutil.Mutex
	ended    bool
}

func newHandle(
	proc command.Process,
	cmdline string,
	clock clockwork.Clock,
	killTree func(pid int),
) *Handle {
	return &Handle{
		proc:     proc,
		clock:    clock,
		killTree: killTree,
		cmdline:  cmdline,
		wake:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (h *Handle) Pid() int {
	return h.proc.Pid()
}

// Command is the redacted command line.
func (h *Handle) Command() string {
	return h.cmdline
}

// Done is closed once the process has exited and all output is consumed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the process has exited and returns its result.
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}

// Lines yields every output line from the start, blocking for new lines
// until the process exits. Each call starts a new sequence.
func (h *Handle) Lines() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		next := 0
		for {
			h.mu.Lock()
			pending := h.lines[next:]
			wake := h.wake
			ended := h.ended
			h.mu.Unlock()

			for _, line := range pending {
				if !yield(line) {
					return
				}
				next++
			}

			if len(pending) > 0 {
				continue
			}
			if ended {
				return
			}
			<-wake
		}
	}
}

func (h *Handle) appendLine(line Line) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lines = append(h.lines, line)
	if line.Stream == Stderr {
		h.stderr.WriteString(line.Text)
		h.stderr.WriteByte('\n')
	} else {
		h.stdout.WriteString(line.Text)
		h.stdout.WriteByte('\n')
	}

	close(h.wake)
	h.wake = make(chan struct{})
}

func (h *Handle) setExit(status command.ExitStatus, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
	h.waitErr = err
}

func (h *Handle) finish() Result {
	h.mu.Lock()
	res := Result{
		Success:  h.waitErr == nil,
		Stdout:   h.stdout.String(),
		Stderr:   h.stderr.String(),
		Command:  h.cmdline,
		ExitCode: h.status.Code,
		Signal:   h.status.Signal,
	}
	if h.waitErr != nil {
		res.Error = h.waitErr.Error()
	}
	h.result = res
	h.ended = true
	close(h.wake)
	h.wake = make(chan struct{})
	h.mu.Unlock()

	close(h.done)
	return res
}

func (h *Handle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Terminate asks the process group to exit and kills the whole tree after
// grace if it's still running. It doesn't wait.
func (h *Handle) Terminate(grace time.Duration) error {
	if h.exited() {
		return nil
	}

	if err := h.proc.Signal(syscall.SIGTERM); err != nil {
		log.Debug().Err(err).Int("pid", h.Pid()).Msg("failed to send SIGTERM")
	}

	h.clock.AfterFunc(grace, func() {
		if h.exited() {
			return
		}
		log.Debug().Int("pid", h.Pid()).Msg("grace period over, killing process")
		if err := h.Kill(); err != nil {
			log.Warn().Err(err).Int("pid", h.Pid()).Msg("failed to kill process")
		}
	})
	return nil
}

// Kill forcibly ends the process and its descendants. Killing a process
// that already exited is not an error.
func (h *Handle) Kill() error {
	if h.exited() {
		return nil
	}

	h.killTree(h.Pid())

	if err := h.proc.Kill(); err != nil {
		return err //nolint:wrapcheck // caller logs with pid context
	}
	return nil
}
