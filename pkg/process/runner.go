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

// Package process spawns and supervises external commands, streaming their
// output line by line.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/command"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrSpawnFailed wraps OS errors from starting a process.
var ErrSpawnFailed = errors.New("failed to spawn process")

// maxLineSize is the longest line the scanner accepts. Longer output is
// discarded to keep the pipe drained.
const maxLineSize = 1024 * 1024

type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is one complete line of output without its line terminator.
type Line struct {
	Text   string
	Stream Stream
}

type Options struct {
	// OnOutputLine is called for every line in output order, from a single
	// goroutine.
	OnOutputLine func(Line)
	// Env is applied on top of the current process environment.
	Env map[string]string
	Dir string
	// LogFile is truncated when the process starts and receives every
	// line. Empty disables logging to a file.
	LogFile  string
	Wrappers []string
}

// Result describes a finished process. Success is true for every process
// that ran to completion, whatever its exit code; the caller decides what
// the output means.
type Result struct {
	Stdout   string
	Stderr   string
	Command  string
	Error    string
	Signal   string
	ExitCode int
	Success  bool
}

type Runner struct {
	exec     command.Executor
	fs       afero.Fs
	clock    clockwork.Clock
	registry *Registry
	environ  func() []string
	killTree func(pid int)
}

func NewRunner(
	exec command.Executor,
	fs afero.Fs,
	registry *Registry,
	clock clockwork.Clock,
) *Runner {
	if registry == nil {
		registry = NewRegistry()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		exec:     exec,
		fs:       fs,
		clock:    clock,
		registry: registry,
		environ:  os.Environ,
		killTree: killDescendants,
	}
}

func (r *Runner) Registry() *Registry {
	return r.registry
}

// Run starts a process and waits for it. Spawn failures are reported in the
// result, never returned as an error.
func (r *Runner) Run(ctx context.Context, executable string, args []string, opts Options) Result {
	h, err := r.Start(ctx, executable, args, opts)
	if err != nil {
		name, argv := BuildArgv(opts.Wrappers, executable, args)
		return Result{
			Command:  FormatCommand(append([]string{name}, argv...)),
			Error:    err.Error(),
			ExitCode: -1,
		}
	}
	return h.Wait()
}

// Start spawns the process and returns once it's running. Cancelling ctx
// kills the process group.
func (r *Runner) Start(ctx context.Context, executable string, args []string, opts Options) (*Handle, error) {
	name, argv := BuildArgv(opts.Wrappers, executable, args)
	cmdline := FormatCommand(append([]string{name}, argv...))

	logFile := r.openLog(opts.LogFile, cmdline)

	proc, err := r.exec.Spawn(ctx, command.Cmd{
		Name: name,
		Args: argv,
		Dir:  opts.Dir,
		Env:  MergeEnv(r.environ(), opts.Env),
	})
	if err != nil {
		log.Error().Err(err).Msgf("failed to spawn: %s", cmdline)
		if logFile != nil {
			_, _ = fmt.Fprintf(logFile, "error: %v\n", err)
			_ = logFile.Close()
		}
		return nil, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	h := newHandle(proc, cmdline, r.clock, r.killTree)
	r.registry.add(h)
	log.Info().Int("pid", proc.Pid()).Msgf("started: %s", cmdline)

	lines := make(chan Line, 64)

	var readers sync.WaitGroup
	readers.Add(2)
	go scanLines(&readers, proc.Stdout(), Stdout, lines)
	go scanLines(&readers, proc.Stderr(), Stderr, lines)

	go func() {
		status, werr := proc.Wait()
		readers.Wait()
		h.setExit(status, werr)
		close(lines)
	}()

	go func() {
		for line := range lines {
			if logFile != nil {
				if _, err := io.WriteString(logFile, line.Text+"\n"); err != nil {
					log.Warn().Err(err).Msg("failed to write process log, disabling")
					_ = logFile.Close()
					logFile = nil
				}
			}
			if opts.OnOutputLine != nil {
				opts.OnOutputLine(line)
			}
			h.appendLine(line)
		}

		if logFile != nil {
			if err := logFile.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close process log")
			}
		}

		r.registry.remove(h)
		res := h.finish()
		if res.Signal != "" {
			log.Info().Int("pid", h.Pid()).Msgf("process terminated by signal %s", res.Signal)
		} else {
			log.Info().Int("pid", h.Pid()).Msgf("process exited with code %d", res.ExitCode)
		}
	}()

	return h, nil
}

func (r *Runner) openLog(path, cmdline string) afero.File {
	if path == "" {
		return nil
	}

	if err := r.fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		log.Warn().Err(err).Msgf("failed to create log directory for %s", path)
		return nil
	}

	f, err := r.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		log.Warn().Err(err).Msgf("failed to open process log %s", path)
		return nil
	}

	if _, err := fmt.Fprintf(f, "command: %s\n", cmdline); err != nil {
		log.Warn().Err(err).Msgf("failed to write process log %s", path)
	}
	return f
}

func scanLines(wg *sync.WaitGroup, r io.Reader, stream Stream, out chan<- Line) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		out <- Line{Stream: stream, Text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msgf("stopped reading %s", stream)
		_, _ = io.Copy(io.Discard, r)
	}
}
