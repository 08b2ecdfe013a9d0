//go:build linux || darwin

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
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrServiceRunning    = errors.New("service already running")
	ErrServiceNotRunning = errors.New("service not running")
)

// ServiceEntry starts the daemon and returns its stop function plus a
// channel closed once the daemon exits on its own.
type ServiceEntry func() (stop func() error, done <-chan struct{}, err error)

type ServiceArgs struct {
	Entry ServiceEntry
	// RunDir holds the pid file. Defaults to StateDir.
	RunDir string
	// Args are passed to the detached copy when starting in the
	// background.
	Args []string
}

// Service manages a single daemon instance through a pid file.
type Service struct {
	entry  ServiceEntry
	runDir string
	args   []string
}

func NewService(args ServiceArgs) (*Service, error) {
	runDir := args.RunDir
	if runDir == "" {
		runDir = StateDir()
	}
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Service{entry: args.Entry, runDir: runDir, args: args.Args}, nil
}

func (s *Service) pidPath() string {
	return filepath.Join(s.runDir, config.PidFile)
}

func (s *Service) createPidFile() error {
	err := os.WriteFile(s.pidPath(), []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (s *Service) removePidFile() error {
	err := os.Remove(s.pidPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Pid returns the process ID recorded in the pid file, or 0 when there
// is none.
func (s *Service) Pid() (int, error) {
	//nolint:gosec // pid file lives in our own state directory
	data, err := os.ReadFile(s.pidPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// Running reports whether the pid file points at a live process.
func (s *Service) Running() bool {
	pid, err := s.Pid()
	if err != nil || pid == 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Run starts the daemon in this process and blocks until stop is called
// or the daemon exits. A stale pid file is replaced.
func (s *Service) Run(stopRequested <-chan struct{}) error {
	if s.Running() {
		return ErrServiceRunning
	}

	log.Info().Msg("starting service")
	if err := s.createPidFile(); err != nil {
		return err
	}
	defer func() {
		if err := s.removePidFile(); err != nil {
			log.Error().Err(err).Msg("error removing pid file")
		}
	}()

	if err := syscall.Setpriority(syscall.PRIO_PROCESS, 0, 1); err != nil {
		log.Debug().Err(err).Msg("error setting nice level")
	}

	stop, done, err := s.entry()
	if err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}

	select {
	case <-stopRequested:
		log.Info().Msg("stopping service")
		if err := stop(); err != nil {
			return fmt.Errorf("error stopping service: %w", err)
		}
	case <-done:
		log.Info().Msg("service exited")
	}
	return nil
}

// Start launches a detached copy of the current binary running the
// daemon.
func (s *Service) Start() error {
	if s.Running() {
		return ErrServiceRunning
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error getting absolute binary path: %w", err)
	}

	//nolint:gosec // re-executes the current binary
	cmd := exec.Command(exe, s.args...)
	cmd.Env = os.Environ()
	configPath := filepath.Join(ConfigDir(), config.CfgFile)
	if os.Getenv(config.CfgEnv) == "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", config.CfgEnv, configPath))
		}
	}
	cmd.Stdin = nil
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		log.Debug().Err(err).Msg("error releasing service process")
	}
	return nil
}

// Stop sends SIGTERM to the running daemon.
func (s *Service) Stop() error {
	if !s.Running() {
		return ErrServiceNotRunning
	}
	pid, err := s.Pid()
	if err != nil {
		return err
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process: %w", err)
	}
	return nil
}

// Restart stops the daemon, waits up to timeout for it to exit and starts
// a new one.
func (s *Service) Restart(timeout time.Duration) error {
	if s.Running() {
		if err := s.Stop(); err != nil {
			return err
		}
	}

	deadline := time.Now().Add(timeout)
	for s.Running() {
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for service to stop")
		}
		time.Sleep(250 * time.Millisecond)
	}
	return s.Start()
}

// Handle runs a -service subcommand and writes status output to out.
func (s *Service) Handle(cmd string, out io.Writer) error {
	switch cmd {
	case "start":
		return s.Start()
	case "stop":
		return s.Stop()
	case "restart":
		return s.Restart(30 * time.Second)
	case "status":
		if s.Running() {
			_, _ = fmt.Fprintln(out, "started")
			return nil
		}
		_, _ = fmt.Fprintln(out, "stopped")
		return ErrServiceNotRunning
	default:
		return fmt.Errorf("unknown service argument: %s", cmd)
	}
}
