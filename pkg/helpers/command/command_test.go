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
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Output(t *testing.T) {
	t.Parallel()

	executor := &RealExecutor{}

	t.Run("returns_stdout", func(t *testing.T) {
		t.Parallel()

		out, err := executor.Output(context.Background(), "echo", "wine-9.0")

		require.NoError(t, err)
		assert.Equal(t, "wine-9.0\n", string(out))
	})

	t.Run("returns_error_for_nonexistent_command", func(t *testing.T) {
		t.Parallel()

		_, err := executor.Output(context.Background(), "nonexistent_command_that_should_not_exist_12345")

		require.Error(t, err)
	})
}

// collect drains both pipes while waiting, which the Process contract
// requires since the pipes only close once Wait returns.
func collect(t *testing.T, proc Process) (stdout, stderr string, status ExitStatus) {
	t.Helper()

	var outBuf, errBuf []byte
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outBuf, _ = io.ReadAll(proc.Stdout())
	}()
	go func() {
		defer wg.Done()
		errBuf, _ = io.ReadAll(proc.Stderr())
	}()

	status, err := proc.Wait()
	require.NoError(t, err)
	wg.Wait()
	return string(outBuf), string(errBuf), status
}

func TestRealExecutor_Spawn(t *testing.T) {
	t.Parallel()

	executor := &RealExecutor{}

	t.Run("captures_both_streams", func(t *testing.T) {
		t.Parallel()

		proc, err := executor.Spawn(context.Background(), Cmd{
			Name: "sh",
			Args: []string{"-c", "echo out; echo err >&2"},
		})
		require.NoError(t, err)

		stdout, stderr, status := collect(t, proc)

		assert.Equal(t, "out\n", stdout)
		assert.Equal(t, "err\n", stderr)
		assert.Equal(t, 0, status.Code)
		assert.False(t, status.Signaled())
	})

	t.Run("non_zero_exit_is_not_an_error", func(t *testing.T) {
		t.Parallel()

		proc, err := executor.Spawn(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "exit 3"}})
		require.NoError(t, err)

		_, _, status := collect(t, proc)
		assert.Equal(t, 3, status.Code)
	})

	t.Run("kill_reports_signal", func(t *testing.T) {
		t.Parallel()

		proc, err := executor.Spawn(context.Background(), Cmd{Name: "sleep", Args: []string{"30"}})
		require.NoError(t, err)

		go func() { _, _ = io.Copy(io.Discard, proc.Stderr()) }()
		go func() { _, _ = io.Copy(io.Discard, proc.Stdout()) }()

		require.NoError(t, proc.Kill())

		waitDone := make(chan ExitStatus, 1)
		go func() {
			status, _ := proc.Wait()
			waitDone <- status
		}()

		select {
		case status := <-waitDone:
			assert.True(t, status.Signaled())
			assert.Equal(t, "killed", status.Signal)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for killed process")
		}

		// killing again after exit is tolerated
		assert.NoError(t, proc.Kill())
	})

	t.Run("env_is_passed_through", func(t *testing.T) {
		t.Parallel()

		proc, err := executor.Spawn(context.Background(), Cmd{
			Name: "sh",
			Args: []string{"-c", "echo $WINEPREFIX"},
			Env:  []string{"WINEPREFIX=/tmp/prefix"},
		})
		require.NoError(t, err)

		out, _, _ := collect(t, proc)
		assert.Equal(t, "/tmp/prefix\n", out)
	})

	t.Run("returns_error_for_nonexistent_command", func(t *testing.T) {
		t.Parallel()

		_, err := executor.Spawn(context.Background(), Cmd{Name: "nonexistent_command_that_should_not_exist_12345"})

		require.Error(t, err)
	})
}

func TestExecutor_Interface(t *testing.T) {
	t.Parallel()

	var _ Executor = (*RealExecutor)(nil)
}
