/*
Zaparoo Launch
Copyright (C) 2026 The Zaparoo Project Contributors.

This file is part of Zaparoo Launch.

Zaparoo Launch is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Zaparoo Launch is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Zaparoo Launch.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cli holds the command line flags shared by the launchcore
// binaries and the calls they make to a running daemon.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ZaparooProject/zaparoo-launch/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-launch/pkg/orchestrator"
	"github.com/rs/zerolog/log"
)

// ErrOperationFailed is returned when a waited-for operation didn't
// succeed.
var ErrOperationFailed = errors.New("operation failed")

type Flags struct {
	set        *flag.FlagSet
	Version    *bool
	Daemon     *bool
	Service    *string
	Offline    *bool
	Wait       *bool
	WithDLCs   *bool
	Launch     *string
	Install    *string
	Update     *string
	Repair     *string
	Import     *string
	Stop       *string
	Settings   *string
	Path       *string
	Platform   *string
	MaxWorkers *int
}

// SetupFlags registers the flags on set, or on the global flag set when
// set is nil.
func SetupFlags(set *flag.FlagSet) *Flags {
	if set == nil {
		set = flag.CommandLine
	}
	return &Flags{
		set:      set,
		Version:  set.Bool("version", false, "print version and exit"),
		Daemon:   set.Bool("daemon", false, "run the service in the foreground"),
		Service:  set.String("service", "", "manage the background service: start, stop, restart or status"),
		Offline:  set.Bool("offline", false, "treat the machine as offline"),
		Wait:     set.Bool("wait", false, "wait for the operation to finish and print its outcome"),
		WithDLCs: set.Bool("dlcs", false, "include DLCs when installing"),
		Launch:   set.String("launch", "", "launch a game by app name"),
		Install:  set.String("install", "", "install a game by app name"),
		Update:   set.String("update", "", "update a game by app name"),
		Repair:   set.String("repair", "", "repair a game by app name"),
		Import:   set.String("import", "", "import an existing installation, requires -path"),
		Stop:     set.String("stop", "", "stop every running operation of a game"),
		Settings: set.String("settings", "", "print the effective settings of a scope"),
		Path:     set.String("path", "", "install or import path"),
		Platform: set.String("platform", "", "platform to install for"),
		MaxWorkers: set.Int(
			"workers",
			0,
			"download workers, 0 uses the settings default",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no config.
func (f *Flags) Pre(args []string, out io.Writer) (exit bool, err error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}
	if *f.Version {
		_, _ = fmt.Fprintf(out, "%s v%s (%s)\n", config.AppName, config.AppVersion, runtime.GOOS)
		return true, nil
	}
	return false, nil
}

func (f *Flags) operation() (appName, kind string, ok bool) {
	for _, op := range []struct {
		value *string
		kind  orchestrator.Kind
	}{
		{f.Install, orchestrator.KindInstall},
		{f.Update, orchestrator.KindUpdate},
		{f.Repair, orchestrator.KindRepair},
		{f.Import, orchestrator.KindImport},
	} {
		if f.isFlagPassed(string(op.kind)) {
			return *op.value, string(op.kind), true
		}
	}
	return "", "", false
}

// Post runs the client side flags against the daemon. handled is false
// when no such flag was given.
func (f *Flags) Post(ctx context.Context, c *client.Client, out io.Writer) (handled bool, err error) {
	switch {
	case f.isFlagPassed("settings"):
		resp, err := c.Settings(ctx, *f.Settings)
		if err != nil {
			return true, fmt.Errorf("error reading settings: %w", err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return true, fmt.Errorf("error printing settings: %w", err)
		}
		return true, nil
	case f.isFlagPassed("stop"):
		n, err := c.Stop(ctx, *f.Stop)
		if err != nil {
			return true, fmt.Errorf("error stopping %s: %w", *f.Stop, err)
		}
		_, _ = fmt.Fprintf(out, "stopped %d operation(s)\n", n)
		return true, nil
	case f.isFlagPassed("launch"):
		if *f.Launch == "" {
			return true, errors.New("launch flag requires a value")
		}
		appName := *f.Launch
		return true, f.start(ctx, c, out, appName, string(orchestrator.KindLaunch), func() error {
			return c.Launch(ctx, appName, f.set.Args())
		})
	}

	appName, kind, ok := f.operation()
	if !ok {
		return false, nil
	}
	if appName == "" {
		return true, fmt.Errorf("%s flag requires a value", kind)
	}
	req := models.OperationRequest{
		Path:       *f.Path,
		Platform:   *f.Platform,
		MaxWorkers: *f.MaxWorkers,
		WithDLCs:   *f.WithDLCs,
	}
	return true, f.start(ctx, c, out, appName, kind, func() error {
		return c.Start(ctx, appName, kind, req)
	})
}

// start queues an operation. With -wait the notification socket is opened
// first so the terminal phase can't be missed.
func (f *Flags) start(
	ctx context.Context,
	c *client.Client,
	out io.Writer,
	appName, kind string,
	queue func() error,
) error {
	if !*f.Wait {
		if err := queue(); err != nil {
			return fmt.Errorf("error starting %s: %w", kind, err)
		}
		_, _ = fmt.Fprintf(out, "%s of %s started\n", kind, appName)
		return nil
	}

	conn, err := c.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("error subscribing to notifications: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("closing notification socket")
		}
	}()

	if err := queue(); err != nil {
		return fmt.Errorf("error starting %s: %w", kind, err)
	}

	p, err := client.WaitPhase(ctx, conn, appName, kind)
	if err != nil {
		return fmt.Errorf("error waiting for %s: %w", kind, err)
	}
	if p.Phase != string(orchestrator.PhaseSucceeded) {
		if p.Message != "" {
			_, _ = fmt.Fprintln(out, p.Message)
		}
		return fmt.Errorf("%w: %s %s (%s)", ErrOperationFailed, kind, p.Phase, p.Reason)
	}
	_, _ = fmt.Fprintf(out, "%s of %s succeeded\n", kind, appName)
	return nil
}

// Setup creates the directories, logging, config and error reporting.
// Errors are fatal.
func Setup(defaultConfig config.Values, writers []io.Writer) *config.Instance { //nolint:gocritic // copied once
	err := helpers.InitLogging(helpers.StateDir(), writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	helpers.SetDebugLogging(cfg.DebugLogging())

	if err := telemetry.Init(cfg.ErrorReporting(), telemetry.Options{
		DSN:        cfg.SentryDSN(),
		DeviceID:   cfg.DeviceID(),
		AppVersion: config.AppVersion,
		Platform:   runtime.GOOS,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg
}
