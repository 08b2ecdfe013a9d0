//go:build linux || darwin

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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-launch/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-launch/pkg/cli"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-launch/pkg/service"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(nil)
	if exit, err := flags.Pre(os.Args[1:], os.Stdout); exit {
		return err
	}

	if os.Geteuid() == 0 {
		return errors.New("launchcore cannot be run as root")
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}
	cfg := cli.Setup(config.BaseDefaults, logWriters)
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			telemetry.Flush()
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	svc, err := helpers.NewService(helpers.ServiceArgs{
		Args: []string{"-daemon"},
		Entry: func() (func() error, <-chan struct{}, error) {
			return service.Start(cfg, service.Options{Offline: *flags.Offline})
		},
	})
	if err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}

	if *flags.Service != "" {
		return svc.Handle(*flags.Service, os.Stdout)
	}

	handled, err := flags.Post(sigCtx, client.NewLocalClient(cfg), os.Stdout)
	if handled {
		return err
	}

	if !*flags.Daemon {
		if svc.Running() {
			_, _ = fmt.Fprintln(os.Stdout, "service is running")
			return nil
		}
		return errors.New("no action given, use -daemon to run the service or -help for usage")
	}

	log.Info().Msg("started in daemon mode")
	if err := svc.Run(sigCtx.Done()); err != nil {
		log.Error().Err(err).Msg("service error")
		return err
	}
	return nil
}
