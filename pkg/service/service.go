/*
Zaparoo Launch
Copyright (c) 2026 The Zaparoo Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

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

// Package service wires the launcher core together and runs it as a
// daemon.
package service

import (
	"context"
	"fmt"
	"net"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-launch/pkg/backends"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config/migrate"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-launch/pkg/launch"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/netcheck"
	"github.com/ZaparooProject/zaparoo-launch/pkg/orchestrator"
	"github.com/ZaparooProject/zaparoo-launch/pkg/process"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/ZaparooProject/zaparoo-launch/pkg/shared/httpclient"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// notificationBuffer sizes the queue between producers and the broker.
const notificationBuffer = 256

type Options struct {
	Fs    afero.Fs
	Exec  command.Executor
	Clock clockwork.Clock
	// Registry receives the metrics. Nil creates one with the Go and
	// process collectors.
	Registry *prometheus.Registry
	// Listener overrides the API listener, mostly for tests.
	Listener net.Listener
	Home     string
	// Offline makes every reachability check report offline.
	Offline bool
	// NoAPI skips the HTTP server.
	NoAPI bool
}

// Components are the long lived parts of a running service.
type Components struct {
	Store        *settings.Store
	Catalog      *runtimes.Catalog
	Library      *library.Library
	Network      *netcheck.Checker
	Broker       *broker.Broker
	Orchestrator *orchestrator.Orchestrator
	API          *api.Server
	Registry     *prometheus.Registry
	fs           afero.Fs
	scanner      *runtimes.Scanner
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Build creates every component without starting background work.
//
//nolint:gocritic // options are copied once at construction
func Build(
	ctx context.Context,
	cfg *config.Instance,
	opts Options,
	ns chan models.Notification,
) (*Components, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Exec == nil {
		opts.Exec = &command.RealExecutor{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Registry == nil {
		opts.Registry = newRegistry()
	}
	if opts.Home == "" {
		opts.Home = helpers.HomeDir()
	}

	scanner := runtimes.NewScanner(opts.Fs, opts.Exec, runtimes.ScannerOptions{
		Home:     opts.Home,
		ToolsDir: cfg.ToolsDir(),
	})
	catalog := runtimes.NewCatalog(scanner, opts.Clock)
	catalog.OnChange(func(list []runtimes.Installation) {
		notifications.RuntimesChanged(ns, list)
	})

	store := settings.NewStore(opts.Fs, cfg.SettingsDir(), settings.WithDefaultWine(func() settings.WineVersion {
		inst, ok := catalog.Default()
		if !ok {
			return settings.WineVersion{}
		}
		return inst.WineVersion()
	}))

	lib := library.New(opts.Fs, cfg.StoreCacheDir(), cfg.LegendaryConfigDir())

	checker := netcheck.New(httpclient.NewClient().Client, opts.Clock, netcheck.Options{
		ProbeURL:      cfg.ProbeURL(),
		EpicStatusURL: cfg.EpicStatusURL(),
		TTL:           cfg.NetworkCacheTTL(),
	})
	checker.SetOffline(opts.Offline)

	runner := process.NewRunner(opts.Exec, opts.Fs, process.NewRegistry(), opts.Clock)
	preparer := launch.NewPreparer(opts.Fs, runner, launch.PreparerOptions{Home: opts.Home})

	set := backends.NewSet(
		backends.NewLegendary(cfg.LegendaryBin()),
		backends.NewGOGDL(cfg.GOGDLBin(), cfg.GOGAuthConfig()),
		backends.NewSideload(),
	)

	orch := orchestrator.New(orchestrator.Deps{
		Settings:      store,
		Library:       lib,
		Network:       checker,
		Backends:      set,
		Preparer:      preparer,
		Runner:        runner,
		Catalog:       catalog,
		Metrics:       orchestrator.NewMetrics(opts.Registry),
		Notifications: ns,
		Fs:            opts.Fs,
		Clock:         opts.Clock,
		LogsDir:       cfg.LogsDir(),
	})

	c := &Components{
		Store:        store,
		Catalog:      catalog,
		Library:      lib,
		Network:      checker,
		Broker:       broker.NewBroker(ns),
		Orchestrator: orch,
		Registry:     opts.Registry,
		fs:           opts.Fs,
		scanner:      scanner,
	}
	c.API = api.NewServer(ctx, api.Deps{
		Operations: orch,
		Runtimes:   catalog,
		Games:      lib,
		Broker:     c.Broker,
		Gatherer:   opts.Registry,
		Config:     cfg,
		Clock:      opts.Clock,
	})
	return c, nil
}

// load runs the startup scans. Failures are logged; the service still
// starts with whatever could be read.
func (c *Components) load(ctx context.Context, cfg *config.Instance) {
	if _, err := c.Catalog.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial runtime scan failed")
	}
	if err := c.Catalog.Watch(ctx, c.scanner.WatchDirs()); err != nil {
		log.Warn().Err(err).Msg("runtime directories won't be watched")
	}

	iniPath := filepath.Join(cfg.LegendaryConfigDir(), migrate.LegendaryConfigFile)
	res, err := migrate.LegendaryINI(c.fs, iniPath, c.Store)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("failed to import legendary settings")
	case len(res.Imported) > 0:
		log.Info().Strs("games", res.Imported).Msg("imported legendary game settings")
	}

	if err := c.Library.Reload(); err != nil {
		log.Warn().Err(err).Msg("failed to load game library")
	}
}

// Start builds and runs the service. stop cancels everything and waits
// for cleanup; done is closed once cleanup has finished.
//
//nolint:gocritic // options are copied once at construction
func Start(
	cfg *config.Instance,
	opts Options,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	ctx, cancel := context.WithCancel(context.Background())
	ns := make(chan models.Notification, notificationBuffer)

	c, err := Build(ctx, cfg, opts, ns)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	c.Broker.Start(ctx)

	c.load(ctx, cfg)

	apiDone := make(chan struct{})
	if opts.NoAPI {
		close(apiDone)
	} else {
		ln := opts.Listener
		if ln == nil {
			ln, err = c.API.Listen()
			if err != nil {
				cancel()
				<-c.Broker.Done()
				return nil, nil, fmt.Errorf("failed to start api: %w", err)
			}
		}
		go func() {
			defer close(apiDone)
			if serveErr := c.API.Serve(ln); serveErr != nil {
				log.Error().Err(serveErr).Msg("api server stopped")
			}
		}()
	}
	log.Info().Msg("service fully initialized")

	doneCh := make(chan struct{})
	go func() {
		<-ctx.Done()
		log.Info().Msg("service context cancelled, running cleanup")

		if shutdownErr := c.Orchestrator.Shutdown(); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("error stopping running games")
		}
		<-apiDone
		<-c.Broker.Done()

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		cancel()
		<-doneCh
		return nil
	}
	return stop, doneCh, nil
}
