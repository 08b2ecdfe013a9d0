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

// Package netcheck answers whether the network and the store services are
// reachable. Results are cached so a burst of launches makes one request.
package netcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// statusComponent is an entry of a Statuspage components.json.
type statusComponent struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

const statusMajorOutage = "major_outage"

// epicComponents are the status page components a launch depends on.
var epicComponents = []string{"Epic Games Store", "Login", "Epic Online Services"}

type cached struct {
	at    time.Time
	value bool
	valid bool
}

type Options struct {
	ProbeURL      string
	EpicStatusURL string
	TTL           time.Duration
}

type Checker struct {
	client    *http.Client
	clock     clockwork.Clock
	opts      Options
	online    cached
	epicDown  cached
	mu        syncutil.Mutex
	forceDown bool
}

func New(client *http.Client, clock clockwork.Clock, opts Options) *Checker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	return &Checker{client: client, clock: clock, opts: opts}
}

// SetOffline forces IsOnline to report false, for users who want to treat
// the machine as offline without pulling the cable.
func (c *Checker) SetOffline(offline bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forceDown = offline
}

func (c *Checker) fresh(v cached) bool {
	return v.valid && c.clock.Since(v.at) < c.opts.TTL
}

// IsOnline reports whether the probe URL answers a HEAD request. Any HTTP
// response counts; only transport errors mean offline.
func (c *Checker) IsOnline(ctx context.Context) bool {
	c.mu.Lock()
	if c.forceDown {
		c.mu.Unlock()
		return false
	}
	if c.fresh(c.online) {
		v := c.online.value
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	online := c.probe(ctx)

	c.mu.Lock()
	c.online = cached{at: c.clock.Now(), value: online, valid: true}
	c.mu.Unlock()
	return online
}

func (c *Checker) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.opts.ProbeURL, http.NoBody)
	if err != nil {
		log.Error().Err(err).Msg("invalid network probe URL")
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("network probe failed")
		return false
	}
	if err := resp.Body.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing probe response body")
	}
	return true
}

// IsBackendServiceDown reports whether the store behind runner has a major
// outage. Only Epic publishes a status page; other runners are never
// reported down. An unreachable status page is not an outage.
func (c *Checker) IsBackendServiceDown(ctx context.Context, runner library.Runner) bool {
	if runner != library.RunnerLegendary || c.opts.EpicStatusURL == "" {
		return false
	}

	c.mu.Lock()
	if c.fresh(c.epicDown) {
		v := c.epicDown.value
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	down, err := c.epicStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check Epic service status")
		return false
	}

	c.mu.Lock()
	c.epicDown = cached{at: c.clock.Now(), value: down, valid: true}
	c.mu.Unlock()
	return down
}

func (c *Checker) epicStatus(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.EpicStatusURL, http.NoBody)
	if err != nil {
		return false, fmt.Errorf("failed to create status request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to get status page: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("error closing status response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status page returned %s", resp.Status)
	}

	var body struct {
		Components []statusComponent `json:"components"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode status page: %w", err)
	}

	for _, comp := range body.Components {
		if comp.Status != statusMajorOutage {
			continue
		}
		for _, name := range epicComponents {
			if strings.EqualFold(comp.Name, name) {
				log.Warn().Msgf("Epic service outage: %s", comp.Name)
				return true, nil
			}
		}
	}
	return false, nil
}
