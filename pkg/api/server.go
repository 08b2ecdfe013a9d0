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

// Package api serves the local HTTP API and pushes notifications to
// WebSocket clients.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-launch/pkg/backends"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/helpers/syncutil"
	"github.com/ZaparooProject/zaparoo-launch/pkg/library"
	"github.com/ZaparooProject/zaparoo-launch/pkg/orchestrator"
	"github.com/ZaparooProject/zaparoo-launch/pkg/progress"
	"github.com/ZaparooProject/zaparoo-launch/pkg/runtimes"
	"github.com/ZaparooProject/zaparoo-launch/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	notifyBufferSize  = 64
)

// Operations is the part of the orchestrator the API drives.
type Operations interface {
	Launch(ctx context.Context, appName string, extraArgs []string) orchestrator.Outcome
	Install(ctx context.Context, appName string, opts backends.Options) orchestrator.Outcome
	Update(ctx context.Context, appName string, opts backends.Options) orchestrator.Outcome
	Repair(ctx context.Context, appName string, opts backends.Options) orchestrator.Outcome
	Import(ctx context.Context, appName string, opts backends.Options) orchestrator.Outcome
	Stop(ctx context.Context, appName string) int
	GetProgress(appName string, kind orchestrator.Kind) (progress.Progress, bool)
	Active() []orchestrator.OperationInfo
	EffectiveSettings(appName string) (settings.EffectiveSettings, error)
	WriteSettings(scope string, values map[string]any) error
}

type Runtimes interface {
	List() []runtimes.Installation
	Refresh(ctx context.Context) ([]runtimes.Installation, error)
}

type Games interface {
	Games() []library.Game
	Reload() error
}

type Deps struct {
	Operations Operations
	Runtimes   Runtimes
	Games      Games
	// Broker is optional; without it the WebSocket endpoint only answers
	// pings.
	Broker   *broker.Broker
	Gatherer prometheus.Gatherer
	Config   *config.Instance
	Clock    clockwork.Clock
}

type inflightKey struct {
	appName string
	kind    orchestrator.Kind
}

// Server owns the router and every operation started through it.
type Server struct {
	ctx      context.Context
	deps     Deps
	limiter  *middleware.IPRateLimiter
	filter   *middleware.IPFilter
	ws       *melody.Melody
	inflight map[inflightKey]struct{}
	wg       sync.WaitGroup
	mu       syncutil.Mutex
}

// NewServer creates a server. Operations started through the API run on
// ctx and are cancelled with it.
//
//nolint:gocritic // deps are copied once at construction
func NewServer(ctx context.Context, deps Deps) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	var allowed []string
	if deps.Config != nil {
		allowed = deps.Config.AllowedIPs()
	}

	s := &Server{
		ctx:      ctx,
		deps:     deps,
		limiter:  middleware.NewIPRateLimiter(deps.Clock),
		filter:   middleware.NewIPFilter(allowed),
		ws:       melody.New(),
		inflight: make(map[inflightKey]struct{}),
	}
	s.ws.HandleMessage(handleWSMessage)
	return s
}

func (s *Server) allowedOrigins() []string {
	if s.deps.Config == nil {
		return []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	return s.deps.Config.AllowedOrigins()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPIPFilterMiddleware(s.filter))
	r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/api/v1/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.NoCache)
		r.Use(chimiddleware.Timeout(config.APIRequestTimeout))

		r.Get("/version", s.handleVersion)

		r.Get("/settings/{scope}", s.handleGetSettings)
		r.Put("/settings/{scope}", s.handlePutSettings)

		r.Get("/games", s.handleGames)
		r.Post("/games/reload", s.handleReloadGames)
		r.Post("/games/{appName}/launch", s.handleLaunch)
		r.Post("/games/{appName}/stop", s.handleStop)
		r.Post("/games/{appName}/{kind}", s.handleOperation)
		r.Get("/games/{appName}/progress/{kind}", s.handleProgress)

		r.Get("/operations", s.handleOperations)

		r.Get("/runtimes", s.handleRuntimes)
		r.Post("/runtimes/refresh", s.handleRefreshRuntimes)
	})

	return r
}

// reserve marks an operation of kind for appName as in flight. It returns
// false if one is already running.
func (s *Server) reserve(appName string, kind orchestrator.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inflightKey{appName: appName, kind: kind}
	if _, ok := s.inflight[key]; ok {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Server) release(appName string, kind orchestrator.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, inflightKey{appName: appName, kind: kind})
}

// run starts fn on the server context. The reservation is dropped when fn
// returns.
func (s *Server) run(appName string, kind orchestrator.Kind, fn func(ctx context.Context) orchestrator.Outcome) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(appName, kind)

		out := fn(s.ctx)
		ev := log.Info()
		if !out.Success() {
			ev = log.Warn()
		}
		ev.Str("app", appName).
			Str("kind", string(kind)).
			Str("phase", string(out.Phase)).
			Str("reason", string(out.Reason)).
			Msg("operation finished")
	}()
}

// Wait blocks until every operation started through the API has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) broadcastNotifications(ctx context.Context) {
	if s.deps.Broker == nil {
		return
	}

	notifs, id := s.deps.Broker.Subscribe(notifyBufferSize)
	defer s.deps.Broker.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifs:
			if !ok {
				return
			}
			data, err := json.Marshal(notif)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := s.ws.Broadcast(data); err != nil {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// handleWSMessage answers heartbeats. Everything else goes through the
// REST routes.
func handleWSMessage(session *melody.Session, msg []byte) {
	if !bytes.Equal(msg, []byte("ping")) {
		return
	}
	if err := session.Write([]byte("pong")); err != nil {
		log.Error().Err(err).Msg("sending pong")
	}
}

// Listen binds the configured port. Without an allow list the API is only
// reachable from loopback.
func (s *Server) Listen() (net.Listener, error) {
	port := config.DefaultAPIPort
	host := "127.0.0.1"
	if s.deps.Config != nil {
		port = s.deps.Config.APIPort()
		if len(s.deps.Config.AllowedIPs()) > 0 {
			host = ""
		}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var lc net.ListenConfig
	ln, err := lc.Listen(s.ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve handles requests on ln until the server context is done, then
// shuts down and waits for running operations.
func (s *Server) Serve(ln net.Listener) error {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	s.limiter.StartCleanup(ctx)

	var bg sync.WaitGroup
	bg.Add(1)
	go func() {
		defer bg.Done()
		s.broadcastNotifications(ctx)
	}()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	bg.Add(1)
	go func() {
		defer bg.Done()
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown")
		}
		if err := s.ws.Close(); err != nil {
			log.Debug().Err(err).Msg("closing websocket sessions")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
	err := srv.Serve(ln)
	cancel()
	bg.Wait()
	s.Wait()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
