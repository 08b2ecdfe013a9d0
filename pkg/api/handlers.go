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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-launch/pkg/backends"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/orchestrator"
	"github.com/ZaparooProject/zaparoo-launch/pkg/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxBodySize caps request bodies; settings documents are the largest.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg, Reason: reason})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Join(validation.ErrInvalidBody, err)
	}
	return body, nil
}

// appName pulls the app name out of the route and validates it.
func appName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "appName")
	if err := validation.DefaultValidator.ValidateVar(name, "appname"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid app name", "")
		return "", false
	}
	return name, true
}

func operationKind(s string) (orchestrator.Kind, bool) {
	switch kind := orchestrator.Kind(s); kind {
	case orchestrator.KindInstall, orchestrator.KindUpdate,
		orchestrator.KindRepair, orchestrator.KindImport:
		return kind, true
	default:
		return "", false
	}
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.VersionResponse{Version: config.AppVersion})
}

func settingsStatus(err error) (status int, reason string) {
	switch {
	case errors.Is(err, settings.ErrInvalidScope), errors.Is(err, settings.ErrInvalidSettings):
		return http.StatusBadRequest, ""
	case errors.Is(err, settings.ErrConfigCorrupt):
		return http.StatusInternalServerError, string(orchestrator.ReasonConfigCorrupt)
	default:
		return http.StatusInternalServerError, ""
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	eff, err := s.deps.Operations.EffectiveSettings(scope)
	if err != nil {
		status, reason := settingsStatus(err)
		writeError(w, status, err.Error(), reason)
		return
	}
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		Values:   eff.Values,
		Scope:    scope,
		Version:  string(eff.Version),
		Explicit: eff.Explicit,
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	if err := validation.DefaultValidator.ValidateVar(scope, "appname"); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings scope", "")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	var values map[string]any
	if err := json.Unmarshal(body, &values); err != nil || values == nil {
		writeError(w, http.StatusBadRequest, validation.ErrInvalidBody.Error(), "")
		return
	}

	if err := s.deps.Operations.WriteSettings(scope, values); err != nil {
		status, reason := settingsStatus(err)
		writeError(w, status, err.Error(), reason)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Games.Games())
}

func (s *Server) handleReloadGames(w http.ResponseWriter, _ *http.Request) {
	if err := s.deps.Games.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Games.Games())
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	name, ok := appName(w, r)
	if !ok {
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	var req models.LaunchRequest
	if err := validation.DecodeAndValidate(body, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	if !s.reserve(name, orchestrator.KindLaunch) {
		writeError(w, http.StatusConflict, "game is already running", "")
		return
	}
	s.run(name, orchestrator.KindLaunch, func(ctx context.Context) orchestrator.Outcome {
		return s.deps.Operations.Launch(ctx, name, req.ExtraArgs)
	})
	writeJSON(w, http.StatusAccepted, models.AcceptedResponse{
		AppName: name,
		Kind:    string(orchestrator.KindLaunch),
	})
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	name, ok := appName(w, r)
	if !ok {
		return
	}
	kind, ok := operationKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown operation", "")
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	var req models.OperationRequest
	if err := validation.DecodeAndValidate(body, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	opts := backends.Options{
		Path:       req.Path,
		Platform:   req.Platform,
		Language:   req.Language,
		MaxWorkers: req.MaxWorkers,
		WithDLCs:   req.WithDLCs,
	}

	var fn func(context.Context, string, backends.Options) orchestrator.Outcome
	switch kind {
	case orchestrator.KindInstall:
		fn = s.deps.Operations.Install
	case orchestrator.KindUpdate:
		fn = s.deps.Operations.Update
	case orchestrator.KindRepair:
		fn = s.deps.Operations.Repair
	default:
		fn = s.deps.Operations.Import
	}

	if !s.reserve(name, kind) {
		writeError(w, http.StatusConflict, "operation already in progress", "")
		return
	}
	s.run(name, kind, func(ctx context.Context) orchestrator.Outcome {
		return fn(ctx, name, opts)
	})
	writeJSON(w, http.StatusAccepted, models.AcceptedResponse{AppName: name, Kind: string(kind)})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	name, ok := appName(w, r)
	if !ok {
		return
	}
	kind, ok := operationKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown operation", "")
		return
	}

	p, ok := s.deps.Operations.GetProgress(name, kind)
	if !ok {
		writeError(w, http.StatusNotFound, "no progress", "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	name, ok := appName(w, r)
	if !ok {
		return
	}
	n := s.deps.Operations.Stop(r.Context(), name)
	writeJSON(w, http.StatusOK, models.StopResponse{Stopped: n})
}

func (s *Server) handleOperations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Operations.Active())
}

func (s *Server) handleRuntimes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Runtimes.List())
}

func (s *Server) handleRefreshRuntimes(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Runtimes.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
