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

// Package client talks to a running daemon over the local API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-launch/pkg/config"
	"github.com/ZaparooProject/zaparoo-launch/pkg/orchestrator"
	"github.com/ZaparooProject/zaparoo-launch/pkg/shared/httpclient"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const APIPath = "/api/v1"

var ErrRequestCancelled = errors.New("request cancelled")

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Message    string
	Reason     string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	http *http.Client
	base url.URL
}

// NewLocalClient returns a client for the daemon on this machine.
func NewLocalClient(cfg *config.Instance) *Client {
	return New("localhost:" + strconv.Itoa(cfg.APIPort()))
}

// New returns a client for the daemon at host, e.g. "127.0.0.1:7610".
func New(host string) *Client {
	return &Client{
		http: httpclient.NewClientWithTimeout(config.APIRequestTimeout).Client,
		base: url.URL{Scheme: "http", Host: host, Path: APIPath},
	}
}

func (c *Client) url(path string) string {
	u := c.base
	u.Path = c.base.Path + path
	return u.String()
}

// Call sends body as JSON to path and decodes the response into out. A nil
// body sends no payload, a nil out discards the response.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ErrRequestCancelled
		}
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing response body")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
			apiErr.Message = er.Error
			apiErr.Reason = er.Reason
		} else {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var v models.VersionResponse
	if err := c.Call(ctx, http.MethodGet, "/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

func (c *Client) Launch(ctx context.Context, appName string, extraArgs []string) error {
	return c.Call(ctx, http.MethodPost, "/games/"+url.PathEscape(appName)+"/launch",
		models.LaunchRequest{ExtraArgs: extraArgs}, nil)
}

// Start queues an install, update, repair or import.
func (c *Client) Start(ctx context.Context, appName, kind string, req models.OperationRequest) error {
	return c.Call(ctx, http.MethodPost, "/games/"+url.PathEscape(appName)+"/"+kind, req, nil)
}

func (c *Client) Stop(ctx context.Context, appName string) (int, error) {
	var resp models.StopResponse
	if err := c.Call(ctx, http.MethodPost, "/games/"+url.PathEscape(appName)+"/stop", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Stopped, nil
}

func (c *Client) Settings(ctx context.Context, scope string) (models.SettingsResponse, error) {
	var resp models.SettingsResponse
	err := c.Call(ctx, http.MethodGet, "/settings/"+url.PathEscape(scope), nil, &resp)
	return resp, err
}

// WaitPhase blocks until a terminal phase notification arrives for the
// operation of kind on appName. The caller should subscribe before
// queueing the operation, so Subscribe and WaitPhase are split.
func WaitPhase(
	ctx context.Context,
	conn *websocket.Conn,
	appName, kind string,
) (models.OperationPhaseParams, error) {
	stop := context.AfterFunc(ctx, func() {
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("closing websocket")
		}
	})
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return models.OperationPhaseParams{}, ErrRequestCancelled
			}
			return models.OperationPhaseParams{}, fmt.Errorf("failed to read notification: %w", err)
		}

		var n models.Notification
		if err := json.Unmarshal(msg, &n); err != nil || n.Method != models.NotificationOperationPhase {
			continue
		}
		var p models.OperationPhaseParams
		if err := json.Unmarshal(n.Params, &p); err != nil {
			log.Warn().Err(err).Msg("invalid phase notification")
			continue
		}
		if p.AppName != appName || p.Kind != kind {
			continue
		}
		if orchestrator.Phase(p.Phase).Terminal() {
			return p, nil
		}
	}
}

// Subscribe opens the notification WebSocket.
func (c *Client) Subscribe(ctx context.Context) (*websocket.Conn, error) {
	u := c.base
	u.Scheme = "ws"
	u.Path = c.base.Path + "/ws"

	dialer := websocket.Dialer{
		NetDialContext:   (&net.Dialer{}).DialContext,
		HandshakeTimeout: config.APIRequestTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open notification socket: %w", err)
	}
	return conn, nil
}
