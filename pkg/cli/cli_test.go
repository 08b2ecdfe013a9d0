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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	f := SetupFlags(flag.NewFlagSet("launchcore", flag.ContinueOnError))
	exit, err := f.Pre(args, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	return f
}

// daemon fakes the REST routes the flags use and broadcasts a phase
// notification whenever an operation is queued.
type daemon struct {
	ws        *melody.Melody
	requests  chan *http.Request
	connected chan struct{}
	phase     string
}

func newDaemon(t *testing.T, phase string) (*daemon, *client.Client) {
	t.Helper()
	d := &daemon{
		ws:        melody.New(),
		requests:  make(chan *http.Request, 8),
		connected: make(chan struct{}, 1),
		phase:     phase,
	}
	d.ws.HandleConnect(func(*melody.Session) {
		select {
		case d.connected <- struct{}{}:
		default:
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ws", func(w http.ResponseWriter, r *http.Request) {
		_ = d.ws.HandleRequest(w, r)
	})
	mux.HandleFunc("GET /api/v1/settings/{scope}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.SettingsResponse{
			Scope:  r.PathValue("scope"),
			Values: map[string]any{"language": "en"},
		})
	})
	mux.HandleFunc("POST /api/v1/games/{app}/stop", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(models.StopResponse{Stopped: 1})
	})
	mux.HandleFunc("POST /api/v1/games/{app}/{kind}", func(w http.ResponseWriter, r *http.Request) {
		d.requests <- r.Clone(context.Background())
		w.WriteHeader(http.StatusAccepted)

		params, _ := json.Marshal(models.OperationPhaseParams{
			AppName: r.PathValue("app"),
			Kind:    r.PathValue("kind"),
			Phase:   d.phase,
			Reason:  "disk_space",
			Message: "Not enough disk space.",
		})
		data, _ := json.Marshal(models.Notification{Method: models.NotificationOperationPhase, Params: params})
		go func() {
			select {
			case <-d.connected:
				_ = d.ws.Broadcast(data)
			case <-time.After(2 * time.Second):
			}
		}()
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	t.Cleanup(func() { _ = d.ws.Close() })

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return d, client.New(u.Host)
}

func TestPre_Version(t *testing.T) {
	t.Parallel()
	f := SetupFlags(flag.NewFlagSet("launchcore", flag.ContinueOnError))

	var out bytes.Buffer
	exit, err := f.Pre([]string{"-version"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "launchcore v")
}

func TestPost_NoClientFlag(t *testing.T) {
	t.Parallel()
	f := newFlags(t, "-daemon")

	handled, err := f.Post(context.Background(), client.New("127.0.0.1:1"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestPost_Settings(t *testing.T) {
	t.Parallel()
	_, c := newDaemon(t, "succeeded")
	f := newFlags(t, "-settings", "Sugar")

	var out bytes.Buffer
	handled, err := f.Post(context.Background(), c, &out)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, out.String(), `"scope": "Sugar"`)
}

func TestPost_Stop(t *testing.T) {
	t.Parallel()
	_, c := newDaemon(t, "succeeded")
	f := newFlags(t, "-stop", "Sugar")

	var out bytes.Buffer
	_, err := f.Post(context.Background(), c, &out)
	require.NoError(t, err)
	assert.Equal(t, "stopped 1 operation(s)\n", out.String())
}

func TestPost_InstallSendsOptions(t *testing.T) {
	t.Parallel()
	d, c := newDaemon(t, "succeeded")
	f := newFlags(t, "-install", "Sugar", "-path", "/games", "-workers", "4", "-dlcs")

	var out bytes.Buffer
	handled, err := f.Post(context.Background(), c, &out)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "install of Sugar started\n", out.String())

	r := <-d.requests
	assert.Equal(t, "/api/v1/games/Sugar/install", r.URL.Path)
}

func TestPost_RequiresAppName(t *testing.T) {
	t.Parallel()
	f := newFlags(t, "-repair", "")

	handled, err := f.Post(context.Background(), client.New("127.0.0.1:1"), &bytes.Buffer{})
	assert.True(t, handled)
	assert.EqualError(t, err, "repair flag requires a value")
}

func TestPost_WaitSucceeded(t *testing.T) {
	t.Parallel()
	_, c := newDaemon(t, "succeeded")
	f := newFlags(t, "-wait", "-launch", "Sugar", "--", "-skipintro")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	_, err := f.Post(ctx, c, &out)
	require.NoError(t, err)
	assert.Equal(t, "launch of Sugar succeeded\n", out.String())
}

func TestPost_WaitFailed(t *testing.T) {
	t.Parallel()
	_, c := newDaemon(t, "failed")
	f := newFlags(t, "-wait", "-update", "Sugar")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	_, err := f.Post(ctx, c, &out)
	require.ErrorIs(t, err, ErrOperationFailed)
	assert.Contains(t, err.Error(), "disk_space")
	assert.Contains(t, out.String(), "Not enough disk space.")
}
