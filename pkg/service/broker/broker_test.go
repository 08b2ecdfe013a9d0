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

package broker

import (
	"context"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-launch/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
		return models.Notification{}
	}
}

func TestBroker_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroker(make(chan models.Notification))

	_, id := b.Subscribe(10)
	ch2, id2 := b.Subscribe(20)
	assert.Equal(t, 0, id)
	assert.Equal(t, 1, id2)
	assert.Len(t, b.subscribers, 2)

	b.Unsubscribe(id2)
	_, ok := <-ch2
	assert.False(t, ok, "channel should be closed")
	assert.Len(t, b.subscribers, 1)

	// unsubscribing twice is a no-op
	b.Unsubscribe(id2)
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification, 10)
	b := NewBroker(source)
	sub1, _ := b.Subscribe(10)
	sub2, _ := b.Subscribe(10)
	b.Start(ctx)

	source <- models.Notification{Method: models.NotificationSettingsChanged, Params: []byte(`{"scope":"default"}`)}

	assert.Equal(t, models.NotificationSettingsChanged, receive(t, sub1).Method)
	assert.Equal(t, models.NotificationSettingsChanged, receive(t, sub2).Method)
}

func TestBroker_MethodFilter(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification, 10)
	b := NewBroker(source)
	progressOnly, _ := b.Subscribe(10, models.NotificationOperationProgress)
	all, _ := b.Subscribe(10)
	b.Start(ctx)

	source <- models.Notification{Method: models.NotificationOperationPhase}
	source <- models.Notification{Method: models.NotificationOperationProgress}

	assert.Equal(t, models.NotificationOperationPhase, receive(t, all).Method)
	assert.Equal(t, models.NotificationOperationProgress, receive(t, all).Method)
	assert.Equal(t, models.NotificationOperationProgress, receive(t, progressOnly).Method)
	assert.Empty(t, progressOnly)
}

func TestBroker_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := make(chan models.Notification)
	b := NewBroker(source)
	slow, _ := b.Subscribe(2)
	fast, _ := b.Subscribe(20)
	b.Start(ctx)

	for range 10 {
		select {
		case source <- models.Notification{Method: "test.event"}:
		case <-time.After(time.Second):
			t.Fatal("broker blocked on a full subscriber")
		}
	}

	for range 10 {
		receive(t, fast)
	}
	assert.Len(t, slow, 2)
}

func TestBroker_ContextCancellationClosesSubscribers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroker(make(chan models.Notification))
	sub, _ := b.Subscribe(10)
	b.Start(ctx)

	cancel()
	<-b.Done()

	_, ok := <-sub
	assert.False(t, ok, "subscriber channel should be closed")

	late, id := b.Subscribe(1)
	assert.Equal(t, -1, id)
	_, ok = <-late
	assert.False(t, ok)
}

func TestBroker_SourceCloseStopsBroker(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := NewBroker(source)
	sub, _ := b.Subscribe(1)
	b.Start(context.Background())

	close(source)
	<-b.Done()

	_, ok := <-sub
	assert.False(t, ok)
}
