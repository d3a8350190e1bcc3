// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/web/model"
)

func newEventServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/events", func(ctx *gin.Context) {
		NewEventController(ctx).StreamEvents()
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func readStreamEvent(t *testing.T, conn *websocket.Conn) model.StreamEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event model.StreamEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestStreamEvents(t *testing.T) {
	_, base := setupFileManager(t, true)
	srv := newEventServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readStreamEvent(t, conn)
	assert.Equal(t, model.StreamEventTypeInit, first.Type)
	assert.Equal(t, base, first.Text)

	target := filepath.Join(base, "nuevo.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	for {
		event := readStreamEvent(t, conn)
		if event.Type != model.StreamEventTypeChange {
			continue
		}
		require.NotNil(t, event.Change)
		if event.Change.Path == target && event.Change.Operation == "create" {
			break
		}
	}
}

func TestStreamEventsWithoutWatcher(t *testing.T) {
	setupFileManager(t, false)
	srv := newEventServer(t)

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
