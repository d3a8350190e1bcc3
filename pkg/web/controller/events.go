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
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/util/safego"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

const (
	eventPingInterval = 30 * time.Second
	eventWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// EventController streams folder watcher events over a websocket.
type EventController struct {
	*basicController
}

func NewEventController(ctx *gin.Context) *EventController {
	return &EventController{basicController: newBasicController(ctx)}
}

// StreamEvents upgrades the request and forwards every change below the
// working directory until either side goes away.
func (c *EventController) StreamEvents() {
	if watcher == nil {
		c.RespondError(
			http.StatusServiceUnavailable,
			model.ErrorCodeUnavailable,
			"folder watcher is disabled",
		)
		return
	}

	conn, err := upgrader.Upgrade(c.ctx.Writer, c.ctx.Request, nil)
	if err != nil {
		log.Error("StreamEvents: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := watcher.Subscribe()
	defer cancel()

	// the read loop only notices the client going away
	gone := make(chan struct{})
	safego.Go(func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	if !writeStreamEvent(conn, model.StreamEvent{Type: model.StreamEventTypeInit, Text: watcher.Root()}) {
		return
	}

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-c.ctx.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				writeStreamEvent(conn, model.StreamEvent{Type: model.StreamEventTypeError, Text: "watcher stopped"})
				return
			}
			if !writeStreamEvent(conn, model.StreamEvent{Type: model.StreamEventTypeChange, Change: &ev}) {
				return
			}
		case <-ticker.C:
			if !writeStreamEvent(conn, model.StreamEvent{Type: model.StreamEventTypePing, Text: "pong"}) {
				return
			}
		}
	}
}

func writeStreamEvent(conn *websocket.Conn, event model.StreamEvent) bool {
	event.Timestamp = time.Now().UnixMilli()
	_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, event.ToJSON()); err != nil {
		log.Warn("StreamEvents: write %s event failed: %v", event.Type, err)
		return false
	}
	return true
}
