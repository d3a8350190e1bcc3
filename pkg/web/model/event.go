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

package model

import (
	"encoding/json"

	"github.com/filemate-ai/filemate/pkg/watch"
)

type StreamEventType string

const (
	StreamEventTypeInit   StreamEventType = "init"
	StreamEventTypeChange StreamEventType = "change"
	StreamEventTypeError  StreamEventType = "error"
	StreamEventTypePing   StreamEventType = "ping"
)

// StreamEvent is emitted to clients of the /events stream.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Text      string          `json:"text,omitempty"`
	Change    *watch.Event    `json:"change,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// ToJSON serializes the event for streaming.
func (s StreamEvent) ToJSON() []byte {
	bytes, _ := json.Marshal(s)
	return bytes
}
