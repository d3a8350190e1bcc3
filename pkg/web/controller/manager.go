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
	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/watch"
)

var (
	dispatcher *dispatch.Dispatcher
	watcher    *watch.Watcher
)

// InitFileManager wires the controllers to the operation dispatcher and,
// when folder watching is enabled, to the watcher. w may be nil.
func InitFileManager(d *dispatch.Dispatcher, w *watch.Watcher) {
	dispatcher = d
	watcher = w
}
