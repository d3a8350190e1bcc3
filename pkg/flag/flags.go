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

package flag

import "time"

var (
	// WorkingDirectory is the base directory relative paths resolve against.
	WorkingDirectory string

	// HomeDirectory is the allowed root; nothing outside it is ever touched.
	HomeDirectory string

	// ServerPort controls the HTTP listener port.
	ServerPort int

	// ServerLogLevel controls the server log verbosity.
	ServerLogLevel int

	// ServerAccessToken guards API entrypoints when set.
	ServerAccessToken string

	// CloudConvertAPIKey enables PDF to Word conversion.
	CloudConvertAPIKey string

	// ConvertTimeout bounds every call to an external converter.
	ConvertTimeout time.Duration

	// SofficeBinary is the LibreOffice executable used for Word to PDF.
	SofficeBinary string

	// WatchEnabled starts the folder watcher behind /events.
	WatchEnabled bool

	// ApiGracefulShutdownTimeout bounds the HTTP server shutdown.
	ApiGracefulShutdownTimeout time.Duration
)
