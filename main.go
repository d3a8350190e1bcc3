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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/filemate-ai/filemate/pkg/app"
	"github.com/filemate-ai/filemate/pkg/flag"
	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/util/safego"
	"github.com/filemate-ai/filemate/pkg/watch"
	"github.com/filemate-ai/filemate/pkg/web"
	"github.com/filemate-ai/filemate/pkg/web/controller"
)

// main initializes and starts the FileMate server.
func main() {
	flag.InitFlags()

	log.SetLevel(flag.ServerLogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	safego.InitPanicLogger(ctx)

	dispatcher, policy, err := app.New(app.Config{
		Home:               flag.HomeDirectory,
		WorkDir:            flag.WorkingDirectory,
		CloudConvertAPIKey: flag.CloudConvertAPIKey,
		SofficeBinary:      flag.SofficeBinary,
		ConvertTimeout:     flag.ConvertTimeout,
	})
	if err != nil {
		log.Error("failed to initialize file manager: %v", err)
		os.Exit(1)
	}

	var watcher *watch.Watcher
	if flag.WatchEnabled {
		watcher, err = watch.New(dispatcher.BaseDir(), policy)
		if err != nil {
			log.Error("failed to start folder watcher: %v", err)
			os.Exit(1)
		}
		defer watcher.Close()
		watcher.Start()
	}
	controller.InitFileManager(dispatcher, watcher)

	engine := web.NewRouter(flag.ServerAccessToken)
	addr := fmt.Sprintf(":%d", flag.ServerPort)
	server := &http.Server{Addr: addr, Handler: engine}

	safego.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), flag.ApiGracefulShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed: %v", err)
		}
	})

	log.Info("filemate listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to start filemate server: %v", err)
	}
}
