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
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/fileops"
	"github.com/filemate-ai/filemate/pkg/resolver"
	"github.com/filemate-ai/filemate/pkg/security"
	"github.com/filemate-ai/filemate/pkg/watch"
)

// nolint:unused
func newTestContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	ctx.Request = req
	return ctx, w
}

// setupFileManager wires the controllers to a dispatcher over a fresh home
// directory and returns that home and the working directory below it.
func setupFileManager(t *testing.T, withWatcher bool) (string, string) {
	t.Helper()
	policy, err := security.NewPolicy(t.TempDir())
	require.NoError(t, err)
	home := policy.Home()
	base := filepath.Join(home, "FileMate")
	require.NoError(t, os.MkdirAll(base, 0o755))

	var w *watch.Watcher
	if withWatcher {
		w, err = watch.New(base, policy)
		require.NoError(t, err)
		w.Start()
		t.Cleanup(func() { _ = w.Close() })
	}

	InitFileManager(dispatch.New(fileops.New(resolver.New(policy)), base), w)
	t.Cleanup(func() { InitFileManager(nil, nil) })
	return home, base
}
