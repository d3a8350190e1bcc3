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

package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/fileops"
	"github.com/filemate-ai/filemate/pkg/resolver"
	"github.com/filemate-ai/filemate/pkg/security"
	"github.com/filemate-ai/filemate/pkg/web/controller"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

func TestAccessToken(t *testing.T) {
	r := NewRouter("secret")

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrorCodeUnauthorized, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(model.ApiAccessTokenHeader, "wrong")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(model.ApiAccessTokenHeader, "secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestOperationRoutes(t *testing.T) {
	policy, err := security.NewPolicy(t.TempDir())
	require.NoError(t, err)
	base := filepath.Join(policy.Home(), "FileMate")
	require.NoError(t, os.MkdirAll(base, 0o755))
	controller.InitFileManager(dispatch.New(fileops.New(resolver.New(policy)), base), nil)
	t.Cleanup(func() { controller.InitFileManager(nil, nil) })

	r := NewRouter("")

	req := httptest.NewRequest(http.MethodPost, "/operations/create_folder", bytes.NewBufferString(`{"input":"proyectos"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.DirExists(t, filepath.Join(base, "proyectos"))

	req = httptest.NewRequest(http.MethodPost, "/operations/create_folder", bytes.NewBufferString(`{"input":"proyectos"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/operations", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var ops []model.OperationInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ops))
	assert.Len(t, ops, len(dispatch.Catalog()))
}
