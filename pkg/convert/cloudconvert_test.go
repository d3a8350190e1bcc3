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

package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

type fakeCloudConvert struct {
	server   *httptest.Server
	polls    atomic.Int32
	uploaded atomic.Value
	fail     bool
}

func newFakeCloudConvert(t *testing.T, fail bool) *fakeCloudConvert {
	t.Helper()
	f := &fakeCloudConvert{fail: fail}
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		tasks, _ := body["tasks"].(map[string]any)
		convert, _ := tasks[taskConvert].(map[string]any)
		if convert["output_format"] != "docx" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"data":{"id":"job-1","status":"waiting","tasks":[
			{"id":"t1","name":%q,"operation":"import/upload","result":{"form":{"url":"%s/upload","parameters":{"key":"abc"}}}},
			{"id":"t2","name":%q,"operation":"convert"},
			{"id":"t3","name":%q,"operation":"export/url"}]}}`,
			taskImport, f.server.URL, taskConvert, taskExport)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		f.uploaded.Store(string(buf[:n]) + "|" + r.FormValue("key"))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		if f.polls.Add(1) < 2 {
			fmt.Fprint(w, `{"data":{"id":"job-1","status":"processing","tasks":[]}}`)
			return
		}
		if f.fail {
			fmt.Fprintf(w, `{"data":{"id":"job-1","status":"error","tasks":[{"name":%q,"status":"error","message":"bad pdf"}]}}`, taskConvert)
			return
		}
		fmt.Fprintf(w, `{"data":{"id":"job-1","status":"finished","tasks":[
			{"name":%q,"status":"finished","result":{"files":[{"filename":"doc.docx","url":"%s/file"}]}}]}}`,
			taskExport, f.server.URL)
	})
	mux.HandleFunc("/file", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "DOCX-BYTES")
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCloudConvert) client(key string) *CloudConvert {
	return NewCloudConvert(key,
		WithBaseURL(f.server.URL),
		WithHTTPClient(f.server.Client()),
		WithPollInterval(10*time.Millisecond),
	)
}

func writePDF(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0o644))
	return src, filepath.Join(dir, "doc.docx")
}

func TestCloudConvertConvert(t *testing.T) {
	fake := newFakeCloudConvert(t, false)
	src, dst := writePDF(t)

	require.NoError(t, fake.client("secret").Convert(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "DOCX-BYTES", string(data))
	assert.Equal(t, "%PDF-1.4|abc", fake.uploaded.Load())
	assert.GreaterOrEqual(t, fake.polls.Load(), int32(2))
}

func TestCloudConvertJobError(t *testing.T) {
	fake := newFakeCloudConvert(t, true)
	src, dst := writePDF(t)

	err := fake.client("secret").Convert(context.Background(), src, dst)
	assert.True(t, errdefs.IsKind(err, errdefs.ExternalFailure), "%v", err)
	assert.Contains(t, errdefs.MessageOf(err), "bad pdf")
	assert.NoFileExists(t, dst)
}

func TestCloudConvertUnavailable(t *testing.T) {
	src, dst := writePDF(t)

	err := NewCloudConvert("").Convert(context.Background(), src, dst)
	assert.True(t, errdefs.IsKind(err, errdefs.Unavailable))

	fake := newFakeCloudConvert(t, false)
	err = fake.client("wrong").Convert(context.Background(), src, dst)
	assert.True(t, errdefs.IsKind(err, errdefs.Unavailable), "%v", err)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	err = NewCloudConvert("secret", WithBaseURL(closed.URL)).Convert(context.Background(), src, dst)
	assert.True(t, errdefs.IsKind(err, errdefs.Unavailable), "%v", err)
	assert.NoFileExists(t, dst)
}

func TestCloudConvertTimeout(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-blocked:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(blocked)
	src, dst := writePDF(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := NewCloudConvert("secret", WithBaseURL(server.URL)).Convert(ctx, src, dst)
	assert.True(t, errdefs.IsKind(err, errdefs.Unavailable), "%v", err)
}
