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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

const (
	cloudConvertBaseURL = "https://api.cloudconvert.com/v2"

	taskImport  = "import-file"
	taskConvert = "convert-file"
	taskExport  = "export-file"

	jobFinished = "finished"
	jobError    = "error"
)

// CloudConvert converts PDF documents to Word through the CloudConvert API.
type CloudConvert struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	outputFormat string
	engine       string
}

// CloudConvertOption customizes a CloudConvert client.
type CloudConvertOption func(*CloudConvert)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(url string) CloudConvertOption {
	return func(c *CloudConvert) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) CloudConvertOption {
	return func(c *CloudConvert) {
		c.client = client
	}
}

// WithPollInterval sets how often the job status is polled.
func WithPollInterval(d time.Duration) CloudConvertOption {
	return func(c *CloudConvert) {
		c.pollInterval = d
	}
}

// NewCloudConvert creates a client authenticated with apiKey.
func NewCloudConvert(apiKey string, opts ...CloudConvertOption) *CloudConvert {
	c := &CloudConvert{
		apiKey:       apiKey,
		baseURL:      cloudConvertBaseURL,
		client:       http.DefaultClient,
		pollInterval: 2 * time.Second,
		outputFormat: "docx",
		engine:       "ocrmypdf",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type jobTask struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Result    struct {
		Form *struct {
			URL        string            `json:"url"`
			Parameters map[string]string `json:"parameters"`
		} `json:"form"`
		Files []struct {
			Filename string `json:"filename"`
			URL      string `json:"url"`
		} `json:"files"`
	} `json:"result"`
}

type job struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Tasks  []jobTask `json:"tasks"`
}

type jobEnvelope struct {
	Data job `json:"data"`
}

func (j *job) task(name string) *jobTask {
	for i := range j.Tasks {
		if j.Tasks[i].Name == name {
			return &j.Tasks[i]
		}
	}
	return nil
}

// Convert uploads src, waits for the conversion job and downloads the
// result to dst. Network failures and timeouts are reported as Unavailable.
func (c *CloudConvert) Convert(ctx context.Context, src, dst string) error {
	if c.apiKey == "" {
		return errdefs.New(errdefs.Unavailable, "La API key de CloudConvert no está configurada")
	}

	err := c.convert(ctx, src, dst)
	if err == nil {
		return nil
	}
	var typed *errdefs.Error
	if errors.As(err, &typed) {
		return typed
	}
	return errdefs.Wrap(errdefs.Unavailable, err, "El servicio de conversión CloudConvert no está disponible")
}

func (c *CloudConvert) convert(ctx context.Context, src, dst string) error {
	created, err := c.createJob(ctx)
	if err != nil {
		return errors.Wrap(err, "create job")
	}
	upload := created.task(taskImport)
	if upload == nil || upload.Result.Form == nil {
		return errors.New("job has no upload form")
	}
	if err := c.upload(ctx, upload, src); err != nil {
		return errors.Wrap(err, "upload file")
	}

	var finished *job
	err = wait.PollUntilContextCancel(ctx, c.pollInterval, false, func(ctx context.Context) (bool, error) {
		current, err := c.getJob(ctx, created.ID)
		if err != nil {
			return false, err
		}
		switch current.Status {
		case jobFinished:
			finished = current
			return true, nil
		case jobError:
			return false, jobFailure(current)
		default:
			return false, nil
		}
	})
	if err != nil {
		return errors.Wrap(err, "wait for job")
	}

	export := finished.task(taskExport)
	if export == nil || len(export.Result.Files) == 0 {
		return errdefs.New(errdefs.ExternalFailure, "CloudConvert no devolvió ningún archivo")
	}
	return errors.Wrap(c.download(ctx, export.Result.Files[0].URL, dst), "download result")
}

func jobFailure(j *job) error {
	for _, t := range j.Tasks {
		if t.Status == jobError {
			return errdefs.New(errdefs.ExternalFailure, "CloudConvert no pudo convertir el archivo: %s", t.Message)
		}
	}
	return errdefs.New(errdefs.ExternalFailure, "CloudConvert no pudo convertir el archivo")
}

func (c *CloudConvert) createJob(ctx context.Context) (*job, error) {
	payload := map[string]any{
		"tasks": map[string]any{
			taskImport: map[string]any{"operation": "import/upload"},
			taskConvert: map[string]any{
				"operation":     "convert",
				"input":         taskImport,
				"output_format": c.outputFormat,
				"engine":        c.engine,
			},
			taskExport: map[string]any{"operation": "export/url", "input": taskConvert},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJob(req)
}

func (c *CloudConvert) getJob(ctx context.Context, id string) (*job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+id, nil)
	if err != nil {
		return nil, err
	}
	return c.doJob(req)
}

func (c *CloudConvert) doJob(req *http.Request) (*job, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var envelope jobEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, "decode job")
	}
	return &envelope.Data, nil
}

func (c *CloudConvert) upload(ctx context.Context, task *jobTask, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo abrir '%s'", filepath.Base(src))
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, value := range task.Result.Form.Parameters {
		if err := mw.WriteField(key, value); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", filepath.Base(src))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, task.Result.Form.URL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *CloudConvert) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return writeAtomically(dst, resp.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errdefs.New(errdefs.Unavailable, "CloudConvert rechazó la API key (%d)", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}

// writeAtomically copies r to a temporary file next to dst and renames it
// into place.
func writeAtomically(dst string, r io.Reader) error {
	tmp := filepath.Join(filepath.Dir(dst), "."+uuid.NewString()+".tmp")
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "create temporary file")
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "write temporary file")
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close temporary file")
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename temporary file")
	}
	return nil
}
