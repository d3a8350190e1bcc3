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
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/fileops"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

// DownloadFile serves a file for download with support for range requests.
// The path goes through the same resolution and policy as any operation.
func (c *FilesystemController) DownloadFile() {
	input, ok := c.requireQuery("path")
	if !ok || !c.ready() {
		return
	}
	base := c.ctx.Query("base_dir")
	if base == "" {
		base = dispatcher.BaseDir()
	}

	svc := dispatcher.Service()
	filePath, err := svc.Resolver().Resolve(input, base)
	if err != nil {
		c.RespondResult(fileops.Failure(err))
		return
	}
	if !svc.Resolver().Policy().IsExtensionAllowed(filePath) {
		c.RespondResult(fileops.Failure(errdefs.New(errdefs.NotPermitted,
			"Tipo de archivo no permitido por razones de seguridad: '%s'", input)))
		return
	}

	file, err := os.Open(filePath)
	if err != nil {
		c.handleFileError(err)
		return
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error getting file stat info: %s. %v", input, err),
		)
		return
	}
	if fileInfo.IsDir() {
		c.RespondResult(fileops.Failure(errdefs.New(errdefs.WrongType, "'%s' es una carpeta, no un archivo", input)))
		return
	}

	c.ctx.Header("Content-Type", "application/octet-stream")
	c.ctx.Header("Content-Disposition", "attachment; filename="+filepath.Base(filePath))
	c.ctx.Header("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))

	if rangeHeader := c.ctx.GetHeader("Range"); rangeHeader != "" {
		ranges, err := ParseRange(rangeHeader, fileInfo.Size())
		if err != nil {
			c.RespondError(
				http.StatusRequestedRangeNotSatisfiable,
				model.ErrorCodeUnknown,
			)
			return
		}
		if len(ranges) > 0 {
			r := ranges[0]
			c.ctx.Status(http.StatusPartialContent)
			c.ctx.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", r.start, r.start+r.length-1, fileInfo.Size()))
			c.ctx.Header("Content-Length", strconv.FormatInt(r.length, 10))

			_, _ = file.Seek(r.start, io.SeekStart)
			_, _ = io.CopyN(c.ctx.Writer, file, r.length)
			return
		}
	}

	http.ServeContent(c.ctx.Writer, c.ctx.Request, filepath.Base(filePath), fileInfo.ModTime(), file)
}
