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
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

// FilesystemController serves the read-only file endpoints.
type FilesystemController struct {
	*basicController
}

func NewFilesystemController(ctx *gin.Context) *FilesystemController {
	return &FilesystemController{basicController: newBasicController(ctx)}
}

func (c *FilesystemController) handleFileError(err error) {
	if os.IsNotExist(err) {
		c.RespondError(
			http.StatusNotFound,
			model.ErrorCodeFileNotFound,
			fmt.Sprintf("file not found. %v", err),
		)
	} else {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error accessing file: %v", err),
		)
	}
}

// GetTree lists the directory in the "path" query, or the user folders.
func (c *FilesystemController) GetTree() {
	c.dispatch("list_files", c.ctx.Query("path"))
}

// GetStructure renders the directory in the "path" query as text.
func (c *FilesystemController) GetStructure() {
	c.dispatch("file_structure", c.ctx.Query("path"))
}

// SearchFiles finds files by name below the optional "path" query.
func (c *FilesystemController) SearchFiles() {
	query, ok := c.requireQuery("query")
	if !ok {
		return
	}
	c.dispatch("search_files", query, c.ctx.Query("path"))
}

// GetContent returns the text of the file in the "path" query.
func (c *FilesystemController) GetContent() {
	path, ok := c.requireQuery("path")
	if !ok {
		return
	}
	c.dispatch("read_file_content", path)
}

func (c *FilesystemController) dispatch(operation string, args ...string) {
	if !c.ready() {
		return
	}
	c.RespondResult(dispatcher.Dispatch(c.ctx.Request.Context(), dispatch.Request{
		Operation: operation,
		Arguments: args,
		BaseDir:   c.ctx.Query("base_dir"),
	}))
}

func (c *FilesystemController) requireQuery(key string) (string, bool) {
	value := c.ctx.Query(key)
	if value == "" {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeMissingQuery,
			fmt.Sprintf("missing query parameter '%s'", key),
		)
		return "", false
	}
	return value, true
}
