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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/filemate-ai/filemate/pkg/dispatch"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

// OperationController exposes the operation catalog over HTTP.
type OperationController struct {
	*basicController
}

func NewOperationController(ctx *gin.Context) *OperationController {
	return &OperationController{basicController: newBasicController(ctx)}
}

// ListOperations returns the operation catalog.
func (c *OperationController) ListOperations() {
	ops := dispatch.Catalog()
	infos := make([]model.OperationInfo, 0, len(ops))
	for _, op := range ops {
		infos = append(infos, model.NewOperationInfo(op))
	}
	c.RespondSuccess(infos)
}

// RunOperation dispatches the operation named in the request body.
func (c *OperationController) RunOperation() {
	var request model.RunOperationRequest
	if err := c.bindJSON(&request); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}
	if err := request.Validate(); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("invalid request, validation error %v", err),
		)
		return
	}
	if !c.ready() {
		return
	}

	c.RespondResult(dispatcher.Dispatch(c.ctx.Request.Context(), request.ToDispatch()))
}

// InvokeOperation dispatches the operation named in the URL. An empty body
// runs the operation without arguments.
func (c *OperationController) InvokeOperation() {
	var request model.InvokeOperationRequest
	if err := c.bindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}
	if err := request.Validate(); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("invalid request, validation error %v", err),
		)
		return
	}
	if !c.ready() {
		return
	}

	c.RespondResult(dispatcher.Dispatch(c.ctx.Request.Context(), request.ToDispatch(c.ctx.Param("name"))))
}

// ready reports whether the dispatcher is wired and answers 503 otherwise.
func (c *basicController) ready() bool {
	if dispatcher == nil {
		c.RespondError(
			http.StatusServiceUnavailable,
			model.ErrorCodeUnavailable,
			"file manager is not initialized",
		)
		return false
	}
	return true
}
