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

package model

import (
	"github.com/go-playground/validator/v10"

	"github.com/filemate-ai/filemate/pkg/dispatch"
)

// RunOperationRequest dispatches an operation named in the body.
type RunOperationRequest struct {
	Operation string   `json:"operation" validate:"required"`
	Arguments []string `json:"arguments,omitempty"`
	BaseDir   string   `json:"base_dir,omitempty"`
}

func (r *RunOperationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ToDispatch converts the body into a dispatch request.
func (r *RunOperationRequest) ToDispatch() dispatch.Request {
	return dispatch.Request{Operation: r.Operation, Arguments: r.Arguments, BaseDir: r.BaseDir}
}

// InvokeOperationRequest carries the arguments of an operation named in the
// URL, either as a list or in the legacy "a|b" form.
type InvokeOperationRequest struct {
	Arguments []string `json:"arguments,omitempty" validate:"excluded_with=Input"`
	Input     string   `json:"input,omitempty"`
	BaseDir   string   `json:"base_dir,omitempty"`
}

func (r *InvokeOperationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ToDispatch converts the body into a dispatch request for operation.
func (r *InvokeOperationRequest) ToDispatch(operation string) dispatch.Request {
	req := dispatch.Request{Operation: operation, Arguments: r.Arguments}
	if r.Input != "" {
		req = dispatch.ParseLegacy(operation, r.Input)
	}
	req.BaseDir = r.BaseDir
	return req
}

// OperationInfo is one entry of the operation catalog.
type OperationInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Arguments   []string `json:"arguments"`
	Required    int      `json:"required"`
	Usage       string   `json:"usage"`
}

func NewOperationInfo(op dispatch.Operation) OperationInfo {
	return OperationInfo{
		Name:        op.Name,
		Description: op.Description,
		Arguments:   op.Arguments,
		Required:    op.Required,
		Usage:       op.Usage(),
	}
}
