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

// Package dispatch turns an operation name and its ordered arguments into a
// validated call on the file operations service.
package dispatch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/fileops"
	"github.com/filemate-ai/filemate/pkg/log"
)

// LegacySeparator separates the arguments of a single-string instruction.
const LegacySeparator = "|"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("arg"); name != "" {
			return name
		}
		return f.Name
	})
	// glob accepts a single-level doublestar pattern.
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		pattern := fl.Field().String()
		return !strings.ContainsAny(pattern, `/\`) && doublestar.ValidatePattern(pattern)
	})
	return v
}

// Request is an operation name with its positional arguments. BaseDir
// overrides the dispatcher's working directory for this call.
type Request struct {
	Operation string   `json:"operation" validate:"required"`
	Arguments []string `json:"arguments"`
	BaseDir   string   `json:"base_dir,omitempty"`
}

func (r *Request) Validate() error {
	return validate.Struct(r)
}

// ParseLegacy builds a Request from the "a|b" form produced by the agent.
// Commas are left alone so zip item lists survive.
func ParseLegacy(operation, input string) Request {
	req := Request{Operation: strings.TrimSpace(operation)}
	if strings.TrimSpace(input) == "" {
		return req
	}
	for _, part := range strings.Split(input, LegacySeparator) {
		req.Arguments = append(req.Arguments, strings.TrimSpace(part))
	}
	return req
}

// Usage renders the argument list in legacy form, optional ones bracketed.
func (o Operation) Usage() string {
	parts := make([]string, len(o.Arguments))
	for i, name := range o.Arguments {
		if i >= o.Required {
			name = "[" + name + "]"
		}
		parts[i] = name
	}
	return strings.Join(parts, LegacySeparator)
}

// Dispatcher validates requests and runs them against a Service.
type Dispatcher struct {
	svc     *fileops.Service
	baseDir string
	ops     map[string]Operation
}

// New creates a Dispatcher. baseDir is used for requests that carry none.
func New(svc *fileops.Service, baseDir string) *Dispatcher {
	ops := make(map[string]Operation, len(catalog))
	for _, op := range catalog {
		ops[op.Name] = op
	}
	return &Dispatcher{svc: svc, baseDir: baseDir, ops: ops}
}

// Service returns the service requests run against.
func (d *Dispatcher) Service() *fileops.Service {
	return d.svc
}

// BaseDir returns the default working directory.
func (d *Dispatcher) BaseDir() string {
	return d.baseDir
}

// Lookup returns the catalog entry for name.
func (d *Dispatcher) Lookup(name string) (Operation, bool) {
	op, ok := d.ops[strings.TrimSpace(name)]
	return op, ok
}

// Dispatch validates req and runs it. Invalid requests fail with
// InvalidInput before anything touches the filesystem.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) fileops.Result {
	start := time.Now()
	logger := log.With("request_id", uuid.NewString(), "operation", req.Operation)

	cmd, err := d.bind(req)
	if err != nil {
		logger.Warnw("request rejected", "error", err)
		return fileops.Failure(err)
	}

	base := req.BaseDir
	if strings.TrimSpace(base) == "" {
		base = d.baseDir
	}
	result := cmd.run(ctx, d.svc, base)
	if result.Success {
		logger.Infow("operation succeeded", "base_dir", base, "elapsed", time.Since(start))
	} else {
		logger.Warnw("operation failed", "base_dir", base, "error_kind", result.Kind,
			"message", result.Message, "elapsed", time.Since(start))
	}
	return result
}

func (d *Dispatcher) bind(req Request) (command, error) {
	if err := req.Validate(); err != nil {
		return nil, errdefs.Wrap(errdefs.InvalidInput, err, "Debes indicar la operación a realizar")
	}
	op, ok := d.Lookup(req.Operation)
	if !ok {
		return nil, errdefs.New(errdefs.InvalidInput, "Operación desconocida: '%s'", req.Operation)
	}

	args := make([]string, len(req.Arguments))
	for i, arg := range req.Arguments {
		args[i] = strings.TrimSpace(arg)
	}
	if len(args) > len(op.Arguments) {
		return nil, errdefs.New(errdefs.InvalidInput,
			"La operación '%s' acepta como máximo %d argumentos: %s", op.Name, len(op.Arguments), op.Usage())
	}

	cmd := op.bind(args)
	if err := validate.Struct(cmd); err != nil {
		return nil, validationError(op.Name, err)
	}
	return cmd, nil
}

func validationError(operation string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errdefs.Wrap(errdefs.InvalidInput, err, "Argumentos no válidos para '%s'", operation)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errdefs.Wrap(errdefs.InvalidInput, err, "Falta el argumento '%s' para la operación '%s'", fe.Field(), operation)
	case "required_without":
		return errdefs.Wrap(errdefs.InvalidInput, err, "Debes indicar '%s' o '%s' para la operación '%s'",
			fe.Field(), strings.ToLower(fe.Param()), operation)
	case "glob":
		return errdefs.Wrap(errdefs.InvalidInput, err, "Patrón no válido: '%v'", fe.Value())
	default:
		return errdefs.Wrap(errdefs.InvalidInput, err, "El argumento '%s' no es válido", fe.Field())
	}
}
