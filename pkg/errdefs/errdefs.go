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

// Package errdefs defines the failure kinds shared by the resolver, the
// lookup and the file operations.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation could not be completed.
type Kind string

const (
	InvalidInput    Kind = "invalid_input"
	NotPermitted    Kind = "not_permitted"
	NotFound        Kind = "not_found"
	WrongType       Kind = "wrong_type"
	Conflict        Kind = "conflict"
	ExternalFailure Kind = "external_failure"
	// Unavailable marks an external service (conversion API, office suite)
	// that could not be reached or did not answer in time.
	Unavailable Kind = "unavailable"
)

// Error carries a kind, an end-user message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err. Errors that were not produced by this
// package are reported as ExternalFailure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ExternalFailure
}

// IsKind reports whether err is an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the end-user message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Ocurrió un error inesperado: %v", err)
}
