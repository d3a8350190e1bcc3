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

// Package resolver turns user-facing path expressions into absolute paths
// that passed the security policy.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/security"
)

// Resolver resolves natural path expressions. It holds no per-call state
// and is safe for concurrent use.
type Resolver struct {
	policy  *security.Policy
	aliases []Alias
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithAliases replaces the default alias table.
func WithAliases(aliases []Alias) Option {
	return func(r *Resolver) {
		r.aliases = aliases
	}
}

// New creates a Resolver backed by policy.
func New(policy *security.Policy, opts ...Option) *Resolver {
	r := &Resolver{
		policy:  policy,
		aliases: DefaultAliases(policy.Home()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the security policy the resolver enforces.
func (r *Resolver) Policy() *security.Policy {
	return r.policy
}

// Resolve converts input into an absolute path. Aliases win over absolute
// paths, absolute paths over baseDir, and baseDir over the home directory.
func (r *Resolver) Resolve(input, baseDir string) (string, error) {
	input = normalizeSeparators(strings.TrimSpace(input))
	if input == "" {
		return "", errdefs.New(errdefs.InvalidInput, "Ruta vacía provista")
	}

	var abs string
	home := r.policy.Home()
	dir, rest, isAlias := matchAlias(r.aliases, input)
	switch {
	case isAlias:
		abs = filepath.Join(dir, rest)
	case input == "~":
		abs = home
	case strings.HasPrefix(input, "~"+string(filepath.Separator)):
		abs = filepath.Join(home, input[2:])
	case filepath.IsAbs(input):
		abs = filepath.Clean(input)
	case strings.TrimSpace(baseDir) != "":
		base, err := filepath.Abs(baseDir)
		if err != nil {
			return "", errdefs.Wrap(errdefs.InvalidInput, err, "Directorio base no válido: '%s'", baseDir)
		}
		abs = filepath.Join(base, input)
	default:
		abs = filepath.Join(home, input)
	}

	if !r.policy.IsPathAllowed(abs) {
		return "", errdefs.New(errdefs.NotPermitted, "Ruta no permitida por razones de seguridad: '%s'", input)
	}
	return abs, nil
}

// normalizeSeparators maps both slash styles onto the host separator.
func normalizeSeparators(input string) string {
	if filepath.Separator == '/' {
		return strings.ReplaceAll(input, `\`, "/")
	}
	return strings.ReplaceAll(input, "/", string(filepath.Separator))
}
