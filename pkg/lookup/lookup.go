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

// Package lookup finds an entry by bare name below a base directory.
package lookup

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// EntryType restricts which kind of entry a lookup may return.
type EntryType int

const (
	AnyEntry EntryType = iota
	FileEntry
	DirEntry
)

func (t EntryType) matches(d fs.DirEntry) bool {
	switch t {
	case FileEntry:
		return d.Type().IsRegular()
	case DirEntry:
		return d.IsDir()
	default:
		return true
	}
}

func (t EntryType) noun() string {
	switch t {
	case FileEntry:
		return "el archivo"
	case DirEntry:
		return "la carpeta"
	default:
		return "el elemento"
	}
}

// Option customizes a lookup.
type Option func(*options)

type options struct {
	allow func(path string) bool
}

// WithFilter restricts the walk to paths allow accepts. Rejected
// directories are not descended into.
func WithFilter(allow func(path string) bool) Option {
	return func(o *options) {
		o.allow = allow
	}
}

// FindAll walks baseDir and returns every entry whose name equals the last
// element of name, sorted. baseDir itself is never a candidate and
// unreadable subtrees are skipped.
func FindAll(baseDir, name string, want EntryType, opts ...Option) ([]string, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	target := filepath.Base(strings.TrimSpace(name))
	if target == "." || target == string(filepath.Separator) || target == "" {
		return nil, errdefs.New(errdefs.InvalidInput, "Nombre vacío provisto")
	}

	root := filepath.Clean(baseDir)
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if o.allow != nil && !o.allow(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == target && want.matches(d) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, errdefs.Wrap(errdefs.NotFound, err, "No se pudo recorrer '%s'", baseDir)
	}

	sort.Strings(matches)
	return matches, nil
}

// FindUnique returns the single entry named name below baseDir. When no
// entry matches it returns NotFound; when several do it returns Conflict
// together with every candidate so the caller can ask for a full path.
func FindUnique(baseDir, name string, want EntryType, opts ...Option) (string, []string, error) {
	matches, err := FindAll(baseDir, name, want, opts...)
	if err != nil {
		return "", nil, err
	}

	switch len(matches) {
	case 0:
		return "", nil, errdefs.New(errdefs.NotFound, "No se encontró %s '%s'", want.noun(), filepath.Base(name))
	case 1:
		return matches[0], matches, nil
	default:
		return "", matches, errdefs.New(errdefs.Conflict,
			"Se encontraron %d coincidencias para '%s'; especifica la ruta completa", len(matches), filepath.Base(name))
	}
}
