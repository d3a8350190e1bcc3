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

// Package fileops implements the file operations of the assistant. Every
// operation resolves its arguments, validates all preconditions and only
// then touches the filesystem.
package fileops

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/filemate-ai/filemate/pkg/convert"
	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/resolver"
	"github.com/filemate-ai/filemate/pkg/security"
)

const (
	defaultBackupDir      = "backups"
	defaultMaxReadBytes   = 1 << 20
	defaultConvertTimeout = 2 * time.Minute
	maxSearchResults      = 50
)

// ImageConverter re-encodes the image at src into format and writes it to dst.
type ImageConverter interface {
	ConvertImage(src, dst, format string) error
}

// DocumentConverter converts src into dst through an external tool or service.
type DocumentConverter interface {
	Convert(ctx context.Context, src, dst string) error
}

// Service runs file operations on behalf of one resolver. It keeps no
// per-call state; the base directory is passed to every method.
type Service struct {
	resolver *resolver.Resolver
	policy   *security.Policy

	backupDir      string
	maxReadBytes   int64
	convertTimeout time.Duration
	now            func() time.Time

	images ImageConverter
	pdf    DocumentConverter
	word   DocumentConverter
}

// Option customizes a Service.
type Option func(*Service)

// WithBackupDir sets the name of the backup folder created under the base directory.
func WithBackupDir(name string) Option {
	return func(s *Service) {
		if name = strings.TrimSpace(name); name != "" {
			s.backupDir = name
		}
	}
}

// WithMaxReadBytes limits how much of a file ReadFileContent returns.
func WithMaxReadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxReadBytes = n
		}
	}
}

// WithConvertTimeout bounds every call to an external converter.
func WithConvertTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.convertTimeout = d
		}
	}
}

// WithClock replaces the clock used to timestamp backups.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithImageConverter replaces the in-process image converter.
func WithImageConverter(c ImageConverter) Option {
	return func(s *Service) {
		s.images = c
	}
}

// WithPDFConverter sets the PDF to Word converter.
func WithPDFConverter(c DocumentConverter) Option {
	return func(s *Service) {
		s.pdf = c
	}
}

// WithWordConverter sets the Word to PDF converter.
func WithWordConverter(c DocumentConverter) Option {
	return func(s *Service) {
		s.word = c
	}
}

// New creates a Service.
func New(res *resolver.Resolver, opts ...Option) *Service {
	s := &Service{
		resolver:       res,
		policy:         res.Policy(),
		backupDir:      defaultBackupDir,
		maxReadBytes:   defaultMaxReadBytes,
		convertTimeout: defaultConvertTimeout,
		now:            time.Now,
		images:         convert.NewImageConverter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver returns the resolver the service uses.
func (s *Service) Resolver() *resolver.Resolver {
	return s.resolver
}

// resolve resolves input against baseDir.
func (s *Service) resolve(input, baseDir string) (string, error) {
	return s.resolver.Resolve(input, baseDir)
}

// base returns the absolute base directory, falling back to the home directory.
func (s *Service) base(baseDir string) string {
	if strings.TrimSpace(baseDir) == "" {
		return s.policy.Home()
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return s.policy.Home()
	}
	return abs
}

// guardRoot rejects operations that would delete or relocate the home or
// the base directory itself.
func (s *Service) guardRoot(path, baseDir string) error {
	for _, root := range []string{s.policy.Home(), s.base(baseDir)} {
		if samePath(path, root) {
			return errdefs.New(errdefs.NotPermitted, "No se puede modificar la carpeta raíz '%s'", root)
		}
	}
	return nil
}

func (s *Service) checkExtension(path string) error {
	if !s.policy.IsExtensionAllowed(path) {
		return errdefs.New(errdefs.NotPermitted,
			"Por seguridad no se permite operar con archivos '%s' como '%s'",
			strings.ToLower(filepath.Ext(path)), filepath.Base(path))
	}
	return nil
}

func (s *Service) checkAllowed(path string) error {
	if !s.policy.IsPathAllowed(path) {
		return errdefs.New(errdefs.NotPermitted, "Ruta no permitida por razones de seguridad: '%s'", path)
	}
	return nil
}

// checkRestrictedBelow rejects mutating a folder that holds a restricted
// subtree.
func (s *Service) checkRestrictedBelow(path string) error {
	if s.policy.ContainsRestricted(path) {
		return errdefs.New(errdefs.NotPermitted,
			"'%s' contiene una carpeta protegida por razones de seguridad", filepath.Base(path))
	}
	return nil
}

// entryKind is what an operation expects to find at a path.
type entryKind int

const (
	kindAny entryKind = iota
	kindFile
	kindDir
)

func (k entryKind) noun() string {
	switch k {
	case kindFile:
		return "El archivo"
	case kindDir:
		return "La carpeta"
	default:
		return "El elemento"
	}
}

// statExisting returns the info of an existing entry of the expected kind.
func statExisting(path, display string, want entryKind) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if notExist(err) {
			return nil, errdefs.New(errdefs.NotFound, "%s '%s' no existe", want.noun(), display)
		}
		return nil, errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo acceder a '%s'", display)
	}
	switch {
	case want == kindFile && info.IsDir():
		return nil, errdefs.New(errdefs.WrongType, "'%s' es una carpeta, no un archivo", display)
	case want == kindDir && !info.IsDir():
		return nil, errdefs.New(errdefs.WrongType, "'%s' es un archivo, no una carpeta", display)
	}
	return info, nil
}

// ensureAbsent fails with Conflict when path already exists.
func ensureAbsent(path, display string) error {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return errdefs.New(errdefs.Conflict, "'%s' ya existe", display)
	case notExist(err):
		return nil
	default:
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo acceder a '%s'", display)
	}
}

// notExist reports whether err means the path does not exist, including
// the case where one of its parents is a file.
func notExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// missingDirs lists, outermost first, the directories that must be created
// so that dir exists. It fails with WrongType when an ancestor is a file.
func missingDirs(dir string) ([]string, error) {
	var missing []string
	current := filepath.Clean(dir)
	for {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return nil, errdefs.New(errdefs.WrongType, "'%s' es un archivo, no una carpeta", current)
			}
			return missing, nil
		}
		if !notExist(err) {
			return nil, errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo acceder a '%s'", current)
		}
		missing = append([]string{current}, missing...)
		parent := filepath.Dir(current)
		if parent == current {
			return missing, nil
		}
		current = parent
	}
}

// undo records entries created during an operation so they can be removed
// when a later step fails.
type undo struct {
	created []string
}

func (u *undo) add(path string) {
	u.created = append(u.created, path)
}

// mkdirs creates dirs in order and records each one.
func (u *undo) mkdirs(dirs []string) error {
	for _, dir := range dirs {
		if err := os.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo crear la carpeta '%s'", dir)
		}
		u.add(dir)
	}
	return nil
}

// rollback removes recorded entries, newest first.
func (u *undo) rollback() {
	for i := len(u.created) - 1; i >= 0; i-- {
		if err := os.Remove(u.created[i]); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warning("failed to roll back %s: %v", u.created[i], err)
		}
	}
	u.created = nil
}

// samePath reports whether a and b name the same filesystem entry.
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// isBareName reports whether name has no directory component.
func isBareName(name string) bool {
	return !strings.ContainsAny(name, `/\`)
}
