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

package fileops

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// MoveFilesBatch moves every entry of sourceFolder whose name matches
// pattern into destFolder. Items are processed independently: a failing
// item is reported and the batch goes on.
func (s *Service) MoveFilesBatch(baseDir, sourceFolder, destFolder, pattern string) Result {
	if strings.TrimSpace(pattern) == "" {
		pattern = "*"
	}
	src, err := s.resolve(sourceFolder, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(src, sourceFolder, kindDir); err != nil {
		return fail(err)
	}
	dest, err := s.resolve(destFolder, baseDir)
	if err != nil {
		return fail(err)
	}
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		return fail(errdefs.New(errdefs.WrongType, "El destino '%s' no es una carpeta", destFolder))
	}

	matches, err := s.matchEntries(src, pattern, func(e os.DirEntry) bool {
		return !samePath(filepath.Join(src, e.Name()), dest)
	})
	if err != nil {
		return fail(err)
	}
	if len(matches) == 0 {
		return noMatches(sourceFolder, pattern)
	}

	dirs, err := missingDirs(dest)
	if err != nil {
		return fail(err)
	}
	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return fail(err)
	}

	summary := &BatchSummary{Matched: len(matches)}
	for _, entry := range matches {
		target, err := s.moveInto(entry, dest, destFolder, kindAny)
		summary.add(batchItem(entry, target, err, "Movido"))
	}
	if summary.Succeeded == 0 {
		u.rollback()
	}
	return batchResult(summary, "Movidos %d de %d elementos de '%s' a '%s'",
		summary.Succeeded, summary.Matched, sourceFolder, destFolder)
}

// RenameFilesBatch renames every file of folder whose name matches pattern
// to prefix + stem + suffix + extension.
func (s *Service) RenameFilesBatch(baseDir, folder, pattern, prefix, suffix string) Result {
	if strings.TrimSpace(pattern) == "" {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes indicar un patrón de archivos"))
	}
	if prefix == "" && suffix == "" {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes indicar un prefijo o un sufijo"))
	}
	if !isBareName(prefix) || !isBareName(suffix) {
		return fail(errdefs.New(errdefs.InvalidInput, "El prefijo y el sufijo no pueden contener separadores de ruta"))
	}
	dir, err := s.resolve(folder, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(dir, folder, kindDir); err != nil {
		return fail(err)
	}

	matches, err := s.matchEntries(dir, pattern, func(e os.DirEntry) bool { return e.Type().IsRegular() })
	if err != nil {
		return fail(err)
	}
	if len(matches) == 0 {
		return noMatches(folder, pattern)
	}

	summary := &BatchSummary{Matched: len(matches)}
	for _, entry := range matches {
		name := filepath.Base(entry)
		ext := filepath.Ext(name)
		target := filepath.Join(dir, prefix+strings.TrimSuffix(name, ext)+suffix+ext)
		_, err := s.relocate(entry, target, kindFile, filepath.Base(target))
		summary.add(batchItem(entry, target, err, "Renombrado"))
	}
	return batchResult(summary, "Renombrados %d de %d archivos en '%s'",
		summary.Succeeded, summary.Matched, folder)
}

// ConvertImagesBatch converts every image of folder with sourceExt into
// targetExt, writing each result next to its source.
func (s *Service) ConvertImagesBatch(baseDir, folder, sourceExt, targetExt string) Result {
	sourceExt = normalizeExt(sourceExt, ".jpg")
	targetExt = normalizeExt(targetExt, ".png")
	format, err := imageFormat(targetExt)
	if err != nil {
		return fail(err)
	}
	dir, err := s.resolve(folder, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(dir, folder, kindDir); err != nil {
		return fail(err)
	}

	matches, err := s.matchEntries(dir, "*", func(e os.DirEntry) bool {
		return e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), sourceExt)
	})
	if err != nil {
		return fail(err)
	}
	if len(matches) == 0 {
		return noMatches(folder, "*"+sourceExt)
	}

	summary := &BatchSummary{Matched: len(matches)}
	for _, entry := range matches {
		target := strings.TrimSuffix(entry, filepath.Ext(entry)) + targetExt
		err := s.convertImage(entry, target, format)
		summary.add(batchItem(entry, target, err, "Convertido"))
	}
	return batchResult(summary, "Convertidas %d de %d imágenes de %s a %s en '%s'",
		summary.Succeeded, summary.Matched, sourceExt, targetExt, folder)
}

// matchEntries returns the entries of dir, sorted by name, whose name
// matches pattern and that keep accepts. Entries the policy denies are
// never matched.
func (s *Service) matchEntries(dir, pattern string, keep func(os.DirEntry) bool) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) || strings.ContainsAny(pattern, `/\`) {
		return nil, errdefs.New(errdefs.InvalidInput, "El patrón '%s' no es válido", pattern)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo leer la carpeta '%s'", dir)
	}

	var matches []string
	for _, e := range entries {
		ok, err := doublestar.Match(pattern, e.Name())
		if err != nil {
			return nil, errdefs.Wrap(errdefs.InvalidInput, err, "El patrón '%s' no es válido", pattern)
		}
		path := filepath.Join(dir, e.Name())
		if ok && keep(e) && s.policy.IsPathAllowed(path) {
			matches = append(matches, path)
		}
	}
	return matches, nil
}

func noMatches(folder, pattern string) Result {
	r := fail(errdefs.New(errdefs.NotFound, "No se encontraron archivos en '%s' que coincidan con '%s'", folder, pattern))
	r.Batch = &BatchSummary{Items: []BatchItem{}}
	return r
}

func batchItem(source, target string, err error, verb string) BatchItem {
	if err != nil {
		return BatchItem{
			Source:  source,
			Target:  target,
			Message: errdefs.MessageOf(err),
			Kind:    errdefs.KindOf(err),
		}
	}
	return BatchItem{
		Source:  source,
		Target:  target,
		Success: true,
		Message: verb + " '" + filepath.Base(source) + "'",
	}
}

func batchResult(summary *BatchSummary, format string, args ...any) Result {
	r := succeed(format, args...)
	r.Batch = summary
	if !summary.complete() {
		r.Success = false
		r.Kind = firstFailureKind(summary)
	}
	return r
}

func firstFailureKind(summary *BatchSummary) errdefs.Kind {
	for _, item := range summary.Items {
		if !item.Success {
			return item.Kind
		}
	}
	return errdefs.ExternalFailure
}

// normalizeExt lower-cases ext and adds the leading dot.
func normalizeExt(ext, fallback string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return fallback
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
