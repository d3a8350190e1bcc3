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
	"archive/zip"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/security"
)

// CreateZipArchive compresses the comma separated items into zipName.
// Entry names are relative to the base directory, so "a.txt,sub/b.txt"
// extracts back to the same layout. Items outside the base directory are
// stored under their own name.
func (s *Service) CreateZipArchive(baseDir, items, zipName string) Result {
	zipName = strings.TrimSpace(zipName)
	if zipName == "" {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes proporcionar un nombre para el archivo ZIP"))
	}
	if !strings.HasSuffix(strings.ToLower(zipName), ".zip") {
		zipName += ".zip"
	}
	names := splitList(items)
	if len(names) == 0 {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes indicar al menos un elemento para comprimir"))
	}

	zipPath, err := s.resolve(zipName, baseDir)
	if err != nil {
		return fail(err)
	}
	if err := ensureAbsent(zipPath, zipName); err != nil {
		return fail(err)
	}

	base := s.base(baseDir)
	sources := make([]string, 0, len(names))
	for _, name := range names {
		src, err := s.resolve(name, baseDir)
		if err != nil {
			return fail(err)
		}
		if _, err := os.Stat(src); err != nil {
			if notExist(err) {
				return fail(errdefs.New(errdefs.NotFound, "No se encontró '%s'", name))
			}
			return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo acceder a '%s'", name))
		}
		sources = append(sources, src)
	}
	dirs, err := missingDirs(filepath.Dir(zipPath))
	if err != nil {
		return fail(err)
	}

	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return fail(err)
	}
	tmp := filepath.Join(filepath.Dir(zipPath), "."+uuid.NewString()+".zip.tmp")
	count, err := writeZip(tmp, base, sources, s.policy.IsPathAllowed)
	if err == nil {
		err = os.Rename(tmp, zipPath)
	}
	if err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warning("failed to remove temporary archive %s: %v", tmp, rmErr)
		}
		u.rollback()
		return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo crear el archivo ZIP '%s'", zipName))
	}

	r := succeed("Archivo ZIP '%s' creado con %d archivos", zipName, count)
	r.NewFilePath = zipPath
	return r
}

// writeZip writes sources into a new archive at dst and returns the number
// of files stored. Paths allow rejects are left out, directories with
// their whole subtree.
func writeZip(dst, base string, sources []string, allow func(string) bool) (int, error) {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	zw := zip.NewWriter(out)

	seen := make(map[string]struct{})
	count := 0
	for _, src := range sources {
		root := filepath.Dir(src)
		if security.Within(base, src) && !samePath(base, src) {
			root = base
		}
		err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == dst {
				return nil
			}
			if !allow(p) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)
			if d.IsDir() {
				name += "/"
			} else if !d.Type().IsRegular() {
				return nil
			}
			if _, dup := seen[name]; dup {
				return nil
			}
			seen[name] = struct{}{}
			if err := addZipEntry(zw, p, name, d); err != nil {
				return err
			}
			if !d.IsDir() {
				count++
			}
			return nil
		})
		if err != nil {
			break
		}
	}

	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return count, err
}

func addZipEntry(zw *zip.Writer, src, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	if d.IsDir() {
		_, err = zw.CreateHeader(header)
		return err
	}
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// ExtractZipArchive extracts zipName into destFolder. Every entry is
// validated before anything is written.
func (s *Service) ExtractZipArchive(baseDir, zipName, destFolder string) Result {
	zipPath, err := s.resolve(zipName, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(zipPath, zipName, kindFile); err != nil {
		return fail(err)
	}
	dest, err := s.resolve(destFolder, baseDir)
	if err != nil {
		return fail(err)
	}
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		return fail(errdefs.New(errdefs.WrongType, "El destino '%s' no es una carpeta", destFolder))
	}

	zr, err := zip.OpenReader(zipPath)
	if errors.Is(err, zip.ErrInsecurePath) {
		if zr != nil {
			_ = zr.Close()
		}
		return fail(errdefs.Wrap(errdefs.NotPermitted, err, "El ZIP '%s' contiene rutas no permitidas", zipName))
	}
	if err != nil {
		return fail(errdefs.Wrap(errdefs.InvalidInput, err, "'%s' no es un archivo ZIP válido", zipName))
	}
	defer zr.Close()

	plan, err := s.planExtraction(zr.File, dest)
	if err != nil {
		return fail(err)
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
	files := 0
	for _, entry := range plan {
		if err := extractEntry(entry, &u); err != nil {
			u.rollback()
			return fail(errdefs.Wrap(errdefs.ExternalFailure, err,
				"No se pudo extraer '%s' de '%s'", entry.file.Name, zipName))
		}
		if !entry.isDir {
			files++
		}
	}

	r := succeed("Contenido de '%s' extraído en '%s' (%d archivos)", zipName, destFolder, files)
	r.NewFilePath = dest
	return r
}

type extraction struct {
	file   *zip.File
	target string
	isDir  bool
}

// planExtraction maps every entry to its target below dest, rejecting
// entries that would escape dest, carry a denied extension or overwrite
// an existing file.
func (s *Service) planExtraction(files []*zip.File, dest string) ([]extraction, error) {
	plan := make([]extraction, 0, len(files))
	targets := make(map[string]struct{}, len(files))
	for _, f := range files {
		name := strings.ReplaceAll(f.Name, `\`, "/")
		if name == "" || path.IsAbs(name) || filepath.VolumeName(filepath.FromSlash(name)) != "" {
			return nil, errdefs.New(errdefs.NotPermitted, "El ZIP contiene una ruta no permitida: '%s'", f.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if !security.Within(dest, target) || !s.policy.IsPathAllowed(target) {
			return nil, errdefs.New(errdefs.NotPermitted, "El ZIP contiene una ruta no permitida: '%s'", f.Name)
		}
		if f.Mode()&fs.ModeSymlink != 0 {
			return nil, errdefs.New(errdefs.NotPermitted, "El ZIP contiene un enlace simbólico: '%s'", f.Name)
		}

		isDir := f.FileInfo().IsDir() || strings.HasSuffix(name, "/")
		if !isDir {
			if err := s.checkExtension(target); err != nil {
				return nil, err
			}
			if _, dup := targets[target]; dup {
				return nil, errdefs.New(errdefs.InvalidInput, "El ZIP contiene '%s' más de una vez", f.Name)
			}
			if err := ensureAbsent(target, f.Name); err != nil {
				return nil, err
			}
		} else if info, err := os.Lstat(target); err == nil && !info.IsDir() {
			return nil, errdefs.New(errdefs.Conflict, "'%s' ya existe", f.Name)
		}
		targets[target] = struct{}{}
		plan = append(plan, extraction{file: f, target: target, isDir: isDir})
	}
	return plan, nil
}

func extractEntry(entry extraction, u *undo) error {
	dir := entry.target
	if !entry.isDir {
		dir = filepath.Dir(entry.target)
	}
	dirs, err := missingDirs(dir)
	if err != nil {
		return err
	}
	if err := u.mkdirs(dirs); err != nil {
		return err
	}
	if entry.isDir {
		return nil
	}

	rc, err := entry.file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	perm := entry.file.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(entry.target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	u.add(entry.target)
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// splitList splits a comma separated list and drops empty items.
func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
