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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/lookup"
	"github.com/filemate-ai/filemate/pkg/security"
)

// CreateFolder creates folder and its missing parents.
func (s *Service) CreateFolder(baseDir, folder string) Result {
	path, err := s.resolve(folder, baseDir)
	if err != nil {
		return fail(err)
	}
	if err := ensureAbsent(path, folder); err != nil {
		return fail(err)
	}
	dirs, err := missingDirs(path)
	if err != nil {
		return fail(err)
	}

	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return fail(err)
	}

	r := succeed("Carpeta '%s' creada correctamente", folder)
	r.NewFilePath = path
	return r
}

// DeleteFolder removes folder and everything below it.
func (s *Service) DeleteFolder(baseDir, folder string) Result {
	path, err := s.resolve(folder, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(path, folder, kindDir); err != nil {
		return fail(err)
	}
	if err := s.guardRoot(path, baseDir); err != nil {
		return fail(err)
	}
	if err := s.checkRestrictedBelow(path); err != nil {
		return fail(err)
	}

	if err := os.RemoveAll(path); err != nil {
		return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo eliminar la carpeta '%s'", folder))
	}
	return succeed("Carpeta '%s' eliminada correctamente", folder)
}

// RenameFolder renames the folder current to newName.
func (s *Service) RenameFolder(baseDir, current, newName string) Result {
	return s.rename(baseDir, current, newName, kindDir)
}

// MoveFolder moves folder into destFolder, keeping its name.
func (s *Service) MoveFolder(baseDir, folder, destFolder string) Result {
	return s.move(baseDir, folder, destFolder, kindDir)
}

// rename renames current to newName. A bare newName stays next to current;
// anything else is resolved against baseDir.
func (s *Service) rename(baseDir, current, newName string, want entryKind) Result {
	src, err := s.resolve(current, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(src, current, want); err != nil {
		return fail(err)
	}
	if err := s.guardRoot(src, baseDir); err != nil {
		return fail(err)
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fail(errdefs.New(errdefs.InvalidInput, "Debes indicar el nuevo nombre de '%s'", current))
	}
	var dst string
	if isBareName(newName) && newName != "~" {
		if newName == "." || newName == ".." {
			return fail(errdefs.New(errdefs.InvalidInput, "'%s' no es un nombre válido", newName))
		}
		dst = filepath.Join(filepath.Dir(src), newName)
		if err := s.checkAllowed(dst); err != nil {
			return fail(err)
		}
	} else if dst, err = s.resolve(newName, baseDir); err != nil {
		return fail(err)
	}

	if filepath.Clean(src) == filepath.Clean(dst) {
		return fail(errdefs.New(errdefs.InvalidInput, "'%s' ya se llama así", current))
	}
	target, err := s.relocate(src, dst, want, newName)
	if err != nil {
		return fail(err)
	}

	r := succeed("'%s' renombrado a '%s'", current, filepath.Base(target))
	r.NewFilePath = target
	return r
}

// move moves source into destFolder. When source does not exist as given
// it is looked up by name below the base directory.
func (s *Service) move(baseDir, source, destFolder string, want entryKind) Result {
	src, err := s.resolve(source, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := os.Lstat(src); notExist(err) {
		entry := lookup.FileEntry
		if want == kindDir {
			entry = lookup.DirEntry
		}
		found, matches, err := lookup.FindUnique(s.base(baseDir), source, entry, lookup.WithFilter(s.policy.IsPathAllowed))
		if err != nil {
			return failWithMatches(err, matches)
		}
		if err := s.checkAllowed(found); err != nil {
			return fail(err)
		}
		src = found
	}
	if _, err := statExisting(src, source, want); err != nil {
		return fail(err)
	}
	if err := s.guardRoot(src, baseDir); err != nil {
		return fail(err)
	}

	dest, err := s.resolve(destFolder, baseDir)
	if err != nil {
		return fail(err)
	}
	target, err := s.moveInto(src, dest, destFolder, want)
	if err != nil {
		return fail(err)
	}

	r := succeed("'%s' movido a '%s'", filepath.Base(src), destFolder)
	r.NewFilePath = target
	return r
}

// moveInto moves the existing entry src into the folder dest.
func (s *Service) moveInto(src, dest, display string, want entryKind) (string, error) {
	if info, err := os.Stat(dest); err == nil && !info.IsDir() {
		return "", errdefs.New(errdefs.WrongType, "El destino '%s' no es una carpeta", display)
	}
	if security.Within(src, dest) {
		return "", errdefs.New(errdefs.InvalidInput, "No se puede mover la carpeta '%s' dentro de sí misma", filepath.Base(src))
	}
	target := filepath.Join(dest, filepath.Base(src))
	return s.relocate(src, target, want, filepath.Join(display, filepath.Base(src)))
}

// relocate renames src to dst after checking the extension policy and the
// destination, creating missing parents of dst and removing them again
// when the rename fails.
func (s *Service) relocate(src, dst string, want entryKind, display string) (string, error) {
	if err := s.checkAllowed(src); err != nil {
		return "", err
	}
	if err := s.checkAllowed(dst); err != nil {
		return "", err
	}
	if err := s.checkRestrictedBelow(src); err != nil {
		return "", err
	}
	if want != kindDir {
		if info, err := os.Lstat(src); err == nil && !info.IsDir() {
			if err := s.checkExtension(src); err != nil {
				return "", err
			}
			if err := s.checkExtension(dst); err != nil {
				return "", err
			}
		}
	}
	if want == kindDir && security.Within(src, dst) {
		return "", errdefs.New(errdefs.InvalidInput, "No se puede mover la carpeta '%s' dentro de sí misma", filepath.Base(src))
	}
	if err := ensureAbsent(dst, display); err != nil {
		return "", err
	}
	dirs, err := missingDirs(filepath.Dir(dst))
	if err != nil {
		return "", err
	}

	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return "", err
	}
	if err := os.Rename(src, dst); err != nil {
		u.rollback()
		if errors.Is(err, syscall.EXDEV) {
			return "", errdefs.Wrap(errdefs.ExternalFailure, err, "No se puede mover '%s' a otro disco", filepath.Base(src))
		}
		return "", errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo mover '%s'", filepath.Base(src))
	}
	return dst, nil
}
