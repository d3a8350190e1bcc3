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
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/filemate-ai/filemate/pkg/errdefs"
	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/security"
)

const backupTimeLayout = "20060102_150405"

// CreateBackup copies item into the backup folder of the base directory
// under a timestamped name.
func (s *Service) CreateBackup(baseDir, item string) Result {
	src, err := s.resolve(item, baseDir)
	if err != nil {
		return fail(err)
	}
	info, err := statExisting(src, item, kindAny)
	if err != nil {
		return fail(err)
	}

	backupRoot := filepath.Join(s.base(baseDir), s.backupDir)
	if err := s.checkAllowed(backupRoot); err != nil {
		return fail(err)
	}
	if info.IsDir() && security.Within(src, backupRoot) {
		return fail(errdefs.New(errdefs.InvalidInput,
			"No se puede respaldar '%s' porque contiene la carpeta de respaldos", item))
	}
	if !info.IsDir() {
		if err := s.checkExtension(src); err != nil {
			return fail(err)
		}
	}
	dirs, err := missingDirs(backupRoot)
	if err != nil {
		return fail(err)
	}
	target, err := s.backupName(backupRoot, filepath.Base(src), info.IsDir())
	if err != nil {
		return fail(err)
	}

	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return fail(err)
	}
	if info.IsDir() {
		err = copyTree(src, target, s.policy.IsPathAllowed)
	} else {
		err = copyFile(src, target, info.Mode().Perm())
	}
	if err != nil {
		if rmErr := os.RemoveAll(target); rmErr != nil {
			log.Warning("failed to remove partial backup %s: %v", target, rmErr)
		}
		u.rollback()
		return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo crear el respaldo de '%s'", item))
	}

	r := succeed("Respaldo de '%s' creado en '%s'", item, filepath.Join(s.backupDir, filepath.Base(target)))
	r.BackupPath = target
	return r
}

// backupName returns a free "<stem>_backup_<timestamp><ext>" path in dir.
func (s *Service) backupName(dir, name string, isDir bool) (string, error) {
	stem, ext := name, ""
	if !isDir {
		ext = filepath.Ext(name)
		stem = strings.TrimSuffix(name, ext)
	}
	stamp := s.now().Format(backupTimeLayout)

	candidate := filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", stem, stamp, ext))
	for n := 1; ; n++ {
		err := ensureAbsent(candidate, filepath.Base(candidate))
		if err == nil {
			return candidate, nil
		}
		if !errdefs.IsKind(err, errdefs.Conflict) {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_backup_%s_%d%s", stem, stamp, n, ext))
	}
}

// copyFile copies src to a new file dst.
func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies the directory src to the new directory dst. Symbolic
// links are recreated, not followed, and paths allow rejects are skipped.
func copyTree(src, dst string, allow func(string) bool) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dst || (path != src && !allow(path)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.Mkdir(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}
