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

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// DeleteFile removes a single file.
func (s *Service) DeleteFile(baseDir, file string) Result {
	path, err := s.resolve(file, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(path, file, kindFile); err != nil {
		return fail(err)
	}
	if err := s.checkExtension(path); err != nil {
		return fail(err)
	}

	if err := os.Remove(path); err != nil {
		return fail(errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo eliminar el archivo '%s'", file))
	}
	return succeed("Archivo '%s' eliminado correctamente", file)
}

// RenameFile renames the file current to newName.
func (s *Service) RenameFile(baseDir, current, newName string) Result {
	return s.rename(baseDir, current, newName, kindFile)
}

// MoveFile moves file into destFolder, keeping its name. A file that does
// not exist as given is looked up by name below the base directory and
// the move only happens when exactly one match exists.
func (s *Service) MoveFile(baseDir, file, destFolder string) Result {
	return s.move(baseDir, file, destFolder, kindFile)
}
