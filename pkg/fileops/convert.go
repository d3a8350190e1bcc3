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
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/filemate-ai/filemate/pkg/convert"
	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// ConvertImageFormat converts image to format. Without output the result
// is written next to the source with the new extension.
func (s *Service) ConvertImageFormat(baseDir, image, format, output string) Result {
	target, err := imageFormat(format)
	if err != nil {
		return fail(err)
	}
	src, err := s.resolve(image, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(src, image, kindFile); err != nil {
		return fail(err)
	}

	var dst string
	if strings.TrimSpace(output) == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + normalizeExt(format, "")
	} else if dst, err = s.resolve(output, baseDir); err != nil {
		return fail(err)
	}
	if err := s.convertImage(src, dst, target); err != nil {
		return fail(err)
	}

	r := succeed("La imagen '%s' se convirtió a %s y se guardó como '%s'", image, strings.ToUpper(target), filepath.Base(dst))
	r.NewFilePath = dst
	return r
}

// convertImage checks dst and converts src into it.
func (s *Service) convertImage(src, dst, format string) error {
	if err := s.checkExtension(dst); err != nil {
		return err
	}
	if err := ensureAbsent(dst, filepath.Base(dst)); err != nil {
		return err
	}
	dirs, err := missingDirs(filepath.Dir(dst))
	if err != nil {
		return err
	}

	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return err
	}
	if err := s.images.ConvertImage(src, dst, format); err != nil {
		u.rollback()
		return err
	}
	return nil
}

// ConvertPDFToWord converts a PDF document to .docx through the configured
// conversion service.
func (s *Service) ConvertPDFToWord(ctx context.Context, baseDir, pdf, docx string) Result {
	if s.pdf == nil {
		return fail(errdefs.New(errdefs.Unavailable,
			"La conversión de PDF a Word no está disponible: falta configurar CLOUDCONVERT_API_KEY"))
	}
	return s.convertDocument(ctx, baseDir, pdf, docx, ".pdf", ".docx", s.pdf)
}

// ConvertWordToPDF converts a .docx document to PDF next to the source.
func (s *Service) ConvertWordToPDF(ctx context.Context, baseDir, docx string) Result {
	if s.word == nil {
		return fail(errdefs.New(errdefs.Unavailable, "La conversión de Word a PDF no está disponible"))
	}
	return s.convertDocument(ctx, baseDir, docx, "", ".docx", ".pdf", s.word)
}

func (s *Service) convertDocument(ctx context.Context, baseDir, input, output, fromExt, toExt string, c DocumentConverter) Result {
	src, err := s.resolve(input, baseDir)
	if err != nil {
		return fail(err)
	}
	if _, err := statExisting(src, input, kindFile); err != nil {
		return fail(err)
	}
	if !strings.EqualFold(filepath.Ext(src), fromExt) {
		return fail(errdefs.New(errdefs.InvalidInput, "El archivo '%s' debe ser un %s", input, fromExt))
	}

	var dst string
	if strings.TrimSpace(output) == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + toExt
	} else if dst, err = s.resolve(output, baseDir); err != nil {
		return fail(err)
	}
	if !strings.EqualFold(filepath.Ext(dst), toExt) {
		return fail(errdefs.New(errdefs.InvalidInput, "El archivo de salida '%s' debe ser un %s", filepath.Base(dst), toExt))
	}
	if err := ensureAbsent(dst, filepath.Base(dst)); err != nil {
		return fail(err)
	}
	dirs, err := missingDirs(filepath.Dir(dst))
	if err != nil {
		return fail(err)
	}

	var u undo
	if err := u.mkdirs(dirs); err != nil {
		u.rollback()
		return fail(err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.convertTimeout)
	defer cancel()
	if err := c.Convert(ctx, src, dst); err != nil {
		u.rollback()
		if errors.Is(err, context.DeadlineExceeded) && !errdefs.IsKind(err, errdefs.Unavailable) {
			err = errdefs.Wrap(errdefs.Unavailable, err, "La conversión de '%s' superó el tiempo máximo", input)
		}
		return fail(err)
	}

	r := succeed("Archivo '%s' convertido a '%s'", input, filepath.Base(dst))
	r.NewFilePath = dst
	return r
}

func imageFormat(name string) (string, error) {
	return convert.ImageFormat(name)
}
