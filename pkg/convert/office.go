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

package convert

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// DefaultOfficeBinary is the LibreOffice executable looked up in PATH.
const DefaultOfficeBinary = "soffice"

// LibreOffice converts office documents to PDF with a headless LibreOffice.
type LibreOffice struct {
	binary string
}

// NewLibreOffice creates a converter that runs binary.
func NewLibreOffice(binary string) *LibreOffice {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultOfficeBinary
	}
	return &LibreOffice{binary: binary}
}

// Convert renders src as PDF into dst. A missing binary or an expired
// context is reported as Unavailable.
func (l *LibreOffice) Convert(ctx context.Context, src, dst string) error {
	bin, err := exec.LookPath(l.binary)
	if err != nil {
		return errdefs.Wrap(errdefs.Unavailable, err, "LibreOffice no está instalado o no se encuentra '%s'", l.binary)
	}

	outDir, err := os.MkdirTemp(filepath.Dir(dst), ".filemate-office-")
	if err != nil {
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo preparar la conversión de '%s'", filepath.Base(src))
	}
	defer os.RemoveAll(outDir)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, src)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errdefs.Wrap(errdefs.Unavailable, ctx.Err(), "LibreOffice no respondió a tiempo al convertir '%s'", filepath.Base(src))
		}
		return errdefs.Wrap(errdefs.ExternalFailure,
			errors.Wrapf(err, "soffice: %s", strings.TrimSpace(output.String())),
			"LibreOffice no pudo convertir '%s'", filepath.Base(src))
	}

	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+".pdf")
	f, err := os.Open(produced)
	if err != nil {
		return errdefs.Wrap(errdefs.ExternalFailure, err, "LibreOffice no generó el PDF de '%s'", filepath.Base(src))
	}
	defer f.Close()
	if err := writeAtomically(dst, f); err != nil {
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo guardar '%s'", filepath.Base(dst))
	}
	return nil
}
