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
	"image"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

type stubConverter struct {
	err      error
	calls    int
	deadline bool
}

func (c *stubConverter) Convert(ctx context.Context, src, dst string) error {
	c.calls++
	_, c.deadline = ctx.Deadline()
	if c.err != nil {
		return c.err
	}
	return os.WriteFile(dst, []byte("converted:"+src), 0o644)
}

func TestConvertImageFormat(t *testing.T) {
	f := newFixture(t)
	writeJPEG(t, f.write(t, "fotos/playa.jpg", ""))

	r := f.svc.ConvertImageFormat(f.base, "fotos/playa.jpg", "PNG", "")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, f.path("fotos/playa.png"), r.NewFilePath)

	out, err := os.Open(r.NewFilePath)
	require.NoError(t, err)
	defer out.Close()
	_, format, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestConvertImageFormatExplicitOutput(t *testing.T) {
	f := newFixture(t)
	writeJPEG(t, f.write(t, "playa.jpg", ""))

	r := f.svc.ConvertImageFormat(f.base, "playa.jpg", "gif", "exportadas/playa-web.gif")
	require.True(t, r.Success, r.Message)
	assert.FileExists(t, f.path("exportadas/playa-web.gif"))
}

func TestConvertImageFormatFailures(t *testing.T) {
	f := newFixture(t)
	writeJPEG(t, f.write(t, "playa.jpg", ""))
	f.write(t, "playa.png", "taken")
	f.write(t, "roto.jpg", "not an image")

	f.assertFailedWithoutChanges(t, errdefs.Conflict, func() Result {
		return f.svc.ConvertImageFormat(f.base, "playa.jpg", "png", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.ConvertImageFormat(f.base, "playa.jpg", "heic", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.NotFound, func() Result {
		return f.svc.ConvertImageFormat(f.base, "nada.jpg", "png", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.ConvertImageFormat(f.base, "roto.jpg", "png", "nuevas/roto.png")
	})
	f.assertFailedWithoutChanges(t, errdefs.NotPermitted, func() Result {
		return f.svc.ConvertImageFormat(f.base, "playa.jpg", "png", "playa.exe")
	})
}

func TestConvertPDFToWord(t *testing.T) {
	stub := &stubConverter{}
	f := newFixture(t, WithPDFConverter(stub), WithConvertTimeout(time.Minute))
	f.write(t, "docs/contrato.pdf", "%PDF")

	r := f.svc.ConvertPDFToWord(context.Background(), f.base, "docs/contrato.pdf", "")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, f.path("docs/contrato.docx"), r.NewFilePath)
	assert.Equal(t, "converted:"+f.path("docs/contrato.pdf"), f.read(t, "docs/contrato.docx"))
	assert.True(t, stub.deadline)

	r = f.svc.ConvertPDFToWord(context.Background(), f.base, "docs/contrato.pdf", "word/contrato-editable.docx")
	require.True(t, r.Success, r.Message)
	assert.FileExists(t, f.path("word/contrato-editable.docx"))
}

func TestConvertPDFToWordFailures(t *testing.T) {
	stub := &stubConverter{}
	f := newFixture(t, WithPDFConverter(stub))
	f.write(t, "contrato.pdf", "%PDF")
	f.write(t, "contrato.docx", "old")
	f.write(t, "nota.txt", "n")

	f.assertFailedWithoutChanges(t, errdefs.Conflict, func() Result {
		return f.svc.ConvertPDFToWord(context.Background(), f.base, "contrato.pdf", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.ConvertPDFToWord(context.Background(), f.base, "nota.txt", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.ConvertPDFToWord(context.Background(), f.base, "contrato.pdf", "salida.odt")
	})
	assert.Zero(t, stub.calls)

	stub.err = context.DeadlineExceeded
	f.assertFailedWithoutChanges(t, errdefs.Unavailable, func() Result {
		return f.svc.ConvertPDFToWord(context.Background(), f.base, "contrato.pdf", "nuevo/otro.docx")
	})

	stub.err = errdefs.New(errdefs.ExternalFailure, "rechazado")
	r := f.assertFailedWithoutChanges(t, errdefs.ExternalFailure, func() Result {
		return f.svc.ConvertPDFToWord(context.Background(), f.base, "contrato.pdf", "otro.docx")
	})
	assert.Equal(t, "rechazado", r.Message)
}

func TestConvertersNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.write(t, "contrato.pdf", "%PDF")
	f.write(t, "informe.docx", "docx")

	f.assertFailedWithoutChanges(t, errdefs.Unavailable, func() Result {
		return f.svc.ConvertPDFToWord(context.Background(), f.base, "contrato.pdf", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.Unavailable, func() Result {
		return f.svc.ConvertWordToPDF(context.Background(), f.base, "informe.docx")
	})
}

func TestConvertWordToPDF(t *testing.T) {
	stub := &stubConverter{}
	f := newFixture(t, WithWordConverter(stub))
	f.write(t, "informe.DOCX", "docx")
	f.write(t, "informe.pdf", "old")
	f.write(t, "otro.docx", "docx")

	r := f.svc.ConvertWordToPDF(context.Background(), f.base, "otro.docx")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, f.path("otro.pdf"), r.NewFilePath)

	f.assertFailedWithoutChanges(t, errdefs.Conflict, func() Result {
		return f.svc.ConvertWordToPDF(context.Background(), f.base, "informe.DOCX")
	})
}
