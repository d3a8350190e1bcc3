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
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(out, img, nil))
	require.NoError(t, out.Close())
}

func TestRenameFilesBatchAccounting(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 5; i++ {
		f.write(t, fmt.Sprintf("fotos/IMG_%d.jpg", i), "img")
	}
	f.write(t, "fotos/notes.txt", "n")

	r := f.svc.RenameFilesBatch(f.base, "fotos", "IMG_*", "viaje_", "")
	require.True(t, r.Success, r.Message)
	require.NotNil(t, r.Batch)
	assert.Equal(t, 5, r.Batch.Matched)
	assert.Equal(t, 5, r.Batch.Succeeded)
	assert.Len(t, r.Batch.Items, 5)
	for i := 1; i <= 5; i++ {
		assert.FileExists(t, f.path(fmt.Sprintf("fotos/viaje_IMG_%d.jpg", i)))
	}

	none := f.assertFailedWithoutChanges(t, errdefs.NotFound, func() Result {
		return f.svc.RenameFilesBatch(f.base, "fotos", "DOC_*", "x_", "")
	})
	require.NotNil(t, none.Batch)
	assert.Equal(t, 0, none.Batch.Matched)
	assert.Equal(t, 0, none.Batch.Succeeded)
}

func TestRenameFilesBatchSuffix(t *testing.T) {
	f := newFixture(t)
	f.write(t, "docs/a.txt", "a")
	f.write(t, "docs/b.txt", "b")

	r := f.svc.RenameFilesBatch(f.base, "docs", "*.txt", "", "_v2")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "a", f.read(t, "docs/a_v2.txt"))
	assert.Equal(t, "b", f.read(t, "docs/b_v2.txt"))
}

func TestRenameFilesBatchContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 5; i++ {
		f.write(t, fmt.Sprintf("fotos/IMG_%d.jpg", i), "img")
	}
	f.write(t, "fotos/x_IMG_3.jpg", "taken")

	r := f.svc.RenameFilesBatch(f.base, "fotos", "IMG_*", "x_", "")
	assert.False(t, r.Success)
	assert.Equal(t, errdefs.Conflict, r.Kind)
	require.NotNil(t, r.Batch)
	assert.Equal(t, 5, r.Batch.Matched)
	assert.Equal(t, 4, r.Batch.Succeeded)

	var failed []BatchItem
	for _, item := range r.Batch.Items {
		if !item.Success {
			failed = append(failed, item)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, f.path("fotos/IMG_3.jpg"), failed[0].Source)
	assert.Equal(t, errdefs.Conflict, failed[0].Kind)
	assert.Equal(t, "taken", f.read(t, "fotos/x_IMG_3.jpg"))
	assert.Equal(t, "img", f.read(t, "fotos/IMG_3.jpg"))
}

func TestRenameFilesBatchValidation(t *testing.T) {
	f := newFixture(t)
	f.write(t, "docs/a.txt", "a")

	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.RenameFilesBatch(f.base, "docs", "*", "", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.RenameFilesBatch(f.base, "docs", "", "x", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.RenameFilesBatch(f.base, "docs", "[", "x", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.RenameFilesBatch(f.base, "docs", "*", "../", "")
	})
	f.assertFailedWithoutChanges(t, errdefs.NotFound, func() Result {
		return f.svc.RenameFilesBatch(f.base, "nada", "*", "x", "")
	})

	f.write(t, "docs/run.sh", "echo")
	r := f.assertFailedWithoutChanges(t, errdefs.NotPermitted, func() Result {
		return f.svc.RenameFilesBatch(f.base, "docs", "*.sh", "x_", "")
	})
	assert.Equal(t, 1, r.Batch.Matched)
	assert.Equal(t, 0, r.Batch.Succeeded)
}

func TestMoveFilesBatch(t *testing.T) {
	f := newFixture(t)
	f.write(t, "entrada/a.pdf", "a")
	f.write(t, "entrada/b.PDF", "b")
	f.write(t, "entrada/c.pdf", "c")
	f.write(t, "entrada/nota.txt", "n")

	r := f.svc.MoveFilesBatch(f.base, "entrada", "pdfs", "*.pdf")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, 2, r.Batch.Matched)
	assert.Equal(t, 2, r.Batch.Succeeded)
	assert.Equal(t, "a", f.read(t, "pdfs/a.pdf"))
	assert.Equal(t, "c", f.read(t, "pdfs/c.pdf"))
	assert.FileExists(t, f.path("entrada/b.PDF"))
	assert.FileExists(t, f.path("entrada/nota.txt"))
}

func TestMoveFilesBatchDefaultPatternSkipsDestination(t *testing.T) {
	f := newFixture(t)
	f.write(t, "entrada/a.txt", "a")
	f.write(t, "entrada/sub/b.txt", "b")
	f.mkdir(t, "entrada/destino")

	r := f.svc.MoveFilesBatch(f.base, "entrada", "entrada/destino", "")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, 2, r.Batch.Matched)
	assert.Equal(t, "a", f.read(t, "entrada/destino/a.txt"))
	assert.Equal(t, "b", f.read(t, "entrada/destino/sub/b.txt"))
}

func TestMoveFilesBatchNoMatches(t *testing.T) {
	f := newFixture(t)
	f.write(t, "entrada/a.txt", "a")

	r := f.assertFailedWithoutChanges(t, errdefs.NotFound, func() Result {
		return f.svc.MoveFilesBatch(f.base, "entrada", "salida", "*.pdf")
	})
	assert.Equal(t, 0, r.Batch.Matched)
	assert.NoDirExists(t, f.path("salida"))
}

func TestMoveFilesBatchAllFailedRollsBackDestination(t *testing.T) {
	f := newFixture(t)
	f.write(t, "entrada/run.sh", "echo")

	r := f.assertFailedWithoutChanges(t, errdefs.NotPermitted, func() Result {
		return f.svc.MoveFilesBatch(f.base, "entrada", "salida", "*")
	})
	assert.Equal(t, 1, r.Batch.Matched)
	assert.Equal(t, 0, r.Batch.Succeeded)
}

func TestConvertImagesBatch(t *testing.T) {
	f := newFixture(t)
	writeJPEG(t, f.write(t, "fotos/a.jpg", ""))
	writeJPEG(t, f.write(t, "fotos/b.JPG", ""))
	writeJPEG(t, f.write(t, "fotos/c.jpg", ""))
	f.write(t, "fotos/c.png", "taken")
	f.write(t, "fotos/nota.txt", "n")

	r := f.svc.ConvertImagesBatch(f.base, "fotos", "jpg", "")
	assert.False(t, r.Success)
	require.NotNil(t, r.Batch)
	assert.Equal(t, 3, r.Batch.Matched)
	assert.Equal(t, 2, r.Batch.Succeeded)
	assert.FileExists(t, f.path("fotos/a.png"))
	assert.FileExists(t, f.path("fotos/b.png"))
	assert.Equal(t, "taken", f.read(t, "fotos/c.png"))
	assert.FileExists(t, f.path("fotos/a.jpg"))
}

func TestConvertImagesBatchRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)
	writeJPEG(t, f.write(t, "fotos/a.jpg", ""))

	f.assertFailedWithoutChanges(t, errdefs.InvalidInput, func() Result {
		return f.svc.ConvertImagesBatch(f.base, "fotos", ".jpg", ".heic")
	})
	f.assertFailedWithoutChanges(t, errdefs.NotFound, func() Result {
		return f.svc.ConvertImagesBatch(f.base, "fotos", ".gif", ".png")
	})
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".png", normalizeExt("PNG", ".jpg"))
	assert.Equal(t, ".jpg", normalizeExt(" ", ".jpg"))
	assert.Equal(t, ".tif", normalizeExt(".TIF", ""))
}
