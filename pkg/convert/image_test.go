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
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 128})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestImageFormat(t *testing.T) {
	tests := map[string]string{
		"png":   FormatPNG,
		".JPG":  FormatJPEG,
		"jpeg":  FormatJPEG,
		" gif ": FormatGIF,
		"bmp":   FormatBMP,
		".tif":  FormatTIFF,
		"TIFF":  FormatTIFF,
	}
	for in, want := range tests {
		got, err := ImageFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ImageFormat("webp")
	assert.True(t, errdefs.IsKind(err, errdefs.InvalidInput))
	_, err = ImageFormat("")
	assert.True(t, errdefs.IsKind(err, errdefs.InvalidInput))
}

func TestConvertImageEveryFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "foto.png")
	writePNG(t, src)
	c := NewImageConverter()

	for _, format := range []string{FormatPNG, FormatJPEG, FormatGIF, FormatBMP, FormatTIFF} {
		t.Run(format, func(t *testing.T) {
			dst := filepath.Join(dir, "out."+format)
			require.NoError(t, c.ConvertImage(src, dst, format))

			f, err := os.Open(dst)
			require.NoError(t, err)
			defer f.Close()
			cfg, decoded, err := image.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, format, decoded)
			assert.Equal(t, 4, cfg.Width)
			assert.Equal(t, 3, cfg.Height)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6, "no temporary files are left behind")
}

func TestConvertImageRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	err := NewImageConverter().ConvertImage(src, filepath.Join(dir, "notes.jpg"), "jpg")
	assert.True(t, errdefs.IsKind(err, errdefs.InvalidInput))
	assert.NoFileExists(t, filepath.Join(dir, "notes.jpg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFlattenRemovesTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{A: 0})

	out := flatten(img)
	r, g, b, a := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}
