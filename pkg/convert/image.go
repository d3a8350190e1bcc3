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

// Package convert holds the format converters: in-process image codecs and
// adapters for external document conversion services.
package convert

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/filemate-ai/filemate/pkg/errdefs"
)

// Image formats that can be written.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

var formatAliases = map[string]string{
	"png":  FormatPNG,
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"gif":  FormatGIF,
	"bmp":  FormatBMP,
	"tif":  FormatTIFF,
	"tiff": FormatTIFF,
}

// ImageFormat returns the canonical output format for a name or extension
// such as "JPG" or ".tif".
func ImageFormat(name string) (string, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	format, ok := formatAliases[key]
	if !ok {
		return "", errdefs.New(errdefs.InvalidInput, "El formato de imagen '%s' no es compatible", name)
	}
	return format, nil
}

// ImageConverter decodes png, jpeg, gif, bmp, tiff and webp images and
// re-encodes them in process.
type ImageConverter struct {
	jpegQuality int
}

// NewImageConverter creates an ImageConverter.
func NewImageConverter() *ImageConverter {
	return &ImageConverter{jpegQuality: 90}
}

// ConvertImage writes src re-encoded as format to dst. The output is
// written to a temporary file next to dst and renamed into place.
func (c *ImageConverter) ConvertImage(src, dst, format string) error {
	format, err := ImageFormat(format)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo abrir la imagen '%s'", filepath.Base(src))
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return errdefs.Wrap(errdefs.InvalidInput, err, "El archivo '%s' no parece ser una imagen válida", filepath.Base(src))
	}

	tmp := filepath.Join(filepath.Dir(dst), "."+uuid.NewString()+".img.tmp")
	if err := c.writeImage(tmp, img, format); err != nil {
		_ = os.Remove(tmp)
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo guardar la imagen '%s'", filepath.Base(dst))
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return errdefs.Wrap(errdefs.ExternalFailure, err, "No se pudo guardar la imagen '%s'", filepath.Base(dst))
	}
	return nil
}

func (c *ImageConverter) writeImage(path string, img image.Image, format string) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := c.encode(out, img, format); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "encode %s", format)
	}
	return errors.Wrap(out.Close(), "close output")
}

func (c *ImageConverter) encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: c.jpegQuality})
	case FormatGIF:
		return gif.Encode(w, img, nil)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.Errorf("unsupported format %q", format)
	}
}

// flatten draws img over a white background; jpeg has no alpha channel.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Over)
	return rgba
}
