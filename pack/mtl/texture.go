package mtl

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

const THUMBNAIL_SIZE = 256

var textureExts = map[string]bool{".TGA": true, ".PNG": true, ".JPG": true, ".JPEG": true}

// IsTexture reports whether name has an extension LoadTexture decodes.
func IsTexture(name string) bool {
	return textureExts[strings.ToUpper(filepath.Ext(name))]
}

// LoadTexture decodes a tga, png or jpeg texture into NRGBA.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[mtl] Failed to read texture '%s'", path)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "[mtl] Failed to decode texture '%s'", path)
	}
	return toNRGBA(img), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Thumbnail scales img so its largest side is at most limit pixels.
func Thumbnail(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if limit <= 0 || (w <= limit && h <= limit) {
		return img
	}
	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeWebP writes a lossless webp preview of img.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return errors.Wrapf(err, "[mtl] WebP encode")
	}
	return nil
}

// EncodePNG is used to embed textures into exported scenes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrapf(err, "[mtl] PNG encode")
	}
	return buf.Bytes(), nil
}

// LoadPNG converts the texture file at path to png data.
func LoadPNG(path string) ([]byte, error) {
	img, err := LoadTexture(path)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}
