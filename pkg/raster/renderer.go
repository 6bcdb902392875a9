package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// maxPixels bounds a single capture.
const maxPixels = 64 << 20

// ErrEmptyImage is returned when there is nothing to encode
var ErrEmptyImage = errors.New("empty image")

// Options configures a capture
type Options struct {
	Scale      float64     // device pixels per logical pixel
	Background color.Color // painted before the surface
}

// Surface is anything that can paint itself onto a Canvas.
type Surface interface {
	Size() (width, height int)
	Paint(c *Canvas) error
}

// Renderer captures surfaces into raster images.
type Renderer struct {
	fonts *FontSet
}

// NewRenderer creates a renderer with the bundled fonts
func NewRenderer() (*Renderer, error) {
	fonts, err := NewFontSet()
	if err != nil {
		return nil, err
	}
	return &Renderer{fonts: fonts}, nil
}

// Capture paints s onto a fresh canvas at opts.Scale.
func (r *Renderer) Capture(ctx context.Context, s Surface, opts Options) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("no surface to capture")
	}
	if opts.Scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", opts.Scale)
	}

	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if float64(width)*opts.Scale*float64(height)*opts.Scale > maxPixels {
		return nil, fmt.Errorf("capture of %dx%d at scale %v exceeds pixel limit", width, height, opts.Scale)
	}

	canvas := newCanvas(width, height, opts.Scale, r.fonts)
	defer canvas.close()

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	canvas.Fill(bg)

	if err := s.Paint(canvas); err != nil {
		return nil, fmt.Errorf("failed to paint surface: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return canvas.Image(), nil
}

// EncodePNG encodes img, treating a nil or zero-area image as an error.
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyImage
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes an embedded PNG
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return img, nil
}
