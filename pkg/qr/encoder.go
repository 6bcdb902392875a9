package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// Options controls how a QR symbol is rasterized
type Options struct {
	Width      int                  // output width and height in pixels
	Margin     int                  // quiet zone, in modules
	Foreground color.Color          // module color
	Background color.Color          // quiet zone and light module color
	Level      qrcode.RecoveryLevel // error correction
}

// DefaultOptions mirrors the verification QR printed on certificates.
func DefaultOptions() Options {
	return Options{
		Width:      200,
		Margin:     1,
		Foreground: color.RGBA{R: 0x0D, G: 0x6E, B: 0xFD, A: 0xFF},
		Background: color.White,
		Level:      qrcode.Medium,
	}
}

// Image is an encoded QR code ready to be embedded
type Image struct {
	PNG     []byte `json:"-"`
	DataURL string `json:"data_url"`
	Width   int    `json:"width"`
}

// Encoder renders content into QR PNG images
type Encoder struct {
	options Options
}

// NewEncoder creates a new QR encoder
func NewEncoder(options Options) *Encoder {
	if options.Foreground == nil {
		options.Foreground = color.Black
	}
	if options.Background == nil {
		options.Background = color.White
	}
	return &Encoder{options: options}
}

// Encode renders content as a square PNG of Options.Width pixels.
func (e *Encoder) Encode(ctx context.Context, content string) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if e.options.Width <= 0 {
		return nil, fmt.Errorf("invalid width %d", e.options.Width)
	}

	code, err := qrcode.New(content, e.options.Level)
	if err != nil {
		return nil, fmt.Errorf("QR creation failed: %w", err)
	}
	// The quiet zone is drawn below so the margin can be narrower than the
	// library's fixed four modules.
	code.DisableBorder = true

	img := e.rasterize(code.Bitmap())

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("cannot encode QR: %w", err)
	}

	return &Image{
		PNG:     buf.Bytes(),
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   e.options.Width,
	}, nil
}

func (e *Encoder) rasterize(bitmap [][]bool) *image.RGBA {
	width := e.options.Width
	margin := e.options.Margin
	if margin < 0 {
		margin = 0
	}

	modules := len(bitmap) + 2*margin
	moduleSize := width / modules
	if moduleSize < 1 {
		moduleSize = 1
	}
	// Leftover pixels are split evenly so the symbol stays centered.
	offset := (width-moduleSize*modules)/2 + margin*moduleSize

	fg := color.RGBAModel.Convert(e.options.Foreground).(color.RGBA)
	bg := color.RGBAModel.Convert(e.options.Background).(color.RGBA)

	img := image.NewRGBA(image.Rect(0, 0, width, width))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}

	for row, line := range bitmap {
		for col, dark := range line {
			if !dark {
				continue
			}
			x0 := offset + col*moduleSize
			y0 := offset + row*moduleSize
			for y := y0; y < y0+moduleSize && y < width; y++ {
				for x := x0; x < x0+moduleSize && x < width; x++ {
					img.SetRGBA(x, y, fg)
				}
			}
		}
	}
	return img
}
