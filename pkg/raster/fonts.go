package raster

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Weight selects one of the bundled typefaces
type Weight int

const (
	Regular Weight = iota
	Bold
	Italic
	BoldItalic
	Mono
)

// FontSet holds parsed typefaces. It is immutable and safe to share; the
// faces it creates are not.
type FontSet struct {
	fonts map[Weight]*opentype.Font
}

// NewFontSet parses the Go font family
func NewFontSet() (*FontSet, error) {
	sources := map[Weight][]byte{
		Regular:    goregular.TTF,
		Bold:       gobold.TTF,
		Italic:     goitalic.TTF,
		BoldItalic: gobolditalic.TTF,
		Mono:       gomono.TTF,
	}

	fonts := make(map[Weight]*opentype.Font, len(sources))
	for weight, ttf := range sources {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %d: %w", weight, err)
		}
		fonts[weight] = f
	}

	return &FontSet{fonts: fonts}, nil
}

// NewFace returns a face for weight at size device pixels.
func (s *FontSet) NewFace(weight Weight, size float64) (font.Face, error) {
	f, ok := s.fonts[weight]
	if !ok {
		return nil, fmt.Errorf("unknown font weight %d", weight)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}
