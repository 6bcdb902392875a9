package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ImagePNG is the only raster type the generator embeds.
const ImagePNG = "PNG"

// PageOptions configures the single page the generator produces
type PageOptions struct {
	Orientation string `json:"orientation"` // portrait, landscape
	Unit        string `json:"unit"`        // mm, pt, cm, in
	Format      string `json:"format"`      // A4, Letter, Legal, A3
}

// DefaultPageOptions returns an A4 landscape page measured in millimeters
func DefaultPageOptions() PageOptions {
	return PageOptions{
		Orientation: "landscape",
		Unit:        "mm",
		Format:      "A4",
	}
}

// Generator wraps raster images into page-formatted documents.
type Generator interface {
	EmbedFullPage(ctx context.Context, image []byte) ([]byte, error)
}

type fpdfGenerator struct {
	options PageOptions
}

// NewGenerator creates a gofpdf backed generator
func NewGenerator(options PageOptions) Generator {
	return &fpdfGenerator{options: options}
}

// EmbedFullPage places a PNG at the page origin, stretched to the page size.
func (g *fpdfGenerator) EmbedFullPage(ctx context.Context, image []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, errors.New("no image to embed")
	}

	orientation := "P"
	if g.options.Orientation == "landscape" {
		orientation = "L"
	}

	doc := gofpdf.New(orientation, g.options.Unit, g.options.Format, "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	pageWidth, pageHeight := doc.GetPageSize()
	opts := gofpdf.ImageOptions{ImageType: ImagePNG, ReadDpi: false}

	doc.RegisterImageOptionsReader("surface", opts, bytes.NewReader(image))
	doc.ImageOptions("surface", 0, 0, pageWidth, pageHeight, false, opts, 0, "")

	if doc.Err() {
		return nil, fmt.Errorf("failed to embed image: %w", doc.Error())
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Bytes(), nil
}
