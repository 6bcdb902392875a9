package certificates

import (
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"techstar/certificate-portal/certificate-portal-backend/pkg/raster"
)

const (
	contentTypePDF = "application/pdf"
	contentTypePNG = "image/png"
)

// Capturer rasterizes a surface
type Capturer interface {
	Capture(ctx context.Context, s raster.Surface, opts raster.Options) (image.Image, error)
}

// DocumentEncoder wraps a full-page raster into a paged document
type DocumentEncoder interface {
	EmbedFullPage(ctx context.Context, image []byte) ([]byte, error)
}

// ExportOptions sets capture scales per output
type ExportOptions struct {
	PDFScale     float64
	PNGScale     float64
	PreviewScale float64
	Background   color.Color
}

// DefaultExportOptions returns scale 2 for PDF, 3 for PNG and 1 for previews
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		PDFScale:     2,
		PNGScale:     3,
		PreviewScale: 1,
		Background:   color.White,
	}
}

// Exporter turns records into downloadable artifacts. It never mutates
// the record and keeps nothing between calls, so exports may run
// concurrently.
type Exporter struct {
	capturer Capturer
	document DocumentEncoder
	layout   Layout
	options  ExportOptions
}

// NewExporter creates an exporter
func NewExporter(capturer Capturer, document DocumentEncoder, layout Layout, options ExportOptions) *Exporter {
	return &Exporter{
		capturer: capturer,
		document: document,
		layout:   layout,
		options:  options,
	}
}

// ExportPDF captures the record and embeds it as a single landscape page.
func (e *Exporter) ExportPDF(ctx context.Context, record *CertificateRecord) (*Artifact, error) {
	data, err := e.capturePNG(ctx, record, e.options.PDFScale)
	if err != nil {
		return nil, err
	}

	doc, err := e.document.EmbedFullPage(ctx, data)
	if err != nil {
		return nil, externalError("pdf", "embed", err)
	}
	if len(doc) == 0 {
		return nil, externalError("pdf", "embed", ErrEmptyArtifact)
	}

	return &Artifact{
		Filename:    ArtifactFilename(record, FormatPDF),
		ContentType: contentTypePDF,
		Format:      FormatPDF,
		Data:        doc,
	}, nil
}

// ExportPNG captures the record as a high resolution image
func (e *Exporter) ExportPNG(ctx context.Context, record *CertificateRecord) (*Artifact, error) {
	data, err := e.capturePNG(ctx, record, e.options.PNGScale)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Filename:    ArtifactFilename(record, FormatPNG),
		ContentType: contentTypePNG,
		Format:      FormatPNG,
		Data:        data,
	}, nil
}

// Preview captures the record at preview scale
func (e *Exporter) Preview(ctx context.Context, record *CertificateRecord) (*Artifact, error) {
	data, err := e.capturePNG(ctx, record, e.options.PreviewScale)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Filename:    "preview.png",
		ContentType: contentTypePNG,
		Format:      FormatPNG,
		Data:        data,
	}, nil
}

func (e *Exporter) capturePNG(ctx context.Context, record *CertificateRecord, scale float64) ([]byte, error) {
	if record == nil {
		return nil, ErrNoCertificate
	}

	surface, err := NewSurface(record, e.layout)
	if err != nil {
		return nil, externalError("raster", "prepare", err)
	}

	img, err := e.capturer.Capture(ctx, surface, raster.Options{
		Scale:      scale,
		Background: e.options.Background,
	})
	if err != nil {
		return nil, externalError("raster", "capture", err)
	}

	data, err := raster.EncodePNG(img)
	if err != nil {
		if errors.Is(err, raster.ErrEmptyImage) {
			err = ErrEmptyArtifact
		}
		return nil, externalError("raster", "encode", err)
	}
	return data, nil
}

// LoadLogo reads a PNG or JPEG logo. An empty path means no logo.
func LoadLogo(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
