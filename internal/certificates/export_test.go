package certificates

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"techstar/certificate-portal/certificate-portal-backend/pkg/pdf"
	"techstar/certificate-portal/certificate-portal-backend/pkg/qr"
	"techstar/certificate-portal/certificate-portal-backend/pkg/raster"
)

// MockCapturer is a mock implementation of the Capturer interface
type MockCapturer struct {
	mock.Mock
}

func (m *MockCapturer) Capture(ctx context.Context, s raster.Surface, opts raster.Options) (image.Image, error) {
	args := m.Called(ctx, s, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(image.Image), args.Error(1)
}

// MockDocumentEncoder is a mock implementation of the DocumentEncoder interface
type MockDocumentEncoder struct {
	mock.Mock
}

func (m *MockDocumentEncoder) EmbedFullPage(ctx context.Context, img []byte) ([]byte, error) {
	args := m.Called(ctx, img)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func testRecord() *CertificateRecord {
	return &CertificateRecord{
		ParticipantName:  "José da Silva",
		VerificationCode: "TS-2025-1234",
		IssueDate:        "15 de Janeiro de 2025",
		VerificationURL:  "https://techstar.academy/verify/TS-2025-1234",
		GeneratedAt:      testNow,
	}
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func scaleIs(scale float64) interface{} {
	return mock.MatchedBy(func(opts raster.Options) bool { return opts.Scale == scale })
}

func TestExporter_ExportPDF(t *testing.T) {
	capturer := new(MockCapturer)
	document := new(MockDocumentEncoder)
	capturer.On("Capture", mock.Anything, mock.AnythingOfType("*certificates.Surface"), scaleIs(2)).Return(solidImage(4, 3), nil)
	document.On("EmbedFullPage", mock.Anything, mock.Anything).Return([]byte("%PDF-1.3 test"), nil)

	exporter := NewExporter(capturer, document, DefaultLayout(), DefaultExportOptions())
	artifact, err := exporter.ExportPDF(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, "certificado-jose-da-silva.pdf", artifact.Filename)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.Equal(t, FormatPDF, artifact.Format)
	assert.Equal(t, []byte("%PDF-1.3 test"), artifact.Data)

	capturer.AssertExpectations(t)
	document.AssertExpectations(t)
}

func TestExporter_ExportPNG(t *testing.T) {
	capturer := new(MockCapturer)
	capturer.On("Capture", mock.Anything, mock.Anything, scaleIs(3)).Return(solidImage(6, 4), nil)

	exporter := NewExporter(capturer, new(MockDocumentEncoder), DefaultLayout(), DefaultExportOptions())
	artifact, err := exporter.ExportPNG(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, "certificado-jose-da-silva.png", artifact.Filename)
	assert.Equal(t, "image/png", artifact.ContentType)

	img, err := raster.DecodeImage(artifact.Data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
}

func TestExporter_NilCaptureIsEmptyArtifact(t *testing.T) {
	capturer := new(MockCapturer)
	capturer.On("Capture", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	exporter := NewExporter(capturer, new(MockDocumentEncoder), DefaultLayout(), DefaultExportOptions())
	artifact, err := exporter.ExportPNG(context.Background(), testRecord())

	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, ErrEmptyArtifact)
	var externalErr *ExternalServiceError
	require.ErrorAs(t, err, &externalErr)
	assert.Equal(t, "raster", externalErr.Service)
}

func TestExporter_CaptureFailure(t *testing.T) {
	capturer := new(MockCapturer)
	document := new(MockDocumentEncoder)
	capturer.On("Capture", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("out of memory"))

	exporter := NewExporter(capturer, document, DefaultLayout(), DefaultExportOptions())
	_, err := exporter.ExportPDF(context.Background(), testRecord())

	var externalErr *ExternalServiceError
	require.ErrorAs(t, err, &externalErr)
	assert.Equal(t, "capture", externalErr.Op)
	document.AssertNotCalled(t, "EmbedFullPage", mock.Anything, mock.Anything)
}

func TestExporter_DocumentFailures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		err     error
		wantErr error
	}{
		{name: "encoder error", err: errors.New("bad page"), wantErr: nil},
		{name: "empty document", data: []byte{}, wantErr: ErrEmptyArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capturer := new(MockCapturer)
			document := new(MockDocumentEncoder)
			capturer.On("Capture", mock.Anything, mock.Anything, mock.Anything).Return(solidImage(2, 2), nil)
			document.On("EmbedFullPage", mock.Anything, mock.Anything).Return(tt.data, tt.err)

			exporter := NewExporter(capturer, document, DefaultLayout(), DefaultExportOptions())
			artifact, err := exporter.ExportPDF(context.Background(), testRecord())

			assert.Nil(t, artifact)
			var externalErr *ExternalServiceError
			require.ErrorAs(t, err, &externalErr)
			assert.Equal(t, "pdf", externalErr.Service)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestExporter_NoRecord(t *testing.T) {
	exporter := NewExporter(new(MockCapturer), new(MockDocumentEncoder), DefaultLayout(), DefaultExportOptions())

	_, err := exporter.ExportPNG(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCertificate)
}

func TestExporter_RendersRealSurface(t *testing.T) {
	renderer, err := raster.NewRenderer()
	require.NoError(t, err)

	encoder := qr.NewEncoder(qr.DefaultOptions())
	record := testRecord()
	record.QRImage, err = encoder.Encode(context.Background(), record.VerificationURL)
	require.NoError(t, err)
	snapshot := *record
	snapshotQR := *record.QRImage

	options := DefaultExportOptions()
	options.PNGScale = 1
	options.PDFScale = 1
	exporter := NewExporter(renderer, pdf.NewGenerator(pdf.DefaultPageOptions()), DefaultLayout(), options)

	first, err := exporter.ExportPNG(context.Background(), record)
	require.NoError(t, err)
	second, err := exporter.ExportPNG(context.Background(), record)
	require.NoError(t, err)

	img, err := raster.DecodeImage(first.Data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, surfaceWidth, surfaceHeight), img.Bounds())
	assert.Equal(t, first.Data, second.Data)
	assert.NotSame(t, &first.Data[0], &second.Data[0])

	doc, err := exporter.ExportPDF(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))

	assert.Equal(t, snapshot, *record)
	assert.Equal(t, snapshotQR, *record.QRImage)
}

func TestSurface_QRIsOptional(t *testing.T) {
	renderer, err := raster.NewRenderer()
	require.NoError(t, err)

	withQR := testRecord()
	withQR.QRImage, err = qr.NewEncoder(qr.DefaultOptions()).Encode(context.Background(), withQR.VerificationURL)
	require.NoError(t, err)

	capture := func(record *CertificateRecord) image.Image {
		surface, err := NewSurface(record, DefaultLayout())
		require.NoError(t, err)
		img, err := renderer.Capture(context.Background(), surface, raster.Options{Scale: 1, Background: color.White})
		require.NoError(t, err)
		return img
	}

	plain := capture(testRecord())
	coded := capture(withQR)

	// the QR sits in the bottom-left corner; nothing else is drawn there
	differs := false
	for y := surfaceHeight - 164; y < surfaceHeight-68 && !differs; y++ {
		for x := 64; x < 160; x++ {
			if plain.At(x, y) != coded.At(x, y) {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs)
}

func TestNewSurface_RejectsCorruptQR(t *testing.T) {
	record := testRecord()
	record.QRImage = &qr.Image{PNG: []byte("not a png")}

	_, err := NewSurface(record, DefaultLayout())
	assert.Error(t, err)
}

type nameMeasuringSurface struct {
	*Surface
	style raster.TextStyle
	width float64
}

func (s *nameMeasuringSurface) Paint(c *raster.Canvas) error {
	style, err := s.nameStyle(c)
	if err != nil {
		return err
	}
	s.style = style
	s.width, err = c.MeasureText(s.record.ParticipantName, style)
	return err
}

func TestSurface_NameFitsWidth(t *testing.T) {
	renderer, err := raster.NewRenderer()
	require.NoError(t, err)

	tests := []struct {
		name   string
		shrink bool
	}{
		{name: "Ana Souza", shrink: false},
		{name: "Maria Eduarda de Albuquerque Cavalcanti Bittencourt Figueiredo", shrink: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := testRecord()
			record.ParticipantName = tt.name
			surface, err := NewSurface(record, DefaultLayout())
			require.NoError(t, err)

			measured := &nameMeasuringSurface{Surface: surface}
			_, err = renderer.Capture(context.Background(), measured, raster.Options{Scale: 2})
			require.NoError(t, err)

			assert.LessOrEqual(t, measured.width, float64(surfaceWidth)-2*surfacePad)
			if tt.shrink {
				assert.Less(t, measured.style.Size, nameSize)
			} else {
				assert.Equal(t, nameSize, measured.style.Size)
			}
		})
	}
}

func TestSurface_OrganizationShownWithoutLogo(t *testing.T) {
	renderer, err := raster.NewRenderer()
	require.NoError(t, err)

	capture := func(layout Layout) *image.RGBA {
		surface, err := NewSurface(testRecord(), layout)
		require.NoError(t, err)
		img, err := renderer.Capture(context.Background(), surface, raster.Options{Scale: 1})
		require.NoError(t, err)
		return img.(*image.RGBA)
	}

	named := DefaultLayout()
	unnamed := DefaultLayout()
	unnamed.Organization = ""

	withName, withoutName := capture(named), capture(unnamed)
	header := image.Rect(surfaceWidth/2-160, 52, surfaceWidth/2+160, 78)
	differs := false
	for y := header.Min.Y; y < header.Max.Y && !differs; y++ {
		for x := header.Min.X; x < header.Max.X; x++ {
			if withName.RGBAAt(x, y) != withoutName.RGBAAt(x, y) {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs)

	// a logo takes the organization's place
	named.Logo = solidImage(16, 16)
	unnamed.Logo = solidImage(16, 16)
	assert.Equal(t, capture(unnamed).Pix, capture(named).Pix)
}
