package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boxSurface struct {
	width, height int
	err           error
	painted       *Canvas
}

func (s *boxSurface) Size() (int, int) { return s.width, s.height }

func (s *boxSurface) Paint(c *Canvas) error {
	s.painted = c
	if s.err != nil {
		return s.err
	}
	c.FillRect(10, 10, 20, 20, color.Black)
	return c.DrawText("Certificado", c.Width()/2, 80, TextStyle{Size: 16, Weight: Bold, Align: AlignCenter})
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestCaptureScalesSurface(t *testing.T) {
	r := newTestRenderer(t)
	surface := &boxSurface{width: 200, height: 100}

	img, err := r.Capture(context.Background(), surface, Options{Scale: 2, Background: color.White})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 400, 200), img.Bounds())
	// Background survives outside the box, box is drawn at 2x.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, color.RGBAModel.Convert(img.At(5, 5)))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, color.RGBAModel.Convert(img.At(30, 30)))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, color.RGBAModel.Convert(img.At(59, 59)))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, color.RGBAModel.Convert(img.At(61, 61)))
}

func TestCaptureErrors(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Capture(context.Background(), &boxSurface{width: 10, height: 10}, Options{Scale: 0})
	assert.Error(t, err)

	_, err = r.Capture(context.Background(), &boxSurface{width: 0, height: 10}, Options{Scale: 1})
	assert.Error(t, err)

	_, err = r.Capture(context.Background(), nil, Options{Scale: 1})
	assert.Error(t, err)

	paintErr := errors.New("boom")
	_, err = r.Capture(context.Background(), &boxSurface{width: 10, height: 10, err: paintErr}, Options{Scale: 1})
	assert.ErrorIs(t, err, paintErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Capture(ctx, &boxSurface{width: 10, height: 10}, Options{Scale: 1})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = r.Capture(context.Background(), &boxSurface{width: 100000, height: 100000}, Options{Scale: 3})
	assert.Error(t, err)
}

func TestWrapText(t *testing.T) {
	r := newTestRenderer(t)
	c := newCanvas(100, 100, 1, r.fonts)
	defer c.close()
	style := TextStyle{Size: 12}

	lines, err := c.WrapText("um dois três quatro cinco seis sete oito nove dez", 80, style)
	require.NoError(t, err)
	assert.Greater(t, len(lines), 1)
	for _, line := range lines {
		w, err := c.MeasureText(line, style)
		require.NoError(t, err)
		// A single word may overflow; joined words never do.
		if len(strings.Fields(line)) > 1 {
			assert.LessOrEqual(t, w, 80.0)
		}
	}

	lines, err = c.WrapText("a\n\nb", 500, style)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "", "b"}, lines)
}

func TestFitText(t *testing.T) {
	r := newTestRenderer(t)
	c := newCanvas(1122, 793, 2, r.fonts)
	defer c.close()
	style := TextStyle{Size: 60, Weight: BoldItalic}

	fitted, err := c.FitText("Ana", 1026, 24, style)
	require.NoError(t, err)
	assert.Equal(t, style, fitted)

	long := "Maria Eduarda de Albuquerque Cavalcanti Bittencourt"
	wide, err := c.MeasureText(long, style)
	require.NoError(t, err)
	require.Greater(t, wide, 1026.0)

	fitted, err = c.FitText(long, 1026, 24, style)
	require.NoError(t, err)
	assert.Less(t, fitted.Size, style.Size)
	assert.GreaterOrEqual(t, fitted.Size, 24.0)
	w, err := c.MeasureText(long, fitted)
	require.NoError(t, err)
	assert.LessOrEqual(t, w, 1026.0)

	fitted, err = c.FitText(strings.Repeat("W", 400), 1026, 24, style)
	require.NoError(t, err)
	assert.Equal(t, 24.0, fitted.Size)
}

func TestEncodePNG(t *testing.T) {
	_, err := EncodePNG(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = EncodePNG(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrEmptyImage)

	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)

	img, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = DecodeImage(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#0D6EFD")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x0D, G: 0x6E, B: 0xFD, A: 0xFF}, c)

	c, err = ParseHexColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, c)

	_, err = ParseHexColor("#12345")
	assert.Error(t, err)

	_, err = ParseHexColor("#GGGGGG")
	assert.Error(t, err)
}
