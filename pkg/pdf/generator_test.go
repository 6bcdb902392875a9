package pdf

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 28))
	for y := 0; y < 28; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 13, G: 110, B: 253, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEmbedFullPage(t *testing.T) {
	gen := NewGenerator(DefaultPageOptions())

	out, err := gen.EmbedFullPage(context.Background(), samplePNG(t))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "/Subtype /Image")
}

func TestEmbedFullPageRejectsEmptyImage(t *testing.T) {
	gen := NewGenerator(DefaultPageOptions())

	out, err := gen.EmbedFullPage(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, out)
}

func TestEmbedFullPageRejectsGarbage(t *testing.T) {
	gen := NewGenerator(DefaultPageOptions())

	_, err := gen.EmbedFullPage(context.Background(), []byte("not a png"))

	assert.Error(t, err)
}

func TestEmbedFullPageHonorsContext(t *testing.T) {
	gen := NewGenerator(DefaultPageOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.EmbedFullPage(ctx, samplePNG(t))

	assert.ErrorIs(t, err, context.Canceled)
}
