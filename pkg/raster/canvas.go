package raster

import (
	"image"
	"image/color"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Align positions text relative to its anchor x
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle describes how a run of text is drawn, in logical pixels.
type TextStyle struct {
	Size   float64
	Weight Weight
	Color  color.Color
	Align  Align
}

// Canvas is a raster target addressed in logical (unscaled) coordinates.
// Every length passed to a Canvas method is multiplied by the capture scale.
type Canvas struct {
	img    *image.RGBA
	scale  float64
	width  float64
	height float64
	fonts  *FontSet
	faces  map[faceKey]font.Face
}

type faceKey struct {
	weight Weight
	size   float64
}

func newCanvas(width, height int, scale float64, fonts *FontSet) *Canvas {
	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	return &Canvas{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		scale:  scale,
		width:  float64(width),
		height: float64(height),
		fonts:  fonts,
		faces:  make(map[faceKey]font.Face),
	}
}

// Width returns the logical width
func (c *Canvas) Width() float64 { return c.width }

// Height returns the logical height
func (c *Canvas) Height() float64 { return c.height }

// Scale returns the device pixels per logical pixel
func (c *Canvas) Scale() float64 { return c.scale }

// Image returns the backing raster
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) px(v float64) int {
	return int(math.Round(v * c.scale))
}

func (c *Canvas) rect(x, y, w, h float64) image.Rectangle {
	return image.Rect(c.px(x), c.px(y), c.px(x+w), c.px(y+h))
}

// Fill paints the whole canvas
func (c *Canvas) Fill(col color.Color) {
	xdraw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, xdraw.Src)
}

// FillRect composites col over the rectangle
func (c *Canvas) FillRect(x, y, w, h float64, col color.Color) {
	r := c.rect(x, y, w, h)
	// Hairlines must survive rounding at scale 1.
	if r.Dx() == 0 && w > 0 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() == 0 && h > 0 {
		r.Max.Y = r.Min.Y + 1
	}
	xdraw.Draw(c.img, r, image.NewUniform(col), image.Point{}, xdraw.Over)
}

// StrokeRect outlines the rectangle with lines of the given thickness, drawn inside it.
func (c *Canvas) StrokeRect(x, y, w, h, thickness float64, col color.Color) {
	c.FillRect(x, y, w, thickness, col)
	c.FillRect(x, y+h-thickness, w, thickness, col)
	c.FillRect(x, y, thickness, h, col)
	c.FillRect(x+w-thickness, y, thickness, h, col)
}

// DiagonalGradient fills the canvas from the top-left color to the bottom-right one.
func (c *Canvas) DiagonalGradient(from, to color.Color) {
	a := color.RGBAModel.Convert(from).(color.RGBA)
	b := color.RGBAModel.Convert(to).(color.RGBA)

	bounds := c.img.Bounds()
	span := float64(bounds.Dx() + bounds.Dy() - 2)
	if span <= 0 {
		span = 1
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		offset := c.img.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			t := float64(x+y) / span
			c.img.Pix[offset] = lerp(a.R, b.R, t)
			c.img.Pix[offset+1] = lerp(a.G, b.G, t)
			c.img.Pix[offset+2] = lerp(a.B, b.B, t)
			c.img.Pix[offset+3] = lerp(a.A, b.A, t)
			offset += 4
		}
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// DrawImage scales src into the logical rectangle. Smooth selects
// Catmull-Rom resampling; otherwise nearest neighbor keeps hard edges.
func (c *Canvas) DrawImage(src image.Image, x, y, w, h float64, smooth bool) {
	if src == nil {
		return
	}
	dst := c.rect(x, y, w, h)
	if smooth {
		xdraw.CatmullRom.Scale(c.img, dst, src, src.Bounds(), xdraw.Over, nil)
		return
	}
	xdraw.NearestNeighbor.Scale(c.img, dst, src, src.Bounds(), xdraw.Over, nil)
}

func (c *Canvas) face(style TextStyle) (font.Face, error) {
	key := faceKey{weight: style.Weight, size: style.Size * c.scale}
	if face, ok := c.faces[key]; ok {
		return face, nil
	}
	face, err := c.fonts.NewFace(style.Weight, key.size)
	if err != nil {
		return nil, err
	}
	c.faces[key] = face
	return face, nil
}

// MeasureText returns the logical advance width of text.
func (c *Canvas) MeasureText(text string, style TextStyle) (float64, error) {
	face, err := c.face(style)
	if err != nil {
		return 0, err
	}
	return fixedToFloat(font.MeasureString(face, text)) / c.scale, nil
}

// FitText shrinks style.Size until text fits in maxWidth, stopping at
// minSize. Text that already fits keeps its style.
func (c *Canvas) FitText(text string, maxWidth, minSize float64, style TextStyle) (TextStyle, error) {
	width, err := c.MeasureText(text, style)
	if err != nil || width <= maxWidth {
		return style, err
	}

	// advance width scales linearly with size, so start from the ratio
	style.Size = math.Max(minSize, math.Floor(style.Size*maxWidth/width))
	for style.Size > minSize {
		width, err = c.MeasureText(text, style)
		if err != nil {
			return style, err
		}
		if width <= maxWidth {
			break
		}
		style.Size = math.Max(minSize, style.Size-1)
	}
	return style, nil
}

// DrawText draws a single line with its baseline at y.
func (c *Canvas) DrawText(text string, x, y float64, style TextStyle) error {
	face, err := c.face(style)
	if err != nil {
		return err
	}

	width := fixedToFloat(font.MeasureString(face, text)) / c.scale
	switch style.Align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}

	col := style.Color
	if col == nil {
		col = color.Black
	}

	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(c.px(x), c.px(y)),
	}
	d.DrawString(text)
	return nil
}

// WrapText breaks text into lines no wider than maxWidth. Newlines start a
// new line; blank lines are kept.
func (c *Canvas) WrapText(text string, maxWidth float64, style TextStyle) ([]string, error) {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			width, err := c.MeasureText(candidate, style)
			if err != nil {
				return nil, err
			}
			if width > maxWidth {
				lines = append(lines, current)
				current = word
				continue
			}
			current = candidate
		}
		lines = append(lines, current)
	}
	return lines, nil
}

// DrawParagraph wraps and draws text starting with the first baseline at y.
// It returns the baseline after the last line.
func (c *Canvas) DrawParagraph(text string, x, y, maxWidth, lineHeight float64, style TextStyle) (float64, error) {
	lines, err := c.WrapText(text, maxWidth, style)
	if err != nil {
		return y, err
	}
	for _, line := range lines {
		if line != "" {
			if err := c.DrawText(line, x, y, style); err != nil {
				return y, err
			}
		}
		y += lineHeight
	}
	return y, nil
}

func (c *Canvas) close() {
	for key, face := range c.faces {
		_ = face.Close()
		delete(c.faces, key)
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
