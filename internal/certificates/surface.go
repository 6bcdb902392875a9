package certificates

import (
	"fmt"
	"image"
	"image/color"

	"techstar/certificate-portal/certificate-portal-backend/pkg/raster"
)

// Logical size of the certificate surface; captures multiply it by their scale.
const (
	surfaceWidth  = 1122
	surfaceHeight = 793
	surfacePad    = 48.0

	nameSize    = 60.0
	minNameSize = 24.0
)

var (
	colorPrimary    = color.RGBA{R: 0x0D, G: 0x6E, B: 0xFD, A: 0xFF}
	colorForeground = color.RGBA{R: 0x1A, G: 0x1F, B: 0x2C, A: 0xFF}
	colorMuted      = color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF}
	colorSecondary  = color.RGBA{R: 0xEE, G: 0xF3, B: 0xFB, A: 0xFF}
	colorRule       = color.RGBA{R: 0xD1, G: 0xD5, B: 0xDB, A: 0xFF}
	colorGold       = color.NRGBA{R: 0xD4, G: 0xA0, B: 0x17, A: 0x99}
)

// Layout is the static text and artwork around a record
type Layout struct {
	Organization string
	Title        string
	Intro        string
	Description  string
	SignerName   string
	SignerRole   string
	Logo         image.Image
}

// DefaultLayout returns the TechStar participation certificate
func DefaultLayout() Layout {
	return Layout{
		Organization: "TechStar Academy",
		Title:        "Certificado de Participação",
		Intro:        "Este certificado é concedido a",
		Description: "pela sua valiosa participação no evento \"TechStar 100 Experience\", realizado pela TechStar Academy.\n\n" +
			"A celebração marca a conquista dos primeiros 100 membros da comunidade, reconhecendo o compromisso com a inovação, " +
			"o aprendizado contínuo e o desenvolvimento tecnológico da nova geração.",
		SignerName: "Henrique Mendes",
		SignerRole: "CEO da TechStar Academy",
	}
}

// Surface paints a certificate record. It implements raster.Surface.
type Surface struct {
	record CertificateRecord
	layout Layout
	qr     image.Image
}

// NewSurface prepares record for capture
func NewSurface(record *CertificateRecord, layout Layout) (*Surface, error) {
	if record == nil {
		return nil, ErrNoCertificate
	}

	s := &Surface{record: *record, layout: layout}
	if record.HasQR() {
		img, err := raster.DecodeImage(record.QRImage.PNG)
		if err != nil {
			return nil, fmt.Errorf("failed to decode QR image: %w", err)
		}
		s.qr = img
	}
	return s, nil
}

// Size returns the logical surface size
func (s *Surface) Size() (int, int) {
	return surfaceWidth, surfaceHeight
}

// Paint draws the certificate
func (s *Surface) Paint(c *raster.Canvas) error {
	w, h := c.Width(), c.Height()

	c.DiagonalGradient(color.White, colorSecondary)
	c.StrokeRect(0, 0, w, h, 1, colorPrimary)
	c.StrokeRect(3, 3, w-6, h-6, 1, colorPrimary)
	s.paintCorners(c, w, h)

	y, err := s.paintHeader(c, w)
	if err != nil {
		return err
	}
	if err := s.paintBody(c, w, y); err != nil {
		return err
	}
	return s.paintFooter(c, w, h)
}

func (s *Surface) paintCorners(c *raster.Canvas, w, h float64) {
	const inset, arm, stroke = 32.0, 64.0, 2.0

	c.FillRect(inset, inset, arm, stroke, colorGold)
	c.FillRect(inset, inset, stroke, arm, colorGold)

	c.FillRect(w-inset-arm, inset, arm, stroke, colorGold)
	c.FillRect(w-inset-stroke, inset, stroke, arm, colorGold)

	c.FillRect(inset, h-inset-stroke, arm, stroke, colorGold)
	c.FillRect(inset, h-inset-arm, stroke, arm, colorGold)

	c.FillRect(w-inset-arm, h-inset-stroke, arm, stroke, colorGold)
	c.FillRect(w-inset-stroke, h-inset-arm, stroke, arm, colorGold)
}

func (s *Surface) paintHeader(c *raster.Canvas, w float64) (float64, error) {
	y := surfacePad
	if s.layout.Logo != nil {
		c.DrawImage(s.layout.Logo, w/2-64, y, 128, 128, true)
		y += 128 + 16
	} else {
		if s.layout.Organization != "" {
			if err := c.DrawText(s.layout.Organization, w/2, y+24, raster.TextStyle{
				Size: 20, Weight: raster.Bold, Color: colorPrimary, Align: raster.AlignCenter,
			}); err != nil {
				return y, err
			}
		}
		y += 48
	}

	y += 36
	if err := c.DrawText(s.layout.Title, w/2, y, raster.TextStyle{
		Size: 36, Weight: raster.Bold, Color: colorForeground, Align: raster.AlignCenter,
	}); err != nil {
		return y, err
	}

	y += 20
	c.FillRect(w/2-96, y, 192, 4, colorPrimary)
	return y + 4, nil
}

func (s *Surface) paintBody(c *raster.Canvas, w, y float64) error {
	y += 64
	if err := c.DrawText(s.layout.Intro, w/2, y, raster.TextStyle{
		Size: 18, Color: colorMuted, Align: raster.AlignCenter,
	}); err != nil {
		return err
	}

	y += 72
	name, err := s.nameStyle(c)
	if err != nil {
		return err
	}
	if err := c.DrawText(s.record.ParticipantName, w/2, y, name); err != nil {
		return err
	}

	_, err = c.DrawParagraph(s.layout.Description, w/2, y+52, 860, 26, raster.TextStyle{
		Size: 16, Color: colorForeground, Align: raster.AlignCenter,
	})
	return err
}

// nameStyle shrinks long names to stay inside the padded width
func (s *Surface) nameStyle(c *raster.Canvas) (raster.TextStyle, error) {
	return c.FitText(s.record.ParticipantName, c.Width()-2*surfacePad, minNameSize, raster.TextStyle{
		Size: nameSize, Weight: raster.BoldItalic, Color: colorPrimary, Align: raster.AlignCenter,
	})
}

func (s *Surface) paintFooter(c *raster.Canvas, w, h float64) error {
	bottom := h - surfacePad
	caption := raster.TextStyle{Size: 12, Color: colorMuted, Align: raster.AlignCenter}

	if s.qr != nil {
		c.DrawImage(s.qr, surfacePad+16, bottom-96-20, 96, 96, false)
		if err := c.DrawText("Verificação", surfacePad+64, bottom, caption); err != nil {
			return err
		}
	}

	lineY := bottom - 80
	c.FillRect(w/2-128, lineY, 256, 1, colorRule)
	if err := c.DrawText(s.layout.SignerName, w/2, lineY+22, raster.TextStyle{
		Size: 14, Weight: raster.Bold, Color: colorForeground, Align: raster.AlignCenter,
	}); err != nil {
		return err
	}
	if err := c.DrawText(s.layout.SignerRole, w/2, lineY+40, caption); err != nil {
		return err
	}
	if err := c.DrawText(s.record.IssueDate, w/2, lineY+66, raster.TextStyle{
		Size: 14, Color: colorMuted, Align: raster.AlignCenter,
	}); err != nil {
		return err
	}

	right := w - surfacePad
	if err := c.DrawText("Código de Verificação:", right, bottom-22, raster.TextStyle{
		Size: 12, Color: colorMuted, Align: raster.AlignRight,
	}); err != nil {
		return err
	}
	return c.DrawText(s.record.VerificationCode, right, bottom, raster.TextStyle{
		Size: 14, Weight: raster.Mono, Color: colorPrimary, Align: raster.AlignRight,
	})
}
