package qr

import (
	"bytes"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"
)

// Config describes a reservation pass: a QR code of Content with up to two
// caption lines underneath.
type Config struct {
	Content       string
	Caption       string
	Subcaption    string
	Size          int
	Padding       int
	Background    color.Color
	Foreground    color.Color
	RecoveryLevel int
}

var Pass = Config{
	Size:          320,
	Padding:       24,
	Background:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Foreground:    color.RGBA{R: 20, G: 20, B: 20, A: 255},
	RecoveryLevel: int(qrcode.Medium),
}

const lineHeight = 22

// Generate renders the pass as PNG.
func (c Config) Generate() ([]byte, error) {
	qr, err := qrcode.New(c.Content, qrcode.RecoveryLevel(c.RecoveryLevel))
	if err != nil {
		return nil, err
	}
	qr.BackgroundColor = c.Background
	qr.ForegroundColor = c.Foreground
	qr.DisableBorder = true

	lines := 0
	for _, line := range []string{c.Caption, c.Subcaption} {
		if line != "" {
			lines++
		}
	}

	width := c.Size + 2*c.Padding
	height := width + lines*lineHeight
	dc := gg.NewContext(width, height)
	dc.SetColor(c.Background)
	dc.Clear()
	dc.DrawImage(qr.Image(c.Size), c.Padding, c.Padding)

	dc.SetColor(c.Foreground)
	y := float64(c.Size + c.Padding + lineHeight/2)
	for _, line := range []string{c.Caption, c.Subcaption} {
		if line == "" {
			continue
		}
		dc.DrawStringAnchored(line, float64(width)/2, y, 0.5, 0.5)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err = png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
