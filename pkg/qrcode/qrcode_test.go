package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratePass(t *testing.T) {
	cfg := Pass
	cfg.Content = "K3X9QZ"
	cfg.Caption = "Robot Cafe"
	cfg.Subcaption = "K3X9QZ"

	data, err := cfg.Generate()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	width := cfg.Size + 2*cfg.Padding
	require.Equal(t, width, img.Bounds().Dx())
	require.Equal(t, width+2*lineHeight, img.Bounds().Dy())
}

func TestGenerateWithoutCaption(t *testing.T) {
	cfg := Pass
	cfg.Content = "ABC123"

	data, err := cfg.Generate()
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
}
