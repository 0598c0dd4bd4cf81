// Package imagehost stores event images, bounded to a maximum size, and
// serves them back by id.
package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	MaxUploadBytes = 10 << 20

	// MaxPixels bounds the decoded bitmap; compressed size says little about it.
	MaxPixels = 40_000_000

	maxWidth    = 800
	maxHeight   = 600
	jpegQuality = 85
)

type imageStorage interface {
	Create(ctx context.Context, image *entity.Image) error
	Get(ctx context.Context, id string) (*entity.Image, error)
}

type Host struct {
	storage   imageStorage
	publicURL string
}

func New(storage imageStorage, publicURL string) *Host {
	return &Host{
		storage:   storage,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload stores the image scaled down to fit 800x600 and returns its URL.
// PNG stays PNG, everything else is re-encoded as JPEG.
func (h *Host) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) > MaxUploadBytes {
		return "", errorz.Validation("image is too large")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", errorz.Validation("unsupported image")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", errorz.Validation("image dimensions are too large")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", errorz.Validation("unsupported image")
	}

	img = resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if format == "png" {
		contentType = "image/png"
		err = png.Encode(&buf, img)
	} else {
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	bounds := img.Bounds()
	stored := &entity.Image{
		ID:          uuid.New().String(),
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Data:        buf.Bytes(),
	}
	if err = h.storage.Create(ctx, stored); err != nil {
		return "", err
	}
	return h.URL(stored.ID), nil
}

func (h *Host) URL(id string) string {
	return fmt.Sprintf("%s/images/%s", h.publicURL, id)
}

func (h *Host) Get(ctx context.Context, id string) (*entity.Image, error) {
	return h.storage.Get(ctx, id)
}
