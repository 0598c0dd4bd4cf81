package postgres

import (
	"context"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
)

type ImageStorage struct {
	db *gorm.DB
}

func NewImageStorage(db *gorm.DB) *ImageStorage {
	return &ImageStorage{
		db: db,
	}
}

func (s *ImageStorage) Create(ctx context.Context, image *entity.Image) error {
	return wrap(s.db.WithContext(ctx).Create(image).Error, "image")
}

func (s *ImageStorage) Get(ctx context.Context, id string) (*entity.Image, error) {
	if !uuidID(id) {
		return nil, wrap(gorm.ErrRecordNotFound, "image")
	}
	var image entity.Image
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, wrap(err, "image")
	}
	return &image, nil
}
