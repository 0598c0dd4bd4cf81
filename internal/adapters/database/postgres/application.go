package postgres

import (
	"context"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
)

type ApplicationStorage struct {
	db *gorm.DB
}

func NewApplicationStorage(db *gorm.DB) *ApplicationStorage {
	return &ApplicationStorage{
		db: db,
	}
}

func (s *ApplicationStorage) Create(ctx context.Context, application *entity.RoleApplication) (*entity.RoleApplication, error) {
	err := s.db.WithContext(ctx).Create(application).Error
	if err != nil {
		return nil, wrap(err, "application")
	}
	return application, nil
}

func (s *ApplicationStorage) Get(ctx context.Context, id string) (*entity.RoleApplication, error) {
	if !uuidID(id) {
		return nil, wrap(gorm.ErrRecordNotFound, "application")
	}
	var application entity.RoleApplication
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&application).Error
	if err != nil {
		return nil, wrap(err, "application")
	}
	return &application, nil
}

func (s *ApplicationStorage) GetAll(ctx context.Context) ([]entity.RoleApplication, error) {
	var applications []entity.RoleApplication
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&applications).Error
	return applications, wrap(err, "applications")
}

func (s *ApplicationStorage) GetByUserID(ctx context.Context, userID string) ([]entity.RoleApplication, error) {
	var applications []entity.RoleApplication
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&applications).Error
	return applications, wrap(err, "applications")
}

// Transition is a conditional update: it only matches while the row is still
// in from, so exactly one of several concurrent reviewers wins.
func (s *ApplicationStorage) Transition(ctx context.Context, id string, from, to entity.ApplicationStatus, reviewedBy string, reviewedAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&entity.RoleApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"reviewed_by": reviewedBy,
			"reviewed_at": reviewedAt,
		})
	if res.Error != nil {
		return false, wrap(res.Error, "application")
	}
	return res.RowsAffected == 1, nil
}
