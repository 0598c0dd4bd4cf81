package postgres

import (
	"context"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// bootstrapLockKey serialises admin bootstrap attempts across instances.
const bootstrapLockKey int64 = 0x6665737469766c

type UserStorage struct {
	db *gorm.DB
}

func NewUserStorage(db *gorm.DB) *UserStorage {
	return &UserStorage{
		db: db,
	}
}

// GetOrCreate inserts user unless a row with its id exists, then returns the stored row.
func (s *UserStorage) GetOrCreate(ctx context.Context, user *entity.User) (*entity.User, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
	if err != nil {
		return nil, wrap(err, "user")
	}
	return s.Get(ctx, user.ID)
}

// Get is a function that gets a user from the database by id.
func (s *UserStorage) Get(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, wrap(err, "user")
	}
	return &user, nil
}

func (s *UserStorage) GetMany(ctx context.Context, ids []string) ([]entity.User, error) {
	var users []entity.User
	if len(ids) == 0 {
		return users, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, wrap(err, "users")
}

func (s *UserStorage) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.User{}).Where("role = ?", role).Count(&count).Error
	return count, wrap(err, "users")
}

// FirstByRole returns the earliest created user holding role.
func (s *UserStorage) FirstByRole(ctx context.Context, role entity.Role) (*entity.User, error) {
	var user entity.User
	err := s.db.WithContext(ctx).Where("role = ?", role).Order("created_at ASC").First(&user).Error
	if err != nil {
		return nil, wrap(err, "user")
	}
	return &user, nil
}

// BootstrapAdmin makes user an admin inside a transaction that holds an
// advisory lock and re-counts admins, so concurrent attempts elect one.
func (s *UserStorage) BootstrapAdmin(ctx context.Context, user *entity.User) (*entity.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Error; err != nil {
			return err
		}

		var admins int64
		if err := tx.Model(&entity.User{}).Where("role = ?", entity.RoleAdmin).Count(&admins).Error; err != nil {
			return err
		}
		if admins > 0 {
			return errorz.Forbidden("an admin already exists")
		}

		user.Role = entity.RoleAdmin
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"role":       entity.RoleAdmin,
				"updated_at": time.Now(),
			}),
		}).Create(user).Error
	})
	if err != nil {
		return nil, wrap(err, "user")
	}
	return s.Get(ctx, user.ID)
}

// Promote raises the user to role when their current role ranks lower. A
// missing user is created with role.
func (s *UserStorage) Promote(ctx context.Context, userID string, role entity.Role) error {
	var lower []entity.Role
	for _, r := range []entity.Role{entity.RoleVisitor, entity.RoleHost, entity.RoleAdmin} {
		if r.Rank() < role.Rank() {
			lower = append(lower, r)
		}
	}
	if len(lower) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ? AND role IN ?", userID, lower).
		Update("role", role)
	if res.Error != nil {
		return wrap(res.Error, "user")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.User{ID: userID, Role: role}).Error
	return wrap(err, "user")
}

// UpdateDisplayName renames the user and the denormalized host name on the
// events they own in one transaction.
func (s *UserStorage) UpdateDisplayName(ctx context.Context, userID, name string) (*entity.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.User{}).Where("id = ?", userID).Update("display_name", name)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&entity.ClassEvent{}).Where("host_user_id = ?", userID).Update("host_user_name", name).Error
	})
	if err != nil {
		return nil, wrap(err, "user")
	}
	return s.Get(ctx, userID)
}
