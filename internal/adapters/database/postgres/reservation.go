package postgres

import (
	"context"

	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"gorm.io/gorm"
)

// ReservationStorage never deletes and only updates the attended flag.
type ReservationStorage struct {
	db *gorm.DB
}

func NewReservationStorage(db *gorm.DB) *ReservationStorage {
	return &ReservationStorage{
		db: db,
	}
}

func (s *ReservationStorage) Create(ctx context.Context, reservation *entity.Reservation) (*entity.Reservation, error) {
	err := s.db.WithContext(ctx).Create(reservation).Error
	if err != nil {
		return nil, wrap(err, "reservation")
	}
	return reservation, nil
}

func (s *ReservationStorage) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	if !uuidID(id) {
		return nil, wrap(gorm.ErrRecordNotFound, "reservation")
	}
	var reservation entity.Reservation
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error
	if err != nil {
		return nil, wrap(err, "reservation")
	}
	return &reservation, nil
}

func (s *ReservationStorage) GetByEventID(ctx context.Context, eventID string) ([]entity.Reservation, error) {
	var reservations []entity.Reservation
	err := s.db.WithContext(ctx).Where("class_event_id = ?", eventID).Order("created_at DESC").Find(&reservations).Error
	return reservations, wrap(err, "reservations")
}

func (s *ReservationStorage) GetByEventIDs(ctx context.Context, eventIDs []string) ([]entity.Reservation, error) {
	var reservations []entity.Reservation
	if len(eventIDs) == 0 {
		return reservations, nil
	}
	err := s.db.WithContext(ctx).Where("class_event_id IN ?", eventIDs).Order("created_at DESC").Find(&reservations).Error
	return reservations, wrap(err, "reservations")
}

func (s *ReservationStorage) GetByUserID(ctx context.Context, userID string) ([]entity.Reservation, error) {
	var reservations []entity.Reservation
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&reservations).Error
	return reservations, wrap(err, "reservations")
}

func (s *ReservationStorage) GetAll(ctx context.Context) ([]entity.Reservation, error) {
	var reservations []entity.Reservation
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&reservations).Error
	return reservations, wrap(err, "reservations")
}

// SumPeopleByEventID counts every reservation of the event whatever its status.
func (s *ReservationStorage) SumPeopleByEventID(ctx context.Context, eventID string) (int64, error) {
	var sum int64
	err := s.db.WithContext(ctx).Model(&entity.Reservation{}).
		Select("COALESCE(SUM(number_of_people), 0)").
		Where("class_event_id = ?", eventID).
		Scan(&sum).Error
	return sum, wrap(err, "reservations")
}

func (s *ReservationStorage) ExistsCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.Reservation{}).Where("reservation_code = ?", code).Limit(1).Count(&count).Error
	return count > 0, wrap(err, "reservations")
}

func (s *ReservationStorage) SetAttended(ctx context.Context, id string, attended bool) (*entity.Reservation, error) {
	res := s.db.WithContext(ctx).Model(&entity.Reservation{}).Where("id = ?", id).Update("attended", attended)
	if res.Error == nil && res.RowsAffected == 0 {
		return nil, wrap(gorm.ErrRecordNotFound, "reservation")
	}
	if res.Error != nil {
		return nil, wrap(res.Error, "reservation")
	}
	return s.Get(ctx, id)
}
