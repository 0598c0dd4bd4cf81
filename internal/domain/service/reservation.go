package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/internal/domain/utils/validator"
	"github.com/Badsnus/festival-booking/pkg/generator"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	qr "github.com/Badsnus/festival-booking/pkg/qrcode"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("festival/service")

type ReservationStorage interface {
	Create(ctx context.Context, reservation *entity.Reservation) (*entity.Reservation, error)
	Get(ctx context.Context, id string) (*entity.Reservation, error)
	GetByEventID(ctx context.Context, eventID string) ([]entity.Reservation, error)
	GetByEventIDs(ctx context.Context, eventIDs []string) ([]entity.Reservation, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.Reservation, error)
	GetAll(ctx context.Context) ([]entity.Reservation, error)
	SumPeopleByEventID(ctx context.Context, eventID string) (int64, error)
	ExistsCode(ctx context.Context, code string) (bool, error)
	SetAttended(ctx context.Context, id string, attended bool) (*entity.Reservation, error)
}

type reservationEventStorage interface {
	Get(ctx context.Context, id string) (*entity.ClassEvent, error)
	GetAll(ctx context.Context) ([]entity.ClassEvent, error)
	GetByHostID(ctx context.Context, hostUserID string) ([]entity.ClassEvent, error)
}

type ReservationConfig struct {
	// SnapshotEventDetails copies event name, class and location onto each
	// reservation at booking time.
	SnapshotEventDetails bool
	// StrictCodes regenerates a reservation code while it collides with a
	// stored one, up to CodeAttempts times.
	StrictCodes  bool
	CodeAttempts int
	Pass         qr.Config
}

type ReservationService struct {
	reservationStorage ReservationStorage
	eventStorage       reservationEventStorage
	changes            changePublisher
	cfg                ReservationConfig
	logger             *types.Logger

	newCode func() (string, error)
}

func NewReservationService(
	reservationStorage ReservationStorage,
	eventStorage reservationEventStorage,
	changes changePublisher,
	cfg ReservationConfig,
	logger *types.Logger,
) *ReservationService {
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 5
	}
	if cfg.Pass.Size == 0 {
		cfg.Pass = qr.Pass
	}
	return &ReservationService{
		reservationStorage: reservationStorage,
		eventStorage:       eventStorage,
		changes:            changes,
		cfg:                cfg,
		logger:             logger,
		newCode:            generator.ReservationCode,
	}
}

// QuoteAvailability sums every reservation of the event regardless of status.
// Remaining goes negative once the event is overbooked.
func (s *ReservationService) QuoteAvailability(ctx context.Context, eventID string) (dto.Availability, error) {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return dto.Availability{}, err
	}
	occupied, err := s.reservationStorage.SumPeopleByEventID(ctx, eventID)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.NewAvailability(event.ID, event.MaxCapacity, occupied), nil
}

// CreateReservation books numberOfPeople places on the event for a visitor.
// Capacity is informational and never blocks the booking.
func (s *ReservationService) CreateReservation(ctx context.Context, session dto.Session, eventID string, input dto.ReservationInput) (*entity.Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.create")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID), attribute.Int("reservation.people", int(input.NumberOfPeople)))

	if !session.Is(entity.RoleVisitor) {
		return nil, errorz.Forbidden("only visitors can make reservations")
	}
	if input.NumberOfPeople < 1 {
		return nil, errorz.Validation("number of people must be at least 1")
	}
	if !validator.SpecialRequests(input.SpecialRequests) {
		return nil, errorz.Validation("special requests must be at most 500 characters")
	}

	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	code, err := s.reservationCode(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	reservation := &entity.Reservation{
		ID:              uuid.New().String(),
		UserID:          session.UserID,
		UserName:        hostName(session.DisplayName),
		UserEmail:       session.Email,
		ClassEventID:    event.ID,
		NumberOfPeople:  input.NumberOfPeople,
		SpecialRequests: strings.TrimSpace(input.SpecialRequests),
		Status:          entity.ReservationConfirmed,
		ReservationCode: code,
	}
	if s.cfg.SnapshotEventDetails {
		reservation.EventName = event.EventName
		reservation.ClassName = event.ClassName
		reservation.Location = event.Location
	}

	created, err := s.reservationStorage.Create(ctx, reservation)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Infof("(user: %s) reserved %d place(s) on event %s (code=%s)", session.UserID, created.NumberOfPeople, eventID, created.ReservationCode)
	publish(ctx, s.changes, s.logger, entity.CollectionReservations)
	return created, nil
}

func (s *ReservationService) reservationCode(ctx context.Context) (string, error) {
	if !s.cfg.StrictCodes {
		return s.newCode()
	}
	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		exists, err := s.reservationStorage.ExistsCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		s.logger.Warnf("reservation code collision (code=%s, attempt=%d)", code, attempt+1)
	}
	return "", errorz.Store(errors.New("could not generate a unique reservation code"))
}

// ToggleAttendance flips the attended flag. An unset flag counts as false, so
// the first toggle marks the reservation attended.
func (s *ReservationService) ToggleAttendance(ctx context.Context, session dto.Session, reservationID string) (*entity.Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservations.toggle_attendance")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", reservationID))

	reservation, err := s.reservationStorage.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventStorage.Get(ctx, reservation.ClassEventID)
	switch {
	case errors.Is(err, errorz.ErrNotFound):
		// An orphaned reservation can only be handled by an admin.
		if !session.Is(entity.RoleAdmin) {
			return nil, errorz.Forbidden("only the event's host can mark attendance")
		}
	case err != nil:
		return nil, err
	case !session.CanManage(event):
		return nil, errorz.Forbidden("only the event's host can mark attendance")
	}

	updated, err := s.reservationStorage.SetAttended(ctx, reservationID, !reservation.HasAttended())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	publish(ctx, s.changes, s.logger, entity.CollectionReservations)
	return updated, nil
}

// AggregateByEvent recomputes people totals per event from the full
// reservation set. Hosts see their own events, admins see every event.
func (s *ReservationService) AggregateByEvent(ctx context.Context, session dto.Session) (map[string]dto.EventTotals, error) {
	ctx, span := tracer.Start(ctx, "reservations.aggregate_by_event")
	defer span.End()

	reservations, _, err := s.scope(ctx, session)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]dto.EventTotals)
	for _, r := range reservations {
		t := totals[r.ClassEventID]
		t.Total += int64(r.NumberOfPeople)
		if r.HasAttended() {
			t.AttendedTotal += int64(r.NumberOfPeople)
		}
		totals[r.ClassEventID] = t
	}
	return totals, nil
}

// ListForHost lists reservations of the caller's events joined with the
// current event details.
func (s *ReservationService) ListForHost(ctx context.Context, session dto.Session, filter dto.AttendanceFilter) ([]dto.HostReservation, error) {
	reservations, events, err := s.scope(ctx, session)
	if err != nil {
		return nil, err
	}

	out := make([]dto.HostReservation, 0, len(reservations))
	for _, r := range reservations {
		if !filter.Match(&r) {
			continue
		}
		var event *entity.ClassEvent
		if e, ok := events[r.ClassEventID]; ok {
			event = &e
		}
		out = append(out, dto.NewHostReservation(r, event))
	}
	return out, nil
}

func (s *ReservationService) scope(ctx context.Context, session dto.Session) ([]entity.Reservation, map[string]entity.ClassEvent, error) {
	if !session.Can(entity.RoleHost) {
		return nil, nil, errorz.Forbidden("only hosts can view reservations of their events")
	}

	var (
		events []entity.ClassEvent
		err    error
	)
	if session.Is(entity.RoleAdmin) {
		events, err = s.eventStorage.GetAll(ctx)
	} else {
		events, err = s.eventStorage.GetByHostID(ctx, session.UserID)
	}
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]entity.ClassEvent, len(events))
	ids := make([]string, 0, len(events))
	for _, event := range events {
		byID[event.ID] = event
		ids = append(ids, event.ID)
	}

	var reservations []entity.Reservation
	if session.Is(entity.RoleAdmin) {
		reservations, err = s.reservationStorage.GetAll(ctx)
	} else {
		reservations, err = s.reservationStorage.GetByEventIDs(ctx, ids)
	}
	if err != nil {
		return nil, nil, err
	}
	return reservations, byID, nil
}

// ListMine returns the caller's own reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, session dto.Session) ([]entity.Reservation, error) {
	if session.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	return s.reservationStorage.GetByUserID(ctx, session.UserID)
}

// Pass renders the reservation's door pass. The reserving visitor, the
// event's host and admins may fetch it.
func (s *ReservationService) Pass(ctx context.Context, session dto.Session, reservationID string) ([]byte, error) {
	reservation, err := s.reservationStorage.Get(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	eventName := reservation.EventName
	event, err := s.eventStorage.Get(ctx, reservation.ClassEventID)
	if err != nil && !errors.Is(err, errorz.ErrNotFound) {
		return nil, err
	}
	if event != nil {
		eventName = event.EventName
	}

	allowed := reservation.UserID == session.UserID || session.Is(entity.RoleAdmin) ||
		(event != nil && session.CanManage(event))
	if !allowed {
		return nil, errorz.Forbidden("this reservation belongs to someone else")
	}

	cfg := s.cfg.Pass
	cfg.Content = reservation.ReservationCode
	cfg.Caption = eventName
	cfg.Subcaption = fmt.Sprintf("%s | %d people", reservation.ReservationCode, reservation.NumberOfPeople)
	return cfg.Generate()
}

// Export builds an XLSX sheet of the event's reservations for its host.
func (s *ReservationService) Export(ctx context.Context, session dto.Session, eventID string) (*bytes.Buffer, error) {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !session.CanManage(event) {
		return nil, errorz.Forbidden("only the event's host can export its reservations")
	}
	reservations, err := s.reservationStorage.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return reservationsToXLSX(reservations)
}

func reservationsToXLSX(reservations []entity.Reservation) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", "Code")
	_ = f.SetCellValue(sheet, "B1", "Name")
	_ = f.SetCellValue(sheet, "C1", "Email")
	_ = f.SetCellValue(sheet, "D1", "People")
	_ = f.SetCellValue(sheet, "E1", "Special requests")
	_ = f.SetCellValue(sheet, "F1", "Attended")
	_ = f.SetCellValue(sheet, "G1", "Booked at")
	for i, r := range reservations {
		row := strconv.Itoa(i + 2)
		_ = f.SetCellValue(sheet, "A"+row, r.ReservationCode)
		_ = f.SetCellValue(sheet, "B"+row, r.UserName)
		_ = f.SetCellValue(sheet, "C"+row, r.UserEmail)
		_ = f.SetCellValue(sheet, "D"+row, r.NumberOfPeople)
		_ = f.SetCellValue(sheet, "E"+row, r.SpecialRequests)
		_ = f.SetCellValue(sheet, "F"+row, r.HasAttended())
		_ = f.SetCellValue(sheet, "G"+row, r.CreatedAt)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
