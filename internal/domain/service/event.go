package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/internal/domain/utils/validator"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/google/uuid"
)

type EventStorage interface {
	Create(ctx context.Context, event *entity.ClassEvent) (*entity.ClassEvent, error)
	Get(ctx context.Context, id string) (*entity.ClassEvent, error)
	GetAll(ctx context.Context) ([]entity.ClassEvent, error)
	GetByHostID(ctx context.Context, hostUserID string) ([]entity.ClassEvent, error)
	Count(ctx context.Context) (int64, error)
	UpdateHost(ctx context.Context, id, hostName, hostEmail string) error
	UpdateThreshold(ctx context.Context, id string, threshold uint) (*entity.ClassEvent, error)
}

type eventUserStorage interface {
	GetMany(ctx context.Context, ids []string) ([]entity.User, error)
}

type imageUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

type EventConfig struct {
	DefaultThreshold uint
	OpenHour         int
	CloseHour        int
}

type EventService struct {
	eventStorage EventStorage
	userStorage  eventUserStorage
	images       imageUploader
	changes      changePublisher
	cfg          EventConfig
	logger       *types.Logger
}

func NewEventService(
	eventStorage EventStorage,
	userStorage eventUserStorage,
	images imageUploader,
	changes changePublisher,
	cfg EventConfig,
	logger *types.Logger,
) *EventService {
	if cfg.DefaultThreshold == 0 {
		cfg.DefaultThreshold = entity.DefaultNotificationThreshold
	}
	if cfg.CloseHour <= cfg.OpenHour {
		cfg.OpenHour, cfg.CloseHour = 10, 16
	}
	return &EventService{
		eventStorage: eventStorage,
		userStorage:  userStorage,
		images:       images,
		changes:      changes,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreateEvent registers a new event hosted by the caller. The caller's current
// name and email are copied onto the event; ResyncHostNames repairs them later.
func (s *EventService) CreateEvent(ctx context.Context, session dto.Session, input dto.EventInput) (*entity.ClassEvent, error) {
	if !session.Can(entity.RoleHost) {
		return nil, errorz.Forbidden("only hosts can create events")
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	threshold := s.cfg.DefaultThreshold
	if input.NotificationThreshold != nil {
		threshold = *input.NotificationThreshold
	}

	event := &entity.ClassEvent{
		ID:                    uuid.New().String(),
		ClassName:             strings.TrimSpace(input.ClassName),
		Grade:                 strings.TrimSpace(input.Grade),
		EventName:             strings.TrimSpace(input.EventName),
		Description:           strings.TrimSpace(input.Description),
		Location:              strings.TrimSpace(input.Location),
		Tags:                  trimAll(input.Tags),
		MaxCapacity:           input.MaxCapacity,
		DurationMinutes:       input.DurationMinutes,
		HostUserID:            session.UserID,
		HostUserName:          hostName(session.DisplayName),
		HostUserEmail:         session.Email,
		NotificationThreshold: threshold,
	}

	if input.Image != nil && len(input.Image.Data) > 0 {
		url, err := s.images.Upload(ctx, input.Image.Data, input.Image.ContentType)
		if err != nil {
			return nil, err
		}
		event.ImageURL = url
	}

	created, err := s.eventStorage.Create(ctx, event)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("(user: %s) created event %s (%s)", session.UserID, created.ID, created.EventName)
	publish(ctx, s.changes, s.logger, entity.CollectionEvents)
	return created, nil
}

func (s *EventService) validate(input dto.EventInput) error {
	switch {
	case !validator.ClassName(input.ClassName):
		return errorz.Validation("class name must be 1-50 characters")
	case !validator.EventName(input.EventName):
		return errorz.Validation("event name must be 1-100 characters")
	case !validator.EventDescription(input.Description):
		return errorz.Validation("description must be at most 1000 characters")
	case !validator.EventLocation(input.Location):
		return errorz.Validation("location must be 1-150 characters")
	case !validator.MaxCapacity(input.MaxCapacity):
		return errorz.Validation("max capacity must be at least 1")
	case !validator.Duration(input.DurationMinutes):
		return errorz.Validation(fmt.Sprintf("duration must be 1-%d minutes", validator.MaxDurationMinutes))
	case !validator.Tags(input.Tags):
		return errorz.Validation("invalid tags")
	}
	return nil
}

// ListEvents returns every event, newest first.
func (s *EventService) ListEvents(ctx context.Context) ([]entity.ClassEvent, error) {
	return s.eventStorage.GetAll(ctx)
}

// ListForHost returns the events the caller hosts, newest first.
func (s *EventService) ListForHost(ctx context.Context, session dto.Session) ([]entity.ClassEvent, error) {
	if !session.Can(entity.RoleHost) {
		return nil, errorz.Forbidden("only hosts can list hosted events")
	}
	return s.eventStorage.GetByHostID(ctx, session.UserID)
}

func (s *EventService) Get(ctx context.Context, id string) (*entity.ClassEvent, error) {
	return s.eventStorage.Get(ctx, id)
}

func (s *EventService) Count(ctx context.Context) (int64, error) {
	return s.eventStorage.Count(ctx)
}

// ResyncHostNames overwrites each event's denormalized host name with the
// owner's current display name. Running it twice in a row updates nothing the
// second time. With dryRun set nothing is written and UpdatedCount reports
// what would change.
func (s *EventService) ResyncHostNames(ctx context.Context, session dto.Session, dryRun bool) (dto.ResyncReport, error) {
	var report dto.ResyncReport
	if !session.Is(entity.RoleAdmin) {
		return report, errorz.Forbidden("only admins can resync host names")
	}

	events, err := s.eventStorage.GetAll(ctx)
	if err != nil {
		return report, err
	}

	ids := make([]string, 0, len(events))
	for _, event := range events {
		if event.HostUserID != "" {
			ids = append(ids, event.HostUserID)
		}
	}
	users, err := s.userStorage.GetMany(ctx, ids)
	if err != nil {
		return report, err
	}
	hosts := make(map[string]entity.User, len(users))
	for _, user := range users {
		hosts[user.ID] = user
	}

	for _, event := range events {
		report.Scanned++
		host, ok := hosts[event.HostUserID]
		if !ok {
			s.logger.Warnf("event %s has no resolvable host (host_user_id=%q)", event.ID, event.HostUserID)
			report.Skipped++
			continue
		}
		name := host.Name()
		if event.HostUserName == name {
			continue
		}
		email := host.Email
		if email == "" {
			email = event.HostUserEmail
		}
		if !dryRun {
			if err = s.eventStorage.UpdateHost(ctx, event.ID, name, email); err != nil {
				return report, err
			}
		}
		s.logger.Infof("event %s host name %q -> %q (dry_run=%t)", event.ID, event.HostUserName, name, dryRun)
		report.UpdatedCount++
	}

	if report.UpdatedCount > 0 && !dryRun {
		publish(ctx, s.changes, s.logger, entity.CollectionEvents)
	}
	return report, nil
}

// UpdateNotificationThreshold changes how close to full an event must be
// before its host is offered the capacity warning.
func (s *EventService) UpdateNotificationThreshold(ctx context.Context, session dto.Session, eventID string, threshold uint) (*entity.ClassEvent, error) {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !session.CanManage(event) {
		return nil, errorz.Forbidden("only the event's host can change its threshold")
	}
	updated, err := s.eventStorage.UpdateThreshold(ctx, eventID, threshold)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.changes, s.logger, entity.CollectionEvents)
	return updated, nil
}

// TimeSlots lists the informational slots the event fills on day within the
// festival's opening hours.
func (s *EventService) TimeSlots(ctx context.Context, eventID string, day time.Time) ([]entity.TimeSlot, error) {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return event.TimeSlots(day, s.cfg.OpenHour, s.cfg.CloseHour), nil
}

func hostName(name string) string {
	if strings.TrimSpace(name) == "" {
		return entity.AnonymousName
	}
	return strings.TrimSpace(name)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
