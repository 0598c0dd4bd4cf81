package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type notifyEventStorage interface {
	Get(ctx context.Context, id string) (*entity.ClassEvent, error)
}

type notifyReservationStorage interface {
	SumPeopleByEventID(ctx context.Context, eventID string) (int64, error)
	GetByEventID(ctx context.Context, eventID string) ([]entity.Reservation, error)
}

type notifySubscriptionStorage interface {
	GetByUserIDs(ctx context.Context, userIDs []string) ([]entity.PushSubscription, error)
}

type notificationStorage interface {
	Create(ctx context.Context, notification *entity.Notification) error
}

type pushSender interface {
	Send(ctx context.Context, subscription entity.PushSubscription, message dto.PushMessage) error
}

type NotifyService struct {
	eventStorage        notifyEventStorage
	reservationStorage  notifyReservationStorage
	subscriptionStorage notifySubscriptionStorage
	notificationStorage notificationStorage
	sender              pushSender
	logger              *types.Logger
}

func NewNotifyService(
	eventStorage notifyEventStorage,
	reservationStorage notifyReservationStorage,
	subscriptionStorage notifySubscriptionStorage,
	notificationStorage notificationStorage,
	sender pushSender,
	logger *types.Logger,
) *NotifyService {
	return &NotifyService{
		eventStorage:        eventStorage,
		reservationStorage:  reservationStorage,
		subscriptionStorage: subscriptionStorage,
		notificationStorage: notificationStorage,
		sender:              sender,
		logger:              logger,
	}
}

// CheckThreshold reports whether the event is almost full: some places remain
// and no more than the event's threshold.
func (s *NotifyService) CheckThreshold(ctx context.Context, eventID string) (dto.Threshold, error) {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return dto.Threshold{}, err
	}
	occupied, err := s.reservationStorage.SumPeopleByEventID(ctx, eventID)
	if err != nil {
		return dto.Threshold{}, err
	}
	remaining := dto.NewAvailability(event.ID, event.MaxCapacity, occupied).Remaining
	return dto.NewThreshold(event.ID, remaining, event.NotificationThreshold), nil
}

// NotifyApproachingCapacity sends one capacity warning to every subscribed
// user holding a reservation on the event. A user's channels are tried in
// order of preference until one delivers. Delivery is best effort: failures
// are logged, counted and skipped, and never fail the call.
func (s *NotifyService) NotifyApproachingCapacity(ctx context.Context, session dto.Session, eventID string) (dto.NotifyReport, error) {
	ctx, span := tracer.Start(ctx, "notify.approaching_capacity")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	report := dto.NotifyReport{EventID: eventID}

	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return report, err
	}
	if !session.CanManage(event) {
		return report, errorz.Forbidden("only the event's host can notify its visitors")
	}

	reservations, err := s.reservationStorage.GetByEventID(ctx, eventID)
	if err != nil {
		return report, err
	}

	var occupied int64
	seen := make(map[string]struct{})
	userIDs := make([]string, 0, len(reservations))
	for _, r := range reservations {
		occupied += int64(r.NumberOfPeople)
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		userIDs = append(userIDs, r.UserID)
	}
	report.Remaining = dto.NewAvailability(event.ID, event.MaxCapacity, occupied).Remaining
	report.Recipients = len(userIDs)
	if len(userIDs) == 0 {
		return report, nil
	}

	subscriptions, err := s.subscriptionStorage.GetByUserIDs(ctx, userIDs)
	if err != nil {
		return report, err
	}

	byUser := make(map[string][]entity.PushSubscription, len(userIDs))
	for _, subscription := range subscriptions {
		byUser[subscription.UserID] = append(byUser[subscription.UserID], subscription)
	}

	message := capacityWarning(event, report.Remaining)
	for _, userID := range userIDs {
		channels := byUser[userID]
		if len(channels) == 0 {
			continue
		}
		report.Attempted++

		used, ok := s.deliver(ctx, event.ID, channels, message)
		if !ok {
			report.Failed++
			continue
		}
		report.Delivered++

		err = s.notificationStorage.Create(ctx, &entity.Notification{
			ID:      uuid.New().String(),
			EventID: event.ID,
			UserID:  userID,
			Channel: used,
			Type:    entity.NotificationTypeCapacityWarning,
		})
		if err != nil {
			s.logger.Errorf("failed to record notification (event_id=%s, user_id=%s): %v", event.ID, userID, err)
		}
	}

	s.logger.Infof("(user: %s) capacity warning for event %s: %d/%d delivered", session.UserID, event.ID, report.Delivered, report.Attempted)
	return report, nil
}

// deliver sends message on the first channel that accepts it.
func (s *NotifyService) deliver(ctx context.Context, eventID string, channels []entity.PushSubscription, message dto.PushMessage) (entity.PushChannel, bool) {
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Channel.Preference() < channels[j].Channel.Preference()
	})
	for _, subscription := range channels {
		err := s.sender.Send(ctx, subscription, message)
		if err == nil {
			return subscription.Channel, true
		}
		s.logger.Errorf("failed to send capacity warning (event_id=%s, user_id=%s, channel=%s): %v",
			eventID, subscription.UserID, subscription.Channel, err)
	}
	return "", false
}

func capacityWarning(event *entity.ClassEvent, remaining int64) dto.PushMessage {
	return dto.PushMessage{
		Title: fmt.Sprintf("%s is almost full", event.EventName),
		Body:  fmt.Sprintf("Only %d place(s) left at %s (%s).", remaining, event.EventName, event.Location),
		Data: map[string]string{
			"eventId": event.ID,
			"type":    string(entity.NotificationTypeCapacityWarning),
		},
	}
}
