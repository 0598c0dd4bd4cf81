package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/internal/domain/utils/validator"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
)

type UserStorage interface {
	Get(ctx context.Context, id string) (*entity.User, error)
	// UpdateDisplayName renames the user and every event they host in one batch.
	UpdateDisplayName(ctx context.Context, userID, name string) (*entity.User, error)
}

type SubscriptionStorage interface {
	Upsert(ctx context.Context, subscription *entity.PushSubscription) error
	Delete(ctx context.Context, userID string, channel entity.PushChannel) error
	GetByUserID(ctx context.Context, userID string) ([]entity.PushSubscription, error)
}

type UserService struct {
	userStorage         UserStorage
	subscriptionStorage SubscriptionStorage
	changes             changePublisher
	logger              *types.Logger
}

func NewUserService(userStorage UserStorage, subscriptionStorage SubscriptionStorage, changes changePublisher, logger *types.Logger) *UserService {
	return &UserService{
		userStorage:         userStorage,
		subscriptionStorage: subscriptionStorage,
		changes:             changes,
		logger:              logger,
	}
}

func (s *UserService) Get(ctx context.Context, session dto.Session) (*entity.User, error) {
	if session.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	return s.userStorage.Get(ctx, session.UserID)
}

// UpdateDisplayName changes the caller's name. Events the caller hosts pick up
// the new name in the same batch.
func (s *UserService) UpdateDisplayName(ctx context.Context, session dto.Session, name string) (*entity.User, error) {
	if session.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if !validator.DisplayName(name) {
		return nil, errorz.Validation("display name must be 1-50 characters")
	}

	user, err := s.userStorage.UpdateDisplayName(ctx, session.UserID, name)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("(user: %s) changed display name", session.UserID)
	publish(ctx, s.changes, s.logger, entity.CollectionUsers, entity.CollectionEvents)
	return user, nil
}

// Subscribe registers (or replaces) the caller's delivery address on channel.
func (s *UserService) Subscribe(ctx context.Context, session dto.Session, channel entity.PushChannel, token string) (*entity.PushSubscription, error) {
	if session.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if err := validateToken(channel, token); err != nil {
		return nil, err
	}

	subscription := &entity.PushSubscription{
		UserID:  session.UserID,
		Channel: channel,
		Token:   token,
	}
	if err := s.subscriptionStorage.Upsert(ctx, subscription); err != nil {
		return nil, err
	}
	s.logger.Infof("(user: %s) subscribed to %s notifications", session.UserID, channel)
	return subscription, nil
}

func (s *UserService) Unsubscribe(ctx context.Context, session dto.Session, channel entity.PushChannel) error {
	if session.UserID == "" {
		return errorz.ErrUnauthenticated
	}
	if !channel.Valid() {
		return errorz.Validation("unknown channel")
	}
	return s.subscriptionStorage.Delete(ctx, session.UserID, channel)
}

func (s *UserService) Subscriptions(ctx context.Context, session dto.Session) ([]entity.PushSubscription, error) {
	if session.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	return s.subscriptionStorage.GetByUserID(ctx, session.UserID)
}

func validateToken(channel entity.PushChannel, token string) error {
	if token == "" {
		return errorz.Validation("token is required")
	}
	switch channel {
	case entity.PushChannelTelegram:
		if _, err := strconv.ParseInt(token, 10, 64); err != nil {
			return errorz.Validation("telegram token must be a chat id")
		}
	case entity.PushChannelEmail:
		if !validator.Email(token) {
			return errorz.Validation("invalid email")
		}
	case entity.PushChannelWebPush:
		var sub struct {
			Endpoint string `json:"endpoint"`
		}
		if err := json.Unmarshal([]byte(token), &sub); err != nil || sub.Endpoint == "" {
			return errorz.Validation("webpush token must be a subscription with an endpoint")
		}
	default:
		return errorz.Validation("unknown channel")
	}
	return nil
}
