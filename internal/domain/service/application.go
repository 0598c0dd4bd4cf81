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
	"go.opentelemetry.io/otel/attribute"
)

type ApplicationStorage interface {
	Create(ctx context.Context, application *entity.RoleApplication) (*entity.RoleApplication, error)
	Get(ctx context.Context, id string) (*entity.RoleApplication, error)
	GetAll(ctx context.Context) ([]entity.RoleApplication, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.RoleApplication, error)
	// Transition moves the application from -> to only if it is still in
	// from. It reports whether a row was changed.
	Transition(ctx context.Context, id string, from, to entity.ApplicationStatus, reviewedBy string, reviewedAt time.Time) (bool, error)
}

type applicationUserStorage interface {
	// Promote raises the user to role. It never lowers an existing role.
	Promote(ctx context.Context, userID string, role entity.Role) error
}

type ApplicationService struct {
	applicationStorage ApplicationStorage
	userStorage        applicationUserStorage
	changes            changePublisher
	logger             *types.Logger

	now func() time.Time
}

func NewApplicationService(
	applicationStorage ApplicationStorage,
	userStorage applicationUserStorage,
	changes changePublisher,
	logger *types.Logger,
) *ApplicationService {
	return &ApplicationService{
		applicationStorage: applicationStorage,
		userStorage:        userStorage,
		changes:            changes,
		logger:             logger,
		now:                time.Now,
	}
}

// Submit files a request to become a host. A visitor may have several
// pending applications at once.
func (s *ApplicationService) Submit(ctx context.Context, session dto.Session, reason string) (*entity.RoleApplication, error) {
	if !session.Is(entity.RoleVisitor) {
		return nil, errorz.Forbidden("only visitors can apply to host")
	}
	if !validator.ApplicationReason(reason) {
		return nil, errorz.Validation("reason must be 1-1000 characters")
	}

	application, err := s.applicationStorage.Create(ctx, &entity.RoleApplication{
		ID:            uuid.New().String(),
		UserID:        session.UserID,
		UserName:      hostName(session.DisplayName),
		UserEmail:     session.Email,
		CurrentRole:   session.Role,
		RequestedRole: entity.RoleHost,
		Reason:        strings.TrimSpace(reason),
		Status:        entity.ApplicationPending,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("(user: %s) applied for host role (application=%s)", session.UserID, application.ID)
	publish(ctx, s.changes, s.logger, entity.CollectionApplications)
	return application, nil
}

// List returns every application, newest first.
func (s *ApplicationService) List(ctx context.Context, session dto.Session) ([]entity.RoleApplication, error) {
	if !session.Is(entity.RoleAdmin) {
		return nil, errorz.Forbidden("only admins can review applications")
	}
	return s.applicationStorage.GetAll(ctx)
}

// ListMine returns the caller's own applications.
func (s *ApplicationService) ListMine(ctx context.Context, session dto.Session) ([]entity.RoleApplication, error) {
	if session.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	return s.applicationStorage.GetByUserID(ctx, session.UserID)
}

// Approve moves a pending application to approved and promotes the applicant
// to host. Only the call that wins the transition promotes; any later call
// fails with ErrInvalidTransition.
//
// The transition and the promotion are two writes. If the promotion fails the
// application stays approved and the error is returned as a backing store
// failure.
func (s *ApplicationService) Approve(ctx context.Context, session dto.Session, applicationID string) (*entity.RoleApplication, error) {
	application, err := s.transition(ctx, session, applicationID, entity.ApplicationApproved)
	if err != nil {
		return nil, err
	}

	if err = s.userStorage.Promote(ctx, application.UserID, application.RequestedRole); err != nil {
		s.logger.Errorf("(user: %s) application %s approved but promotion failed: %v", session.UserID, applicationID, err)
		return nil, errorz.Store(fmt.Errorf("promote applicant: %w", err))
	}
	publish(ctx, s.changes, s.logger, entity.CollectionUsers)
	return application, nil
}

// Reject moves a pending application to rejected.
func (s *ApplicationService) Reject(ctx context.Context, session dto.Session, applicationID string) (*entity.RoleApplication, error) {
	return s.transition(ctx, session, applicationID, entity.ApplicationRejected)
}

func (s *ApplicationService) transition(ctx context.Context, session dto.Session, applicationID string, to entity.ApplicationStatus) (*entity.RoleApplication, error) {
	ctx, span := tracer.Start(ctx, "applications.transition")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID), attribute.String("application.to", string(to)))

	if !session.Is(entity.RoleAdmin) {
		return nil, errorz.Forbidden("only admins can review applications")
	}

	application, err := s.applicationStorage.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !application.Pending() {
		return nil, errorz.Transition(string(application.Status), string(to))
	}

	reviewedAt := s.now()
	changed, err := s.applicationStorage.Transition(ctx, applicationID, entity.ApplicationPending, to, session.UserID, reviewedAt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !changed {
		// Another reviewer got there between the read and the write.
		current, err := s.applicationStorage.Get(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		return nil, errorz.Transition(string(current.Status), string(to))
	}

	application.Status = to
	application.ReviewedBy = session.UserID
	application.ReviewedAt = &reviewedAt
	s.logger.Infof("(user: %s) application %s %s (applicant=%s)", session.UserID, applicationID, to, application.UserID)
	publish(ctx, s.changes, s.logger, entity.CollectionApplications)
	return application, nil
}
