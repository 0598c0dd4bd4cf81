package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// bootstrapAttemptsPerMinute bounds setup key guesses per user.
const bootstrapAttemptsPerMinute = 5

type RoleStorage interface {
	// GetOrCreate returns the stored user, inserting user as given when absent.
	GetOrCreate(ctx context.Context, user *entity.User) (*entity.User, error)
	Get(ctx context.Context, id string) (*entity.User, error)
	FirstByRole(ctx context.Context, role entity.Role) (*entity.User, error)
	CountByRole(ctx context.Context, role entity.Role) (int64, error)
	// BootstrapAdmin elevates user to admin only while no admin exists. The
	// precondition is re-checked inside the write.
	BootstrapAdmin(ctx context.Context, user *entity.User) (*entity.User, error)
}

type changePublisher interface {
	Publish(ctx context.Context, collection string) error
}

// SetupKey is the pre-shared admin bootstrap secret. Hash, when set, is a
// bcrypt hash and takes precedence over Plain.
type SetupKey struct {
	Plain string
	Hash  string
}

func (k SetupKey) enabled() bool {
	return k.Plain != "" || k.Hash != ""
}

func (k SetupKey) matches(supplied string) bool {
	if supplied == "" {
		return false
	}
	if k.Hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(k.Plain), []byte(supplied)) == 1
}

type RoleService struct {
	storage  RoleStorage
	changes  changePublisher
	setupKey SetupKey
	logger   *types.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewRoleService(storage RoleStorage, changes changePublisher, setupKey SetupKey, logger *types.Logger) *RoleService {
	return &RoleService{
		storage:  storage,
		changes:  changes,
		setupKey: setupKey,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *RoleService) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/bootstrapAttemptsPerMinute), bootstrapAttemptsPerMinute)
		s.limiters[userID] = l
	}
	return l
}

// Session resolves the principal's role into the per-request session,
// creating a visitor record on first sight. Store failures resolve to
// visitor. The stored display name wins over the one asserted by the
// identity provider once it has been edited.
func (s *RoleService) Session(ctx context.Context, principal dto.Principal) dto.Session {
	user, err := s.user(ctx, principal)
	if err != nil {
		s.logger.Errorf("(user: %s) failed to resolve role, falling back to visitor: %v", principal.UserID, err)
		return dto.Session{Principal: principal, Role: entity.RoleVisitor}
	}
	if user.DisplayName != "" {
		principal.DisplayName = user.DisplayName
	}
	if principal.Email == "" {
		principal.Email = user.Email
	}
	return dto.Session{Principal: principal, Role: user.Role}
}

func (s *RoleService) user(ctx context.Context, principal dto.Principal) (*entity.User, error) {
	if principal.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	user, err := s.storage.GetOrCreate(ctx, &entity.User{
		ID:          principal.UserID,
		Email:       principal.Email,
		DisplayName: principal.DisplayName,
		Role:        entity.RoleVisitor,
	})
	if err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, errors.New("stored role is not recognised: " + string(user.Role))
	}
	return user, nil
}

// Operator returns the session of an existing user acting through offline
// tooling. An empty userID selects the earliest admin. The user must rank
// host or above.
func (s *RoleService) Operator(ctx context.Context, userID string) (dto.Session, error) {
	var (
		user *entity.User
		err  error
	)
	if userID == "" {
		user, err = s.storage.FirstByRole(ctx, entity.RoleAdmin)
	} else {
		user, err = s.storage.Get(ctx, userID)
	}
	if err != nil {
		return dto.Session{}, err
	}
	session := dto.Session{
		Principal: dto.Principal{UserID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
		Role:      user.Role,
	}
	if !session.Can(entity.RoleHost) {
		return dto.Session{}, errorz.Forbidden("user " + user.ID + " cannot host events")
	}
	return session, nil
}

// BootstrapAdmin is the one-time escape hatch that makes the caller the first
// admin. It fails with ErrPermissionDenied when the key is wrong, bootstrap is
// not configured, or any admin already exists.
func (s *RoleService) BootstrapAdmin(ctx context.Context, principal dto.Principal, suppliedKey string) (*entity.User, error) {
	if principal.UserID == "" {
		return nil, errorz.ErrUnauthenticated
	}
	if !s.limiter(principal.UserID).Allow() {
		return nil, errorz.Validation("too many attempts, try again later")
	}
	if !s.setupKey.enabled() {
		return nil, errorz.Forbidden("admin bootstrap is disabled")
	}
	if !s.setupKey.matches(suppliedKey) {
		return nil, errorz.Forbidden("invalid setup key")
	}

	user, err := s.storage.BootstrapAdmin(ctx, &entity.User{
		ID:          principal.UserID,
		Email:       principal.Email,
		DisplayName: principal.DisplayName,
		Role:        entity.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("(user: %s) bootstrapped as the first admin", principal.UserID)
	publish(ctx, s.changes, s.logger, entity.CollectionUsers)
	return user, nil
}

// AdminCount backs the setup monitor: bootstrap is only offered while it is zero.
func (s *RoleService) AdminCount(ctx context.Context) (int64, error) {
	return s.storage.CountByRole(ctx, entity.RoleAdmin)
}

// publish announces a change to live queries. A lost announcement only delays
// a refresh, so failures are logged.
func publish(ctx context.Context, changes changePublisher, logger *types.Logger, collections ...string) {
	if changes == nil {
		return
	}
	for _, collection := range collections {
		if err := changes.Publish(ctx, collection); err != nil {
			logger.Errorf("failed to publish change (collection=%s): %v", collection, err)
		}
	}
}
