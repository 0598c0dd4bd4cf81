package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"sync"
	"time"

	"github.com/Badsnus/festival-booking/internal/domain/common/errorz"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/utils/validator"
	"github.com/Badsnus/festival-booking/pkg/generator"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type CodesStorage interface {
	// Get returns an empty code when none is stored.
	Get(ctx context.Context, email string) (code string, codeContext string, err error)
	Set(ctx context.Context, email, code, codeContext string, expiration time.Duration) error
	Clear(ctx context.Context, email string) error
}

type SessionStorage interface {
	Get(ctx context.Context, token string) (*dto.Principal, error)
	Set(ctx context.Context, token string, principal dto.Principal, expiration time.Duration) error
	Clear(ctx context.Context, token string) error
}

type codeMailer interface {
	SendConfirmationEmail(to string, code string) error
}

type AuthConfig struct {
	CodeTTL        time.Duration
	SessionTTL     time.Duration
	CodesPerMinute int
}

// AuthService is the identity provider: a one-time code mailed to the user is
// exchanged for an opaque session token.
type AuthService struct {
	codes    CodesStorage
	sessions SessionStorage
	mailer   codeMailer
	cfg      AuthConfig
	logger   *types.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewAuthService(codes CodesStorage, sessions SessionStorage, mailer codeMailer, cfg AuthConfig, logger *types.Logger) *AuthService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.CodesPerMinute <= 0 {
		cfg.CodesPerMinute = 3
	}
	return &AuthService{
		codes:    codes,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *AuthService) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.cfg.CodesPerMinute)), s.cfg.CodesPerMinute)
		s.limiters[key] = l
	}
	return l
}

// UserID derives a stable user id from an email address.
func UserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalizeEmail(email))).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendCode mails a sign-in code. displayName is remembered with the code and
// becomes the principal's name on first sign-in.
func (s *AuthService) SendCode(ctx context.Context, email, displayName string) error {
	if !validator.Email(strings.TrimSpace(email)) {
		return errorz.Validation("invalid email")
	}
	email = normalizeEmail(email)
	if !s.limiter("send:" + email).Allow() {
		return errorz.Validation("too many requests, try again later")
	}

	code, err := generator.LoginCode()
	if err != nil {
		return err
	}
	if err = s.codes.Set(ctx, email, code, strings.TrimSpace(displayName), s.cfg.CodeTTL); err != nil {
		return err
	}
	if err = s.mailer.SendConfirmationEmail(email, code); err != nil {
		s.logger.Errorf("failed to send sign-in code (email=%s): %v", email, err)
		return errorz.Store(err)
	}
	return nil
}

// Verify exchanges a valid code for a session token.
func (s *AuthService) Verify(ctx context.Context, email, code string) (string, dto.Principal, error) {
	email = normalizeEmail(email)
	if !s.limiter("verify:" + email).Allow() {
		return "", dto.Principal{}, errorz.Validation("too many attempts, try again later")
	}

	stored, displayName, err := s.codes.Get(ctx, email)
	if err != nil {
		return "", dto.Principal{}, err
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return "", dto.Principal{}, errorz.Validation("invalid or expired code")
	}
	if err = s.codes.Clear(ctx, email); err != nil {
		s.logger.Warnf("failed to clear used code (email=%s): %v", email, err)
	}

	principal := dto.Principal{
		UserID:      UserID(email),
		Email:       email,
		DisplayName: displayName,
	}
	token := uuid.New().String()
	if err = s.sessions.Set(ctx, token, principal, s.cfg.SessionTTL); err != nil {
		return "", dto.Principal{}, err
	}
	s.logger.Infof("(user: %s) signed in", principal.UserID)
	return token, principal, nil
}

// Authenticate resolves a session token to its principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (dto.Principal, error) {
	if token == "" {
		return dto.Principal{}, errorz.ErrUnauthenticated
	}
	principal, err := s.sessions.Get(ctx, token)
	if err != nil {
		return dto.Principal{}, err
	}
	if principal == nil {
		return dto.Principal{}, errorz.ErrUnauthenticated
	}
	return *principal, nil
}

func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Clear(ctx, token)
}
