package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/auth"
	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// IssuedSession is a login result: a bearer token bound to a registry session.
type IssuedSession struct {
	Token      string
	SessionKey string
	ExpiresAt  time.Time
}

// AuthService coordinates registration, login and credential changes.
type AuthService struct {
	users      repository.UserRepository
	profiles   repository.ProfileRepository
	sessions   repository.SessionRegistry
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	now        Clock
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	ProfileRepo  repository.ProfileRepository
	Sessions     repository.SessionRegistry
	TokenManager *auth.TokenManager
	BcryptCost   int
	Logger       *zap.Logger
	Clock        Clock
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		profiles:   deps.ProfileRepo,
		sessions:   deps.Sessions,
		tokenMgr:   deps.TokenManager,
		bcryptCost: deps.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// RegisterInput describes a self-service signup.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates an employee account and an empty profile, then logs the user in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *IssuedSession, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, nil, apperrors.NewFieldError("username", "username is required")
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, nil, apperrors.NewConflict("username already registered", map[string]any{"field": "username"})
	} else if !apperrors.IsNoRows(err) {
		return nil, nil, err
	}

	hash, err := s.hash(input.Password, username, input.Email)
	if err != nil {
		return nil, nil, err
	}
	user := &domain.User{
		Username:     username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Role:         domain.RoleEmployee,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}
	if err := s.profiles.Upsert(ctx, &domain.Profile{UserID: user.ID}); err != nil {
		return nil, nil, err
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login authenticates by username and password and registers a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *IssuedSession, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, nil, apperrors.NewForbidden("account is disabled")
	}

	session, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout removes the session from the registry, invalidating its token.
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	return s.sessions.Delete(ctx, sessionKey)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.PasswordMatches(user.PasswordHash, currentPassword) {
		return apperrors.NewFieldError("current_password", "current password is incorrect")
	}
	hash, err := s.hash(newPassword, user.Username, user.Email)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// CreateAdmin creates an ADMIN account or promotes an existing one, resetting its password and reactivating it.
// It reports whether a new account was created.
func (s *AuthService) CreateAdmin(ctx context.Context, username, email, password string) (*domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, apperrors.NewFieldError("username", "username is required")
	}
	hash, err := s.hash(password, username, email)
	if err != nil {
		return nil, false, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		user.Role = domain.RoleAdmin
		user.Active = true
		user.PasswordHash = hash
		if email = strings.TrimSpace(email); email != "" {
			user.Email = email
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, false, err
		}
		s.logger.Info("admin account promoted", zap.Int64("user_id", user.ID))
		return user, false, nil
	case apperrors.IsNoRows(err):
		user = &domain.User{
			Username:     username,
			Email:        strings.TrimSpace(email),
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			Active:       true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, false, err
		}
		if err := s.profiles.Upsert(ctx, &domain.Profile{UserID: user.ID}); err != nil {
			return nil, false, err
		}
		s.logger.Info("admin account created", zap.Int64("user_id", user.ID))
		return user, true, nil
	default:
		return nil, false, err
	}
}

func (s *AuthService) hash(password string, attributes ...string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost, attributes...)
	if auth.IsPolicyViolation(err) {
		return "", apperrors.NewFieldError("password", err.Error())
	}
	return hash, err
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*IssuedSession, error) {
	now := s.now()
	session := domain.Session{
		Key:       uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenMgr.TTL()),
	}
	raw, err := repository.EncodeSession(session)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, raw); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user, session.Key, now)
	if err != nil {
		return nil, err
	}
	return &IssuedSession{Token: token, SessionKey: session.Key, ExpiresAt: expiresAt}, nil
}
