package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/domain"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/observability"
	"github.com/spec-kit/it-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/it-helpdesk/pkg/util"
)

// QuarantineResult reports what a quarantine did.
type QuarantineResult struct {
	UserID                int64  `json:"user_id"`
	Username              string `json:"username"`
	AccountWasActive      bool   `json:"account_was_active"`
	AccountNowActive      bool   `json:"account_now_active"`
	SessionsDeleted       int    `json:"sessions_deleted"`
	DecodeWarnings        int    `json:"decode_warnings"`
	ExpiredSessionsPurged int    `json:"expired_sessions_purged"`
}

// QuarantineService disables compromised accounts and revokes their sessions.
type QuarantineService struct {
	users      repository.UserRepository
	sessions   repository.SessionRegistry
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// QuarantineDependencies bundles collaborators for the quarantine service.
type QuarantineDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   repository.SessionRegistry
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewQuarantineService constructs the service.
func NewQuarantineService(deps QuarantineDependencies) *QuarantineService {
	return &QuarantineService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
	}
}

// ParseUserID accepts a positive integer given as a JSON number or a numeric string.
func ParseUserID(raw any) (int64, error) {
	invalid := func() error {
		return apperrors.NewValidationError(fmt.Sprintf("user_id must be a positive integer, got %v", raw),
			map[string]any{"field": "user_id"})
	}

	var id int64
	switch v := raw.(type) {
	case nil:
		return 0, apperrors.NewFieldError("user_id", "user_id is required")
	case int:
		id = int64(v)
	case int64:
		id = v
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 {
			return 0, invalid()
		}
		id = int64(v)
	case json.Number:
		parsed, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, invalid()
		}
		id = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalid()
		}
		id = parsed
	default:
		return 0, invalid()
	}
	if id <= 0 {
		return 0, invalid()
	}
	return id, nil
}

// Quarantine deactivates the account, verifies the write and deletes every live session of the user.
// It is idempotent.
func (s *QuarantineService) Quarantine(ctx context.Context, userID int64) (*QuarantineResult, error) {
	if userID <= 0 {
		return nil, apperrors.NewFieldError("user_id", "user_id must be a positive integer")
	}
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &QuarantineResult{
		UserID:           user.ID,
		Username:         user.Username,
		AccountWasActive: user.Active,
	}

	if err := s.users.SetActive(ctx, user.ID, false); err != nil {
		return nil, err
	}
	reloaded, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if reloaded.Active {
		s.logger.Error("quarantine readback mismatch", zap.Int64("user_id", user.ID))
		return nil, apperrors.NewIntegrityError("account is still active after deactivation",
			map[string]any{"user_id": user.ID})
	}
	result.AccountNowActive = reloaded.Active

	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, raw := range active {
		session, err := repository.DecodeSession(raw)
		if err != nil {
			result.DecodeWarnings++
			s.logger.Warn("skipping undecodable session", zap.String("session", raw.Key), zap.Error(err))
			continue
		}
		if session.UserID != user.ID {
			continue
		}
		if err := s.sessions.Delete(ctx, raw.Key); err != nil {
			return nil, err
		}
		result.SessionsDeleted++
	}

	purged, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		s.logger.Warn("failed to purge expired sessions", zap.Error(err))
	}
	result.ExpiredSessionsPurged = purged

	s.metrics.RecordQuarantine(result.SessionsDeleted)
	s.logger.Info("user quarantined",
		zap.Int64("user_id", user.ID),
		zap.Bool("was_active", result.AccountWasActive),
		zap.Int("sessions_deleted", result.SessionsDeleted),
		zap.Int("decode_warnings", result.DecodeWarnings))

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:  events.EventUserQuarantined,
		Actor: AutomationActor("").event(),
		Payload: events.UserQuarantinedPayload{
			UserID:          user.ID,
			Username:        user.Username,
			SessionsDeleted: result.SessionsDeleted,
		},
	})
	return result, nil
}

// Unfreeze reactivates a quarantined account.
func (s *QuarantineService) Unfreeze(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Active {
		return user, nil
	}
	if err := s.users.SetActive(ctx, user.ID, true); err != nil {
		return nil, err
	}
	reloaded, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !reloaded.Active {
		return nil, apperrors.NewIntegrityError("account is still inactive after reactivation",
			map[string]any{"user_id": user.ID})
	}
	s.logger.Info("user unfrozen", zap.Int64("user_id", user.ID))
	return reloaded, nil
}

func (s *QuarantineService) lookup(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, err
	}
	return user, nil
}
