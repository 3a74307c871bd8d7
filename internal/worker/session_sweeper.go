package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/repository"
)

// SessionSweeper periodically drops expired entries from the session registry.
type SessionSweeper struct {
	sessions repository.SessionRegistry
	interval time.Duration
	logger   *zap.Logger
}

// NewSessionSweeper builds a sweeper. A non-positive interval makes Run return immediately.
func NewSessionSweeper(sessions repository.SessionRegistry, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweeper{sessions: sessions, interval: interval, logger: logger}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("session sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce purges expired sessions and returns how many were removed.
func (s *SessionSweeper) SweepOnce(ctx context.Context) int {
	purged, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		s.logger.Warn("session sweep failed", zap.Error(err))
		return 0
	}
	if purged > 0 {
		s.logger.Info("purged expired sessions", zap.Int("count", purged))
	}
	return purged
}
