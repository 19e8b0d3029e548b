package database

import (
	"time"

	"github.com/vendaflow/funildash/internal/logging"
)

var nowFunc = time.Now

// SessionCleanupScheduler purges expired login sessions in the background.
type SessionCleanupScheduler struct {
	interval time.Duration
	stopChan chan struct{}
}

// NewSessionCleanupScheduler creates a scheduler that sweeps once per
// interval. A zero interval defaults to hourly.
func NewSessionCleanupScheduler(interval time.Duration) *SessionCleanupScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleanupScheduler{
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the cleanup loop. The first sweep runs immediately.
func (s *SessionCleanupScheduler) Start() {
	logging.L().Info("starting session cleanup scheduler", "interval", s.interval.String())
	go s.run()
}

// Stop ends the cleanup loop.
func (s *SessionCleanupScheduler) Stop() {
	close(s.stopChan)
}

func (s *SessionCleanupScheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.CleanupExpiredSessions()

	for {
		select {
		case <-ticker.C:
			s.CleanupExpiredSessions()
		case <-s.stopChan:
			return
		}
	}
}

// CleanupExpiredSessions deletes sessions whose expiry has passed.
func (s *SessionCleanupScheduler) CleanupExpiredSessions() {
	result, err := DB.Exec(`DELETE FROM sessoes WHERE expira_em < $1`, nowFunc())
	if err != nil {
		logging.L().Warn("failed to clean up expired sessions", "error", err)
		return
	}
	if deleted, err := result.RowsAffected(); err == nil && deleted > 0 {
		logging.L().Info("removed expired sessions", "count", deleted)
	}
}
