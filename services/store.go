package services

import (
	"context"
	"errors"

	"venuepulse/models"
)

// ErrSessionNotFound is returned for heartbeats and lookups against a
// session that never existed or already expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore tracks live operator sessions. Records expire when heartbeats
// stop arriving; End removes them eagerly.
type SessionStore interface {
	Create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error)
	Heartbeat(ctx context.Context, id string, update models.HeartbeatUpdate) (*models.Session, error)
	End(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Session, error)
	ListActive(ctx context.Context) ([]models.Session, error)
	// PruneExpired drops index entries whose backing record already expired
	// and returns how many were removed.
	PruneExpired(ctx context.Context) (int, error)
}

// applyUpdate folds a partial heartbeat update into a session record.
// Last write wins; nil fields are untouched.
func applyUpdate(s *models.Session, update models.HeartbeatUpdate) {
	if update.StandID != nil {
		s.StandID = *update.StandID
	}
	if update.StandName != nil {
		s.StandName = *update.StandName
	}
	if update.Section != nil {
		s.Section = *update.Section
	}
	if update.CurrentTab != nil {
		s.CurrentTab = *update.CurrentTab
	}
	if update.Status != nil {
		s.Status = *update.Status
	}
}
