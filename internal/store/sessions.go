package store

import (
	"context"
	"time"
)

// OpenSession starts a new review session and returns its id.
func (s *Store) OpenSession(ctx context.Context, now time.Time) (*Session, error) {
	session := Session{StartedAt: now}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, MapError("Store.OpenSession", err)
	}
	return &session, nil
}

// CloseSession sets ended_at on the given session, or returns a
// not-found error if it doesn't exist.
func (s *Store) CloseSession(ctx context.Context, id uint, now time.Time) error {
	result := s.db.WithContext(ctx).Model(&Session{}).
		Where("id = ? AND ended_at IS NULL", id).
		Update("ended_at", now)
	if result.Error != nil {
		return MapError("Store.CloseSession", result.Error)
	}
	if result.RowsAffected == 0 {
		var session Session
		if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
			return MapError("Store.CloseSession", err)
		}
		// already closed: idempotent no-op, not an error
	}
	return nil
}

// SweepOpenSessions closes every session with ended_at still null. A
// session's ended_at becomes its latest ReviewEvent's timestamp, or its
// started_at if it has none. Safe to call repeatedly: a session already
// closed by a prior sweep is left untouched.
func (s *Store) SweepOpenSessions(ctx context.Context, now time.Time) (int, error) {
	var open []Session
	if err := s.db.WithContext(ctx).Where("ended_at IS NULL").Find(&open).Error; err != nil {
		return 0, MapError("Store.SweepOpenSessions", err)
	}

	closed := 0
	for _, session := range open {
		endedAt := session.StartedAt
		var latest ReviewEvent
		err := s.db.WithContext(ctx).
			Where("session_id = ?", session.ID).
			Order("timestamp DESC, id DESC").
			First(&latest).Error
		if err == nil {
			endedAt = latest.Timestamp
		}
		if err := s.db.WithContext(ctx).Model(&Session{}).
			Where("id = ? AND ended_at IS NULL", session.ID).
			Update("ended_at", endedAt).Error; err != nil {
			return closed, MapError("Store.SweepOpenSessions", err)
		}
		closed++
	}
	return closed, nil
}

// SweepStaleOpenSessions closes sessions opened more than olderThan ago
// that are still open, applying the same ended-at rule as
// SweepOpenSessions. Used on startup safety sweeps; a clean shutdown
// instead calls SweepOpenSessions unconditionally.
func (s *Store) SweepStaleOpenSessions(ctx context.Context, now time.Time, olderThan time.Duration) (int, error) {
	cutoff := now.Add(-olderThan)
	var stale []Session
	if err := s.db.WithContext(ctx).Where("ended_at IS NULL AND started_at <= ?", cutoff).Find(&stale).Error; err != nil {
		return 0, MapError("Store.SweepStaleOpenSessions", err)
	}
	closed := 0
	for _, session := range stale {
		endedAt := session.StartedAt
		var latest ReviewEvent
		err := s.db.WithContext(ctx).
			Where("session_id = ?", session.ID).
			Order("timestamp DESC, id DESC").
			First(&latest).Error
		if err == nil {
			endedAt = latest.Timestamp
		}
		if err := s.db.WithContext(ctx).Model(&Session{}).
			Where("id = ? AND ended_at IS NULL", session.ID).
			Update("ended_at", endedAt).Error; err != nil {
			return closed, MapError("Store.SweepStaleOpenSessions", err)
		}
		closed++
	}
	return closed, nil
}

// GetSession returns the session or a not-found error.
func (s *Store) GetSession(ctx context.Context, id uint) (*Session, error) {
	var session Session
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, MapError("Store.GetSession", err)
	}
	return &session, nil
}
