// Package session tracks contiguous review sittings: open, close, and
// the startup/shutdown safety sweep of sessions left open.
package session

import (
	"context"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

// StaleSessionAge is how long a session may sit open before the startup
// sweep force-closes it.
const StaleSessionAge = 24 * time.Hour

type Tracker struct {
	store *store.Store
	log   *logger.Logger
}

func New(st *store.Store, baseLog *logger.Logger) *Tracker {
	return &Tracker{store: st, log: baseLog.With("component", "SessionTracker")}
}

// Open starts a new session and returns its id.
func (t *Tracker) Open(ctx context.Context) (uint, error) {
	session, err := t.store.OpenSession(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	return session.ID, nil
}

// Close ends the given session. Closing an already-closed or unknown
// session is a not-found error only when the id was never opened.
func (t *Tracker) Close(ctx context.Context, id uint) error {
	if _, err := t.store.GetSession(ctx, id); err != nil {
		return apperr.Wrap(apperr.CodeOf(err), "Tracker.Close", err)
	}
	return t.store.CloseSession(ctx, id, time.Now())
}

// SweepStale closes every session opened more than StaleSessionAge ago
// that is still open, on startup. Idempotent: running it twice in a row
// produces the same final state as running it once, since a session
// closed on the first pass is no longer a candidate on the second.
func (t *Tracker) SweepStale(ctx context.Context) (int, error) {
	closed, err := t.store.SweepStaleOpenSessions(ctx, time.Now(), StaleSessionAge)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		t.log.Info("swept stale open sessions", "count", closed)
	}
	return closed, nil
}

// SweepAll closes every still-open session, used on clean shutdown.
func (t *Tracker) SweepAll(ctx context.Context) (int, error) {
	closed, err := t.store.SweepOpenSessions(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		t.log.Info("closed open sessions on shutdown", "count", closed)
	}
	return closed, nil
}
