package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"gorm.io/gorm"
)

// MapError translates an infrastructure failure (gorm's not-found
// sentinel, a Postgres error code, context cancellation) into the
// service's five-signal error taxonomy. Every Store method funnels its
// gorm error through this before returning.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.CodeUnavailable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return apperr.Wrap(apperr.CodeIntegrity, op, err) // unique_violation
		case "23503":
			return apperr.Wrap(apperr.CodeIntegrity, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return apperr.Wrap(apperr.CodeUnavailable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return apperr.Wrap(apperr.CodeIntegrity, op, err)
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "timeout"):
		return apperr.Wrap(apperr.CodeUnavailable, op, err)
	default:
		return apperr.Wrap(apperr.CodeInternal, op, err)
	}
}
