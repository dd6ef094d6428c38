package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/conductor/pkg/models"
)

// AddSession inserts a new Session document. ts is server-assigned.
func (s *Store) AddSession(ctx context.Context, sess models.Session) (models.Session, error) {
	var out models.Session
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			INSERT INTO sessions (id, user_id, current_status, message_to_user)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, current_status, message_to_user, ts`,
			sess.ID, sess.UserID, sess.CurrentStatus, sess.MessageToUser)
		var scanErr error
		out, scanErr = scanSession(row)
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// GetSession returns a Session by id, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (models.Session, error) {
	var out models.Session
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			SELECT id, user_id, current_status, message_to_user, ts
			FROM sessions WHERE id = $1`, id)
		var scanErr error
		out, scanErr = scanSession(row)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

// ListSessions returns every Session for a user, newest first.
func (s *Store) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	var out []models.Session
	err := withRetry(ctx, func() error {
		rows, qErr := s.pool.Query(ctx, `
			SELECT id, user_id, current_status, message_to_user, ts
			FROM sessions WHERE user_id = $1 ORDER BY ts DESC`, userID)
		if qErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, qErr)
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			sess, scanErr := scanSession(rows)
			if scanErr != nil {
				return fmt.Errorf("%w: %v", ErrTransport, scanErr)
			}
			out = append(out, sess)
		}
		return rows.Err()
	})
	return out, err
}

// UpdateSession upserts the full Session row and returns the new ts.
func (s *Store) UpdateSession(ctx context.Context, sess models.Session) (models.Session, error) {
	var out models.Session
	err := withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx, `
			UPDATE sessions SET current_status = $2, message_to_user = $3, ts = now()
			WHERE id = $1
			RETURNING id, user_id, current_status, message_to_user, ts`,
			sess.ID, sess.CurrentStatus, sess.MessageToUser)
		var scanErr error
		out, scanErr = scanSession(row)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, scanErr)
		}
		return nil
	})
	return out, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (models.Session, error) {
	var sess models.Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.CurrentStatus, &sess.MessageToUser, &sess.Ts)
	return sess, err
}
