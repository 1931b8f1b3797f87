package storage

import (
	"fmt"
	"time"
)

// CreateSession installs the session for a user, replacing any
// existing one. Sessions are written synchronously: a login must not
// race the validation of its own token.
func (s *Store) CreateSession(rec SessionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id = ?`, rec.UserID); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		rec.SessionID, rec.UserID, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

// DeleteSessionByUserID drops the user's session, logging them out.
func (s *Store) DeleteSessionByUserID(userID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions purges sessions past their expiry and reports
// how many were removed.
func (s *Store) DeleteExpiredSessions() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IsSessionValid reports whether the user holds an unexpired session.
func (s *Store) IsSessionValid(userID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE user_id = ? AND expires_at > ?`,
		userID, time.Now().UTC()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
