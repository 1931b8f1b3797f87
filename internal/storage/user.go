package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateUser inserts a user inside a transaction so the uniqueness
// check and the insert cannot race another registration.
func (s *Store) CreateUser(rec UserRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	taken, err := s.userExists(tx, rec.Username, rec.Email)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("username or email already exists")
	}

	_, err = tx.Exec(
		`INSERT INTO users (user_id, username, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.UserID, rec.Username, rec.Email, rec.PasswordHash, rec.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) userExists(tx *sql.Tx, username, email string) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE username = ?`
	args := []any{username}
	if email != "" {
		query = `SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`
		args = append(args, email)
	}
	var n int
	if err := tx.QueryRow(query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("uniqueness check: %w", err)
	}
	return n > 0, nil
}

const userColumns = `user_id, username, email, password_hash, created_at, last_login_at`

func (s *Store) scanUser(row *sql.Row) (*UserRecord, error) {
	var user UserRecord
	var email sql.NullString
	err := row.Scan(&user.UserID, &user.Username, &email,
		&user.PasswordHash, &user.CreatedAt, &user.LastLoginAt)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}

// GetUserByID fetches one user by ID. sql.ErrNoRows when absent.
func (s *Store) GetUserByID(userID string) (*UserRecord, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID))
}

// GetUserByUsername fetches one user by username, case-insensitively.
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username))
}

// GetUserByEmail fetches one user by email, case-insensitively.
func (s *Store) GetUserByEmail(email string) (*UserRecord, error) {
	return s.scanUser(s.db.QueryRow(
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

// UpdateUserLastLoginSync stamps the last login time. Synchronous so
// login responses reflect it.
func (s *Store) UpdateUserLastLoginSync(userID string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, at, userID)
	return err
}

// UpdateUserPassword swaps in a new password hash.
func (s *Store) UpdateUserPassword(userID, passwordHash string) error {
	_, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
	return err
}

// DeleteUserByID removes the user; sessions cascade.
func (s *Store) DeleteUserByID(userID string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE user_id = ?`, userID)
	return err
}

// GetAllUsers lists every account, oldest first.
func (s *Store) GetAllUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var user UserRecord
		var email sql.NullString
		if err := rows.Scan(&user.UserID, &user.Username, &email,
			&user.PasswordHash, &user.CreatedAt, &user.LastLoginAt); err != nil {
			return nil, err
		}
		user.Email = email.String
		users = append(users, user)
	}
	return users, rows.Err()
}
