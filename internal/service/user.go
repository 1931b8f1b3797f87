package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"

	"chesscore/internal/storage"
)

// ErrStorageDisabled is returned by account operations when the
// service runs without a database.
var ErrStorageDisabled = errors.New("storage disabled")

// User is the account view exposed to the transport layer. The
// password hash never leaves the service.
type User struct {
	UserID    string
	Username  string
	Email     string
	CreatedAt time.Time
}

func userFromRecord(rec *storage.UserRecord) *User {
	return &User{
		UserID:    rec.UserID,
		Username:  rec.Username,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
	}
}

// CreateUser registers an account. The password is hashed with Argon2
// before it touches storage.
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.generateUniqueUserID()
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	err = s.store.CreateUser(storage.UserRecord{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    createdAt,
	})
	if err != nil {
		return nil, err
	}

	return &User{UserID: userID, Username: username, Email: email, CreatedAt: createdAt}, nil
}

// AuthenticateUser checks a username-or-email identifier against its
// password. Unknown accounts and bad passwords are indistinguishable.
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var rec *storage.UserRecord
	var err error
	if strings.Contains(identifier, "@") {
		rec, err = s.store.GetUserByEmail(identifier)
	} else {
		rec, err = s.store.GetUserByUsername(identifier)
	}
	if err != nil {
		// Burn the same hashing time as the success path
		auth.HashPassword(password)
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := auth.VerifyPassword(password, rec.PasswordHash); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return userFromRecord(rec), nil
}

// UpdateLastLogin stamps the account's last login time.
func (s *Service) UpdateLastLogin(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	if err := s.store.UpdateUserLastLoginSync(userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update last login for %s: %w", userID, err)
	}
	return nil
}

// GetUserByID resolves an account ID to its public view.
func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	rec, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return userFromRecord(rec), nil
}

// CreateUserSession opens the account's session, replacing any prior one.
func (s *Service) CreateUserSession(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	now := time.Now().UTC()
	return s.store.CreateSession(storage.SessionRecord{
		SessionID: uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	})
}

// DeleteUserSession closes the account's session.
func (s *Service) DeleteUserSession(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.DeleteSessionByUserID(userID)
}

// GenerateUserToken issues an HS256 JWT carrying the account's
// username and email as claims, valid for SessionTTL.
func (s *Service) GenerateUserToken(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	claims := map[string]any{
		"username": user.Username,
		"email":    user.Email,
	}
	return auth.GenerateHS256Token(s.jwtSecret, userID, claims, SessionTTL)
}

// ValidateToken checks a JWT and returns the subject and its claims.
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	return auth.ValidateHS256Token(s.jwtSecret, token)
}

// generateUniqueUserID draws UUIDs until one is not taken. A lookup
// error means the ID is free.
func (s *Service) generateUniqueUserID() (string, error) {
	for range 10 {
		id := uuid.New().String()
		if _, err := s.store.GetUserByID(id); err != nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate an unused user ID")
}
