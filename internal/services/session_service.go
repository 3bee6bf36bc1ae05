package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/models"
)

const sessionTokenBytes = 32

// sessionService maps opaque bearer tokens to users. A user holds at most
// one active session; Create replaces the prior token in place.
type sessionService struct {
	db *gorm.DB
}

// NewSessionService creates a new SessionServicer.
func NewSessionService(db *gorm.DB) SessionServicer {
	return &sessionService{db: db}
}

// Create issues a fresh session token for the user, replacing any
// existing session row.
func (s *sessionService) Create(userID string) (string, error) {
	token, err := generateToken(sessionTokenBytes)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing models.Session
	dbErr := s.db.Where("user_id = ?", userID).First(&existing).Error

	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			session := &models.Session{UserID: userID, Token: token}
			if err := s.db.Create(session).Error; err != nil {
				return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return token, nil
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, dbErr)
	}

	existing.Token = token
	if err := s.db.Save(&existing).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return token, nil
}

// Validate resolves a token to its user. Fails closed: empty tokens,
// unknown tokens, and lookup errors all report invalid.
func (s *sessionService) Validate(token string) (*models.User, bool) {
	if token == "" {
		return nil, false
	}

	var session models.Session
	if err := s.db.Preload("User").Where("token = ?", token).First(&session).Error; err != nil {
		return nil, false
	}
	if session.User.ID == "" {
		return nil, false
	}
	return &session.User, true
}

// generateToken returns n random bytes hex-encoded.
func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
