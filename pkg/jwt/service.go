package jwt

import (
	"time"
)

// Service is a wrapper for JWT operations bound to a secret and expiry
type Service struct {
	secretKey string
	expiry    time.Duration
}

// NewService creates a new JWT service
func NewService(secretKey string, expiry time.Duration) *Service {
	if expiry == 0 {
		expiry = 24 * time.Hour
	}

	return &Service{
		secretKey: secretKey,
		expiry:    expiry,
	}
}

// GenerateToken generates a JWT token for a user
func (s *Service) GenerateToken(userID, email string, role Role, externalUID string) (string, error) {
	return Generate(s.secretKey, s.expiry, userID, email, role, externalUID)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return Validate(s.secretKey, tokenString)
}
