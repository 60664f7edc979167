package models

import (
	"time"

	"immigration-case-portal/backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents an account in the system: a client, an agent or an admin.
// ExternalUID is the user's identity in the real-time store; it is empty
// until the profile has been provisioned there.
type User struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `json:"name"`
	Email       string     `gorm:"uniqueIndex" json:"email"`
	Password    string     `json:"-"` // Never return password in JSON
	Role        string     `json:"role" gorm:"default:client"`
	ExternalUID string     `gorm:"column:external_uid;uniqueIndex" json:"external_uid,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateUserRequest is the request structure for registration
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest is the request structure for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the response structure for user data (without sensitive info)
type UserResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	ExternalUID string     `json:"external_uid,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToResponse converts a User to a UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		ExternalUID: u.ExternalUID,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

// JWTRole converts the stored role string into a token role
func (u *User) JWTRole() jwt.Role {
	return jwt.Role(u.Role)
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BeforeCreate is a GORM hook to hash the password before saving
func (u *User) BeforeCreate(tx *gorm.DB) error {
	hashedPassword, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
