package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/jwt"
	"immigration-case-portal/backend/pkg/logger"
	"immigration-case-portal/backend/pkg/saga"

	"github.com/google/uuid"
)

var (
	ErrUserAlreadyExists  = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("invalid role")
)

// LoginResult is the outcome of a successful authentication
type LoginResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// UserService handles registration and authentication. Registration is a
// saga: the relational row and the real-time store profile are created
// together or not at all, so chat can always resolve a participant.
type UserService struct {
	repo     repository.UserRepository
	store    rtdb.Client
	tokens   *jwt.Service
	notifier *NotificationService
	log      *logger.Logger
}

// NewUserService creates the user service
func NewUserService(repo repository.UserRepository, store rtdb.Client, tokens *jwt.Service, notifier *NotificationService, log *logger.Logger) *UserService {
	return &UserService{
		repo:     repo,
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

// Register provisions a new account across both stores
func (s *UserService) Register(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = string(jwt.RoleClient)
	}
	if !jwt.ValidRole(jwt.Role(role)) {
		return nil, ErrInvalidRole
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrUserAlreadyExists
	}

	user := &models.User{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		ExternalUID: uuid.New().String(),
	}

	provisioning := saga.New("user-registration", s.log).
		AddStep(saga.Step{
			Name: "create-account",
			Run: func(ctx context.Context) error {
				return s.repo.Create(ctx, user)
			},
			Compensate: func(ctx context.Context) error {
				return s.repo.Delete(ctx, user.ID)
			},
		}).
		AddStep(saga.Step{
			Name: "provision-chat-profile",
			Run: func(ctx context.Context) error {
				return s.store.Set(ctx, rtdb.UserPath(user.ExternalUID), rtdb.UserProfile{
					Name:  user.Name,
					Email: user.Email,
					Role:  user.Role,
				})
			},
			Compensate: func(ctx context.Context) error {
				return s.store.Delete(ctx, rtdb.UserPath(user.ExternalUID))
			},
		})

	if err := provisioning.Execute(ctx); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, &models.Notification{
			UserID: user.ID,
			Type:   models.NotificationWelcome,
			Title:  "Welcome to the case portal",
			Body:   "Your account is ready. You can now submit a case and chat with your agent.",
		}, user.ExternalUID)
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login authenticates a user and issues a token
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.JWTRole(), user.ExternalUID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.repo.Update(ctx, user); err != nil {
		s.log.Warn("last login update failed", "user_id", user.ID, "error", err.Error())
	}

	return &LoginResult{Token: token, User: user.ToResponse()}, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAgents returns all agent accounts, for assignment pickers
func (s *UserService) ListAgents(ctx context.Context) ([]models.User, error) {
	return s.repo.ListByRole(ctx, string(jwt.RoleAgent))
}
