package auth

import (
	"context"
	"fmt"
	"strings"

	"music-store/internal/apperrors"
	"music-store/internal/models"
	"music-store/internal/util"

	"go.uber.org/zap"
)

const minPasswordLength = 8

// UserStore is the credential persistence the service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, role string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Service handles registration and login
type Service struct {
	users  UserStore
	tokens *TokenService
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(users UserStore, tokens *TokenService) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		logger: util.GetLogger(),
	}
}

// Credentials is the request body for register and login
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserView is the user shape returned to clients
type UserView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse carries a fresh token plus the user it identifies
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// Register creates a new customer account. Email uniqueness is left to the
// storage constraint so concurrent registrations cannot both succeed.
func (s *Service) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrInvalidInput, minPasswordLength)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, passwordHash, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return s.tokenResponse(user)
}

// Login authenticates by email and password. Unknown users and wrong
// passwords produce the same error so accounts cannot be enumerated.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrInvalidInput)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.tokenResponse(user)
}

// Profile retrieves the account identified by a verified token.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", apperrors.ErrNotFound)
	}
	return user, nil
}

func (s *Service) tokenResponse(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{
		Token: token,
		User:  UserView{ID: user.ID, Email: user.Email, Role: user.Role},
	}, nil
}

// NormalizeEmail trims whitespace and lowercases
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
