package services

import (
	"context"
	"errors"
	"strings"

	"github.com/fundflow-dev/fundflow/internal/auth"
	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the most bcrypt will hash.
	MaxPasswordBytes = 72
)

var validate = validator.New()

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

type IdentityService struct {
	store  store.Store
	tokens *auth.TokenManager
}

func NewIdentityService(s store.Store, tokens *auth.TokenManager) *IdentityService {
	return &IdentityService{store: s, tokens: tokens}
}

// Register creates a donor or creator account. Administrators are only
// created through CreateAdmin.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*types.AuthResponse, error) {
	if in.Role == "" {
		in.Role = models.RoleDonor
	}

	if in.Role != models.RoleDonor && in.Role != models.RoleCreator {
		return nil, types.Validation("Role must be donor or creator")
	}

	user, err := s.createUser(ctx, in)

	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *IdentityService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.createUser(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
}

func (s *IdentityService) createUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	if name == "" || email == "" || in.Password == "" {
		return nil, types.Validation("Name, email and password are required")
	}

	if err := validate.Var(email, "email"); err != nil {
		return nil, types.Validation("Invalid email address")
	}

	if len(in.Password) < MinPasswordLength {
		return nil, types.Validation("Password must be at least %d characters", MinPasswordLength)
	}

	if len(in.Password) > MaxPasswordBytes {
		return nil, types.Validation("Password cannot exceed %d bytes", MaxPasswordBytes)
	}

	passwordHash, err := auth.HashPassword(in.Password)

	if err != nil {
		return nil, types.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         in.Role,
		IsActive:     true,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, types.Conflict("Email is already registered")
		}
		return nil, err
	}

	return user, nil
}

func (s *IdentityService) Login(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))

	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.Authentication("Invalid email or password")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, types.Authentication("Invalid email or password")
	}

	if !user.IsActive {
		return nil, types.Authorization("Account has been deactivated")
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token to a live, active user.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)

	if err != nil {
		return nil, types.Authentication("Invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, userID)

	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.Authentication("User not found")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, types.Authorization("Account has been deactivated")
	}

	return user, nil
}

func (s *IdentityService) issue(user *models.User) (*types.AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID)

	if err != nil {
		return nil, types.Internal("failed to generate token", err)
	}

	return &types.AuthResponse{Token: token, User: types.NewUserResponse(user)}, nil
}
