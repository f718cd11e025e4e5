// Package service holds the business rules. Services take repository
// interfaces and never see HTTP.
//
// Authentication:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// The service never touches cookies or requests; the handler turns an
// AuthResult into a Set-Cookie header and a JSON body.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/auth"
	"github.com/sakif/lingoread/internal/model"
	"github.com/sakif/lingoread/internal/repository"
)

const (
	MaxUserNameLength = 64
	MinPasswordLength = 6
)

// invalidCredentials is shared by "no such user" and "wrong password" so a
// caller cannot probe which names exist.
const invalidCredentials = "invalid name or password"

type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and a freshly issued token.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an account. confirm is optional; when non-empty it must
// equal password. A taken name is ErrConflict.
func (s *AuthService) Register(ctx context.Context, name, password, confirm string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
	}
	if confirm != "" && confirm != password {
		return nil, apperror.ValidationFailed("confirm_password", "passwords do not match")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Name: name, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.String("name", name), slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID), slog.String("name", user.Name))
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, name, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, apperror.ValidationFailed("name", "name and password are required")
	}

	user, err := s.users.GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID backs GET /api/users/me.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

// MaxGoalLengthMinutes is one day.
const MaxGoalLengthMinutes = 24 * 60

// SetReadingGoal sets the user's daily reading goal in minutes. nil clears
// it; otherwise it must be within 1..MaxGoalLengthMinutes.
func (s *AuthService) SetReadingGoal(ctx context.Context, userID int64, minutes *int) (*model.User, error) {
	if minutes != nil && (*minutes < 1 || *minutes > MaxGoalLengthMinutes) {
		return nil, apperror.ValidationFailed("goal_length_minutes",
			fmt.Sprintf("goal must be between 1 and %d minutes", MaxGoalLengthMinutes))
	}
	if err := s.users.SetGoalLengthMinutes(ctx, userID, minutes); err != nil {
		return nil, fmt.Errorf("service/auth: setting reading goal for user %d: %w", userID, err)
	}
	s.logger.Info("reading goal updated", slog.Int64("userID", userID))
	return s.GetUserByID(ctx, userID)
}
