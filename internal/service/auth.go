// Package service contains the business logic layer.
//
// Handlers parse HTTP and delegate here; services validate, enforce
// ownership and credential rules, and talk to the repositories. Nothing in
// this package knows about status codes or routers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/tradecircle/internal/apperror"
	"github.com/sakif/tradecircle/internal/auth"
	"github.com/sakif/tradecircle/internal/metrics"
	"github.com/sakif/tradecircle/internal/model"
	"github.com/sakif/tradecircle/internal/repository"
)

// invalidCredentials is the single message for every login failure. A wrong
// password and an unknown email must be indistinguishable to the caller.
const invalidCredentials = "Invalid credentials"

// AuthService handles registration, login and token validation.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService wires an AuthService. Called from the composition root.
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

// AuthResult bundles the user with the issued token so the handler can build
// the login response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account. Name is optional; email and password are
// required. A duplicate email surfaces as apperror.ErrConflict straight from
// the repository's unique constraint.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Missing email or password")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	metrics.UsersRegisteredTotal.Inc()
	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies credentials and issues a bearer token embedding the user's
// id, name and email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Missing email or password")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Unknown email gets the same answer as a wrong password; a store
		// failure is not a credential problem and must stay a 500.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	token, err := s.tokens.Generate(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("logging in user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// LoginWithGitHub signs in (or first registers) a user from a GitHub
// profile. The account is keyed by email; GitHub-created accounts get an
// empty password hash, so password login for them always fails until they
// register one — which this core never does.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}
	if ghUser.Email == "" {
		return nil, apperror.ValidationFailed("email",
			"GitHub account has no public email; cannot sign in")
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	user, err := s.users.GetUserByEmail(ctx, ghUser.Email)
	switch {
	case err != nil && !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up GitHub user: %w", err)
	case err != nil:
		// First sign-in: create the account.
		user = &model.User{Name: name, Email: ghUser.Email}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
		}
		metrics.UsersRegisteredTotal.Inc()
		s.logger.Info("user registered via GitHub",
			slog.Int64("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
	}

	token, err := s.tokens.Generate(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the public profile for /me.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching user %d: %w", id, err)
	}
	return user, nil
}
