package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

type AuthUseCase struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	logger *slog.Logger
}

func NewAuthUseCase(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger *slog.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Login accepts a username or an email. Unknown account, wrong password and
// deactivated account all collapse into the same unauthorized answer.
func (uc *AuthUseCase) Login(ctx context.Context, login, password string) (*domain.TokenResponse, error) {
	user, err := uc.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "login",
				errors.New("incorrect username or password"))
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	if !user.IsActive || !uc.hasher.Verify(user.PasswordHash, password) {
		return nil, domain.WrapError(domain.ErrUnauthorized, "login",
			errors.New("incorrect username or password"))
	}

	if err := uc.users.RecordLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		uc.logger.Warn("record last login", "user_id", user.ID, "error", err)
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &domain.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to its user row. Invalid tokens and
// vanished users are unauthorized; a deactivated user is a client error the
// caller can surface as such.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	subject, err := uc.tokens.Verify(token)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate",
			errors.New("could not validate credentials"))
	}

	user, err := uc.users.GetByID(ctx, subject)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate",
				errors.New("could not validate credentials"))
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	if !user.IsActive {
		return nil, domain.WrapError(domain.ErrInvalidInput, "authenticate",
			errors.New("inactive user"))
	}
	return user, nil
}

func (uc *AuthUseCase) Register(ctx context.Context, requester *domain.User, in domain.RegisterInput) (*domain.User, error) {
	if requester.Role != domain.RoleAdmin {
		return nil, domain.WrapError(domain.ErrForbidden, "register user",
			errors.New("not enough permissions"))
	}
	return createUser(ctx, uc.users, uc.hasher, in)
}

// RequestPasswordReset acknowledges the request without revealing whether the
// email has an account. No reset token is issued; there is no mail transport
// to deliver one.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := uc.users.GetByLogin(ctx, strings.TrimSpace(email))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("fetch user: %w", err)
	}
	uc.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

// createUser validates and inserts a new account. Shared by admin-gated
// registration and the admin user-management endpoint.
func createUser(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, in domain.RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register user",
			errors.New("username, email and password are required"))
	}

	taken, err := users.LoginTaken(ctx, in.Username, in.Email, "")
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if taken {
		return nil, domain.WrapError(domain.ErrConflict, "register user",
			errors.New("username or email already registered"))
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleCA
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *AuthUseCase) UpdateProfile(ctx context.Context, user *domain.User, in domain.UserUpdate) (*domain.User, error) {
	updated := *user
	if err := applyUserUpdate(ctx, uc.users, uc.hasher, &updated, in); err != nil {
		return nil, err
	}
	if err := uc.users.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &updated, nil
}

// applyUserUpdate mutates user in place after uniqueness checks. Shared by
// profile self-service and the admin user endpoints.
func applyUserUpdate(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, user *domain.User, in domain.UserUpdate) error {
	username := user.Username
	email := user.Email
	if in.Username != nil {
		username = *in.Username
	}
	if in.Email != nil {
		email = *in.Email
	}
	if username != user.Username || email != user.Email {
		taken, err := users.LoginTaken(ctx, username, email, user.ID)
		if err != nil {
			return fmt.Errorf("check duplicates: %w", err)
		}
		if taken {
			return domain.WrapError(domain.ErrConflict, "update user",
				errors.New("username or email already registered"))
		}
	}

	user.Username = username
	user.Email = email
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := hasher.Hash(*in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	return nil
}
