package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/PratikDhanave/adserve-sdk-service/internal/apperr"
	"github.com/PratikDhanave/adserve-sdk-service/internal/auth"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
	"github.com/PratikDhanave/adserve-sdk-service/internal/session"
	"github.com/PratikDhanave/adserve-sdk-service/internal/store"
)

// UserStore is the account persistence used by Auth.
type UserStore interface {
	auth.UserFinder
	CreateUser(ctx context.Context, email, passwordHash string, role models.Role) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureSuperAdmin(ctx context.Context, email, passwordHash string) (*models.User, error)
	RegistrationOpen(ctx context.Context) (bool, error)
}

var errInvalidCredentials = apperr.Unauthorized("Invalid email or password")

// Auth registers and signs in users and issues their session tokens.
type Auth struct {
	users    UserStore
	sessions *session.Manager
	log      *zap.Logger
}

func NewAuth(users UserStore, sessions *session.Manager, log *zap.Logger) *Auth {
	return &Auth{users: users, sessions: sessions, log: log}
}

// Register creates a USER account while registration is open and returns it with a session token.
func (a *Auth) Register(ctx context.Context, req models.CredentialsRequest) (*models.User, string, error) {
	open, err := a.users.RegistrationOpen(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("read registration setting: %w", err)
	}
	if !open {
		return nil, "", apperr.Forbidden("Registration is closed")
	}

	email := auth.NormalizeEmail(req.Email)
	if issues := auth.PasswordIssues(req.Password); len(issues) > 0 {
		return nil, "", apperr.Validation(strings.Join(issues, ", "))
	}

	_, err = a.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", apperr.Conflict("Email is already registered", nil)
	case !errors.Is(err, store.ErrNotFound):
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}
	u, err := a.users.CreateUser(ctx, email, hash, models.RoleUser)
	if err != nil {
		return nil, "", err
	}
	a.log.Info("user registered", zap.String("user_id", u.ID))

	token, err := a.sessions.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login checks credentials. Unknown, inactive and wrong-password cases fail identically.
func (a *Auth) Login(ctx context.Context, req models.CredentialsRequest) (*models.User, string, error) {
	u, err := a.users.FindUserByEmail(ctx, auth.NormalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", errInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", errInvalidCredentials
	}

	token, err := a.sessions.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CurrentUser returns the active user behind claims, or nil when there is none.
func (a *Auth) CurrentUser(ctx context.Context, claims *session.Claims) (*models.User, error) {
	if claims == nil {
		return nil, nil
	}
	u, err := a.users.FindUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, nil
	}
	return u, nil
}

// EnsureSuperAdmin creates or resets the bootstrap SUPER_ADMIN account.
func (a *Auth) EnsureSuperAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = auth.NormalizeEmail(email)
	if issues := auth.PasswordIssues(password); len(issues) > 0 {
		return nil, fmt.Errorf("super admin password: %s", strings.Join(issues, ", "))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u, err := a.users.EnsureSuperAdmin(ctx, email, hash)
	if err != nil {
		return nil, fmt.Errorf("ensure super admin: %w", err)
	}
	a.log.Info("super admin ensured", zap.String("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}
