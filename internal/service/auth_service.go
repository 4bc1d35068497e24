package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/auth"
	"github.com/spec-kit/tenancy-service/internal/config"
	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/repository"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

// AuthService coordinates account creation and login.
type AuthService struct {
	users      repository.TenantRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.TenantRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Name     string      `json:"name" validate:"required,notblank"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    string      `json:"phone"`
	Password string      `json:"password" validate:"required,min=8"`
	Role     domain.Role `json:"role" validate:"required,oneof=tenant admin"`
}

// CreateUser registers an active, unassigned account.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.Tenant, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": in.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	tenant := domain.NewTenant(domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       true,
	})
	if err := s.users.Create(ctx, tenant); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user created", zap.String("user_id", tenant.ID), zap.String("role", string(tenant.Role)))
	return tenant, nil
}

// Login authenticates an account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.AccessToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, apperrors.NewValidationError("email and password are required", nil)
	}

	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !account.Active {
		return nil, nil, apperrors.NewUnauthorized("account inactive")
	}

	token, err := s.tokenMgr.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return &account.User, token, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
