package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tenancy-service/internal/config"
	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/repository/memory"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: bcrypt.MinCost}
	return NewAuthService(cfg, store.Tenants(), nil), store
}

func TestCreateUserAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	created, err := svc.CreateUser(ctx, CreateUserInput{
		Name: "Ana", Email: " Ana@Example.com ", Password: "s3cret-pass", Role: domain.RoleTenant,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.False(t, created.IsAssigned())
	assert.NotEqual(t, "s3cret-pass", created.PasswordHash)

	user, token, err := svc.Login(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, domain.RoleTenant, token.Role)

	claims, err := svc.TokenManager().ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.Subject)
	assert.Equal(t, domain.RoleTenant, claims.Role)
}

func TestCreateUserRejectsDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	in := CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: domain.RoleAdmin}
	_, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, in)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	in.Email = "bo@example.com"
	in.Role = "landlord"
	_, err = svc.CreateUser(ctx, in)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	in.Role = domain.RoleTenant
	in.Password = "short"
	_, err = svc.CreateUser(ctx, in)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, store := newAuthService(t)
	created, err := svc.CreateUser(ctx, CreateUserInput{
		Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: domain.RoleTenant,
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, err = svc.Login(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	created.Active = false
	require.NoError(t, store.Tenants().Update(ctx, created))
	_, _, err = svc.Login(ctx, "ana@example.com", "s3cret-pass")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
