package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/repository/memory"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, err := tm.GenerateToken("u-1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, token.ExpiresAt.Sub(token.IssuedAt))

	claims, err := tm.ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token.Value)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tm.GenerateToken("u-1", domain.RoleTenant)
	require.NoError(t, err)
	_, err = tm.ParseToken(token.Value)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pa55word", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "pa55word"))
	assert.Error(t, ComparePassword(hash, "nope"))
}

func newProtectedApp(t *testing.T, tm *TokenManager, store *memory.Store) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	mw := NewAuthMiddleware(tm, store.Tenants())
	app.Get("/admin", mw.Handle, RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.SendString(p.UserID)
	})
	return app
}

func TestMiddlewareEnforcesRole(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	admin := domain.NewTenant(domain.User{ID: "a-1", Email: "a@example.com", Role: domain.RoleAdmin, Active: true})
	tenant := domain.NewTenant(domain.User{ID: "t-1", Email: "t@example.com", Role: domain.RoleTenant, Active: true})
	require.NoError(t, store.Tenants().Create(ctx, admin))
	require.NoError(t, store.Tenants().Create(ctx, tenant))

	tm := NewTokenManager("secret", 5)
	app := newProtectedApp(t, tm, store)

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	adminToken, err := tm.GenerateToken("a-1", domain.RoleAdmin)
	require.NoError(t, err)
	tenantToken, err := tm.GenerateToken("t-1", domain.RoleTenant)
	require.NoError(t, err)
	// The stored role wins over the claim.
	forged, err := tm.GenerateToken("t-1", domain.RoleAdmin)
	require.NoError(t, err)
	ghost, err := tm.GenerateToken("ghost", domain.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, call("Bearer "+adminToken.Value))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+tenantToken.Value))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+forged.Value))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+ghost.Value))
	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Basic abc"))
}
