package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tenancy-service/internal/api/http/handlers"
	"github.com/spec-kit/tenancy-service/internal/auth"
	"github.com/spec-kit/tenancy-service/internal/config"
	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/events"
	"github.com/spec-kit/tenancy-service/internal/observability"
	"github.com/spec-kit/tenancy-service/internal/repository/memory"
	"github.com/spec-kit/tenancy-service/internal/service"
)

type testServer struct {
	app         *fiber.App
	store       *memory.Store
	now         time.Time
	adminToken  string
	tenantToken string
	tenantID    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	ts := &testServer{store: memory.NewStore(), now: time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC)}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	logger := zap.NewNop()

	authSvc := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 15, BcryptCost: bcrypt.MinCost}, ts.store.Tenants(), logger)
	tenancySvc := service.NewTenancyService(service.TenancyDependencies{
		TenantRepo:  ts.store.Tenants(),
		UnitRepo:    ts.store.Departments(),
		HistoryRepo: ts.store.History(),
		Transactor:  ts.store,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Metrics:     metrics,
		Logger:      logger,
		Clock:       func() time.Time { return ts.now },
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("tenancy-service", "test", map[string]handlers.Pinger{"redis": nil}),
		Auth:           handlers.NewAuthHandler(authSvc),
		Tenancy:        handlers.NewTenancyHandler(tenancySvc),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), ts.store.Tenants()),
		Gatherer:       reg,
	})
	ts.app = app

	_, err := authSvc.CreateUser(ctx, service.CreateUserInput{Name: "Admin", Email: "admin@example.com", Password: "admin-pass", Role: domain.RoleAdmin})
	require.NoError(t, err)
	tenant, err := authSvc.CreateUser(ctx, service.CreateUserInput{Name: "Ana", Email: "ana@example.com", Password: "tenant-pass", Role: domain.RoleTenant})
	require.NoError(t, err)
	ts.tenantID = tenant.ID
	ts.store.PutDepartment(domain.Department{ID: "U-12", Number: "12", Floor: 1, Rooms: 2, MonthlyRent: 950, IsAvailable: true, IsActive: true})

	ts.adminToken = ts.login(t, "admin@example.com", "admin-pass")
	ts.tenantToken = ts.login(t, "ana@example.com", "tenant-pass")
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status)
	return body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
}

func errorCode(body map[string]any) string {
	e, ok := body["error"].(map[string]any)
	if !ok {
		return ""
	}
	code, _ := e["code"].(string)
	return code
}

func assignBody(start, end string) map[string]string {
	return map[string]string{"unitId": "U-12", "contractStartDate": start, "contractEndDate": end}
}

func TestAssignAndReadDepartment(t *testing.T) {
	ts := newTestServer(t)
	assignPath := "/tenants/" + ts.tenantID + "/assign-department"

	status, body := ts.do(t, http.MethodPut, assignPath, ts.adminToken, assignBody("2025-01-01", "2025-06-01T00:00:00Z"))
	require.Equal(t, http.StatusOK, status)
	dept := body["data"].(map[string]any)["department"].(map[string]any)
	assert.Equal(t, "U-12", dept["unitId"])

	ts.now = time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	status, body = ts.do(t, http.MethodGet, "/tenants/"+ts.tenantID+"/department", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	info := data["contractInfo"].(map[string]any)
	assert.Equal(t, float64(12), info["daysUntilExpiry"])
	assert.Equal(t, true, info["isExpiringSoon"])
	assert.Equal(t, true, info["isActive"])
	assert.Equal(t, "U-12", data["unit"].(map[string]any)["id"])
	assert.Equal(t, ts.tenantID, data["tenantInfo"].(map[string]any)["id"])

	status, mine := ts.do(t, http.MethodGet, "/me/department", ts.tenantToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, data, mine["data"])

	status, body = ts.do(t, http.MethodGet, "/tenants/"+ts.tenantID+"/tenancy-history", ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestAssignErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	assignPath := "/tenants/" + ts.tenantID + "/assign-department"

	status, body := ts.do(t, http.MethodPut, assignPath, ts.adminToken, assignBody("2025-01-01", "2025-01-15"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = ts.do(t, http.MethodPut, assignPath, ts.adminToken, assignBody("01/01/2025", "2025-06-01"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = ts.do(t, http.MethodPut, assignPath, ts.adminToken, map[string]string{"unitId": "U-12"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = ts.do(t, http.MethodPut, "/tenants/ghost/assign-department", ts.adminToken, assignBody("2025-01-01", "2025-06-01"))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, _ = ts.do(t, http.MethodPut, assignPath, ts.adminToken, assignBody("2025-01-01", "2025-06-01"))
	require.Equal(t, http.StatusOK, status)

	status, body = ts.do(t, http.MethodPut, assignPath, ts.adminToken, assignBody("2025-02-01", "2025-12-01"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	// Request validation runs before the tenant is loaded, so a bad span wins
	// over the existing assignment.
	status, body = ts.do(t, http.MethodPut, assignPath, ts.adminToken, assignBody("2025-02-01", "2025-02-15"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestUnassignStatuses(t *testing.T) {
	ts := newTestServer(t)
	unassignPath := "/tenants/" + ts.tenantID + "/unassign-department"

	status, body := ts.do(t, http.MethodDelete, unassignPath, ts.adminToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, _ = ts.do(t, http.MethodPut, "/tenants/"+ts.tenantID+"/assign-department", ts.adminToken, assignBody("2025-01-01", "2025-06-01"))
	require.Equal(t, http.StatusOK, status)

	status, body = ts.do(t, http.MethodDelete, unassignPath, ts.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["data"].(map[string]any)["department"])

	status, body = ts.do(t, http.MethodGet, "/me/department", ts.tenantToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestIncompleteStoredTenancy(t *testing.T) {
	ts := newTestServer(t)
	rec, err := ts.store.Tenants().GetTenancyRecord(context.Background(), ts.tenantID)
	require.NoError(t, err)
	unitID := "U-12"
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	rec.UnitID, rec.ContractStart, rec.ContractEnd = &unitID, &start, nil
	ts.store.PutRecord(*rec)

	status, body := ts.do(t, http.MethodGet, "/me/department", ts.tenantToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = ts.do(t, http.MethodGet, "/tenants/"+ts.tenantID+"/department", ts.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = ts.do(t, http.MethodPut, "/tenants/"+ts.tenantID+"/assign-department", ts.adminToken, assignBody("2025-01-01", "2025-06-01"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = ts.do(t, http.MethodDelete, "/tenants/"+ts.tenantID+"/unassign-department", ts.adminToken, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))
}

func TestRouteAccessControl(t *testing.T) {
	ts := newTestServer(t)
	path := "/tenants/" + ts.tenantID + "/department"

	status, body := ts.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = ts.do(t, http.MethodGet, path, ts.tenantToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, _ = ts.do(t, http.MethodGet, "/me/department", ts.adminToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestOperationalRoutes(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = ts.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disabled", body["dependencies"].(map[string]any)["redis"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "tenancy_http_requests_total")

	status, body = ts.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
