package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tenancy-service/internal/api/dto"
	"github.com/spec-kit/tenancy-service/internal/auth"
	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/service"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

// TenancyHandler exposes department assignment endpoints.
type TenancyHandler struct {
	tenancy *service.TenancyService
}

// NewTenancyHandler constructs handler.
func NewTenancyHandler(tenancyService *service.TenancyService) *TenancyHandler {
	return &TenancyHandler{tenancy: tenancyService}
}

// Assign handles PUT /tenants/:tenantId/assign-department.
func (h *TenancyHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	start, err := parseContractDate("contractStartDate", req.ContractStartDate)
	if err != nil {
		return err
	}
	end, err := parseContractDate("contractEndDate", req.ContractEndDate)
	if err != nil {
		return err
	}

	tenant, err := h.tenancy.AssignTenancy(c.UserContext(), service.AssignTenancyInput{
		TenantID:      c.Params("tenantId"),
		UnitID:        strings.TrimSpace(req.UnitID),
		ContractStart: start,
		ContractEnd:   end,
		ActorID:       actorID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// Unassign handles DELETE /tenants/:tenantId/unassign-department.
func (h *TenancyHandler) Unassign(c *fiber.Ctx) error {
	tenant, err := h.tenancy.UnassignTenancy(c.UserContext(), service.UnassignTenancyInput{
		TenantID: c.Params("tenantId"),
		ActorID:  actorID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// GetDepartment handles GET /tenants/:tenantId/department.
func (h *TenancyHandler) GetDepartment(c *fiber.Ctx) error {
	return h.renderDetails(c, c.Params("tenantId"))
}

// MyDepartment handles GET /me/department for the calling tenant.
func (h *TenancyHandler) MyDepartment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return h.renderDetails(c, principal.UserID)
}

// History handles GET /tenants/:tenantId/tenancy-history.
func (h *TenancyHandler) History(c *fiber.Ctx) error {
	entries, err := h.tenancy.ListHistory(c.UserContext(), c.Params("tenantId"))
	if err != nil {
		return err
	}
	resp := make([]dto.TenancyHistoryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.TenancyHistoryResponse{
			ID:                e.ID,
			UnitID:            e.UnitID,
			Action:            string(e.Action),
			ContractStartDate: e.ContractStart,
			ContractEndDate:   e.ContractEnd,
			ActorID:           e.ActorID,
			CreatedAt:         e.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": resp})
}

func (h *TenancyHandler) renderDetails(c *fiber.Ctx, tenantID string) error {
	details, err := h.tenancy.GetTenancy(c.UserContext(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TenancyDetailsResponse{
		Unit: dto.UnitResponse{
			ID:          details.Unit.ID,
			Number:      details.Unit.Number,
			Floor:       details.Unit.Floor,
			Rooms:       details.Unit.Rooms,
			Bathrooms:   details.Unit.Bathrooms,
			AreaM2:      details.Unit.AreaM2,
			MonthlyRent: details.Unit.MonthlyRent,
			Description: details.Unit.Description,
			IsAvailable: details.Unit.IsAvailable,
		},
		ContractInfo: dto.ContractInfoResponse{
			ContractStartDate: details.Contract.ContractStart,
			ContractEndDate:   details.Contract.ContractEnd,
			IsActive:          details.Contract.IsActive,
			DaysUntilExpiry:   details.Contract.DaysUntilExpiry,
			IsExpiringSoon:    details.Contract.IsExpiringSoon,
		},
		TenantInfo: dto.TenantInfoResponse{
			ID:     details.Tenant.ID,
			Name:   details.Tenant.Name,
			Email:  details.Tenant.Email,
			Phone:  details.Tenant.Phone,
			Active: details.Tenant.Active,
		},
	}})
}

// parseContractDate accepts RFC3339 or YYYY-MM-DD. Date-only values are
// midnight UTC. An empty value yields the zero time so the service reports the
// field as missing.
func parseContractDate(field, val string) (time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, val); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.NewValidationError(
		field+" must be an RFC3339 timestamp or a YYYY-MM-DD date",
		map[string]any{"field": field, "value": val},
	)
}

func actorID(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.UserID
	}
	return ""
}

func tenantResponse(tenant *domain.Tenant) dto.TenantResponse {
	resp := dto.TenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Email:     tenant.Email,
		Phone:     tenant.Phone,
		Role:      string(tenant.Role),
		Active:    tenant.Active,
		Version:   tenant.Version,
		UpdatedAt: tenant.UpdatedAt,
	}
	if a, ok := tenant.Assignment(); ok {
		resp.Department = &dto.AssignmentResponse{
			UnitID:            a.UnitID,
			ContractStartDate: a.ContractStart,
			ContractEndDate:   a.ContractEnd,
		}
	}
	return resp
}
