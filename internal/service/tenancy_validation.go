package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/tenancy-service/internal/domain"
	apperrors "github.com/spec-kit/tenancy-service/pkg/util/errorutil"
)

var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// AssignTenancyInput carries a request to bind a tenant to a unit.
type AssignTenancyInput struct {
	TenantID      string    `json:"tenantId" validate:"required,notblank"`
	UnitID        string    `json:"unitId" validate:"required,notblank"`
	ContractStart time.Time `json:"contractStartDate" validate:"required"`
	ContractEnd   time.Time `json:"contractEndDate" validate:"required"`
	ActorID       string    `json:"-"`
}

// UnassignTenancyInput carries a request to release a tenant's unit.
type UnassignTenancyInput struct {
	TenantID string `json:"tenantId" validate:"required,notblank"`
	ActorID  string `json:"-"`
}

// validateStruct runs tag validation and renders the first failure.
func validateStruct(in any) error {
	err := inputValidator.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("invalid request", nil)
	}
	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required", "notblank":
		msg = fmt.Sprintf("%s is required", fe.Field())
	default:
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return apperrors.NewValidationError(msg, map[string]any{"field": fe.Field()})
}

// validateAssignInput runs before any aggregate is loaded. The date rules are
// the same ones Tenant.Assign enforces.
func validateAssignInput(in AssignTenancyInput, now time.Time) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if err := domain.ValidateContractDates(in.ContractStart, in.ContractEnd, now); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{
			"contractStartDate": in.ContractStart,
			"contractEndDate":   in.ContractEnd,
		})
	}
	return nil
}

func validateUnassignInput(in UnassignTenancyInput) error {
	return validateStruct(in)
}
