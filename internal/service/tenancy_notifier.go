package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/events"
	"github.com/spec-kit/tenancy-service/internal/observability"
)

// TenancyNotifier logs tenancy events as they are published.
type TenancyNotifier struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewTenancyNotifier creates the subscriber.
func NewTenancyNotifier(dispatcher events.Dispatcher, logger *zap.Logger) *TenancyNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenancyNotifier{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *TenancyNotifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTenancyAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventTenancyUnassigned, n.handleUnassigned)
}

func (n *TenancyNotifier) handleAssigned(ctx context.Context, event events.Event) error {
	payload, err := tenancyPayload(event)
	if err != nil {
		return err
	}
	window := domain.ComputeContractWindow(payload.ContractStart, payload.ContractEnd, event.Timestamp)
	logger := observability.LoggerFromContext(ctx, n.logger)
	logger.Info("TenancyAssigned",
		zap.String("tenant_id", event.TenantID),
		zap.String("unit_id", payload.UnitID),
		zap.Time("contract_start", payload.ContractStart),
		zap.Time("contract_end", payload.ContractEnd),
		zap.Int("days_until_expiry", window.DaysUntilExpiry))
	if window.IsExpiringSoon {
		logger.Warn("new contract is already expiring soon",
			zap.String("tenant_id", event.TenantID),
			zap.String("unit_id", payload.UnitID))
	}
	return nil
}

func (n *TenancyNotifier) handleUnassigned(ctx context.Context, event events.Event) error {
	payload, err := tenancyPayload(event)
	if err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("tenant_id", event.TenantID),
		zap.String("unit_id", payload.UnitID),
	}
	if payload.UnitReleased != nil {
		fields = append(fields, zap.Bool("unit_released", *payload.UnitReleased))
	}
	observability.LoggerFromContext(ctx, n.logger).Info("TenancyUnassigned", fields...)
	return nil
}

func tenancyPayload(event events.Event) (events.TenancyChangedPayload, error) {
	switch p := event.Payload.(type) {
	case events.TenancyChangedPayload:
		return p, nil
	case *events.TenancyChangedPayload:
		if p != nil {
			return *p, nil
		}
	}
	return events.TenancyChangedPayload{}, fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
}
