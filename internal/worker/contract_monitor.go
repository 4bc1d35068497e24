package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tenancy-service/internal/observability"
	"github.com/spec-kit/tenancy-service/internal/service"
)

// ContractReporter lists assigned contracts with their current windows.
type ContractReporter interface {
	ContractReport(ctx context.Context) ([]service.ContractReportEntry, error)
}

// ContractMonitor periodically sweeps assigned contracts, publishes gauges
// and logs contracts that are about to expire.
type ContractMonitor struct {
	reports  ContractReporter
	metrics  *observability.Metrics
	logger   *zap.Logger
	interval time.Duration
}

// NewContractMonitor creates the worker.
func NewContractMonitor(reports ContractReporter, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) *ContractMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractMonitor{reports: reports, metrics: metrics, logger: logger, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (m *ContractMonitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("contract monitor disabled")
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
			m.logger.Error("contract sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			m.logger.Info("contract monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep evaluates every assigned contract once.
func (m *ContractMonitor) Sweep(ctx context.Context) (observability.ContractCounts, error) {
	var counts observability.ContractCounts
	entries, err := m.reports.ContractReport(ctx)
	if err != nil {
		return counts, err
	}
	for _, e := range entries {
		counts.Add(e.Window)
		if e.Window.IsExpiringSoon {
			m.logger.Warn("contract expiring soon",
				zap.String("tenant_id", e.TenantID),
				zap.String("unit_id", e.UnitID),
				zap.Time("contract_end", e.ContractEnd),
				zap.Int("days_until_expiry", e.Window.DaysUntilExpiry))
		}
	}
	m.metrics.SetContractCounts(counts)
	m.logger.Debug("contract sweep completed",
		zap.Int("active", counts.Active),
		zap.Int("expiring_soon", counts.ExpiringSoon),
		zap.Int("expired", counts.Expired),
		zap.Int("upcoming", counts.Upcoming))
	return counts, nil
}
