package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tenancy-service/internal/domain"
	"github.com/spec-kit/tenancy-service/internal/observability"
	"github.com/spec-kit/tenancy-service/internal/service"
)

type stubReporter struct {
	entries []service.ContractReportEntry
	err     error
	calls   atomic.Int32
}

func (s *stubReporter) ContractReport(context.Context) ([]service.ContractReportEntry, error) {
	s.calls.Add(1)
	return s.entries, s.err
}

func entry(tenantID string, start, end, now time.Time) service.ContractReportEntry {
	return service.ContractReportEntry{
		TenantID:      tenantID,
		UnitID:        "U-" + tenantID,
		ContractStart: start,
		ContractEnd:   end,
		Window:        domain.ComputeContractWindow(start, end, now),
	}
}

func TestSweepClassifiesAndPublishes(t *testing.T) {
	now := time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	day := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }
	reporter := &stubReporter{entries: []service.ContractReportEntry{
		entry("a", day(time.January, 1), day(time.June, 1), now),
		entry("b", day(time.January, 1), day(time.December, 1), now),
		entry("c", day(time.January, 1), day(time.April, 1), now),
		entry("d", day(time.July, 1), day(time.December, 1), now),
	}}

	reg := prometheus.NewRegistry()
	monitor := NewContractMonitor(reporter, observability.NewMetrics(reg), nil, time.Hour)

	counts, err := monitor.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, observability.ContractCounts{Active: 2, ExpiringSoon: 1, Expired: 1, Upcoming: 1}, counts)

	expected := `
# HELP tenancy_contracts Assigned contracts by window state as of the last monitor sweep
# TYPE tenancy_contracts gauge
tenancy_contracts{state="active"} 2
tenancy_contracts{state="expired"} 1
tenancy_contracts{state="expiring_soon"} 1
tenancy_contracts{state="upcoming"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tenancy_contracts"))
}

func TestSweepSurfacesReportError(t *testing.T) {
	boom := errors.New("db down")
	monitor := NewContractMonitor(&stubReporter{err: boom}, nil, nil, time.Hour)
	_, err := monitor.Sweep(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunStopsOnCancel(t *testing.T) {
	reporter := &stubReporter{}
	monitor := NewContractMonitor(reporter, nil, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return reporter.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
