package gateway

import (
	"context"
	"sync"

	"github.com/strataga/foreman/pkg/models"
)

// UsageRecorder receives one TokenUsageRecord per gateway invocation.
// Implementations must tolerate concurrent, order-insensitive appends.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, rec models.TokenUsageRecord) error
}

// NopRecorder discards usage records. Used when no store is configured.
type NopRecorder struct{}

// RecordUsage implements UsageRecorder.
func (NopRecorder) RecordUsage(context.Context, models.TokenUsageRecord) error {
	return nil
}

// MemoryRecorder accumulates usage records in memory. It is used by tests
// and by short-lived runs that only need end-of-run totals.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []models.TokenUsageRecord
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// RecordUsage implements UsageRecorder.
func (m *MemoryRecorder) RecordUsage(_ context.Context, rec models.TokenUsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of all accumulated records.
func (m *MemoryRecorder) Records() []models.TokenUsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TokenUsageRecord(nil), m.records...)
}

// TotalCost sums the cost across all accumulated records.
func (m *MemoryRecorder) TotalCost() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	for _, r := range m.records {
		total += r.Cost
	}
	return total
}
