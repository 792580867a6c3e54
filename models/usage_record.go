package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageMode tells which flow produced a usage record
type UsageMode string

const (
	UsageModeCompare UsageMode = "compare"
	UsageModeRoute   UsageMode = "route"
)

// UsageRecord is the aggregate footprint of one provider call.
// It never carries prompt or output text.
type UsageRecord struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	RequestID     string        `json:"request_id" db:"request_id"`
	Mode          UsageMode     `json:"mode" db:"mode"`
	ProviderID    ProviderID    `json:"provider_id" db:"provider_id"`
	Complexity    *string       `json:"complexity,omitempty" db:"complexity"` // route mode only
	InputTokens   int           `json:"input_tokens" db:"input_tokens"`
	OutputTokens  int           `json:"output_tokens" db:"output_tokens"`
	LatencyMs     int64         `json:"latency_ms" db:"latency_ms"`
	LatencyStatus LatencyStatus `json:"latency_status" db:"latency_status"`
	Failed        bool          `json:"failed" db:"failed"`
	EnergyWh      *float64      `json:"energy_wh,omitempty" db:"energy_wh"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the UsageRecord model
func (UsageRecord) TableName() string {
	return "usage_events"
}

// NewUsageRecord copies the aggregate numbers of a provider result into a new record
func NewUsageRecord(requestID string, mode UsageMode, result ProviderResult) *UsageRecord {
	return &UsageRecord{
		ID:            uuid.New(),
		RequestID:     requestID,
		Mode:          mode,
		ProviderID:    result.ProviderID,
		InputTokens:   result.InputTokens,
		OutputTokens:  result.OutputTokens,
		LatencyMs:     result.Latency.Milliseconds(),
		LatencyStatus: result.Latency.Status(),
		Failed:        result.Failed(),
		CreatedAt:     time.Now(),
	}
}

// WithComplexity sets the classified complexity
func (u *UsageRecord) WithComplexity(c Complexity) *UsageRecord {
	if c.Valid() {
		label := c.String()
		u.Complexity = &label
	}
	return u
}

// WithEnergy sets the estimated energy
func (u *UsageRecord) WithEnergy(wh float64) *UsageRecord {
	u.EnergyWh = &wh
	return u
}

// UsageSummary aggregates recorded calls of one provider and mode
type UsageSummary struct {
	ProviderID       ProviderID `json:"model"`
	Mode             UsageMode  `json:"mode"`
	Calls            int64      `json:"calls"`
	Failures         int64      `json:"failures"`
	InputTokens      int64      `json:"inputTokens"`
	OutputTokens     int64      `json:"outputTokens"`
	AvgLatencyMs     float64    `json:"avgLatencyMs"`
	TotalEnergyWh    float64    `json:"totalEnergyWh"`
	EnergyKnownCalls int64      `json:"energyKnownCalls"`
}

// FailureRate returns the share of failed calls
func (s UsageSummary) FailureRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Calls)
}
