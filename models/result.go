package models

import (
	"strings"
	"time"
)

// ErrorMarker prefixes the output text of every failed provider result
const ErrorMarker = "Error: "

// NoContentText is returned when a provider answered successfully with an empty message
const NoContentText = "No response content"

// LatencyStatus distinguishes a measured latency from missing timing data
type LatencyStatus string

const (
	LatencyMeasured   LatencyStatus = "measured"
	LatencyFailed     LatencyStatus = "failed"
	LatencyUnmeasured LatencyStatus = "unmeasured"
)

// Latency is the tri-state timing of one provider call.
// A zero Latency is unmeasured.
type Latency struct {
	status   LatencyStatus
	duration time.Duration
}

// MeasuredLatency records the duration of a successful call
func MeasuredLatency(d time.Duration) Latency {
	if d < 0 {
		d = 0
	}
	return Latency{status: LatencyMeasured, duration: d}
}

// FailedLatency records how long a call ran before it failed
func FailedLatency(d time.Duration) Latency {
	if d < 0 {
		d = 0
	}
	return Latency{status: LatencyFailed, duration: d}
}

// UnmeasuredLatency is used when no timing is available at all
func UnmeasuredLatency() Latency {
	return Latency{status: LatencyUnmeasured}
}

// Status returns the latency state
func (l Latency) Status() LatencyStatus {
	if l.status == "" {
		return LatencyUnmeasured
	}
	return l.status
}

// IsMeasured reports whether the latency belongs to a successful, timed call
func (l Latency) IsMeasured() bool {
	return l.status == LatencyMeasured
}

// Duration returns the recorded duration (0 when unmeasured)
func (l Latency) Duration() time.Duration {
	return l.duration
}

// Milliseconds returns the recorded duration in whole milliseconds
func (l Latency) Milliseconds() int64 {
	return l.duration.Milliseconds()
}

// ProviderResult is one provider's outcome for one prompt.
// Build it with NewSuccessResult or NewFailureResult; it is not modified afterwards.
type ProviderResult struct {
	ProviderID   ProviderID
	DisplayName  string
	OutputText   string
	InputTokens  int
	OutputTokens int
	Latency      Latency

	failed bool
}

// NewSuccessResult builds a result for a provider that answered
func NewSuccessResult(id ProviderID, text string, inputTokens, outputTokens int, latency time.Duration) ProviderResult {
	if strings.TrimSpace(text) == "" {
		text = NoContentText
	}
	return ProviderResult{
		ProviderID:   id,
		DisplayName:  DescribeProvider(id).DisplayName,
		OutputText:   text,
		InputTokens:  nonNegative(inputTokens),
		OutputTokens: nonNegative(outputTokens),
		Latency:      MeasuredLatency(latency),
	}
}

// NewFailureResult builds a result carrying the error marker and zero token counts
func NewFailureResult(id ProviderID, message string, latency Latency) ProviderResult {
	if message == "" {
		message = "Unknown error"
	}
	if latency.IsMeasured() {
		latency = FailedLatency(latency.Duration())
	}
	return ProviderResult{
		ProviderID:  id,
		DisplayName: DescribeProvider(id).DisplayName,
		OutputText:  ErrorMarker + message,
		Latency:     latency,
		failed:      true,
	}
}

// Failed reports whether the result was built by NewFailureResult.
// Answer text that happens to start with the error marker is still a success.
func (r ProviderResult) Failed() bool {
	return r.failed
}

// TotalTokens returns input plus output tokens
func (r ProviderResult) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
