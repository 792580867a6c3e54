// Package searchsim serves the reserved web search provider without any network call.
package searchsim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/providers"
	"go.uber.org/zap"
)

const (
	backendName = "searchsim"

	// DefaultMinLatency and DefaultMaxLatency bound the reported latency, [min, max)
	DefaultMinLatency = 200 * time.Millisecond
	DefaultMaxLatency = 700 * time.Millisecond

	prefixRunes = 20
)

// Simulator synthesizes a search summary for the web search provider
type Simulator struct {
	minLatency time.Duration
	maxLatency time.Duration
	int64n     func(n int64) int64
	logger     *zap.Logger
}

// Option configures a Simulator
type Option func(*Simulator)

// WithLatencyRange overrides the reported latency range
func WithLatencyRange(lo, hi time.Duration) Option {
	return func(s *Simulator) {
		s.minLatency = lo
		s.maxLatency = hi
	}
}

// WithRandom replaces the random source. int64n must return a value in [0, n).
func WithRandom(int64n func(n int64) int64) Option {
	return func(s *Simulator) {
		s.int64n = int64n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// New creates a simulator. An empty or inverted latency range falls back to the defaults.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		minLatency: DefaultMinLatency,
		maxLatency: DefaultMaxLatency,
		int64n:     rand.Int64N,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.minLatency < 0 || s.maxLatency <= s.minLatency {
		s.minLatency, s.maxLatency = DefaultMinLatency, DefaultMaxLatency
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.With(zap.String("backend", backendName))
	return s
}

// Name returns the backend name
func (s *Simulator) Name() string {
	return backendName
}

// Supports reports true only for the web search provider
func (s *Simulator) Supports(id models.ProviderID) bool {
	return id == models.ProviderWebSearch
}

// Invoke builds the simulated answer. The timeout is ignored since nothing blocks.
func (s *Simulator) Invoke(ctx context.Context, id models.ProviderID, prompt string, _ time.Duration) models.ProviderResult {
	if !s.Supports(id) {
		return providers.RequestFailedResult(id, fmt.Sprintf("%s cannot serve %s", backendName, id))
	}
	if err := ctx.Err(); err != nil {
		return providers.RequestFailedResult(id, err.Error())
	}

	text := Summary(prompt)
	latency := s.sampleLatency()

	s.logger.Debug("search simulated",
		zap.Duration("latency", latency),
		zap.Int("prompt_chars", len(prompt)))

	return models.NewSuccessResult(id, text, CountTokens(prompt), CountTokens(text), latency)
}

func (s *Simulator) sampleLatency() time.Duration {
	span := int64(s.maxLatency - s.minLatency)
	return s.minLatency + time.Duration(s.int64n(span))
}

// Summary renders the synthetic search answer for a prompt
func Summary(prompt string) string {
	return fmt.Sprintf(`[Google Search Results for: "%s"]

Based on web search results, here are the most relevant answers:

1. %s - Top results from authoritative sources
2. Additional context and information from search results
3. Related questions and answers

For more detailed information, you would need to visit the specific search results.`, prompt, truncate(prompt, prefixRunes))
}

// CountTokens counts whitespace-separated words
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
