package usage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-footprint/internal/observability"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/repositories"
	"go.uber.org/zap"
)

// MockUsageRepository is a mock implementation of UsageRepository
type MockUsageRepository struct {
	mock.Mock
	mu       sync.Mutex
	inserted [][]*models.UsageRecord
}

func (m *MockUsageRepository) Insert(ctx context.Context, record *models.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRepository) InsertBatch(ctx context.Context, records []*models.UsageRecord) error {
	m.mu.Lock()
	m.inserted = append(m.inserted, records)
	m.mu.Unlock()

	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockUsageRepository) ListByRequestID(ctx context.Context, requestID string) ([]*models.UsageRecord, error) {
	args := m.Called(ctx, requestID)
	if recs := args.Get(0); recs != nil {
		return recs.([]*models.UsageRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsageRepository) SummarizeByProvider(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
	args := m.Called(ctx, since)
	if s := args.Get(0); s != nil {
		return s.([]*models.UsageSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsageRepository) insertedBatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

// fakeTxManager runs fn inline and counts transactions
type fakeTxManager struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, errors.New("not supported")
}

func (f *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx, nil)
}

// counterValue reads a counter from the registry; label matches the only label value, "" for none
func counterValue(t *testing.T, m *observability.Metrics, name, label string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := metric.GetLabel()
			if label == "" || (len(labels) == 1 && labels[0].GetValue() == label) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func batch(requestID string, n int) []*models.UsageRecord {
	results := make([]models.ProviderResult, n)
	for i := range results {
		results[i] = models.NewSuccessResult(models.ProviderLlama2, "ok", 1, 2, time.Millisecond)
	}
	return Records(requestID, models.UsageModeCompare, 0, results)
}

func TestService_StartStop(t *testing.T) {
	svc := NewService(new(MockUsageRepository), nil, nil, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 2})

	assert.ErrorIs(t, svc.Record(batch("r", 1)), ErrNotStarted)
	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start())

	stats := svc.Stats()
	assert.True(t, stats.Started)
	assert.Equal(t, 10, stats.BufferSize)
	assert.Equal(t, 2, stats.WorkerCount)

	require.NoError(t, svc.Stop(time.Second))
	assert.ErrorIs(t, svc.Stop(time.Second), ErrNotStarted)
	assert.ErrorIs(t, svc.Record(batch("r", 1)), ErrNotStarted)
}

func TestService_PersistsInTransaction(t *testing.T) {
	repo := new(MockUsageRepository)
	repo.On("InsertBatch", mock.Anything, mock.Anything).Return(nil)
	tx := &fakeTxManager{}
	metrics := observability.NewMetrics()

	svc := NewService(repo, tx, metrics, zap.NewNop(), Config{BufferSize: 10, WorkerCount: 1})
	require.NoError(t, svc.Start())

	require.NoError(t, svc.Record(batch("req-1", 3)))
	require.NoError(t, svc.Record(batch("req-2", 2)))
	require.NoError(t, svc.Stop(time.Second))

	assert.Equal(t, 2, repo.insertedBatches())
	assert.Equal(t, 2, tx.calls)
	assert.Equal(t, 5.0, counterValue(t, metrics, "llm_footprint_usage_persisted_total", "ok"))
	repo.AssertExpectations(t)
}

func TestService_PersistFailureIsLogged(t *testing.T) {
	repo := new(MockUsageRepository)
	repo.On("InsertBatch", mock.Anything, mock.Anything).Return(errors.New("db down"))
	metrics := observability.NewMetrics()

	svc := NewService(repo, nil, metrics, zap.NewNop(), Config{BufferSize: 4, WorkerCount: 1})
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Record(batch("req-3", 2)))
	require.NoError(t, svc.Stop(time.Second))

	assert.Equal(t, 2.0, counterValue(t, metrics, "llm_footprint_usage_persisted_total", "error"))
}

func TestService_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	repo := new(MockUsageRepository)
	repo.On("InsertBatch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)
	metrics := observability.NewMetrics()

	svc := NewService(repo, nil, metrics, zap.NewNop(), Config{BufferSize: 1, WorkerCount: 1})
	require.NoError(t, svc.Start())

	// the worker holds the first batch, the buffer holds the second
	require.NoError(t, svc.Record(batch("a", 1)))
	require.Eventually(t, func() bool { return repo.insertedBatches() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, svc.Record(batch("b", 1)))

	assert.ErrorIs(t, svc.Record(batch("c", 1)), ErrBufferFull)
	assert.Equal(t, 1.0, counterValue(t, metrics, "llm_footprint_usage_dropped_total", ""))

	close(release)
	require.NoError(t, svc.Stop(time.Second))
	assert.Equal(t, 2, repo.insertedBatches())
}

func TestService_EmptyBatch(t *testing.T) {
	svc := NewService(new(MockUsageRepository), nil, nil, nil, DefaultConfig())
	assert.NoError(t, svc.Record(nil))
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	assert.NoError(t, r.Record(batch("x", 2)))
}

func TestRecords(t *testing.T) {
	results := []models.ProviderResult{
		models.NewSuccessResult(models.ProviderLlama2, "ok", 400, 600, time.Second),
		models.NewSuccessResult(models.ProviderGemma2, "ok", 10, 10, time.Second),
		models.NewFailureResult(models.ProviderLlama3, "timeout", models.FailedLatency(30*time.Second)),
	}

	t.Run("compare mode", func(t *testing.T) {
		recs := Records("req-9", models.UsageModeCompare, models.ComplexityComplex, results)
		require.Len(t, recs, 3)

		for _, r := range recs {
			assert.Equal(t, "req-9", r.RequestID)
			assert.Nil(t, r.Complexity)
		}
		require.NotNil(t, recs[0].EnergyWh)
		assert.InDelta(t, 1.12, *recs[0].EnergyWh, 1e-9)
		assert.Nil(t, recs[1].EnergyWh)
		assert.Nil(t, recs[2].EnergyWh)
		assert.True(t, recs[2].Failed)
		assert.Equal(t, models.LatencyFailed, recs[2].LatencyStatus)
		assert.Equal(t, int64(30000), recs[2].LatencyMs)
	})

	t.Run("route mode carries complexity", func(t *testing.T) {
		recs := Records("req-10", models.UsageModeRoute, models.ComplexityModerate, results[:1])
		require.Len(t, recs, 1)
		require.NotNil(t, recs[0].Complexity)
		assert.Equal(t, "Moderate", *recs[0].Complexity)
	})
}

func TestRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "host/abc-000001")
	assert.Equal(t, "host/abc-000001", RequestID(ctx))

	generated := RequestID(context.Background())
	assert.Len(t, generated, 36)
}
