// Package usage records aggregate numbers of every provider call in the background.
package usage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/upb/llm-footprint/internal/observability"
	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/repositories"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when recording before Start
	ErrNotStarted = errors.New("usage recorder not started")
	// ErrBufferFull is returned when a batch is dropped
	ErrBufferFull = errors.New("usage buffer full")
)

// Recorder accepts the usage records of one request. Record never blocks.
type Recorder interface {
	Record(records []*models.UsageRecord) error
}

// Noop discards every record. It is used when no database is configured.
type Noop struct{}

// Record implements Recorder
func (Noop) Record([]*models.UsageRecord) error { return nil }

// Config holds configuration for the Service
type Config struct {
	BufferSize   int
	WorkerCount  int
	WriteTimeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:   1000,
		WorkerCount:  2,
		WriteTimeout: 5 * time.Second,
	}
}

// Service queues batches on a buffered channel and persists them with a worker pool.
// Every batch is written in its own transaction.
type Service struct {
	repo        repositories.UsageRepository
	txManager   repositories.TransactionManager
	metrics     *observability.Metrics
	logger      *zap.Logger
	batches     chan []*models.UsageRecord
	workerCount int
	timeout     time.Duration
	wg          sync.WaitGroup
	mu          sync.RWMutex
	started     bool
	stopped     bool
}

// NewService creates a recorder. txManager may be nil, then batches are inserted directly.
func NewService(repo repositories.UsageRepository, txManager repositories.TransactionManager, metrics *observability.Metrics, logger *zap.Logger, config Config) *Service {
	def := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = def.WorkerCount
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:        repo,
		txManager:   txManager,
		metrics:     metrics,
		logger:      logger,
		batches:     make(chan []*models.UsageRecord, config.BufferSize),
		workerCount: config.WorkerCount,
		timeout:     config.WriteTimeout,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("usage recorder already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started usage recorder",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", cap(s.batches)))
	return nil
}

// Stop closes the queue and waits for pending batches up to timeout
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.stopped = true
	close(s.batches)
	s.mu.Unlock()

	s.logger.Info("stopping usage recorder", zap.Int("pending_batches", len(s.batches)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("usage recorder stopped gracefully")
		return nil
	case <-time.After(timeout):
		return errors.New("usage recorder stop timed out")
	}
}

// Record queues a batch. A full buffer drops the batch with a warning.
func (s *Service) Record(records []*models.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started || s.stopped {
		return ErrNotStarted
	}

	select {
	case s.batches <- records:
		return nil
	default:
		s.metrics.RecordUsageDropped(len(records))
		s.logger.Warn("usage buffer full, dropping batch",
			zap.String("request_id", records[0].RequestID),
			zap.Int("records", len(records)))
		return ErrBufferFull
	}
}

// Stats reports the queue state
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:     cap(s.batches),
		PendingBatches: len(s.batches),
		WorkerCount:    s.workerCount,
		Started:        s.started && !s.stopped,
	}
}

// Stats represents recorder statistics
type Stats struct {
	BufferSize     int
	PendingBatches int
	WorkerCount    int
	Started        bool
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for batch := range s.batches {
		if err := s.persist(batch); err != nil {
			s.metrics.RecordUsagePersisted(len(batch), false)
			s.logger.Error("failed to persist usage batch",
				zap.Int("worker_id", id),
				zap.String("request_id", batch[0].RequestID),
				zap.Error(err))
			continue
		}
		s.metrics.RecordUsagePersisted(len(batch), true)
	}
}

func (s *Service) persist(batch []*models.UsageRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.txManager == nil {
		return s.repo.InsertBatch(ctx, batch)
	}
	return s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		return s.repo.InsertBatch(txCtx, batch)
	})
}
