// Package recorder persists answer records asynchronously. Writes are
// best-effort: failures are logged and never surfaced to the user-facing
// request.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vidyalabs/tutor-backend/models"
	"github.com/vidyalabs/tutor-backend/repositories"
)

// Config holds configuration for the recorder service
type Config struct {
	BufferSize  int // Size of the record buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// Service buffers answer records and writes them from background workers.
type Service struct {
	repo        repositories.AnswerRecordRepository
	logger      *zap.Logger
	records     chan *models.AnswerRecord
	workerCount int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewService creates a new recorder service
func NewService(repo repositories.AnswerRecordRepository, logger *zap.Logger, cfg Config) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		records:     make(chan *models.AnswerRecord, cfg.BufferSize),
		workerCount: cfg.WorkerCount,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("recorder service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started recorder service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", cap(s.records)))

	return nil
}

// Stop closes the intake and waits up to timeout for pending records to
// drain. Records still buffered after the timeout are dropped.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("recorder service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping recorder service", zap.Int("pending_records", len(s.records)))
	close(s.records)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("recorder service stop timed out after %s", timeout)
	}
}

// Record enqueues one record. Non-blocking: if the buffer is full the record
// is dropped with a warning rather than stalling the answer path.
func (s *Service) Record(rec *models.AnswerRecord) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.logger.Warn("record dropped, recorder not running")
		return
	}
	s.mu.Unlock()

	select {
	case s.records <- rec:
	default:
		s.logger.Warn("record dropped, recorder buffer full",
			zap.String("record_id", rec.ID.String()))
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	for rec := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.repo.Insert(ctx, rec); err != nil {
			s.logger.Error("failed to persist answer record",
				zap.Int("worker", id),
				zap.String("record_id", rec.ID.String()),
				zap.Error(err))
		}
		cancel()
	}
}
