package service

import (
	"context"
	"sync"
	"time"

	"venuebook/internal/logger"
	"venuebook/internal/model"
	"venuebook/internal/repository"
)

const (
	attemptBatchSize     = 10
	attemptFlushInterval = time.Second
	attemptQueueSize     = 100
)

// AttemptRecorder stores booking usage log entries.
type AttemptRecorder interface {
	Record(ctx context.Context, entry model.BookingLog)
}

// AttemptLogger writes usage log entries in batches from a single goroutine.
// Entries recorded while the queue is full, or after Run has stopped, are
// written synchronously.
type AttemptLogger struct {
	repo  repository.BookingLogRepository
	log   logger.Logger
	queue chan model.BookingLog
	done  chan struct{}

	mu      sync.RWMutex
	stopped bool
}

var _ AttemptRecorder = (*AttemptLogger)(nil)

// NewAttemptLogger creates a logger. Call Run to start writing.
func NewAttemptLogger(repo repository.BookingLogRepository, log logger.Logger) *AttemptLogger {
	return &AttemptLogger{
		repo:  repo,
		log:   log,
		queue: make(chan model.BookingLog, attemptQueueSize),
		done:  make(chan struct{}),
	}
}

// Record queues entry without blocking the request.
func (a *AttemptLogger) Record(ctx context.Context, entry model.BookingLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	a.mu.RLock()
	if !a.stopped {
		select {
		case a.queue <- entry:
			a.mu.RUnlock()
			return
		default:
		}
	}
	a.mu.RUnlock()

	if err := a.repo.Create(ctx, &entry); err != nil {
		a.log.Error("write booking log", "venue", entry.Venue, "outcome", entry.Outcome, "error", err)
	}
}

// Run writes queued entries until ctx is cancelled, then flushes whatever
// is still queued and returns.
func (a *AttemptLogger) Run(ctx context.Context) {
	defer close(a.done)

	batch := make([]model.BookingLog, 0, attemptBatchSize)
	ticker := time.NewTicker(attemptFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-a.queue:
			batch = append(batch, entry)
			if len(batch) >= attemptBatchSize {
				batch = a.flush(batch)
			}
		case <-ticker.C:
			batch = a.flush(batch)
		case <-ctx.Done():
			// No Record call can enqueue once stopped is set.
			a.mu.Lock()
			a.stopped = true
			a.mu.Unlock()
			for {
				select {
				case entry := <-a.queue:
					batch = append(batch, entry)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// Done is closed once Run has flushed and returned.
func (a *AttemptLogger) Done() <-chan struct{} {
	return a.done
}

func (a *AttemptLogger) flush(batch []model.BookingLog) []model.BookingLog {
	if len(batch) == 0 {
		return batch
	}
	// The request contexts that produced these entries are long gone.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.repo.CreateBatch(ctx, batch); err != nil {
		a.log.Error("write booking log batch", "entries", len(batch), "error", err)
	}
	return batch[:0]
}
