package handler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/scout/models"
)

// JobStore holds async rank jobs. Finished jobs expire after ttl.
// It is safe for concurrent use.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.BatchJob
	ttl  time.Duration
	now  func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewJobStore creates a store and starts its expiry loop.
func NewJobStore(ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &JobStore{
		jobs: make(map[string]*models.BatchJob),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Create registers a new processing job.
func (s *JobStore) Create(topic string, total int) models.BatchJob {
	job := &models.BatchJob{
		ID:        "rank-" + uuid.NewString(),
		Status:    models.JobProcessing,
		Topic:     topic,
		Total:     total,
		CreatedAt: s.now().Unix(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return *job
}

// Get returns a snapshot of a job.
func (s *JobStore) Get(id string) (models.BatchJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.BatchJob{}, false
	}
	return *job, true
}

// Update applies fn to a job under the store lock.
func (s *JobStore) Update(id string, fn func(job *models.BatchJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// Close stops the expiry loop.
func (s *JobStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *JobStore) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops finished jobs older than ttl.
func (s *JobStore) sweep() {
	cutoff := s.now().Add(-s.ttl).Unix()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if job.Status != models.JobProcessing && job.CreatedAt < cutoff {
			delete(s.jobs, id)
		}
	}
}
