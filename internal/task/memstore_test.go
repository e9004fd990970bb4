package task

import (
	"context"
	"sync"
	"time"

	"github.com/memology/memology-api/internal/domain"
)

// memStore is an in-memory Store used by tests in this package.
type memStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]Record)}
}

func (s *memStore) update(taskID string, fn func(*Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[taskID]
	if !ok {
		rec = Record{TaskID: taskID, Status: StatusQueued, Progress: PendingProgress()}
	}
	fn(&rec)
	rec.UpdatedAt = time.Now()
	s.recs[taskID] = rec
}

func (s *memStore) SetStatus(_ context.Context, taskID string, status Status) error {
	s.update(taskID, func(r *Record) { r.Status = status })
	return nil
}

func (s *memStore) SetProgress(_ context.Context, taskID string, progress Progress) error {
	s.update(taskID, func(r *Record) { r.Progress = progress })
	return nil
}

func (s *memStore) SetRetry(_ context.Context, taskID string, retryCount int, errMsg string) error {
	s.update(taskID, func(r *Record) {
		r.Status = StatusRetry
		r.RetryCount = retryCount
		r.Error = errMsg
	})
	return nil
}

func (s *memStore) SetResult(_ context.Context, taskID string, result domain.GenerationResult) error {
	s.update(taskID, func(r *Record) {
		r.Status = StatusSuccess
		r.Result = &result
		r.Error = ""
	})
	return nil
}

func (s *memStore) SetFailure(_ context.Context, taskID string, errMsg string) error {
	s.update(taskID, func(r *Record) {
		r.Status = StatusFailure
		r.Error = errMsg
	})
	return nil
}

func (s *memStore) Get(_ context.Context, taskID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[taskID]
	if !ok {
		return Record{}, ErrTaskNotFound
	}
	return rec, nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }
