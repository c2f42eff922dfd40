package otp

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// MemoryStore is an in-memory Store used by tests and for running the
// service without MongoDB.
type MemoryStore struct {
	mu    sync.Mutex
	codes []models.OneTimeCode
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, code *models.OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code.ID.IsZero() {
		code.ID = primitive.NewObjectID()
	}
	s.codes = append(s.codes, *code)
	return nil
}

func (s *MemoryStore) LatestUnused(_ context.Context, email string, purpose models.Purpose) (*models.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.OneTimeCode
	for i := range s.codes {
		c := &s.codes[i]
		if c.Email != email || c.Purpose != purpose || c.Used {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) LatestSince(_ context.Context, email string, purpose models.Purpose, since time.Time) (*models.OneTimeCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.OneTimeCode
	for i := range s.codes {
		c := &s.codes[i]
		if c.Email != email || c.Purpose != purpose || c.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) IncrementAttempts(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].ID == id {
			s.codes[i].Attempts++
		}
	}
	return nil
}

func (s *MemoryStore) MarkUsed(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.codes {
		if s.codes[i].ID == id {
			s.codes[i].Used = true
		}
	}
	return nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteWhere(func(c *models.OneTimeCode) bool { return c.ID == id })
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, email string, purpose models.Purpose) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.deleteWhere(func(c *models.OneTimeCode) bool {
		return c.Email == email && c.Purpose == purpose
	})
	return n, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.deleteWhere(func(c *models.OneTimeCode) bool {
		return c.ExpiresAt.Before(now)
	})
	return n, nil
}

// deleteWhere removes matching records; callers must hold the lock.
func (s *MemoryStore) deleteWhere(match func(*models.OneTimeCode) bool) int64 {
	kept := s.codes[:0]
	var removed int64
	for i := range s.codes {
		if match(&s.codes[i]) {
			removed++
			continue
		}
		kept = append(kept, s.codes[i])
	}
	s.codes = kept
	return removed
}
