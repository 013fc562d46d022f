package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. It suits tests and single-instance
// development setups.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]VerificationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]VerificationRecord)}
}

func (s *MemoryStore) Put(_ context.Context, email, code string, createdAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[email] = VerificationRecord{
		Email:     email,
		Code:      code,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (*VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[email]
	if !ok {
		return nil, ErrRecordNotFound
	}
	if record.VerifiedAt != nil {
		verifiedAt := *record.VerifiedAt
		record.VerifiedAt = &verifiedAt
	}
	return &record, nil
}

func (s *MemoryStore) MarkVerified(_ context.Context, email, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[email]
	if !ok || !record.Acceptable(code, now) {
		return false, nil
	}
	record.VerifiedAt = &now
	s.records[email] = record
	return true, nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for email, record := range s.records {
		if record.ExpiresAt.Before(before) {
			delete(s.records, email)
			purged++
		}
	}
	return purged, nil
}
