package idempotency

import (
	"context"
	"sync"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

type memoryState struct {
	status string
	result *Result
}

// MemoryStore はプロセス内で冪等キーを管理します
// 有効期限は持ちません
type MemoryStore struct {
	mutex sync.Mutex
	keys  map[string]*memoryState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]*memoryState),
	}
}

func (s *MemoryStore) Reserve(ctx context.Context, key string) (*Result, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if state, exists := s.keys[key]; exists {
		switch state.status {
		case statusSuccess, statusCharged:
			return state.result, nil
		case statusProcessing:
			return nil, model.ErrIdempotencyKeyInProgress
		}
		delete(s.keys, key)
	}

	s.keys[key] = &memoryState{status: statusProcessing}
	return nil, nil
}

func (s *MemoryStore) MarkSuccess(ctx context.Context, key string, reservationID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.keys[key] = &memoryState{
		status: statusSuccess,
		result: &Result{ReservationID: reservationID},
	}
	return nil
}

func (s *MemoryStore) MarkCharged(ctx context.Context, key string, confirmationID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.keys[key] = &memoryState{
		status: statusCharged,
		result: &Result{ConfirmationID: confirmationID},
	}
	return nil
}

func (s *MemoryStore) MarkFailure(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.keys, key)
	return nil
}
