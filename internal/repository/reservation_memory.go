package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// MemoryReservationRepository はプロセス内に保持する予約台帳です
// 追記とステータス更新はロックで直列化されます
type MemoryReservationRepository struct {
	mutex   sync.RWMutex
	records []*model.ReservationRecord
	index   map[string]int
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		index: make(map[string]int),
	}
}

func (r *MemoryReservationRepository) Save(ctx context.Context, record *model.ReservationRecord) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.index[record.ID]; exists {
		return fmt.Errorf("reservation %s already exists", record.ID)
	}

	stored := *record
	r.index[record.ID] = len(r.records)
	r.records = append(r.records, &stored)
	return nil
}

func (r *MemoryReservationRepository) FindByID(ctx context.Context, id string) (*model.ReservationRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	i, exists := r.index[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", model.ErrReservationNotFound, id)
	}
	record := *r.records[i]
	return &record, nil
}

func (r *MemoryReservationRepository) FindAll(ctx context.Context) ([]model.ReservationRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records := make([]model.ReservationRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, *record)
	}
	return records, nil
}

func (r *MemoryReservationRepository) FindByState(ctx context.Context, state model.ReservationState) ([]model.ReservationRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	records := make([]model.ReservationRecord, 0)
	for _, record := range r.records {
		if record.State == state {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (r *MemoryReservationRepository) UpdateState(ctx context.Context, id string, from, to model.ReservationState) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	i, exists := r.index[id]
	if !exists {
		return false, fmt.Errorf("%w: %s", model.ErrReservationNotFound, id)
	}
	record := r.records[i]
	if record.State != from {
		return false, nil
	}
	record.State = to
	record.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryReservationRepository) Count(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.records), nil
}
