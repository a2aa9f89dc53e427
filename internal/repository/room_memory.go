package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// MemoryRoomRepository はプロセス内に保持する客室在庫です
type MemoryRoomRepository struct {
	mutex  sync.Mutex
	nextID int64
	rooms  map[int64]*model.Room
}

func NewMemoryRoomRepository() *MemoryRoomRepository {
	return &MemoryRoomRepository{
		rooms: make(map[int64]*model.Room),
	}
}

func (r *MemoryRoomRepository) Save(ctx context.Context, room *model.Room) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, existing := range r.rooms {
		if existing.RoomNumber == room.RoomNumber {
			return fmt.Errorf("%w: room number %d already exists", model.ErrInvalidArgument, room.RoomNumber)
		}
	}

	r.nextID++
	room.ID = r.nextID
	stored := *room
	r.rooms[room.ID] = &stored
	return nil
}

func (r *MemoryRoomRepository) FindByID(ctx context.Context, id int64) (*model.Room, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, fmt.Errorf("%w: %d", model.ErrRoomNotFound, id)
	}
	found := *room
	return &found, nil
}

func (r *MemoryRoomRepository) FindAll(ctx context.Context) ([]model.Room, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rooms := make([]model.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].RoomNumber < rooms[j].RoomNumber
	})
	return rooms, nil
}

func (r *MemoryRoomRepository) Claim(ctx context.Context, id int64) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return false, fmt.Errorf("%w: %d", model.ErrRoomNotFound, id)
	}
	if !room.Available {
		return false, nil
	}
	room.Available = false
	room.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *MemoryRoomRepository) Release(ctx context.Context, id int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	room, exists := r.rooms[id]
	if !exists {
		return fmt.Errorf("%w: %d", model.ErrRoomNotFound, id)
	}
	room.Available = true
	room.UpdatedAt = time.Now().UTC()
	return nil
}
