package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	roomserrors "roomsync/internal/rooms/errors"
	"roomsync/pkg/model"

	"github.com/google/uuid"
)

type memoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*model.Room
}

// NewMemoryRoomRepository keeps rooms in process memory. Records are cloned on
// the way in and out.
func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoomRepository{rooms: make(map[string]*model.Room)}
}

func (r *memoryRoomRepository) Create(_ context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rooms {
		if existing.Number == room.Number {
			return fmt.Errorf("%w: %s", roomserrors.ErrDuplicateNumber, room.Number)
		}
	}

	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	room.UpdatedAt = room.CreatedAt
	r.rooms[room.ID] = room.Clone()
	return nil
}

func (r *memoryRoomRepository) FindByID(_ context.Context, id string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return room.Clone(), nil
}

func (r *memoryRoomRepository) FindByNumber(_ context.Context, number string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, room := range r.rooms {
		if room.Number == number {
			return room.Clone(), nil
		}
	}
	return nil, roomserrors.ErrNotFound
}

func (r *memoryRoomRepository) FindAll(_ context.Context) ([]*model.Room, error) {
	return r.filter(func(*model.Room) bool { return true }), nil
}

func (r *memoryRoomRepository) FindByType(_ context.Context, roomType string) ([]*model.Room, error) {
	return r.filter(func(room *model.Room) bool { return room.RoomType == roomType }), nil
}

func (r *memoryRoomRepository) filter(keep func(*model.Room) bool) []*model.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if keep(room) {
			out = append(out, room.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *memoryRoomRepository) UpdateOccupancyStatus(_ context.Context, id string, status model.OccupancyStatus) error {
	return r.update(id, func(room *model.Room) { room.OccupancyStatus = status })
}

func (r *memoryRoomRepository) UpdateHousekeepingStatus(_ context.Context, id string, status model.HousekeepingStatus) error {
	return r.update(id, func(room *model.Room) { room.HousekeepingStatus = status })
}

func (r *memoryRoomRepository) update(id string, apply func(*model.Room)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return roomserrors.ErrNotFound
	}
	apply(room)
	room.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return nil
}
