package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "roomsync/internal/bookings/errors"
	mongotx "roomsync/pkg/db/mongo"
	"roomsync/pkg/model"

	"github.com/google/uuid"
)

type memoryBookingRepository struct {
	mu        sync.RWMutex
	bookings  map[string]*model.Booking
	txManager mongotx.TransactionManager
}

func NewMemoryBookingRepository() BookingRepository {
	return &memoryBookingRepository{
		bookings:  make(map[string]*model.Booking),
		txManager: mongotx.NewDirectTransactionManager(),
	}
}

func (r *memoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.bookings {
		if existing.ReservationNumber == booking.ReservationNumber {
			return fmt.Errorf("%w: %s", bookingserrors.ErrDuplicateReservation, booking.ReservationNumber)
		}
	}

	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	booking.UpdatedAt = booking.CreatedAt
	r.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *memoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return booking.Clone(), nil
}

func (r *memoryBookingRepository) FindAll(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
	all := r.filter(func(*model.Booking) bool { return true })
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *memoryBookingRepository) FindByRoom(_ context.Context, roomID string, statuses ...model.BookingStatus) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		if !b.OnRoom(roomID) {
			return false
		}
		return len(statuses) == 0 || slices.Contains(statuses, b.Status)
	}), nil
}

func (r *memoryBookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Booking, 0)
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckInDate.Equal(out[j].CheckInDate) {
			return out[i].CheckInDate.Before(out[j].CheckInDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memoryBookingRepository) Update(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.bookings[booking.ID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	booking.CreatedAt = existing.CreatedAt
	if booking.UpdatedAt.IsZero() {
		booking.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	r.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r *memoryBookingRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.bookings)), nil
}

func (r *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
