// Package occupancy keeps a room's occupancy status equal to what its
// bookings imply.
package occupancy

import (
	"context"
	"fmt"
	"time"

	bookingsrepo "roomsync/internal/bookings/repository"
	"roomsync/internal/events"
	roomsrepo "roomsync/internal/rooms/repository"
	"roomsync/pkg/clock"
	"roomsync/pkg/lock"
	"roomsync/pkg/logger"
	"roomsync/pkg/metrics"
	"roomsync/pkg/model"
)

const (
	SourceBooking   = "booking"
	SourceRoomAdmin = "room_admin"
	SourceSweep     = "sweep"
)

var claimingStatuses = []model.BookingStatus{
	model.BookingReserved,
	model.BookingConfirmed,
	model.BookingCheckedIn,
}

// SyncResult describes one recomputation. A non-nil Err means the room may be
// stale until the next sweep. It is never a reason to fail the booking
// transition that asked for the sync.
type SyncResult struct {
	RoomID  string
	Before  model.OccupancyStatus
	After   model.OccupancyStatus
	Changed bool
	Err     error
}

type Syncer struct {
	rooms    roomsrepo.RoomRepository
	bookings bookingsrepo.BookingRepository
	locks    *lock.KeyedMutex
	clock    clock.Clock
	location *time.Location
	events   events.Publisher
	log      *logger.Logger
}

func NewSyncer(
	rooms roomsrepo.RoomRepository,
	bookings bookingsrepo.BookingRepository,
	locks *lock.KeyedMutex,
	clk clock.Clock,
	location *time.Location,
	publisher events.Publisher,
	log *logger.Logger,
) *Syncer {
	return &Syncer{
		rooms:    rooms,
		bookings: bookings,
		locks:    locks,
		clock:    clk,
		location: location,
		events:   publisher,
		log:      log,
	}
}

// Today is the property's current calendar date.
func (s *Syncer) Today() time.Time {
	return model.DateOf(s.clock.Now(), s.location)
}

// SyncRoom takes the room lock and recomputes occupancy.
func (s *Syncer) SyncRoom(ctx context.Context, roomID string, source string) SyncResult {
	unlock := s.locks.Lock(lock.RoomKey(roomID))
	defer unlock()
	return s.SyncRoomLocked(ctx, roomID, source)
}

// SyncRoomLocked recomputes occupancy for a room whose lock the caller holds.
// Housekeeping status is left alone.
func (s *Syncer) SyncRoomLocked(ctx context.Context, roomID string, source string) SyncResult {
	result := SyncResult{RoomID: roomID}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		result.Err = fmt.Errorf("failed to load room: %w", err)
		return result
	}
	bookings, err := s.bookings.FindByRoom(ctx, roomID, claimingStatuses...)
	if err != nil {
		result.Err = fmt.Errorf("failed to load bookings for room: %w", err)
		return result
	}
	return s.Apply(ctx, room, bookings, source)
}

// Apply persists the occupancy Derive gives for room and bookings. The caller
// holds the room lock and has loaded both under it.
func (s *Syncer) Apply(ctx context.Context, room *model.Room, bookings []*model.Booking, source string) SyncResult {
	result := SyncResult{RoomID: room.ID, Before: room.OccupancyStatus}
	result.After = Derive(room, bookings, s.Today())
	if result.After == result.Before {
		return result
	}

	if err := s.rooms.UpdateOccupancyStatus(ctx, room.ID, result.After); err != nil {
		result.After = result.Before
		result.Err = fmt.Errorf("failed to persist occupancy: %w", err)
		return result
	}
	result.Changed = true

	s.log.Info("Room occupancy changed",
		"room_id", room.ID,
		"room_number", room.Number,
		"before", result.Before,
		"after", result.After,
		"source", source,
	)
	s.events.Publish(ctx, events.Event{
		Type: events.RoomOccupancyChanged,
		Key:  room.ID,
		Payload: events.StatusChange{
			RoomID:     room.ID,
			RoomNumber: room.Number,
			Before:     string(result.Before),
			After:      string(result.After),
			Source:     source,
		},
		OccurredAt: s.clock.Now(),
	})
	return result
}

// LogFailure records a failed sync. The booking transition that triggered it
// has already committed, so the error stops here.
func (s *Syncer) LogFailure(result SyncResult, source string, attrs ...any) {
	if result.Err == nil {
		return
	}
	metrics.SyncFailures.WithLabelValues(source).Inc()
	s.log.Error("Room status sync failed",
		append([]any{"room_id", result.RoomID, "source", source, "error", result.Err}, attrs...)...,
	)
}
