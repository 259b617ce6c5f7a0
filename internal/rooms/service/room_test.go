package service

import (
	"context"
	"io"
	"testing"
	"time"

	bookingsrepo "roomsync/internal/bookings/repository"
	"roomsync/internal/events"
	housekeepingrepo "roomsync/internal/housekeeping/repository"
	"roomsync/internal/occupancy"
	"roomsync/internal/rooms/repository"
	"roomsync/internal/rooms/validator"
	"roomsync/pkg/clock"
	"roomsync/pkg/config"
	apperrors "roomsync/pkg/errors"
	"roomsync/pkg/lock"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      RoomService
	rooms    repository.RoomRepository
	bookings bookingsrepo.BookingRepository
	tasks    housekeepingrepo.TaskRepository
	events   *events.Recorder
	clock    *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.Config{Output: io.Discard})
	cfg := &config.Config{Log: log}
	clk := clock.Fake(time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC))
	locks := lock.NewKeyedMutex()

	f := &fixture{
		rooms:    repository.NewMemoryRoomRepository(),
		bookings: bookingsrepo.NewMemoryBookingRepository(),
		tasks:    housekeepingrepo.NewMemoryTaskRepository(),
		events:   events.NewRecorder(),
		clock:    clk,
	}
	syncer := occupancy.NewSyncer(f.rooms, f.bookings, locks, clk, time.UTC, f.events, log)
	f.svc = NewRoomService(f.rooms, f.bookings, f.tasks, syncer, validator.NewRoomValidator(log), locks, clk, f.events, cfg)
	return f
}

func (f *fixture) createRoom(t *testing.T, number string) *model.Room {
	t.Helper()
	room, err := f.svc.Create(context.Background(), &model.Room{Number: number, RoomType: "deluxe", MaxOccupancy: 2, Rate: 1500})
	require.NoError(t, err)
	return room
}

func (f *fixture) reserve(t *testing.T, room *model.Room, reservation, checkIn, checkOut string) *model.Booking {
	t.Helper()
	in, err := model.ParseDate(checkIn)
	require.NoError(t, err)
	out, err := model.ParseDate(checkOut)
	require.NoError(t, err)
	roomID := room.ID
	b := &model.Booking{
		ReservationNumber: reservation,
		Status:            model.BookingReserved,
		RoomID:            &roomID,
		RoomNumber:        room.Number,
		RoomType:          room.RoomType,
		CheckInDate:       in,
		CheckOutDate:      out,
		Rate:              room.Rate,
		Guests:            model.GuestCounts{Adults: 1},
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	room := f.createRoom(t, " 101 ")

	assert.Equal(t, "101", room.Number)
	assert.Equal(t, "Deluxe", room.RoomType)
	assert.Equal(t, model.OccupancyAvailable, room.OccupancyStatus)
	assert.Equal(t, model.HousekeepingClean, room.HousekeepingStatus)
	assert.True(t, room.CreatedAt.Equal(f.clock.Now()), "created at %s", room.CreatedAt)
}

func TestCreate_DerivedOccupancyIgnored(t *testing.T) {
	f := newFixture(t)
	room, err := f.svc.Create(context.Background(), &model.Room{Number: "102", RoomType: "Suite", MaxOccupancy: 4, OccupancyStatus: model.OccupancyOccupied})
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyAvailable, room.OccupancyStatus)

	held, err := f.svc.Create(context.Background(), &model.Room{Number: "103", RoomType: "Suite", MaxOccupancy: 4, OccupancyStatus: model.OccupancyOutOfService})
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyOutOfService, held.OccupancyStatus)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	f.createRoom(t, "101")

	_, err := f.svc.Create(context.Background(), &model.Room{Number: "101", RoomType: "Deluxe", MaxOccupancy: 2})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.svc.Create(context.Background(), &model.Room{Number: "104", RoomType: "Deluxe"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestBlockAndRelease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createRoom(t, "101")
	f.reserve(t, room, "RES-000001", "2025-12-12", "2025-12-14")

	blocked, err := f.svc.SetBlocked(ctx, room.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyBlocked, blocked.OccupancyStatus)

	// Blocking twice is a no-op.
	_, err = f.svc.SetBlocked(ctx, room.ID, true)
	require.NoError(t, err)

	_, err = f.svc.SetOutOfService(ctx, room.ID, false)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	released, err := f.svc.SetBlocked(ctx, room.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyReserved, released.OccupancyStatus)

	changes := f.events.OfType(events.RoomOccupancyChanged)
	require.NotEmpty(t, changes)
	last := changes[len(changes)-1].Payload.(events.StatusChange)
	assert.Equal(t, string(model.OccupancyReserved), last.After)
}

func TestOutOfService_RejectsOccupiedRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createRoom(t, "101")
	require.NoError(t, f.rooms.UpdateOccupancyStatus(ctx, room.ID, model.OccupancyOccupied))

	_, err := f.svc.SetOutOfService(ctx, room.ID, true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createRoom(t, "101")

	stay := f.reserve(t, room, "RES-000001", "2025-12-09", "2025-12-11")
	stay.Status = model.BookingCheckedIn
	require.NoError(t, f.bookings.Update(ctx, stay))
	f.reserve(t, room, "RES-000002", "2025-12-11", "2025-12-13")
	f.reserve(t, room, "RES-000003", "2025-12-01", "2025-12-03")

	require.NoError(t, f.tasks.Create(ctx, &model.HousekeepingTask{RoomID: room.ID, Type: model.TaskTurndown, Status: model.TaskPending, Priority: model.PriorityLow, Score: 10}))
	require.NoError(t, f.tasks.Create(ctx, &model.HousekeepingTask{RoomID: room.ID, Type: model.TaskMaintenance, Status: model.TaskInProgress, Priority: model.PriorityHigh, Score: 30}))
	require.NoError(t, f.tasks.Create(ctx, &model.HousekeepingTask{RoomID: room.ID, Type: model.TaskCleaning, Status: model.TaskVerified, Priority: model.PriorityHigh, Score: 30}))

	status, err := f.svc.GetStatus(ctx, room.ID)
	require.NoError(t, err)

	require.NotNil(t, status.CurrentBooking)
	assert.Equal(t, "RES-000001", status.CurrentBooking.ReservationNumber)
	require.Len(t, status.UpcomingBookings, 1)
	assert.Equal(t, "RES-000002", status.UpcomingBookings[0].ReservationNumber)
	require.Len(t, status.ActiveTasks, 2)
	assert.Equal(t, model.TaskMaintenance, status.ActiveTasks[0].Type)
}

func TestGetStatus_UnknownRoom(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetStatus(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestGetStatusByNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	room := f.createRoom(t, "101")
	f.createRoom(t, "102")
	f.reserve(t, room, "RES-000001", "2025-12-11", "2025-12-13")

	status, err := f.svc.GetStatusByNumber(ctx, " 101 ")
	require.NoError(t, err)
	assert.Equal(t, room.ID, status.Room.ID)
	require.Len(t, status.UpcomingBookings, 1)

	_, err = f.svc.GetStatusByNumber(ctx, "999")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.GetStatusByNumber(ctx, "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
