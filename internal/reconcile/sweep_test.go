package reconcile

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	bookingsrepo "roomsync/internal/bookings/repository"
	"roomsync/internal/events"
	housekeepingrepo "roomsync/internal/housekeeping/repository"
	housekeepingservice "roomsync/internal/housekeeping/service"
	housekeepingvalidator "roomsync/internal/housekeeping/validator"
	"roomsync/internal/occupancy"
	roomsrepo "roomsync/internal/rooms/repository"
	"roomsync/pkg/clock"
	"roomsync/pkg/config"
	"roomsync/pkg/lock"
	"roomsync/pkg/logger"
	"roomsync/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRooms fails reads of one room.
type flakyRooms struct {
	roomsrepo.RoomRepository
	failID string
}

func (r *flakyRooms) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if id == r.failID {
		return nil, errors.New("connection reset")
	}
	return r.RoomRepository.FindByID(ctx, id)
}

type fixture struct {
	sweeper  *Sweeper
	rooms    roomsrepo.RoomRepository
	bookings bookingsrepo.BookingRepository
	tasks    housekeepingrepo.TaskRepository
	clock    *clock.FakeClock
	events   *events.Recorder
}

func newFixture(t *testing.T, wrap func(roomsrepo.RoomRepository) roomsrepo.RoomRepository) *fixture {
	t.Helper()
	log := logger.New(logger.Config{Output: io.Discard})
	cfg := &config.Config{Log: log, CheckInTime: "14:00"}
	locks := lock.NewKeyedMutex()

	f := &fixture{
		rooms:    roomsrepo.NewMemoryRoomRepository(),
		bookings: bookingsrepo.NewMemoryBookingRepository(),
		tasks:    housekeepingrepo.NewMemoryTaskRepository(),
		clock:    clock.Fake(time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)),
		events:   events.NewRecorder(),
	}
	rooms := f.rooms
	if wrap != nil {
		rooms = wrap(rooms)
	}

	syncer := occupancy.NewSyncer(rooms, f.bookings, locks, f.clock, time.UTC, f.events, log)
	housekeeping := housekeepingservice.NewHousekeepingService(f.tasks, rooms, f.bookings,
		housekeepingvalidator.NewTaskValidator(log), locks, f.clock, f.events, cfg)
	f.sweeper = NewSweeper(rooms, f.bookings, f.tasks, housekeeping, syncer, locks, f.clock, f.events, log,
		Options{Interval: 5 * time.Minute, OnStart: true})
	return f
}

func (f *fixture) addRoom(t *testing.T, room *model.Room) *model.Room {
	t.Helper()
	room.RoomType = "Deluxe"
	room.MaxOccupancy = 2
	require.NoError(t, f.rooms.Create(context.Background(), room))
	return room
}

func (f *fixture) addBooking(t *testing.T, roomID string, status model.BookingStatus, checkIn, checkOut string) {
	t.Helper()
	in, err := model.ParseDate(checkIn)
	require.NoError(t, err)
	out, err := model.ParseDate(checkOut)
	require.NoError(t, err)
	id := roomID
	require.NoError(t, f.bookings.Create(context.Background(), &model.Booking{
		ReservationNumber: "RES-" + roomID + "-" + checkIn,
		Status:            status,
		RoomID:            &id,
		CheckInDate:       in,
		CheckOutDate:      out,
		Guests:            model.GuestCounts{Adults: 1},
	}))
}

func (f *fixture) room(t *testing.T, id string) *model.Room {
	t.Helper()
	room, err := f.rooms.FindByID(context.Background(), id)
	require.NoError(t, err)
	return room
}

func steps(diffs []Diff, roomID string) []string {
	var out []string
	for _, d := range diffs {
		if d.RoomID == roomID {
			out = append(out, d.Step)
		}
	}
	return out
}

func TestRunOnce_CorrectsOccupancyDrift(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	staleAvailable := f.addRoom(t, &model.Room{Number: "101", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})
	f.addBooking(t, staleAvailable.ID, model.BookingCheckedIn, "2025-12-09", "2025-12-11")

	staleOccupied := f.addRoom(t, &model.Room{Number: "102", OccupancyStatus: model.OccupancyOccupied, HousekeepingStatus: model.HousekeepingClean})
	f.addBooking(t, staleOccupied.ID, model.BookingCheckedOut, "2025-12-08", "2025-12-10")

	reserved := f.addRoom(t, &model.Room{Number: "103", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})
	f.addBooking(t, reserved.ID, model.BookingConfirmed, "2025-12-15", "2025-12-17")

	blocked := f.addRoom(t, &model.Room{Number: "104", OccupancyStatus: model.OccupancyBlocked, HousekeepingStatus: model.HousekeepingClean})
	f.addBooking(t, blocked.ID, model.BookingCheckedIn, "2025-12-09", "2025-12-11")

	report, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Rooms)
	assert.Zero(t, report.Failures)

	assert.Equal(t, model.OccupancyOccupied, f.room(t, staleAvailable.ID).OccupancyStatus)
	assert.Equal(t, model.OccupancyAvailable, f.room(t, staleOccupied.ID).OccupancyStatus)
	assert.Equal(t, model.OccupancyReserved, f.room(t, reserved.ID).OccupancyStatus)
	assert.Equal(t, model.OccupancyBlocked, f.room(t, blocked.ID).OccupancyStatus)
	assert.Empty(t, steps(report.Diffs, blocked.ID))

	assert.Len(t, f.events.OfType(events.SweepCompleted), 1)
}

func TestRunOnce_HousekeepingSteps(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	legacy := f.addRoom(t, &model.Room{Number: "201", OccupancyStatus: model.OccupancyAvailable, LegacyStatus: "Dirty"})
	unset := f.addRoom(t, &model.Room{Number: "202", OccupancyStatus: model.OccupancyAvailable})
	dirtyNoTask := f.addRoom(t, &model.Room{Number: "203", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingDirty})
	cleanWithTask := f.addRoom(t, &model.Room{Number: "204", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})
	require.NoError(t, f.tasks.Create(ctx, &model.HousekeepingTask{
		RoomID: cleanWithTask.ID, RoomNumber: "204", Type: model.TaskMaintenance, Status: model.TaskPending,
		Priority: model.PriorityHigh, Score: 30, Source: model.SourceManual,
	}))

	report, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{StepHousekeepingInit, StepCleaningTask}, steps(report.Diffs, legacy.ID))
	assert.Equal(t, model.HousekeepingDirty, f.room(t, legacy.ID).HousekeepingStatus)

	assert.Equal(t, []string{StepHousekeepingInit}, steps(report.Diffs, unset.ID))
	assert.Equal(t, model.HousekeepingClean, f.room(t, unset.ID).HousekeepingStatus)

	assert.Equal(t, []string{StepCleaningTask}, steps(report.Diffs, dirtyNoTask.ID))
	tasks, err := f.tasks.Find(ctx, model.TaskFilter{RoomID: dirtyNoTask.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskCleaning, tasks[0].Type)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, model.SourceSweep, tasks[0].Source)
	assert.Equal(t, model.HousekeepingDirty, f.room(t, dirtyNoTask.ID).HousekeepingStatus)

	assert.Equal(t, []string{StepHousekeeping}, steps(report.Diffs, cleanWithTask.ID))
	assert.Equal(t, model.HousekeepingMaintenance, f.room(t, cleanWithTask.ID).HousekeepingStatus)
}

func TestRunOnce_DirtyRoomUnderMaintenanceGetsNoCleaningTask(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	room := f.addRoom(t, &model.Room{Number: "205", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingDirty})
	require.NoError(t, f.tasks.Create(ctx, &model.HousekeepingTask{
		RoomID: room.ID, RoomNumber: "205", Type: model.TaskMaintenance, Status: model.TaskPending,
		Priority: model.PriorityHigh, Score: 30, Source: model.SourceManual,
	}))

	report, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{StepHousekeeping}, steps(report.Diffs, room.ID))
	assert.Equal(t, model.HousekeepingMaintenance, f.room(t, room.ID).HousekeepingStatus)

	tasks, err := f.tasks.Find(ctx, model.TaskFilter{RoomID: room.ID, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskMaintenance, tasks[0].Type)
}

func TestRunOnce_Idempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a := f.addRoom(t, &model.Room{Number: "301", OccupancyStatus: model.OccupancyAvailable, LegacyStatus: "dirty"})
	f.addBooking(t, a.ID, model.BookingReserved, "2025-12-12", "2025-12-14")
	b := f.addRoom(t, &model.Room{Number: "302", OccupancyStatus: model.OccupancyReserved, HousekeepingStatus: model.HousekeepingDirty})
	f.addBooking(t, b.ID, model.BookingCheckedIn, "2025-12-09", "2025-12-12")

	first, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Diffs)

	second, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Diffs)

	tasks, err := f.tasks.Find(ctx, model.TaskFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, tasks, 2, "one cleaning task per dirty room, never duplicated")
}

func TestRunOnce_FailingRoomIsSkipped(t *testing.T) {
	var flaky *flakyRooms
	f := newFixture(t, func(r roomsrepo.RoomRepository) roomsrepo.RoomRepository {
		flaky = &flakyRooms{RoomRepository: r}
		return flaky
	})
	ctx := context.Background()

	broken := f.addRoom(t, &model.Room{Number: "401", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})
	healthy := f.addRoom(t, &model.Room{Number: "402", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})
	f.addBooking(t, healthy.ID, model.BookingCheckedIn, "2025-12-09", "2025-12-11")
	flaky.failID = broken.ID

	report, err := f.sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, model.OccupancyOccupied, f.room(t, healthy.ID).OccupancyStatus)
}

func TestRunOnce_StopsBetweenRoomsWhenCancelled(t *testing.T) {
	f := newFixture(t, nil)
	room := f.addRoom(t, &model.Room{Number: "501", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})
	f.addBooking(t, room.ID, model.BookingCheckedIn, "2025-12-09", "2025-12-11")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.sweeper.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Cancelled)
	assert.Equal(t, model.OccupancyAvailable, f.room(t, room.ID).OccupancyStatus)
	assert.Empty(t, f.events.OfType(events.SweepCompleted))
}

func TestSweeper_StartRunsOnStartAndOnTick(t *testing.T) {
	f := newFixture(t, nil)
	f.addRoom(t, &model.Room{Number: "601", OccupancyStatus: model.OccupancyAvailable, HousekeepingStatus: model.HousekeepingClean})

	f.sweeper.Start(context.Background())
	defer f.sweeper.Stop()

	completed := func() int { return len(f.events.OfType(events.SweepCompleted)) }
	require.Eventually(t, func() bool { return completed() == 1 }, time.Second, 5*time.Millisecond)

	f.clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return completed() == 2 }, time.Second, 5*time.Millisecond)

	f.sweeper.Stop()
	assert.Zero(t, f.clock.TickerCount())

	f.clock.Advance(5 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, completed())
}
