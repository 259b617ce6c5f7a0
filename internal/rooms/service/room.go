package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	bookingsrepo "roomsync/internal/bookings/repository"
	"roomsync/internal/events"
	housekeepingrepo "roomsync/internal/housekeeping/repository"
	housekeepingservice "roomsync/internal/housekeeping/service"
	"roomsync/internal/occupancy"
	roomserrors "roomsync/internal/rooms/errors"
	"roomsync/internal/rooms/repository"
	"roomsync/internal/rooms/validator"
	"roomsync/pkg/clock"
	"roomsync/pkg/config"
	apperrors "roomsync/pkg/errors"
	"roomsync/pkg/lock"
	"roomsync/pkg/model"
	"roomsync/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

const (
	OpBlock        = "block"
	OpUnblock      = "unblock"
	OpOutOfService = "out-of-service"
	OpInService    = "in-service"
)

type RoomService interface {
	Create(ctx context.Context, room *model.Room) (*model.Room, error)
	GetByID(ctx context.Context, id string) (*model.Room, error)
	List(ctx context.Context, roomType string) ([]*model.Room, error)
	GetStatus(ctx context.Context, id string) (*model.RoomStatus, error)
	GetStatusByNumber(ctx context.Context, number string) (*model.RoomStatus, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (*model.Room, error)
	SetOutOfService(ctx context.Context, id string, outOfService bool) (*model.Room, error)
}

type roomService struct {
	repo      repository.RoomRepository
	bookings  bookingsrepo.BookingRepository
	tasks     housekeepingrepo.TaskRepository
	syncer    *occupancy.Syncer
	validator *validator.RoomValidator
	locks     *lock.KeyedMutex
	clock     clock.Clock
	events    events.Publisher
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	bookings bookingsrepo.BookingRepository,
	tasks housekeepingrepo.TaskRepository,
	syncer *occupancy.Syncer,
	validator *validator.RoomValidator,
	locks *lock.KeyedMutex,
	clk clock.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		bookings:  bookings,
		tasks:     tasks,
		syncer:    syncer,
		validator: validator,
		locks:     locks,
		clock:     clk,
		events:    publisher,
		cfg:       cfg,
	}
}

// Create registers a room at property setup. New rooms start AVAILABLE and
// CLEAN unless staff put them on a manual hold or supplied a housekeeping state.
func (s *roomService) Create(ctx context.Context, room *model.Room) (*model.Room, error) {
	sanitizer.SanitizeRoom(room)

	if err := s.validator.ValidateRoom(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "number", room.Number, "error", err)
		return nil, apperrors.Validation("Room validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if !room.OccupancyStatus.IsManual() {
		room.OccupancyStatus = model.OccupancyAvailable
	}
	if room.HousekeepingStatus == "" {
		room.HousekeepingStatus = model.HousekeepingClean
	}
	room.CreatedAt = s.clock.Now().UTC()

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateNumber) {
			return nil, apperrors.Conflict(fmt.Sprintf("Room %s already exists", room.Number))
		}
		s.cfg.Log.Error("Failed to create room", "number", room.Number, "error", err)
		return nil, apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created",
		"room_id", room.ID,
		"room_number", room.Number,
		"room_type", room.RoomType,
		"max_occupancy", room.MaxOccupancy,
	)
	return room, nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRoomError(err, id)
	}
	return room, nil
}

func (s *roomService) List(ctx context.Context, roomType string) ([]*model.Room, error) {
	var (
		rooms []*model.Room
		err   error
	)
	if roomType != "" {
		rooms, err = s.repo.FindByType(ctx, sanitizer.NormalizeRoomType(roomType))
	} else {
		rooms, err = s.repo.FindAll(ctx)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "room_type", roomType, "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}
	return rooms, nil
}

// GetStatus loads the room together with its current stay, the reservations
// still ahead of it and its open housekeeping work.
func (s *roomService) GetStatus(ctx context.Context, id string) (*model.RoomStatus, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	var (
		room     *model.Room
		bookings []*model.Booking
		tasks    []*model.HousekeepingTask
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		room, err = s.repo.FindByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.bookings.FindByRoom(gctx, id, model.BookingCheckedIn, model.BookingReserved, model.BookingConfirmed)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.Find(gctx, model.TaskFilter{RoomID: id, ActiveOnly: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapRoomError(err, id)
	}

	today := s.syncer.Today()
	status := &model.RoomStatus{
		Room:             room,
		UpcomingBookings: []*model.Booking{},
		ActiveTasks:      tasks,
	}
	for _, b := range bookings {
		switch {
		case b.Status == model.BookingCheckedIn:
			status.CurrentBooking = b
		case b.CheckOutDate.After(today):
			status.UpcomingBookings = append(status.UpcomingBookings, b)
		}
	}
	if status.ActiveTasks == nil {
		status.ActiveTasks = []*model.HousekeepingTask{}
	}
	housekeepingservice.SortQueue(status.ActiveTasks)
	return status, nil
}

// GetStatusByNumber resolves the room number staff see on the door and
// returns the same view as GetStatus.
func (s *roomService) GetStatusByNumber(ctx context.Context, number string) (*model.RoomStatus, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, apperrors.InvalidInput("Room number cannot be empty")
	}

	room, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", number).WithDetails(map[string]any{"number": number})
		}
		return nil, apperrors.Internal("Failed to access room", err)
	}
	return s.GetStatus(ctx, room.ID)
}

func (s *roomService) SetBlocked(ctx context.Context, id string, blocked bool) (*model.Room, error) {
	if blocked {
		return s.hold(ctx, id, model.OccupancyBlocked, OpBlock)
	}
	return s.release(ctx, id, model.OccupancyBlocked, OpUnblock)
}

func (s *roomService) SetOutOfService(ctx context.Context, id string, outOfService bool) (*model.Room, error) {
	if outOfService {
		return s.hold(ctx, id, model.OccupancyOutOfService, OpOutOfService)
	}
	return s.release(ctx, id, model.OccupancyOutOfService, OpInService)
}

// hold puts a manual status on the room. An occupied room cannot be taken
// out of circulation while the guest is still in it.
func (s *roomService) hold(ctx context.Context, id string, target model.OccupancyStatus, op string) (*model.Room, error) {
	unlock := s.locks.Lock(lock.RoomKey(id))
	defer unlock()

	room, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.OccupancyStatus == target {
		return room, nil
	}
	if room.OccupancyStatus == model.OccupancyOccupied {
		return nil, apperrors.InvalidTransition("room", room.ID, string(room.OccupancyStatus), op)
	}

	upcoming, err := s.bookings.FindByRoom(ctx, id, model.BookingReserved, model.BookingConfirmed)
	if err != nil {
		s.cfg.Log.Warn("Failed to check reservations before manual hold", "room_id", id, "error", err)
	} else if len(upcoming) > 0 {
		s.cfg.Log.Warn("Room put on manual hold with reservations outstanding",
			"room_id", id,
			"room_number", room.Number,
			"status", target,
			"reservations", len(upcoming),
		)
	}

	return s.setManual(ctx, room, target)
}

// release lifts a manual status and hands the room back to automatic
// occupancy, recomputed straight away from its bookings.
func (s *roomService) release(ctx context.Context, id string, current model.OccupancyStatus, op string) (*model.Room, error) {
	unlock := s.locks.Lock(lock.RoomKey(id))
	defer unlock()

	room, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.OccupancyStatus != current {
		return nil, apperrors.InvalidTransition("room", room.ID, string(room.OccupancyStatus), op)
	}

	if _, err := s.setManual(ctx, room, model.OccupancyAvailable); err != nil {
		return nil, err
	}

	result := s.syncer.SyncRoomLocked(ctx, id, occupancy.SourceRoomAdmin)
	s.syncer.LogFailure(result, occupancy.SourceRoomAdmin, "operation", op)

	return s.GetByID(ctx, id)
}

func (s *roomService) setManual(ctx context.Context, room *model.Room, target model.OccupancyStatus) (*model.Room, error) {
	before := room.OccupancyStatus
	if err := s.repo.UpdateOccupancyStatus(ctx, room.ID, target); err != nil {
		s.cfg.Log.Error("Failed to update room occupancy", "room_id", room.ID, "status", target, "error", err)
		return nil, mapRoomError(err, room.ID)
	}
	room.OccupancyStatus = target

	s.cfg.Log.Info("Room occupancy set by staff",
		"room_id", room.ID,
		"room_number", room.Number,
		"before", before,
		"after", target,
	)
	s.events.Publish(ctx, events.Event{
		Type: events.RoomOccupancyChanged,
		Key:  room.ID,
		Payload: events.StatusChange{
			RoomID:     room.ID,
			RoomNumber: room.Number,
			Before:     string(before),
			After:      string(target),
			Source:     occupancy.SourceRoomAdmin,
		},
		OccurredAt: s.clock.Now(),
	})
	return room, nil
}

func mapRoomError(err error, id string) error {
	if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Room", id)
	}
	return apperrors.Internal("Failed to access room", err)
}
