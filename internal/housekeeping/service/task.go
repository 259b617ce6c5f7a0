package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	bookingsrepo "roomsync/internal/bookings/repository"
	"roomsync/internal/events"
	housekeepingerrors "roomsync/internal/housekeeping/errors"
	"roomsync/internal/housekeeping/repository"
	"roomsync/internal/housekeeping/validator"
	roomserrors "roomsync/internal/rooms/errors"
	roomsrepo "roomsync/internal/rooms/repository"
	"roomsync/pkg/clock"
	"roomsync/pkg/config"
	apperrors "roomsync/pkg/errors"
	"roomsync/pkg/lock"
	"roomsync/pkg/metrics"
	"roomsync/pkg/model"
)

const (
	OpStart    = "start"
	OpComplete = "complete"
	OpVerify   = "verify"
	OpReject   = "reject"
)

type taskTransition struct {
	from []model.TaskStatus
	to   model.TaskStatus
}

// Completing straight from PENDING is allowed; handhelds often skip "start".
var taskTransitions = map[string]taskTransition{
	OpStart:    {from: []model.TaskStatus{model.TaskPending}, to: model.TaskInProgress},
	OpComplete: {from: []model.TaskStatus{model.TaskPending, model.TaskInProgress}, to: model.TaskCompleted},
	OpVerify:   {from: []model.TaskStatus{model.TaskCompleted}, to: model.TaskVerified},
	OpReject:   {from: []model.TaskStatus{model.TaskCompleted}, to: model.TaskRejected},
}

// CleaningRequest asks for an open cleaning task on a room.
type CleaningRequest struct {
	Priority  model.TaskPriority
	Source    model.TaskSource
	BookingID string
	Notes     string
	// BoostForArrival raises the priority when a guest is due in the room soon.
	BoostForArrival bool
}

// StatusChange is the outcome of re-deriving a room's housekeeping status.
type StatusChange struct {
	RoomID  string
	Before  model.HousekeepingStatus
	After   model.HousekeepingStatus
	Changed bool
}

type HousekeepingService interface {
	Create(ctx context.Context, req *model.CreateTaskRequest) (*model.HousekeepingTask, error)
	GetByID(ctx context.Context, id string) (*model.HousekeepingTask, error)
	List(ctx context.Context, filter model.TaskFilter) ([]*model.HousekeepingTask, error)
	Start(ctx context.Context, id string) (*model.HousekeepingTask, error)
	Complete(ctx context.Context, id string) (*model.HousekeepingTask, error)
	Verify(ctx context.Context, id string) (*model.HousekeepingTask, error)
	Reject(ctx context.Context, id string, notes string) (*model.HousekeepingTask, error)

	// The Locked variants expect the caller to hold the room lock.
	RederiveRoomLocked(ctx context.Context, roomID string) (StatusChange, error)
	EnsureCleaningTaskLocked(ctx context.Context, room *model.Room, req CleaningRequest) (*model.HousekeepingTask, bool, error)
}

type housekeepingService struct {
	repo      repository.TaskRepository
	rooms     roomsrepo.RoomRepository
	bookings  bookingsrepo.BookingRepository
	validator *validator.TaskValidator
	locks     *lock.KeyedMutex
	clock     clock.Clock
	events    events.Publisher
	cfg       *config.Config
}

func NewHousekeepingService(
	repo repository.TaskRepository,
	rooms roomsrepo.RoomRepository,
	bookings bookingsrepo.BookingRepository,
	validator *validator.TaskValidator,
	locks *lock.KeyedMutex,
	clk clock.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) HousekeepingService {
	return &housekeepingService{
		repo:      repo,
		rooms:     rooms,
		bookings:  bookings,
		validator: validator,
		locks:     locks,
		clock:     clk,
		events:    publisher,
		cfg:       cfg,
	}
}

func (s *housekeepingService) Create(ctx context.Context, req *model.CreateTaskRequest) (*model.HousekeepingTask, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Housekeeping task validation failed", "room_id", req.RoomID, "error", err)
		return nil, apperrors.Validation("Housekeeping task validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	unlock := s.locks.Lock(lock.RoomKey(req.RoomID))
	defer unlock()

	room, err := s.loadRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	now := s.clock.Now().UTC()
	task := &model.HousekeepingTask{
		RoomID:     room.ID,
		RoomNumber: room.Number,
		Type:       req.Type,
		Status:     model.TaskPending,
		Priority:   priority,
		Score:      BaseScore(priority),
		Source:     model.SourceManual,
		BookingID:  req.BookingID,
		Notes:      req.Notes,
		CreatedAt:  now,
	}
	if err := s.insert(ctx, task); err != nil {
		return nil, err
	}

	s.rederiveAndLog(ctx, room.ID)
	return task, nil
}

func (s *housekeepingService) GetByID(ctx context.Context, id string) (*model.HousekeepingTask, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Task ID cannot be empty")
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapTaskError(err, id)
	}
	return task, nil
}

// List returns tasks in queue order.
func (s *housekeepingService) List(ctx context.Context, filter model.TaskFilter) ([]*model.HousekeepingTask, error) {
	tasks, err := s.repo.Find(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list housekeeping tasks", "error", err)
		return nil, apperrors.Internal("Failed to retrieve housekeeping tasks", err)
	}
	SortQueue(tasks)
	return tasks, nil
}

func (s *housekeepingService) Start(ctx context.Context, id string) (*model.HousekeepingTask, error) {
	return s.transition(ctx, id, OpStart, "")
}

func (s *housekeepingService) Complete(ctx context.Context, id string) (*model.HousekeepingTask, error) {
	return s.transition(ctx, id, OpComplete, "")
}

func (s *housekeepingService) Verify(ctx context.Context, id string) (*model.HousekeepingTask, error) {
	return s.transition(ctx, id, OpVerify, "")
}

// Reject fails inspection of a completed task and reopens the work as a new
// PENDING task of the same type.
func (s *housekeepingService) Reject(ctx context.Context, id string, notes string) (*model.HousekeepingTask, error) {
	return s.transition(ctx, id, OpReject, notes)
}

func (s *housekeepingService) transition(ctx context.Context, id string, op string, notes string) (*model.HousekeepingTask, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(lock.RoomKey(current.RoomID))
	defer unlock()

	// Re-read under the lock; the task may have moved since.
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rule := taskTransitions[op]
	if !slices.Contains(rule.from, task.Status) {
		return nil, apperrors.InvalidTransition("task", task.ID, string(task.Status), op)
	}

	now := s.clock.Now().UTC()
	task.Status = rule.to
	switch op {
	case OpStart:
		task.StartedAt = &now
	case OpComplete:
		task.CompletedAt = &now
		if task.StartedAt == nil {
			task.StartedAt = &now
		}
	case OpVerify:
		task.VerifiedAt = &now
	case OpReject:
		if notes != "" {
			task.Notes = notes
		}
	}

	if err := s.repo.Update(ctx, task); err != nil {
		s.cfg.Log.Error("Failed to update housekeeping task", "task_id", id, "operation", op, "error", err)
		return nil, mapTaskError(err, id)
	}

	s.cfg.Log.Info("Housekeeping task updated",
		"task_id", task.ID,
		"room_id", task.RoomID,
		"operation", op,
		"status", task.Status,
	)
	s.events.Publish(ctx, events.Event{Type: events.TaskUpdated, Key: task.RoomID, Payload: task, OccurredAt: now})

	if op == OpReject {
		rework := &model.HousekeepingTask{
			RoomID:     task.RoomID,
			RoomNumber: task.RoomNumber,
			Type:       task.Type,
			Status:     model.TaskPending,
			Priority:   task.Priority,
			Score:      task.Score,
			Source:     model.SourceRework,
			BookingID:  task.BookingID,
			Notes:      task.Notes,
			CreatedAt:  now,
		}
		if err := s.insert(ctx, rework); err != nil {
			return nil, err
		}
	}

	s.rederiveAndLog(ctx, task.RoomID)
	return task, nil
}

func (s *housekeepingService) RederiveRoomLocked(ctx context.Context, roomID string) (StatusChange, error) {
	change := StatusChange{RoomID: roomID}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return change, fmt.Errorf("failed to load room: %w", err)
	}
	change.Before = room.HousekeepingStatus

	tasks, err := s.repo.Find(ctx, model.TaskFilter{RoomID: roomID, ActiveOnly: true})
	if err != nil {
		return change, fmt.Errorf("failed to load tasks for room: %w", err)
	}

	change.After = DeriveStatus(tasks)
	if change.After == change.Before {
		return change, nil
	}

	if err := s.rooms.UpdateHousekeepingStatus(ctx, roomID, change.After); err != nil {
		change.After = change.Before
		return change, fmt.Errorf("failed to persist housekeeping status: %w", err)
	}
	change.Changed = true

	s.cfg.Log.Info("Room housekeeping status changed",
		"room_id", roomID,
		"room_number", room.Number,
		"before", change.Before,
		"after", change.After,
	)
	s.events.Publish(ctx, events.Event{
		Type: events.RoomHousekeepingChanged,
		Key:  roomID,
		Payload: events.StatusChange{
			RoomID:     roomID,
			RoomNumber: room.Number,
			Before:     string(change.Before),
			After:      string(change.After),
			Source:     "housekeeping",
		},
		OccurredAt: s.clock.Now(),
	})
	return change, nil
}

// EnsureCleaningTaskLocked makes sure the room has an open cleaning task at
// no less than the requested priority. An existing task is escalated rather
// than duplicated. The bool reports whether a new task was created.
func (s *housekeepingService) EnsureCleaningTaskLocked(ctx context.Context, room *model.Room, req CleaningRequest) (*model.HousekeepingTask, bool, error) {
	now := s.clock.Now().UTC()

	var nextArrival *time.Time
	if req.BoostForArrival {
		arrival, err := s.nextArrival(ctx, room.ID, now)
		if err != nil {
			s.cfg.Log.Warn("Failed to look up next arrival, using base priority", "room_id", room.ID, "error", err)
		}
		nextArrival = arrival
	}
	score, priority := Score(req.Priority, now, nextArrival)

	active, err := s.repo.Find(ctx, model.TaskFilter{RoomID: room.ID, ActiveOnly: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to load tasks for room: %w", err)
	}
	for _, t := range active {
		if !t.Type.IsCleaningFamily() {
			continue
		}
		if t.Score >= score {
			return t, false, nil
		}
		t.Score = score
		t.Priority = priority
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, false, fmt.Errorf("failed to escalate cleaning task: %w", err)
		}
		s.cfg.Log.Info("Cleaning task escalated", "task_id", t.ID, "room_id", room.ID, "priority", priority, "score", score)
		s.events.Publish(ctx, events.Event{Type: events.TaskUpdated, Key: room.ID, Payload: t, OccurredAt: now})
		return t, false, nil
	}

	task := &model.HousekeepingTask{
		RoomID:     room.ID,
		RoomNumber: room.Number,
		Type:       model.TaskCleaning,
		Status:     model.TaskPending,
		Priority:   priority,
		Score:      score,
		Source:     req.Source,
		BookingID:  req.BookingID,
		Notes:      req.Notes,
		CreatedAt:  now,
	}
	if err := s.insert(ctx, task); err != nil {
		return nil, false, err
	}
	return task, true, nil
}

// nextArrival returns when the earliest reservation on the room that has not
// arrived yet is due, at the property's check-in time.
func (s *housekeepingService) nextArrival(ctx context.Context, roomID string, now time.Time) (*time.Time, error) {
	upcoming, err := s.bookings.FindByRoom(ctx, roomID, model.BookingReserved, model.BookingConfirmed)
	if err != nil {
		return nil, err
	}

	loc := s.cfg.Location()
	today := model.DateOf(now, loc)
	hour, minute := s.cfg.CheckInClock()

	var next *time.Time
	for _, b := range upcoming {
		if b.CheckInDate.Before(today) {
			continue
		}
		at := model.AtLocalTime(b.CheckInDate, hour, minute, loc)
		if next == nil || at.Before(*next) {
			next = &at
		}
	}
	return next, nil
}

func (s *housekeepingService) insert(ctx context.Context, task *model.HousekeepingTask) error {
	if err := s.repo.Create(ctx, task); err != nil {
		s.cfg.Log.Error("Failed to create housekeeping task", "room_id", task.RoomID, "type", task.Type, "error", err)
		return apperrors.Internal("Failed to create housekeeping task", err)
	}

	metrics.TasksCreated.WithLabelValues(string(task.Source), string(task.Priority)).Inc()
	s.cfg.Log.Info("Housekeeping task created",
		"task_id", task.ID,
		"room_id", task.RoomID,
		"room_number", task.RoomNumber,
		"type", task.Type,
		"priority", task.Priority,
		"score", task.Score,
		"source", task.Source,
	)
	s.events.Publish(ctx, events.Event{Type: events.TaskCreated, Key: task.RoomID, Payload: task, OccurredAt: task.CreatedAt})
	return nil
}

// rederiveAndLog re-derives after a task mutation. The task write already
// succeeded, so a failure here is logged and left for the sweep.
func (s *housekeepingService) rederiveAndLog(ctx context.Context, roomID string) {
	if _, err := s.RederiveRoomLocked(ctx, roomID); err != nil {
		metrics.SyncFailures.WithLabelValues("housekeeping").Inc()
		s.cfg.Log.Error("Room status sync failed", "room_id", roomID, "source", "housekeeping", "error", err)
	}
}

func (s *housekeepingService) loadRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func mapTaskError(err error, id string) error {
	if errors.Is(err, housekeepingerrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Task", id)
	}
	if errors.Is(err, housekeepingerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid task ID format")
	}
	return apperrors.Internal("Failed to access housekeeping task", err)
}
