// Package reconcile runs the periodic sweep that recomputes every room's
// derived status from its bookings and housekeeping tasks.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	bookingsrepo "roomsync/internal/bookings/repository"
	"roomsync/internal/events"
	housekeepingrepo "roomsync/internal/housekeeping/repository"
	housekeepingservice "roomsync/internal/housekeeping/service"
	"roomsync/internal/occupancy"
	roomsrepo "roomsync/internal/rooms/repository"
	"roomsync/pkg/clock"
	"roomsync/pkg/lock"
	"roomsync/pkg/logger"
	"roomsync/pkg/metrics"
	"roomsync/pkg/model"

	"golang.org/x/sync/errgroup"
)

const (
	StepHousekeepingInit = "housekeeping_init"
	StepOccupancy        = "occupancy"
	StepHousekeeping     = "housekeeping"
	StepCleaningTask     = "cleaning_task"
)

// Diff is one field the sweep corrected.
type Diff struct {
	RoomID     string `json:"room_id"`
	RoomNumber string `json:"room_number"`
	Step       string `json:"step"`
	Before     string `json:"before"`
	After      string `json:"after"`
}

// Report summarises one sweep.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rooms      int       `json:"rooms"`
	Diffs      []Diff    `json:"diffs"`
	Failures   int       `json:"failures"`
	Cancelled  bool      `json:"cancelled,omitempty"`
}

type Options struct {
	Interval time.Duration
	OnStart  bool
}

type Sweeper struct {
	rooms        roomsrepo.RoomRepository
	bookings     bookingsrepo.BookingRepository
	tasks        housekeepingrepo.TaskRepository
	housekeeping housekeepingservice.HousekeepingService
	syncer       *occupancy.Syncer
	locks        *lock.KeyedMutex
	clock        clock.Clock
	events       events.Publisher
	log          *logger.Logger
	opts         Options

	// run serializes sweeps; a manual trigger waits for a scheduled one.
	run sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweeper(
	rooms roomsrepo.RoomRepository,
	bookings bookingsrepo.BookingRepository,
	tasks housekeepingrepo.TaskRepository,
	housekeeping housekeepingservice.HousekeepingService,
	syncer *occupancy.Syncer,
	locks *lock.KeyedMutex,
	clk clock.Clock,
	publisher events.Publisher,
	log *logger.Logger,
	opts Options,
) *Sweeper {
	return &Sweeper{
		rooms:        rooms,
		bookings:     bookings,
		tasks:        tasks,
		housekeeping: housekeeping,
		syncer:       syncer,
		locks:        locks,
		clock:        clk,
		events:       publisher,
		log:          log,
		opts:         opts,
	}
}

// Start runs the sweep in the background: once straight away when OnStart is
// set, then on every tick until ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	ticker := s.clock.NewTicker(s.opts.Interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		s.log.Info("Reconciliation sweep scheduled", "interval", s.opts.Interval, "on_start", s.opts.OnStart)
		if s.opts.OnStart {
			s.runScheduled(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				s.log.Info("Reconciliation sweep stopped")
				return
			case <-ticker.C:
				s.runScheduled(ctx)
			}
		}
	}()
}

// Stop cancels the schedule and waits for a sweep in flight to reach a room
// boundary.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) runScheduled(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("Reconciliation sweep failed", "error", err)
	}
}

// RunOnce sweeps every room. Each room is handled under its own lock; ctx is
// checked between rooms. A room that fails is counted and skipped.
func (s *Sweeper) RunOnce(ctx context.Context) (report *Report, err error) {
	s.run.Lock()
	defer s.run.Unlock()

	start := s.clock.Now()
	report = &Report{StartedAt: start.UTC(), Diffs: []Diff{}}
	defer func() {
		report.FinishedAt = s.clock.Now().UTC()
		metrics.SweepRuns.WithLabelValues(metrics.Result(err)).Inc()
		metrics.SweepDuration.Observe(s.clock.Now().Sub(start).Seconds())
	}()

	rooms, err := s.rooms.FindAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list rooms: %w", err)
	}
	report.Rooms = len(rooms)

	for i, r := range rooms {
		if ctx.Err() != nil {
			report.Cancelled = true
			s.log.Warn("Reconciliation sweep cancelled", "rooms_done", i, "rooms_total", len(rooms))
			return report, ctx.Err()
		}

		diffs, err := s.sweepRoom(ctx, r.ID)
		report.Diffs = append(report.Diffs, diffs...)
		if err != nil {
			report.Failures++
			metrics.SyncFailures.WithLabelValues(occupancy.SourceSweep).Inc()
			s.log.Error("Room status sync failed", "room_id", r.ID, "room_number", r.Number, "source", occupancy.SourceSweep, "error", err)
		}
	}

	for _, d := range report.Diffs {
		metrics.SweepDiffs.WithLabelValues(d.Step).Inc()
	}
	if len(report.Diffs) == 0 {
		s.log.Debug("Reconciliation sweep found no drift", "rooms", report.Rooms)
	} else {
		s.log.Info("Reconciliation sweep corrected drift",
			"rooms", report.Rooms,
			"diffs", len(report.Diffs),
			"failures", report.Failures,
		)
	}
	report.FinishedAt = s.clock.Now().UTC()
	s.events.Publish(ctx, events.Event{
		Type:       events.SweepCompleted,
		Key:        "sweep",
		Payload:    report,
		OccurredAt: s.clock.Now(),
	})
	return report, nil
}

// sweepRoom reconciles one room under its lock. Steps run in order:
// initialise a missing housekeeping status, recompute occupancy, open a
// cleaning task for a DIRTY room that has none, then recompute housekeeping
// from the task set.
func (s *Sweeper) sweepRoom(ctx context.Context, roomID string) ([]Diff, error) {
	unlock := s.locks.Lock(lock.RoomKey(roomID))
	defer unlock()

	var (
		room     *model.Room
		bookings []*model.Booking
		tasks    []*model.HousekeepingTask
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		room, err = s.rooms.FindByID(gctx, roomID)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.bookings.FindByRoom(gctx, roomID, model.BookingCheckedIn, model.BookingReserved, model.BookingConfirmed)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.tasks.Find(gctx, model.TaskFilter{RoomID: roomID, ActiveOnly: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load room state: %w", err)
	}

	var diffs []Diff
	diff := func(step, before, after string) {
		diffs = append(diffs, Diff{RoomID: room.ID, RoomNumber: room.Number, Step: step, Before: before, After: after})
		s.log.Info("Sweep corrected room", "room_id", room.ID, "room_number", room.Number, "step", step, "before", before, "after", after)
	}

	if room.HousekeepingStatus == "" {
		initial := LegacyHousekeeping(room.LegacyStatus)
		if err := s.rooms.UpdateHousekeepingStatus(ctx, room.ID, initial); err != nil {
			return diffs, fmt.Errorf("failed to initialise housekeeping status: %w", err)
		}
		room.HousekeepingStatus = initial
		diff(StepHousekeepingInit, room.LegacyStatus, string(initial))
	}

	result := s.syncer.Apply(ctx, room, bookings, occupancy.SourceSweep)
	if result.Err != nil {
		return diffs, result.Err
	}
	if result.Changed {
		diff(StepOccupancy, string(result.Before), string(result.After))
	}

	// Open maintenance outranks DIRTY, so the stored status may be stale.
	if room.HousekeepingStatus == model.HousekeepingDirty &&
		housekeepingservice.DeriveStatus(tasks) != model.HousekeepingMaintenance &&
		!housekeepingservice.HasActiveCleaning(tasks) {
		task, created, err := s.housekeeping.EnsureCleaningTaskLocked(ctx, room, housekeepingservice.CleaningRequest{
			Priority: model.PriorityMedium,
			Source:   model.SourceSweep,
			Notes:    "Room found dirty without an open cleaning task",
		})
		if err != nil {
			return diffs, err
		}
		if created {
			diff(StepCleaningTask, "", task.ID)
		}
	}

	change, err := s.housekeeping.RederiveRoomLocked(ctx, room.ID)
	if err != nil {
		return diffs, err
	}
	if change.Changed {
		diff(StepHousekeeping, string(change.Before), string(change.After))
	}
	return diffs, nil
}

// LegacyHousekeeping maps the combined status column of older room records
// onto the housekeeping axis. Anything unrecognised counts as CLEAN.
func LegacyHousekeeping(legacy string) model.HousekeepingStatus {
	switch strings.ToLower(strings.TrimSpace(legacy)) {
	case "dirty", "cleaning", "vacant_dirty", "occupied_dirty":
		return model.HousekeepingDirty
	case "maintenance", "out_of_order", "under_maintenance":
		return model.HousekeepingMaintenance
	case "inspected":
		return model.HousekeepingInspected
	case "pickup":
		return model.HousekeepingPickup
	default:
		return model.HousekeepingClean
	}
}
