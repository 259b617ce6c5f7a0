package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	bookingserrors "roomsync/internal/bookings/errors"
	"roomsync/internal/bookings/repository"
	"roomsync/internal/bookings/validator"
	"roomsync/internal/events"
	"roomsync/internal/folio"
	housekeepingservice "roomsync/internal/housekeeping/service"
	"roomsync/internal/occupancy"
	"roomsync/internal/overlap"
	roomserrors "roomsync/internal/rooms/errors"
	roomsrepo "roomsync/internal/rooms/repository"
	"roomsync/pkg/clock"
	"roomsync/pkg/config"
	apperrors "roomsync/pkg/errors"
	"roomsync/pkg/lock"
	"roomsync/pkg/metrics"
	"roomsync/pkg/model"
	"roomsync/pkg/sanitizer"
	"roomsync/pkg/sequence"

	"golang.org/x/sync/errgroup"
)

const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpConfirm    = "confirm"
	OpCheckIn    = "check-in"
	OpCheckOut   = "check-out"
	OpCancel     = "cancel"
	OpNoShow     = "no-show"
	OpFolioLine  = "add-folio-line"
	OpAddPayment = "add-payment"
)

// maxLockAttempts bounds how often lockBooking retries when the booking's
// room assignment moves between the unlocked read and the locked one.
const maxLockAttempts = 3

var bookingTransitions = map[string][]model.BookingStatus{
	OpConfirm:  {model.BookingReserved},
	OpCheckIn:  {model.BookingReserved, model.BookingConfirmed},
	OpCheckOut: {model.BookingCheckedIn},
	OpCancel:   {model.BookingReserved, model.BookingConfirmed},
	OpNoShow:   {model.BookingReserved, model.BookingConfirmed},
}

var claimingStatuses = []model.BookingStatus{
	model.BookingReserved,
	model.BookingConfirmed,
	model.BookingCheckedIn,
}

type BookingService interface {
	Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, update *model.BookingUpdate) (*model.Booking, error)
	Confirm(ctx context.Context, id string) (*model.Booking, error)
	CheckIn(ctx context.Context, id string) (*model.Booking, error)
	CheckOut(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string, opts *model.CancelOptions) (*model.Booking, error)
	MarkNoShow(ctx context.Context, id string) (*model.Booking, error)
	AddFolioLine(ctx context.Context, id string, line *model.FolioLine) (*model.Booking, error)
	AddPayment(ctx context.Context, id string, payment *model.Payment) (*model.Booking, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	rooms        roomsrepo.RoomRepository
	housekeeping housekeepingservice.HousekeepingService
	syncer       *occupancy.Syncer
	invoices     *folio.Deriver
	sequence     sequence.Generator
	validator    *validator.BookingValidator
	locks        *lock.KeyedMutex
	clock        clock.Clock
	events       events.Publisher
	cfg          *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	rooms roomsrepo.RoomRepository,
	housekeeping housekeepingservice.HousekeepingService,
	syncer *occupancy.Syncer,
	invoices *folio.Deriver,
	seq sequence.Generator,
	validator *validator.BookingValidator,
	locks *lock.KeyedMutex,
	clk clock.Clock,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:         repo,
		rooms:        rooms,
		housekeeping: housekeeping,
		syncer:       syncer,
		invoices:     invoices,
		sequence:     seq,
		validator:    validator,
		locks:        locks,
		clock:        clk,
		events:       publisher,
		cfg:          cfg,
	}
}

// Create reserves a stay. With a room id the room is locked while capacity,
// overlap and room state are checked and the booking is written. Without
// one the booking only holds a room type until check-in.
func (s *bookingService) Create(ctx context.Context, req *model.CreateBookingRequest) (booking *model.Booking, err error) {
	defer func() { s.record(OpCreate, err) }()

	sanitizer.SanitizeBookingRequest(req)
	stay, err := s.validator.ValidateCreate(req, s.syncer.Today(), s.cfg.MaxStay())
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "guest", req.Guest.Name, "error", err)
		return nil, validationError(err)
	}

	now := s.clock.Now().UTC()
	b := &model.Booking{
		Status:         model.BookingReserved,
		Guest:          req.Guest,
		RoomType:       req.RoomType,
		CheckInDate:    stay.CheckIn,
		CheckOutDate:   stay.CheckOut,
		Rate:           req.Rate,
		Guests:         req.Guests,
		AdvancePayment: req.AdvancePayment,
		PaymentMethod:  req.PaymentMethod,
		Folio:          model.Folio{Lines: []model.FolioLine{}, Payments: []model.Payment{}},
		CreatedAt:      now,
	}

	if req.RoomID == "" {
		if err := s.checkRoomType(ctx, b); err != nil {
			return nil, err
		}
		if err := s.insert(ctx, b); err != nil {
			return nil, err
		}
		s.publish(ctx, events.BookingCreated, b)
		return b, nil
	}

	unlock := s.locks.Lock(lock.RoomKey(req.RoomID))
	defer unlock()

	room, err := s.loadRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRoom(ctx, room, b, true); err != nil {
		return nil, err
	}
	assignRoom(b, room)

	if err := s.insert(ctx, b); err != nil {
		return nil, err
	}
	s.syncLocked(ctx, room.ID, OpCreate, b)
	s.publish(ctx, events.BookingCreated, b)
	return b, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapBookingError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var (
		count    int64
		bookings []*model.Booking
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			return apperrors.Internal("Failed to count bookings", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.FindAll(gctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", err)
			return apperrors.Internal("Failed to retrieve bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

// Update changes guest details, dates, rate or room. Date and room changes
// re-run the overlap check against every other booking on the room; moving
// to a different room also requires that room to be free and clean. A
// checked-in stay may only have its check-out date moved.
func (s *bookingService) Update(ctx context.Context, id string, update *model.BookingUpdate) (booking *model.Booking, err error) {
	defer func() { s.record(OpUpdate, err) }()

	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "booking_id", id, "error", err)
		return nil, validationError(err)
	}

	var targetRoom string
	if update.RoomID != nil {
		targetRoom = *update.RoomID
	}
	b, unlock, err := s.lockBooking(ctx, id, targetRoom)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if b.Status.IsTerminal() {
		return nil, apperrors.InvalidTransition("booking", b.ID, string(b.Status), OpUpdate)
	}
	if b.Status == model.BookingCheckedIn && (update.CheckInDate != nil || update.RoomID != nil) {
		return nil, apperrors.InvalidTransition("booking", b.ID, string(b.Status), "change check-in date or room of")
	}

	previousRoom, _ := b.AssignedRoom()
	if err := s.applyUpdate(ctx, b, update); err != nil {
		return nil, err
	}
	b.Reprice()

	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking updated",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"room_id", roomIDOf(b),
		"check_in_date", b.CheckInDate.Format(time.DateOnly),
		"check_out_date", b.CheckOutDate.Format(time.DateOnly),
	)

	currentRoom, _ := b.AssignedRoom()
	if previousRoom != "" && previousRoom != currentRoom {
		s.syncLocked(ctx, previousRoom, OpUpdate, b)
	}
	if currentRoom != "" {
		s.syncLocked(ctx, currentRoom, OpUpdate, b)
	}
	s.publish(ctx, events.BookingUpdated, b)
	return b, nil
}

func (s *bookingService) applyUpdate(ctx context.Context, b *model.Booking, update *model.BookingUpdate) error {
	if update.Guest != nil {
		guest := *update.Guest
		sanitizer.SanitizeGuest(&guest)
		b.Guest = guest
	}
	if update.Guests != nil {
		b.Guests = *update.Guests
	}
	if update.Rate != nil {
		b.Rate = *update.Rate
	}

	datesChanged := update.CheckInDate != nil || update.CheckOutDate != nil
	if datesChanged {
		checkIn := b.CheckInDate.Format(time.DateOnly)
		checkOut := b.CheckOutDate.Format(time.DateOnly)
		if update.CheckInDate != nil {
			checkIn = *update.CheckInDate
		}
		if update.CheckOutDate != nil {
			checkOut = *update.CheckOutDate
		}

		stay, err := validator.ValidateStayChange(checkIn, checkOut, update.CheckInDate != nil, s.syncer.Today(), s.cfg.MaxStay())
		if err != nil {
			return validationError(err)
		}
		b.CheckInDate = stay.CheckIn
		b.CheckOutDate = stay.CheckOut
	}

	currentRoom, assigned := b.AssignedRoom()
	if update.RoomID != nil && *update.RoomID != currentRoom {
		if *update.RoomID == "" {
			b.RoomID = nil
			b.RoomNumber = ""
			return s.checkRoomType(ctx, b)
		}
		room, err := s.loadRoom(ctx, *update.RoomID)
		if err != nil {
			return err
		}
		if err := s.checkRoom(ctx, room, b, true); err != nil {
			return err
		}
		assignRoom(b, room)
		return nil
	}

	if assigned && (datesChanged || update.Guests != nil) {
		room, err := s.loadRoom(ctx, currentRoom)
		if err != nil {
			return err
		}
		return s.checkRoom(ctx, room, b, false)
	}
	if !assigned && update.Guests != nil {
		return s.checkRoomType(ctx, b)
	}
	return nil
}

func (s *bookingService) Confirm(ctx context.Context, id string) (booking *model.Booking, err error) {
	defer func() { s.record(OpConfirm, err) }()

	b, unlock, err := s.lockBooking(ctx, id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := checkTransition(b, OpConfirm); err != nil {
		return nil, err
	}
	b.Status = model.BookingConfirmed
	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking confirmed", "booking_id", b.ID, "reservation_number", b.ReservationNumber)
	if roomID, ok := b.AssignedRoom(); ok {
		s.syncLocked(ctx, roomID, OpConfirm, b)
	}
	s.publish(ctx, events.BookingConfirmed, b)
	return b, nil
}

// CheckIn moves the guest into the room. A booking without a room gets the
// first free room of its type, preferring clean rooms. A dirty room is still
// handed over, with a HIGH priority cleaning task raised on it.
func (s *bookingService) CheckIn(ctx context.Context, id string) (booking *model.Booking, err error) {
	defer func() { s.record(OpCheckIn, err) }()

	b, unlock, err := s.lockBooking(ctx, id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := checkTransition(b, OpCheckIn); err != nil {
		return nil, err
	}

	var room *model.Room
	if roomID, ok := b.AssignedRoom(); ok {
		room, err = s.loadRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if err := s.checkArrivalRoom(ctx, room, b); err != nil {
			return nil, err
		}
	} else {
		var unlockRoom func()
		room, unlockRoom, err = s.autoAssign(ctx, b)
		if err != nil {
			return nil, err
		}
		defer unlockRoom()
		assignRoom(b, room)
	}

	now := s.clock.Now().UTC()
	b.Status = model.BookingCheckedIn
	b.CheckedInAt = &now
	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Guest checked in",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"room_id", room.ID,
		"room_number", room.Number,
		"housekeeping_status", room.HousekeepingStatus,
	)
	s.syncLocked(ctx, room.ID, OpCheckIn, b)

	if room.HousekeepingStatus == model.HousekeepingDirty {
		s.requestCleaning(ctx, room, b, housekeepingservice.CleaningRequest{
			Priority:  model.PriorityHigh,
			Source:    model.SourceCheckIn,
			BookingID: b.ID,
			Notes:     fmt.Sprintf("Guest checked in to dirty room, reservation %s", b.ReservationNumber),
		})
	}

	s.publish(ctx, events.BookingCheckedIn, b)
	return b, nil
}

// CheckOut closes the stay. The transition is committed before the folio is
// billed and cleaning is requested; failures in either are logged and leave
// the booking checked out.
func (s *bookingService) CheckOut(ctx context.Context, id string) (booking *model.Booking, err error) {
	defer func() { s.record(OpCheckOut, err) }()

	b, unlock, err := s.lockBooking(ctx, id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := checkTransition(b, OpCheckOut); err != nil {
		return nil, err
	}
	roomID, _ := b.AssignedRoom()

	now := s.clock.Now().UTC()
	b.Status = model.BookingCheckedOut
	b.ActualCheckOutDate = &now
	folio.EnsureRoomRent(b, now)
	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Guest checked out",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"room_id", roomID,
		"planned_check_out_date", b.CheckOutDate.Format(time.DateOnly),
		"balance", b.Folio.Balance,
	)
	s.syncLocked(ctx, roomID, OpCheckOut, b)

	if _, err := s.invoices.Derive(ctx, b); err != nil {
		s.cfg.Log.Error("Checkout invoice failed, booking stays checked out",
			"booking_id", b.ID,
			"reservation_number", b.ReservationNumber,
			"error", err,
		)
	} else if err := s.persist(ctx, b); err != nil {
		s.cfg.Log.Error("Failed to store invoice reference on booking",
			"booking_id", b.ID,
			"invoice_id", b.InvoiceID,
			"invoice_number", b.InvoiceNumber,
			"error", err,
		)
	}

	if room, err := s.rooms.FindByID(ctx, roomID); err != nil {
		s.cfg.Log.Error("Failed to load room for post-checkout cleaning", "room_id", roomID, "booking_id", b.ID, "error", err)
	} else {
		s.requestCleaning(ctx, room, b, housekeepingservice.CleaningRequest{
			Priority:        model.PriorityMedium,
			Source:          model.SourceCheckOut,
			BookingID:       b.ID,
			Notes:           fmt.Sprintf("Checkout of reservation %s", b.ReservationNumber),
			BoostForArrival: true,
		})
	}

	s.publish(ctx, events.BookingCheckedOut, b)
	return b, nil
}

// Cancel frees the room straight away. Cancelling a checked-in stay is an
// administrative correction and also sends housekeeping to the room.
func (s *bookingService) Cancel(ctx context.Context, id string, opts *model.CancelOptions) (booking *model.Booking, err error) {
	defer func() { s.record(OpCancel, err) }()

	if opts == nil {
		opts = &model.CancelOptions{}
	}
	if err := s.validator.ValidateCancel(opts); err != nil {
		return nil, validationError(err)
	}

	b, unlock, err := s.lockBooking(ctx, id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	wasInHouse := b.Status == model.BookingCheckedIn
	if !(wasInHouse && opts.Administrative) {
		if err := checkTransition(b, OpCancel); err != nil {
			return nil, err
		}
	}

	b.Status = model.BookingCancelled
	b.CancellationReason = opts.Reason
	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking cancelled",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"administrative", wasInHouse,
		"reason", opts.Reason,
	)

	if roomID, ok := b.AssignedRoom(); ok {
		s.syncLocked(ctx, roomID, OpCancel, b)
		if wasInHouse {
			if room, err := s.rooms.FindByID(ctx, roomID); err != nil {
				s.cfg.Log.Error("Failed to load room for cleaning after cancellation", "room_id", roomID, "error", err)
			} else {
				s.requestCleaning(ctx, room, b, housekeepingservice.CleaningRequest{
					Priority:        model.PriorityMedium,
					Source:          model.SourceCheckOut,
					BookingID:       b.ID,
					Notes:           fmt.Sprintf("In-house reservation %s cancelled", b.ReservationNumber),
					BoostForArrival: true,
				})
			}
		}
	}
	s.publish(ctx, events.BookingCancelled, b)
	return b, nil
}

func (s *bookingService) MarkNoShow(ctx context.Context, id string) (booking *model.Booking, err error) {
	defer func() { s.record(OpNoShow, err) }()

	b, unlock, err := s.lockBooking(ctx, id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := checkTransition(b, OpNoShow); err != nil {
		return nil, err
	}
	b.Status = model.BookingNoShow
	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Booking marked no-show", "booking_id", b.ID, "reservation_number", b.ReservationNumber)
	if roomID, ok := b.AssignedRoom(); ok {
		s.syncLocked(ctx, roomID, OpNoShow, b)
	}
	s.publish(ctx, events.BookingNoShow, b)
	return b, nil
}

// AddFolioLine posts a charge to an open booking. The room charge is posted
// once, at check-out, unless staff post it earlier.
func (s *bookingService) AddFolioLine(ctx context.Context, id string, line *model.FolioLine) (booking *model.Booking, err error) {
	defer func() { s.record(OpFolioLine, err) }()

	if err := s.validator.ValidateFolioLine(line); err != nil {
		return nil, validationError(err)
	}

	return s.mutateFolio(ctx, id, OpFolioLine, func(b *model.Booking) error {
		if line.Type == model.FolioRoomRent {
			if _, posted := b.Folio.RoomRentLine(); posted {
				return apperrors.Conflict(fmt.Sprintf("Room charge already posted to reservation %s", b.ReservationNumber))
			}
		}
		posted := *line
		posted.PostedAt = s.clock.Now().UTC()
		b.Folio.Lines = append(b.Folio.Lines, posted)
		return nil
	})
}

func (s *bookingService) AddPayment(ctx context.Context, id string, payment *model.Payment) (booking *model.Booking, err error) {
	defer func() { s.record(OpAddPayment, err) }()

	if err := s.validator.ValidatePayment(payment); err != nil {
		return nil, validationError(err)
	}

	return s.mutateFolio(ctx, id, OpAddPayment, func(b *model.Booking) error {
		received := *payment
		received.ReceivedAt = s.clock.Now().UTC()
		b.Folio.Payments = append(b.Folio.Payments, received)
		return nil
	})
}

func (s *bookingService) mutateFolio(ctx context.Context, id string, op string, mutate func(b *model.Booking) error) (*model.Booking, error) {
	unlock := s.locks.Lock(lock.BookingKey(id))
	defer unlock()

	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status.IsTerminal() {
		return nil, apperrors.InvalidTransition("booking", b.ID, string(b.Status), op)
	}

	if err := mutate(b); err != nil {
		return nil, err
	}
	b.Folio.Recompute(b.Amount, b.AdvancePayment)
	if err := s.persist(ctx, b); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Folio updated",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"operation", op,
		"total", b.Folio.Total,
		"balance", b.Folio.Balance,
	)
	s.publish(ctx, events.BookingUpdated, b)
	return b, nil
}

// lockBooking locks the booking, the room it holds and extraRoom, then
// returns the booking as read under those locks.
func (s *bookingService) lockBooking(ctx context.Context, id string, extraRoom string) (*model.Booking, func(), error) {
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		seen, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		keys := []string{lock.BookingKey(id)}
		seenRoom, _ := seen.AssignedRoom()
		if seenRoom != "" {
			keys = append(keys, lock.RoomKey(seenRoom))
		}
		if extraRoom != "" {
			keys = append(keys, lock.RoomKey(extraRoom))
		}
		unlock := s.locks.Lock(keys...)

		current, err := s.GetByID(ctx, id)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if currentRoom, _ := current.AssignedRoom(); currentRoom == seenRoom {
			return current, unlock, nil
		}
		unlock()
	}
	return nil, nil, apperrors.Conflict("Booking is being modified concurrently, please retry")
}

// checkRoom enforces what a room must satisfy to hold b: capacity and no
// overlapping claim. A new assignment also needs the room free and clean.
// The caller holds the room lock.
func (s *bookingService) checkRoom(ctx context.Context, room *model.Room, b *model.Booking, newAssignment bool) error {
	if err := validator.CheckCapacity(b.Guests, room); err != nil {
		return validationError(err)
	}

	existing, err := s.repo.FindByRoom(ctx, room.ID, claimingStatuses...)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for overlap check", "room_id", room.ID, "error", err)
		return apperrors.Internal("Failed to check room availability", err)
	}
	if c, conflict := overlap.Find(existing, room.ID, b.CheckInDate, b.CheckOutDate, b.ID); conflict {
		return apperrors.Conflict(fmt.Sprintf("Room %s is already booked by reservation %s from %s to %s",
			room.Number, c.ReservationNumber,
			c.CheckInDate.Format(time.DateOnly), c.CheckOutDate.Format(time.DateOnly),
		)).WithDetails(map[string]any{
			"room_id":            room.ID,
			"reservation_number": c.ReservationNumber,
			"check_in_date":      c.CheckInDate.Format(time.DateOnly),
			"check_out_date":     c.CheckOutDate.Format(time.DateOnly),
		})
	}

	if !newAssignment {
		return nil
	}
	if room.OccupancyStatus != model.OccupancyAvailable {
		return apperrors.Conflict(fmt.Sprintf("Room %s is not available (status %s)", room.Number, room.OccupancyStatus)).
			WithDetails(map[string]any{"room_id": room.ID, "occupancy_status": room.OccupancyStatus})
	}
	if room.HousekeepingStatus.BlocksBooking() {
		return apperrors.Conflict(fmt.Sprintf("Room %s needs housekeeping (status %s)", room.Number, room.HousekeepingStatus)).
			WithDetails(map[string]any{"room_id": room.ID, "housekeeping_status": room.HousekeepingStatus})
	}
	return nil
}

// checkRoomType makes sure a room-type-only booking can be honoured by at
// least one room of that type, and takes the rate from it when none was given.
func (s *bookingService) checkRoomType(ctx context.Context, b *model.Booking) error {
	if b.RoomType == "" {
		return validationError(validator.ValidationErrors{{Field: "RoomType", Message: "room_type is required when no room is assigned"}})
	}
	rooms, err := s.rooms.FindByType(ctx, b.RoomType)
	if err != nil {
		return apperrors.Internal("Failed to retrieve rooms", err)
	}

	var fit *model.Room
	for _, r := range rooms {
		if r.MaxOccupancy >= b.Guests.Occupants() {
			fit = r
			break
		}
	}
	if fit == nil {
		return validationError(validator.ValidationErrors{{
			Field:   "RoomType",
			Message: fmt.Sprintf("no %s room holds %d guests", b.RoomType, b.Guests.Occupants()),
		}})
	}
	if b.Rate == 0 {
		b.Rate = fit.Rate
	}
	return nil
}

// checkArrivalRoom checks the booked room can take the guest now. The room
// may be dirty; it may not be held by staff or by another guest.
func (s *bookingService) checkArrivalRoom(ctx context.Context, room *model.Room, b *model.Booking) error {
	if room.OccupancyStatus.IsManual() {
		return apperrors.Conflict(fmt.Sprintf("Room %s is %s", room.Number, room.OccupancyStatus))
	}
	if room.HousekeepingStatus == model.HousekeepingMaintenance {
		return apperrors.Conflict(fmt.Sprintf("Room %s is under maintenance", room.Number))
	}

	inHouse, err := s.repo.FindByRoom(ctx, room.ID, model.BookingCheckedIn)
	if err != nil {
		return apperrors.Internal("Failed to check room occupancy", err)
	}
	for _, other := range inHouse {
		if other.ID != b.ID {
			return apperrors.Conflict(fmt.Sprintf("Room %s is occupied by reservation %s", room.Number, other.ReservationNumber)).
				WithDetails(map[string]any{"room_id": room.ID, "reservation_number": other.ReservationNumber})
		}
	}
	return nil
}

// autoAssign picks a room for a booking that only holds a room type and
// returns it locked. Candidates are AVAILABLE rooms of the type with enough
// capacity and no overlapping claim, clean ones first, in room-number order.
func (s *bookingService) autoAssign(ctx context.Context, b *model.Booking) (*model.Room, func(), error) {
	rooms, err := s.rooms.FindByType(ctx, b.RoomType)
	if err != nil {
		return nil, nil, apperrors.Internal("Failed to retrieve rooms", err)
	}

	candidates := make([]*model.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.OccupancyStatus == model.OccupancyAvailable && assignRank(r.HousekeepingStatus) >= 0 {
			candidates = append(candidates, r)
		}
	}
	slices.SortStableFunc(candidates, func(a, c *model.Room) int {
		return assignRank(a.HousekeepingStatus) - assignRank(c.HousekeepingStatus)
	})

	for _, candidate := range candidates {
		unlock := s.locks.Lock(lock.RoomKey(candidate.ID))

		// Re-read under the lock; another arrival may have taken it.
		room, err := s.rooms.FindByID(ctx, candidate.ID)
		if err != nil || room.OccupancyStatus != model.OccupancyAvailable || assignRank(room.HousekeepingStatus) < 0 {
			unlock()
			continue
		}
		if err := s.checkRoom(ctx, room, b, false); err != nil {
			unlock()
			continue
		}

		s.cfg.Log.Info("Room auto-assigned",
			"booking_id", b.ID,
			"reservation_number", b.ReservationNumber,
			"room_id", room.ID,
			"room_number", room.Number,
			"housekeeping_status", room.HousekeepingStatus,
		)
		return room, unlock, nil
	}

	return nil, nil, apperrors.Conflict(fmt.Sprintf("No %s room is available for reservation %s", b.RoomType, b.ReservationNumber))
}

// assignRank orders rooms for auto-assignment. Negative means never assign.
func assignRank(status model.HousekeepingStatus) int {
	switch status {
	case model.HousekeepingClean, model.HousekeepingInspected, "":
		return 0
	case model.HousekeepingPickup:
		return 1
	case model.HousekeepingDirty:
		return 2
	}
	return -1
}

func (s *bookingService) insert(ctx context.Context, b *model.Booking) error {
	b.Reprice()

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		number, err := s.sequence.Next(txCtx, s.cfg.ReservationSequencePrefix())
		if err != nil {
			return fmt.Errorf("failed to allocate reservation number: %w", err)
		}
		b.ReservationNumber = number
		return s.repo.Create(txCtx, b)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "room_id", roomIDOf(b), "error", err)
		if errors.Is(err, bookingserrors.ErrDuplicateReservation) {
			return apperrors.Conflict("Reservation number already in use, please retry")
		}
		return apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created",
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
		"room_id", roomIDOf(b),
		"room_type", b.RoomType,
		"check_in_date", b.CheckInDate.Format(time.DateOnly),
		"check_out_date", b.CheckOutDate.Format(time.DateOnly),
		"nights", b.Nights,
		"amount", b.Amount,
	)
	return nil
}

// persist stamps UpdatedAt from the clock and writes b.
func (s *bookingService) persist(ctx context.Context, b *model.Booking) error {
	b.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, b); err != nil {
		s.cfg.Log.Error("Failed to update booking", "booking_id", b.ID, "status", b.Status, "error", err)
		return mapBookingError(err, b.ID)
	}
	return nil
}

// syncLocked recomputes the room's occupancy after a committed transition.
// The caller holds the room lock.
func (s *bookingService) syncLocked(ctx context.Context, roomID string, op string, b *model.Booking) {
	result := s.syncer.SyncRoomLocked(ctx, roomID, occupancy.SourceBooking)
	s.syncer.LogFailure(result, occupancy.SourceBooking,
		"operation", op,
		"booking_id", b.ID,
		"reservation_number", b.ReservationNumber,
	)
}

// requestCleaning raises or escalates a cleaning task and re-derives the
// room's housekeeping status. The caller holds the room lock.
func (s *bookingService) requestCleaning(ctx context.Context, room *model.Room, b *model.Booking, req housekeepingservice.CleaningRequest) {
	if _, _, err := s.housekeeping.EnsureCleaningTaskLocked(ctx, room, req); err != nil {
		metrics.SyncFailures.WithLabelValues("housekeeping").Inc()
		s.cfg.Log.Error("Failed to request cleaning",
			"room_id", room.ID,
			"booking_id", b.ID,
			"source", req.Source,
			"error", err,
		)
		return
	}
	if _, err := s.housekeeping.RederiveRoomLocked(ctx, room.ID); err != nil {
		metrics.SyncFailures.WithLabelValues("housekeeping").Inc()
		s.cfg.Log.Error("Room status sync failed",
			"room_id", room.ID,
			"booking_id", b.ID,
			"source", "housekeeping",
			"error", err,
		)
	}
}

func (s *bookingService) publish(ctx context.Context, eventType string, b *model.Booking) {
	key := b.ID
	if roomID, ok := b.AssignedRoom(); ok {
		key = roomID
	}
	s.events.Publish(ctx, events.Event{
		Type:       eventType,
		Key:        key,
		Payload:    b.Clone(),
		OccurredAt: s.clock.Now(),
	})
}

func (s *bookingService) record(op string, err error) {
	metrics.BookingTransitions.WithLabelValues(op, metrics.Result(err)).Inc()
}

func (s *bookingService) loadRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Room", roomID)
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}
	return room, nil
}

func checkTransition(b *model.Booking, op string) error {
	if !slices.Contains(bookingTransitions[op], b.Status) {
		return apperrors.InvalidTransition("booking", b.ID, string(b.Status), op)
	}
	return nil
}

func assignRoom(b *model.Booking, room *model.Room) {
	id := room.ID
	b.RoomID = &id
	b.RoomNumber = room.Number
	b.RoomType = room.RoomType
	if b.Rate == 0 {
		b.Rate = room.Rate
	}
}

func roomIDOf(b *model.Booking) string {
	id, _ := b.AssignedRoom()
	return id
}

func validationError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Validation("Booking validation failed", map[string]any{
		"error": err.Error(),
	})
}

func mapBookingError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Failed to access booking", err)
}
