package model

import (
	"math"
	"time"
)

type BookingStatus string

const (
	BookingReserved   BookingStatus = "Reserved"
	BookingConfirmed  BookingStatus = "Confirmed"
	BookingCheckedIn  BookingStatus = "CheckedIn"
	BookingCheckedOut BookingStatus = "CheckedOut"
	BookingCancelled  BookingStatus = "Cancelled"
	BookingNoShow     BookingStatus = "NoShow"
)

// IsTerminal reports whether the booking no longer claims its room.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingCheckedOut || s == BookingCancelled || s == BookingNoShow
}

// IsUpcoming reports whether the booking holds a reservation that has not been checked in yet.
func (s BookingStatus) IsUpcoming() bool {
	return s == BookingReserved || s == BookingConfirmed
}

type Guest struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone" bson:"phone" validate:"required,min=10,max=20"`
	Email string `json:"email" bson:"email" validate:"required,email,max=254"`
	// Country is inferred from the phone's calling code when it is known.
	Country string `json:"country,omitempty" bson:"country,omitempty" validate:"omitempty,len=2"`
}

type GuestCounts struct {
	Adults   int `json:"adults" bson:"adults" validate:"min=1,max=20"`
	Children int `json:"children" bson:"children" validate:"min=0,max=20"`
	Infants  int `json:"infants" bson:"infants" validate:"min=0,max=10"`
}

// Occupants is the headcount checked against room capacity. Infants do not count.
func (g GuestCounts) Occupants() int {
	return g.Adults + g.Children
}

type Booking struct {
	ID                 string        `json:"id,omitempty" bson:"_id,omitempty"`
	ReservationNumber  string        `json:"reservation_number" bson:"reservation_number"`
	Status             BookingStatus `json:"status" bson:"status"`
	Guest              Guest         `json:"guest" bson:"guest"`
	RoomID             *string       `json:"room_id,omitempty" bson:"room_id,omitempty"`
	RoomNumber         string        `json:"room_number,omitempty" bson:"room_number,omitempty"`
	RoomType           string        `json:"room_type" bson:"room_type"`
	CheckInDate        time.Time     `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate       time.Time     `json:"check_out_date" bson:"check_out_date"`
	Nights             int           `json:"nights" bson:"nights"`
	Rate               float64       `json:"rate" bson:"rate"`
	Amount             float64       `json:"amount" bson:"amount"`
	Guests             GuestCounts   `json:"guests" bson:"guests"`
	AdvancePayment     float64       `json:"advance_payment" bson:"advance_payment"`
	PaymentMethod      string        `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	Folio              Folio         `json:"folio" bson:"folio"`
	CheckedInAt        *time.Time    `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	ActualCheckOutDate *time.Time    `json:"actual_check_out_date,omitempty" bson:"actual_check_out_date,omitempty"`
	InvoiceID          string        `json:"invoice_id,omitempty" bson:"invoice_id,omitempty"`
	InvoiceNumber      string        `json:"invoice_number,omitempty" bson:"invoice_number,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at"`
}

// AssignedRoom returns the room id when the booking has one.
func (b *Booking) AssignedRoom() (string, bool) {
	if b.RoomID == nil || *b.RoomID == "" {
		return "", false
	}
	return *b.RoomID, true
}

// OnRoom reports whether the booking is assigned to roomID.
func (b *Booking) OnRoom(roomID string) bool {
	id, ok := b.AssignedRoom()
	return ok && id == roomID
}

// Reprice recomputes nights, amount and the folio from the stay dates and rate.
func (b *Booking) Reprice() {
	b.Nights = NightsBetween(b.CheckInDate, b.CheckOutDate)
	b.Amount = roundMoney(b.Rate * float64(b.Nights))
	b.Folio.Recompute(b.Amount, b.AdvancePayment)
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.RoomID != nil {
		id := *b.RoomID
		c.RoomID = &id
	}
	if b.CheckedInAt != nil {
		t := *b.CheckedInAt
		c.CheckedInAt = &t
	}
	if b.ActualCheckOutDate != nil {
		t := *b.ActualCheckOutDate
		c.ActualCheckOutDate = &t
	}
	c.Folio = b.Folio.Clone()
	return &c
}

// CreateBookingRequest is the inbound shape for a new reservation. Dates are
// calendar dates in the property's time zone.
type CreateBookingRequest struct {
	Guest          Guest       `json:"guest" validate:"required"`
	RoomID         string      `json:"room_id,omitempty" validate:"omitempty,max=64"`
	RoomType       string      `json:"room_type,omitempty" validate:"required_without=RoomID,omitempty,min=2,max=50"`
	CheckInDate    string      `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate   string      `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	Rate           float64     `json:"rate" validate:"min=0"`
	Guests         GuestCounts `json:"guests" validate:"required"`
	AdvancePayment float64     `json:"advance_payment" validate:"min=0"`
	PaymentMethod  string      `json:"payment_method,omitempty" validate:"omitempty,oneof=cash card upi bank_transfer online"`
}

type BookingUpdate struct {
	Guest        *Guest       `json:"guest,omitempty" validate:"omitempty"`
	RoomID       *string      `json:"room_id,omitempty" validate:"omitempty,max=64"`
	CheckInDate  *string      `json:"check_in_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOutDate *string      `json:"check_out_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Rate         *float64     `json:"rate,omitempty" validate:"omitempty,min=0"`
	Guests       *GuestCounts `json:"guests,omitempty" validate:"omitempty"`
}

type CancelOptions struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
	// Administrative allows cancelling a checked-in stay. Front-desk flows never set it.
	Administrative bool `json:"administrative,omitempty"`
}

// DateOf returns the calendar date of t in loc, as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// NightsBetween is the ceiling of the day difference, never less than one.
func NightsBetween(checkIn, checkOut time.Time) int {
	n := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
	if n < 1 {
		return 1
	}
	return n
}

// AtLocalTime places a calendar date at hh:mm in loc.
func AtLocalTime(date time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
