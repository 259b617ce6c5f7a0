package model

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{"two nights", date("2025-12-10"), date("2025-12-12"), 2},
		{"same day clamps to one", date("2025-12-10"), date("2025-12-10"), 1},
		{"partial day rounds up", date("2025-12-10"), date("2025-12-11").Add(3 * time.Hour), 2},
		{"reversed clamps to one", date("2025-12-12"), date("2025-12-10"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NightsBetween(tt.checkIn, tt.checkOut); got != tt.want {
				t.Errorf("NightsBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFolio_BalanceIdentity(t *testing.T) {
	tests := []struct {
		name        string
		folio       Folio
		roomCharge  float64
		advance     float64
		wantTotal   float64
		wantBalance float64
	}{
		{
			name:        "room charge only",
			roomCharge:  3000,
			advance:     500,
			wantTotal:   3000,
			wantBalance: 2500,
		},
		{
			name: "posted rent line replaces room charge",
			folio: Folio{Lines: []FolioLine{
				{Description: "Room rent", Amount: 3000, Type: FolioRoomRent},
			}},
			roomCharge:  3000,
			wantTotal:   3000,
			wantBalance: 3000,
		},
		{
			name: "extra lines with tax and payments",
			folio: Folio{
				Lines: []FolioLine{
					{Description: "Dinner", Amount: 1000, Type: FolioFoodBeverage, Taxes: []LineTax{{Name: "CGST", Amount: 25}, {Name: "SGST", Amount: 25}}},
				},
				Payments: []Payment{{Method: "card", Amount: 2000}},
			},
			roomCharge:  3000,
			advance:     500,
			wantTotal:   4050,
			wantBalance: 1550,
		},
		{
			name:        "overpayment leaves guest in credit",
			folio:       Folio{Payments: []Payment{{Method: "cash", Amount: 2000}}},
			roomCharge:  1500,
			advance:     500,
			wantTotal:   1500,
			wantBalance: -1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.folio
			f.Recompute(tt.roomCharge, tt.advance)
			if f.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", f.Total, tt.wantTotal)
			}
			if f.Balance != tt.wantBalance {
				t.Errorf("Balance = %v, want %v", f.Balance, tt.wantBalance)
			}
			if f.Balance != f.Total-f.PaymentsTotal()-tt.advance {
				t.Errorf("balance identity broken: %v != %v - %v - %v", f.Balance, f.Total, f.PaymentsTotal(), tt.advance)
			}
		})
	}
}

func TestBooking_Reprice(t *testing.T) {
	b := &Booking{
		CheckInDate:    date("2025-12-10"),
		CheckOutDate:   date("2025-12-12"),
		Rate:           1500,
		AdvancePayment: 500,
	}
	b.Reprice()

	if b.Nights != 2 {
		t.Errorf("Nights = %d, want 2", b.Nights)
	}
	if b.Amount != 3000 {
		t.Errorf("Amount = %v, want 3000", b.Amount)
	}
	if b.Folio.Balance != 2500 {
		t.Errorf("Folio.Balance = %v, want 2500", b.Folio.Balance)
	}
}

func TestBooking_CloneIsDeep(t *testing.T) {
	roomID := "room-1"
	orig := &Booking{
		RoomID: &roomID,
		Folio:  Folio{Lines: []FolioLine{{Description: "Minibar", Amount: 10, Type: FolioMinibar}}},
	}
	c := orig.Clone()
	*c.RoomID = "room-2"
	c.Folio.Lines[0].Amount = 99

	if *orig.RoomID != "room-1" {
		t.Errorf("clone shares RoomID pointer")
	}
	if orig.Folio.Lines[0].Amount != 10 {
		t.Errorf("clone shares folio lines")
	}
}

func TestStatusPredicates(t *testing.T) {
	terminal := []BookingStatus{BookingCheckedOut, BookingCancelled, BookingNoShow}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []BookingStatus{BookingReserved, BookingConfirmed, BookingCheckedIn} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}

	if !OccupancyBlocked.IsManual() || !OccupancyOutOfService.IsManual() {
		t.Error("blocked and out-of-service must be manual")
	}
	if OccupancyReserved.IsManual() {
		t.Error("reserved must not be manual")
	}

	for _, tt := range []TaskType{TaskCleaning, TaskDeepClean, TaskTurndown, TaskLaundry} {
		if !tt.IsCleaningFamily() {
			t.Errorf("%s should be cleaning family", tt)
		}
	}
	if TaskInspection.IsCleaningFamily() || TaskMaintenance.IsCleaningFamily() {
		t.Error("inspection and maintenance are not cleaning family")
	}
}

func TestCreateBookingRequest_Tags(t *testing.T) {
	v := validator.New()

	valid := CreateBookingRequest{
		Guest:        Guest{Name: "Asha Rao", Phone: "+919876543210", Email: "asha@example.com"},
		RoomType:     "Deluxe",
		CheckInDate:  "2025-12-10",
		CheckOutDate: "2025-12-12",
		Guests:       GuestCounts{Adults: 2},
	}

	tests := []struct {
		name        string
		mutate      func(r *CreateBookingRequest)
		expectValid bool
	}{
		{"valid", func(r *CreateBookingRequest) {}, true},
		{"room id instead of type", func(r *CreateBookingRequest) { r.RoomType = ""; r.RoomID = "abc" }, true},
		{"neither room nor type", func(r *CreateBookingRequest) { r.RoomType = "" }, false},
		{"bad email", func(r *CreateBookingRequest) { r.Guest.Email = "not-an-email" }, false},
		{"zero adults", func(r *CreateBookingRequest) { r.Guests.Adults = 0 }, false},
		{"negative children", func(r *CreateBookingRequest) { r.Guests.Children = -1 }, false},
		{"bad date", func(r *CreateBookingRequest) { r.CheckInDate = "10/12/2025" }, false},
		{"unknown payment method", func(r *CreateBookingRequest) { r.PaymentMethod = "barter" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := v.Struct(req)
			if tt.expectValid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.expectValid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
