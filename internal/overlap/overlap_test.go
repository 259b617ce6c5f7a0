package overlap

import (
	"testing"
	"time"

	"roomsync/pkg/model"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func booking(id, room, in, out string, status model.BookingStatus) *model.Booking {
	return &model.Booking{
		ID:                id,
		ReservationNumber: "RES-" + id,
		RoomID:            &room,
		CheckInDate:       day(in),
		CheckOutDate:      day(out),
		Status:            status,
	}
}

func TestFind(t *testing.T) {
	existing := []*model.Booking{
		booking("1", "101", "2025-12-10", "2025-12-12", model.BookingReserved),
		booking("2", "101", "2025-12-20", "2025-12-22", model.BookingCancelled),
		booking("3", "102", "2025-12-10", "2025-12-15", model.BookingCheckedIn),
		booking("4", "101", "2025-12-14", "2025-12-16", model.BookingConfirmed),
	}

	tests := []struct {
		name      string
		room      string
		in, out   string
		exclude   string
		wantID    string
		wantFound bool
	}{
		{"partial overlap", "101", "2025-12-11", "2025-12-13", "", "1", true},
		{"contained", "101", "2025-12-14", "2025-12-15", "", "4", true},
		{"enclosing reports earliest", "101", "2025-12-09", "2025-12-20", "", "1", true},
		{"back to back checkout day", "101", "2025-12-12", "2025-12-14", "", "", false},
		{"back to back checkin day", "101", "2025-12-08", "2025-12-10", "", "", false},
		{"cancelled booking ignored", "101", "2025-12-20", "2025-12-22", "", "", false},
		{"other room ignored", "101", "2025-12-12", "2025-12-14", "", "", false},
		{"excluded self", "101", "2025-12-10", "2025-12-13", "1", "", false},
		{"checked in counts", "102", "2025-12-14", "2025-12-16", "", "3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Find(existing, tt.room, day(tt.in), day(tt.out), tt.exclude)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestFind_UnassignedBookingsNeverConflict(t *testing.T) {
	unassigned := &model.Booking{
		ID:           "9",
		CheckInDate:  day("2025-12-10"),
		CheckOutDate: day("2025-12-12"),
		Status:       model.BookingReserved,
	}
	_, found := Find([]*model.Booking{unassigned}, "101", day("2025-12-10"), day("2025-12-12"), "")
	assert.False(t, found)
}
