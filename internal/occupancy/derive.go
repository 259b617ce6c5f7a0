package occupancy

import (
	"time"

	"roomsync/pkg/model"
)

// Derive computes the occupancy a room should have given the bookings that
// reference it. today is the property's calendar date at midnight UTC.
//
// BLOCKED and OUT_OF_SERVICE are staff decisions and are returned unchanged.
// A checked-in stay makes the room OCCUPIED. Otherwise a reserved or
// confirmed stay that has not ended yet makes it RESERVED.
func Derive(room *model.Room, bookings []*model.Booking, today time.Time) model.OccupancyStatus {
	if room.OccupancyStatus.IsManual() {
		return room.OccupancyStatus
	}

	reserved := false
	for _, b := range bookings {
		if b == nil || !b.OnRoom(room.ID) {
			continue
		}
		switch {
		case b.Status == model.BookingCheckedIn:
			return model.OccupancyOccupied
		case b.Status.IsUpcoming() && b.CheckOutDate.After(today):
			reserved = true
		}
	}

	if reserved {
		return model.OccupancyReserved
	}
	return model.OccupancyAvailable
}
