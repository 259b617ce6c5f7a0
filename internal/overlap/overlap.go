// Package overlap decides whether a stay collides with bookings already
// holding the same room. Ranges are half-open, [checkIn, checkOut), so a
// guest may check out on the day the next one checks in.
package overlap

import (
	"time"

	"roomsync/pkg/model"
)

// Overlaps reports whether [start1, end1) and [start2, end2) share any instant.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

// Find returns the first booking in existing that claims roomID during
// [checkIn, checkOut). Terminal bookings and excludeID are ignored. existing
// is expected in check-in order, so the reported conflict is the earliest.
func Find(existing []*model.Booking, roomID string, checkIn, checkOut time.Time, excludeID string) (*model.Booking, bool) {
	for _, b := range existing {
		if b == nil || b.Status.IsTerminal() {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !b.OnRoom(roomID) {
			continue
		}
		if Overlaps(checkIn, checkOut, b.CheckInDate, b.CheckOutDate) {
			return b, true
		}
	}
	return nil, false
}
