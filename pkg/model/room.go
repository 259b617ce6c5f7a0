package model

import "time"

// OccupancyStatus says who or what currently claims a room.
type OccupancyStatus string

const (
	OccupancyAvailable    OccupancyStatus = "AVAILABLE"
	OccupancyOccupied     OccupancyStatus = "OCCUPIED"
	OccupancyReserved     OccupancyStatus = "RESERVED"
	OccupancyBlocked      OccupancyStatus = "BLOCKED"
	OccupancyOutOfService OccupancyStatus = "OUT_OF_SERVICE"
)

// IsManual reports whether the status was set by staff and is therefore
// excluded from automatic recomputation.
func (s OccupancyStatus) IsManual() bool {
	return s == OccupancyBlocked || s == OccupancyOutOfService
}

func (s OccupancyStatus) Valid() bool {
	switch s {
	case OccupancyAvailable, OccupancyOccupied, OccupancyReserved, OccupancyBlocked, OccupancyOutOfService:
		return true
	}
	return false
}

// HousekeepingStatus is the cleanliness axis of a room, independent of occupancy.
type HousekeepingStatus string

const (
	HousekeepingClean       HousekeepingStatus = "CLEAN"
	HousekeepingDirty       HousekeepingStatus = "DIRTY"
	HousekeepingInspected   HousekeepingStatus = "INSPECTED"
	HousekeepingPickup      HousekeepingStatus = "PICKUP"
	HousekeepingMaintenance HousekeepingStatus = "MAINTENANCE"
)

// BlocksBooking reports whether a room in this state may not take a new reservation.
func (s HousekeepingStatus) BlocksBooking() bool {
	return s == HousekeepingDirty || s == HousekeepingMaintenance
}

func (s HousekeepingStatus) Valid() bool {
	switch s {
	case HousekeepingClean, HousekeepingDirty, HousekeepingInspected, HousekeepingPickup, HousekeepingMaintenance:
		return true
	}
	return false
}

type Room struct {
	ID                 string             `json:"id,omitempty" bson:"_id,omitempty"`
	Number             string             `json:"number" bson:"number" validate:"required,max=20,room_number"`
	RoomType           string             `json:"room_type" bson:"room_type" validate:"required,min=2,max=50"`
	Floor              string             `json:"floor,omitempty" bson:"floor,omitempty" validate:"omitempty,max=10"`
	MaxOccupancy       int                `json:"max_occupancy" bson:"max_occupancy" validate:"required,min=1,max=20"`
	Rate               float64            `json:"rate" bson:"rate" validate:"min=0"`
	OccupancyStatus    OccupancyStatus    `json:"occupancy_status" bson:"occupancy_status"`
	HousekeepingStatus HousekeepingStatus `json:"housekeeping_status,omitempty" bson:"housekeeping_status,omitempty"`
	// LegacyStatus is the single combined status column rooms carried before the
	// two axes were split. Only read when HousekeepingStatus is unset.
	LegacyStatus string    `json:"-" bson:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// RoomStatus is the read model returned for a single room.
type RoomStatus struct {
	Room             *Room               `json:"room"`
	CurrentBooking   *Booking            `json:"current_booking,omitempty"`
	UpcomingBookings []*Booking          `json:"upcoming_bookings"`
	ActiveTasks      []*HousekeepingTask `json:"active_tasks"`
}
