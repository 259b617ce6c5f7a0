package events

import (
	"context"
	"sync"
	"time"
)

const (
	BookingCreated    = "booking.created"
	BookingUpdated    = "booking.updated"
	BookingConfirmed  = "booking.confirmed"
	BookingCheckedIn  = "booking.checked_in"
	BookingCheckedOut = "booking.checked_out"
	BookingCancelled  = "booking.cancelled"
	BookingNoShow     = "booking.no_show"

	RoomOccupancyChanged    = "room.occupancy_changed"
	RoomHousekeepingChanged = "room.housekeeping_changed"

	TaskCreated = "housekeeping.task_created"
	TaskUpdated = "housekeeping.task_updated"

	SweepCompleted = "sweep.completed"
)

// Event is a domain fact published after the state it describes is persisted.
// Key selects the partition, so all events for one room stay ordered.
type Event struct {
	Type       string
	Key        string
	Payload    any
	OccurredAt time.Time
}

// Publisher never fails the caller. Implementations log delivery problems.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// StatusChange is the payload of the room status events.
type StatusChange struct {
	RoomID     string `json:"room_id"`
	RoomNumber string `json:"room_number"`
	Before     string `json:"before"`
	After      string `json:"after"`
	Source     string `json:"source"`
}

type nop struct{}

func Nop() Publisher { return nop{} }

func (nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events with the given type, in publish order.
func (r *Recorder) OfType(eventType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
