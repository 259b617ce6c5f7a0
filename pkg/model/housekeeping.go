package model

import "time"

type TaskType string

const (
	TaskCleaning    TaskType = "CLEANING"
	TaskInspection  TaskType = "INSPECTION"
	TaskMaintenance TaskType = "MAINTENANCE"
	TaskTurndown    TaskType = "TURNDOWN"
	TaskDeepClean   TaskType = "DEEP_CLEAN"
	TaskLaundry     TaskType = "LAUNDRY"
)

// IsCleaningFamily reports whether an open task of this type leaves the room dirty.
func (t TaskType) IsCleaningFamily() bool {
	switch t {
	case TaskCleaning, TaskDeepClean, TaskTurndown, TaskLaundry:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskVerified   TaskStatus = "VERIFIED"
	TaskRejected   TaskStatus = "REJECTED"
)

// IsActive reports whether the task still has work outstanding.
func (s TaskStatus) IsActive() bool {
	return s == TaskPending || s == TaskInProgress
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// TaskSource records what created the task.
type TaskSource string

const (
	SourceManual   TaskSource = "manual"
	SourceCheckIn  TaskSource = "check_in"
	SourceCheckOut TaskSource = "check_out"
	SourceSweep    TaskSource = "sweep"
	SourceRework   TaskSource = "rework"
)

type HousekeepingTask struct {
	ID          string       `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID      string       `json:"room_id" bson:"room_id"`
	RoomNumber  string       `json:"room_number" bson:"room_number"`
	Type        TaskType     `json:"type" bson:"type"`
	Status      TaskStatus   `json:"status" bson:"status"`
	Priority    TaskPriority `json:"priority" bson:"priority"`
	Score       int          `json:"score" bson:"score"`
	Source      TaskSource   `json:"source" bson:"source"`
	BookingID   string       `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	Notes       string       `json:"notes,omitempty" bson:"notes,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	VerifiedAt  *time.Time   `json:"verified_at,omitempty" bson:"verified_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

func (t *HousekeepingTask) Clone() *HousekeepingTask {
	if t == nil {
		return nil
	}
	c := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.VerifiedAt != nil {
		v := *t.VerifiedAt
		c.VerifiedAt = &v
	}
	return &c
}

type CreateTaskRequest struct {
	RoomID    string       `json:"room_id" validate:"required,max=64"`
	Type      TaskType     `json:"type" validate:"required,oneof=CLEANING INSPECTION MAINTENANCE TURNDOWN DEEP_CLEAN LAUNDRY"`
	Priority  TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	BookingID string       `json:"booking_id,omitempty" validate:"omitempty,max=64"`
	Notes     string       `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type TaskFilter struct {
	RoomID     string
	Statuses   []TaskStatus
	ActiveOnly bool
}
