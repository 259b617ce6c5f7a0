package validator

import (
	"io"
	"testing"

	"roomsync/pkg/logger"
	"roomsync/pkg/model"
)

func TestValidateRoom(t *testing.T) {
	v := NewRoomValidator(logger.New(logger.Config{Output: io.Discard}))

	tests := []struct {
		name        string
		room        model.Room
		expectValid bool
		field       string
	}{
		{"valid", model.Room{Number: "101", RoomType: "Deluxe", MaxOccupancy: 2, Rate: 1500}, true, ""},
		{"missing number", model.Room{RoomType: "Deluxe", MaxOccupancy: 2}, false, "number"},
		{"zero capacity", model.Room{Number: "101", RoomType: "Deluxe"}, false, "max_occupancy"},
		{"short type", model.Room{Number: "101", RoomType: "D", MaxOccupancy: 2}, false, "room_type"},
		{"negative rate", model.Room{Number: "101", RoomType: "Deluxe", MaxOccupancy: 2, Rate: -1}, false, "rate"},
		{"bad number", model.Room{Number: "1 01", RoomType: "Deluxe", MaxOccupancy: 2}, false, "number"},
		{"dashed number", model.Room{Number: "B-12", RoomType: "Deluxe", MaxOccupancy: 2}, true, ""},
		{"unknown housekeeping", model.Room{Number: "101", RoomType: "Deluxe", MaxOccupancy: 2, HousekeepingStatus: "SPARKLING"}, false, "housekeeping_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := tt.room
			err := v.ValidateRoom(&room)
			if tt.expectValid {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			errs, ok := err.(ValidationErrors)
			if !ok {
				t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
			}
			if errs[0].Field != tt.field {
				t.Errorf("field = %s, want %s", errs[0].Field, tt.field)
			}
		})
	}
}
