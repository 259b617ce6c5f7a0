package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWithDetails_Merges(t *testing.T) {
	err := InvalidTransition("Booking", "b1", "Reserved", "check out").
		WithDetails(map[string]any{"reservation_number": "RES-000001"})

	if err.Details["status"] != "Reserved" {
		t.Errorf("existing detail lost: %v", err.Details)
	}
	if err.Details["reservation_number"] != "RES-000001" {
		t.Errorf("new detail missing: %v", err.Details)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "Room not found"},
			expected: "NOT_FOUND: Room not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "failed to persist booking",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: failed to persist booking (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFoundWithID("Booking", "b1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad dates", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad json"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("room taken"), CodeConflict, http.StatusConflict},
		{"transition", InvalidTransition("Booking", "b1", "Reserved", "check out"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"too large", TooLarge(1024), CodeTooLarge, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.status)
			}
		})
	}
}

func TestInvalidTransition_Details(t *testing.T) {
	err := InvalidTransition("Booking", "b1", "Reserved", "check out")

	if err.Message != "cannot check out Booking in status Reserved" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["status"] != "Reserved" {
		t.Errorf("expected status detail, got %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFoundWithID("Room", "r1")
	regularErr := errors.New("regular error")

	if result := AsAppError(appErr); result != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	wrapped := fmt.Errorf("sync: %w", appErr)
	if result := AsAppError(wrapped); result != appErr {
		t.Errorf("AsAppError() should unwrap to the AppError")
	}
	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through wrapping")
	}

	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode(Conflict("x"), CodeConflict) {
		t.Error("expected conflict code")
	}
	if HasCode(Conflict("x"), CodeNotFound) {
		t.Error("unexpected not found code")
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Error("plain error has no code")
	}
}
