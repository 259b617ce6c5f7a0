package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roomsync/pkg/logger"
	"roomsync/pkg/model"
	"roomsync/pkg/sanitizer"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Stay is a parsed pair of stay dates.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("guest_phone", validateGuestPhone); err != nil {
		log.Fatal("Failed to register 'guest_phone' validator",
			"error", err,
		)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateGuestPhone(fl validator.FieldLevel) bool {
	return sanitizer.IsValidGuestPhone(fl.Field().String())
}

// ValidateCreate checks a reservation request against the calendar. today is
// the property's current date and maxStay the longest allowed stay in nights.
func (v *BookingValidator) ValidateCreate(req *model.CreateBookingRequest, today time.Time, maxStay int) (Stay, error) {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return Stay{}, translateValidationErrors(validationErrs)
		}
		return Stay{}, err
	}
	if err := v.validateGuest(&req.Guest); err != nil {
		return Stay{}, err
	}
	return ValidateStay(req.CheckInDate, req.CheckOutDate, today, maxStay)
}

// ValidateUpdate checks the shape of a partial update. Dates are checked by
// ValidateStay once merged with the stored booking.
func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	if update.Guest != nil {
		if err := v.validateGuest(update.Guest); err != nil {
			return err
		}
	}
	return nil
}

func (v *BookingValidator) ValidateFolioLine(line *model.FolioLine) error {
	return v.validateStruct(line)
}

func (v *BookingValidator) ValidatePayment(payment *model.Payment) error {
	return v.validateStruct(payment)
}

func (v *BookingValidator) ValidateCancel(opts *model.CancelOptions) error {
	return v.validateStruct(opts)
}

func (v *BookingValidator) validateGuest(g *model.Guest) error {
	if err := v.validate.Var(g.Phone, "guest_phone"); err != nil {
		return ValidationErrors{{
			Field:   "Phone",
			Message: "Phone must contain at least 10 digits",
		}}
	}
	return v.validateStruct(g)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateStay parses and checks stay dates: check-in before check-out,
// neither before today, at most maxStay nights.
func ValidateStay(checkIn, checkOut string, today time.Time, maxStay int) (Stay, error) {
	in, err := model.ParseDate(checkIn)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckInDate", Message: "check_in_date must be a YYYY-MM-DD date"}}
	}
	out, err := model.ParseDate(checkOut)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckOutDate", Message: "check_out_date must be a YYYY-MM-DD date"}}
	}
	stay := Stay{CheckIn: in, CheckOut: out}
	return stay, CheckStay(stay, today, maxStay)
}

// ValidateStayChange checks dates merged from an update. An unchanged
// check-in may lie in the past when the stay is under way; check-out is
// always held against today.
func ValidateStayChange(checkIn, checkOut string, checkInChanged bool, today time.Time, maxStay int) (Stay, error) {
	if checkInChanged {
		return ValidateStay(checkIn, checkOut, today, maxStay)
	}
	in, err := model.ParseDate(checkIn)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckInDate", Message: "check_in_date must be a YYYY-MM-DD date"}}
	}
	out, err := model.ParseDate(checkOut)
	if err != nil {
		return Stay{}, ValidationErrors{{Field: "CheckOutDate", Message: "check_out_date must be a YYYY-MM-DD date"}}
	}
	stay := Stay{CheckIn: in, CheckOut: out}
	return stay, checkStay(stay, today, false, maxStay)
}

func CheckStay(stay Stay, today time.Time, maxStay int) error {
	return checkStay(stay, today, true, maxStay)
}

func checkStay(stay Stay, today time.Time, checkInFromToday bool, maxStay int) error {
	var errs ValidationErrors
	if !stay.CheckIn.Before(stay.CheckOut) {
		errs = append(errs, ValidationError{Field: "CheckOutDate", Message: "check_out_date must be after check_in_date"})
	}
	if checkInFromToday && stay.CheckIn.Before(today) {
		errs = append(errs, ValidationError{Field: "CheckInDate", Message: "check_in_date cannot be in the past"})
	}
	if stay.CheckOut.Before(today) {
		errs = append(errs, ValidationError{Field: "CheckOutDate", Message: "check_out_date cannot be in the past"})
	}
	if nights := model.NightsBetween(stay.CheckIn, stay.CheckOut); nights > maxStay {
		errs = append(errs, ValidationError{Field: "CheckOutDate", Message: fmt.Sprintf("stay of %d nights exceeds the maximum of %d", nights, maxStay)})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CheckCapacity compares the headcount with the room. Infants are not counted.
func CheckCapacity(guests model.GuestCounts, room *model.Room) error {
	if n := guests.Occupants(); n > room.MaxOccupancy {
		return ValidationErrors{{
			Field:   "Guests",
			Message: fmt.Sprintf("%d guests exceed room %s capacity of %d", n, room.Number, room.MaxOccupancy),
		}}
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required", "required_without":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
